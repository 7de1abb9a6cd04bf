package everything

import "syscall"

import "golang.org/x/sys/windows"

// detachedAttr gives the child no console and its own process group, so it
// outlives the host when Chrome closes the port.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.DETACHED_PROCESS | windows.CREATE_NEW_PROCESS_GROUP,
	}
}
