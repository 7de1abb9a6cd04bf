//go:build !windows

package everything

import "syscall"

// detachedAttr puts the child in its own session so it survives Chrome
// tearing down the host's process group.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
