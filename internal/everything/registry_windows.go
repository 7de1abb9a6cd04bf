package everything

import (
	"path/filepath"
)

import "golang.org/x/sys/windows/registry"

// uninstallKeys are the uninstall entries written by the Everything installers.
var uninstallKeys = []string{
	`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\Everything`,
	`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\Everything 1.5a`,
}

// registryCandidates returns Everything.exe inside every InstallLocation
// recorded in the uninstall registry, in both the 64- and 32-bit views.
func registryCandidates() []string {
	var paths []string
	for _, root := range []registry.Key{registry.LOCAL_MACHINE, registry.CURRENT_USER} {
		for _, view := range []uint32{registry.WOW64_64KEY, registry.WOW64_32KEY} {
			for _, key := range uninstallKeys {
				if dir, ok := installLocation(root, key, view); ok {
					paths = append(paths, filepath.Join(dir, ExeName))
				}
			}
		}
	}
	return dedupe(paths)
}

func installLocation(root registry.Key, path string, view uint32) (string, bool) {
	k, err := registry.OpenKey(root, path, registry.QUERY_VALUE|view)
	if err != nil {
		return "", false
	}
	defer k.Close()

	dir, _, err := k.GetStringValue("InstallLocation")
	if err != nil || dir == "" {
		return "", false
	}
	return dir, true
}
