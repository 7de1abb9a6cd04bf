//go:build darwin || linux

package install

import (
	"os/user"
	"path/filepath"
)

// CurrentUser installs the manifest for the calling user and returns where it
// was written.
func CurrentUser(m Manifest) (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return User(m, usr.HomeDir)
}

// User creates and installs a Chrome manifest to a user-specific
// directory.
func User(m Manifest, homeDir string) (string, error) {
	buf, err := m.Marshal()
	if err != nil {
		return "", err
	}
	name := filepath.Join(homeDir, userSubDir, m.Filename())
	return name, install(name, buf)
}

// System creates and installs a Chrome manifest to the system-wide
// directory.
func System(m Manifest) (string, error) {
	buf, err := m.Marshal()
	if err != nil {
		return "", err
	}
	name := filepath.Join(systemDir, m.Filename())
	return name, install(name, buf)
}

// UninstallCurrentUser removes the named host's manifest for the calling
// user.
func UninstallCurrentUser(hostName string) error {
	usr, err := user.Current()
	if err != nil {
		return err
	}
	return UninstallUser(hostName, usr.HomeDir)
}

// UninstallUser removes the named host's manifest from a user-specific
// directory.
func UninstallUser(hostName string, homeDir string) error {
	return remove(filepath.Join(homeDir, userSubDir, Manifest{Name: hostName}.Filename()))
}

// UninstallSystem removes the named host's manifest from the system-wide
// directory.
func UninstallSystem(hostName string) error {
	return remove(filepath.Join(systemDir, Manifest{Name: hostName}.Filename()))
}
