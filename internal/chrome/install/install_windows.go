package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

import "golang.org/x/sys/windows/registry"

// CurrentUser writes a Chrome manifest next to the host binary, and registers
// it in the Windows registry under HKEY_CURRENT_USER.
func CurrentUser(m Manifest) (string, error) {
	return writeManifestAndRegister(m, registry.CURRENT_USER)
}

// System writes a Chrome manifest next to the host binary, and registers it
// in the Windows registry under HKEY_LOCAL_MACHINE.
func System(m Manifest) (string, error) {
	return writeManifestAndRegister(m, registry.LOCAL_MACHINE)
}

// UninstallCurrentUser removes the HKEY_CURRENT_USER registration.
func UninstallCurrentUser(hostName string) error {
	return unregister(registry.CURRENT_USER, hostName)
}

// UninstallSystem removes the HKEY_LOCAL_MACHINE registration.
func UninstallSystem(hostName string) error {
	return unregister(registry.LOCAL_MACHINE, hostName)
}

func writeManifestAndRegister(m Manifest, root registry.Key) (string, error) {
	manifestPath, err := writeManifest(filepath.Dir(m.Path), m)
	if err != nil {
		return "", err
	}
	return manifestPath, register(root, m.Name, manifestPath)
}

func writeManifest(dir string, m Manifest) (string, error) {
	buf, err := m.Marshal()
	if err != nil {
		return "", err
	}

	manifestPath := filepath.Join(dir, m.Filename())
	if err = install(manifestPath, buf); err != nil {
		return "", err
	}

	return manifestPath, nil
}

// keyPath is the path under the registry root to register Chrome native
// messaging hosts.
const keyPath = `SOFTWARE\Google\Chrome\NativeMessagingHosts`

// register registers the native messaging host in the Windows registry.
func register(root registry.Key, name string, manifestPath string) error {
	p := fmt.Sprintf(`%s\%s`, keyPath, name)
	k, _, err := registry.CreateKey(root, p, registry.CREATE_SUB_KEY|registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	return k.SetStringValue("", manifestPath)
}

// unregister deletes the registration and the manifest it points at.
func unregister(root registry.Key, name string) error {
	p := fmt.Sprintf(`%s\%s`, keyPath, name)
	k, err := registry.OpenKey(root, p, registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	manifestPath, _, valErr := k.GetStringValue("")
	k.Close()

	if err := registry.DeleteKey(root, p); err != nil {
		return err
	}
	if valErr == nil && manifestPath != "" {
		return remove(manifestPath)
	}
	return nil
}
