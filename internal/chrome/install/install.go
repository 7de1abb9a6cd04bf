// Package install registers a native messaging host with Chrome.
package install

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
)

// HostName is the registered name of the Everything native messaging host.
const HostName = "com.everythingeverywhere.host"

// Manifest models the Chrome native messaging host manifest JSON.
//
// See the official Chrome documentation at:
// https://developer.chrome.com/docs/extensions/develop/concepts/native-messaging#native-messaging-host
type Manifest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Path           string   `json:"path"`
	Typ            string   `json:"type"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// manifestType is the (only supported) value for the "type" field in the
// manifest.
const manifestType = "stdio"

var (
	hostNamePattern    = regexp.MustCompile(`^([a-z0-9_]+)(\.[a-z0-9_]+)*$`)
	extensionIDPattern = regexp.MustCompile(`^[a-p]{32}$`)
)

// ValidName reports whether name is acceptable to Chrome as a host name.
func ValidName(name string) bool {
	return hostNamePattern.MatchString(name)
}

// ExtensionOrigin returns the allowed-origin URL for a Chrome extension ID.
func ExtensionOrigin(id string) (string, error) {
	if !extensionIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid extension ID %q", id)
	}
	return "chrome-extension://" + id + "/", nil
}

// Validate checks the fields Chrome requires.
func (m Manifest) Validate() error {
	if !ValidName(m.Name) {
		return fmt.Errorf("invalid host name %q", m.Name)
	}
	if !filepath.IsAbs(m.Path) {
		return fmt.Errorf("host path %q is not absolute", m.Path)
	}
	if len(m.AllowedOrigins) == 0 {
		return errors.New("at least one allowed origin is required")
	}
	for _, o := range m.AllowedOrigins {
		if u, err := url.Parse(o); err != nil || u.Scheme != "chrome-extension" || u.Host == "" {
			return fmt.Errorf("invalid allowed origin %q", o)
		}
	}
	return nil
}

// Marshal returns on-disk encoding of the manifest.
func (m Manifest) Marshal() ([]byte, error) {
	m.Typ = manifestType
	return json.MarshalIndent(m, "", "  ")
}

// Filename is the appropriate name for the manifest file (with no path).
func (m Manifest) Filename() string {
	return m.Name + ".json"
}

// install writes the serialized manifest buffer to the given path, creating
// its directory if needed.
func install(name string, buf []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf(`creating manifest directory: %w`, err)
	}
	if err := os.WriteFile(name, buf, 0644); err != nil {
		return fmt.Errorf(`writing manifest: %w`, err)
	}
	return nil
}

// remove deletes a manifest file; a missing file is not an error.
func remove(name string) error {
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf(`removing manifest: %w`, err)
	}
	return nil
}
