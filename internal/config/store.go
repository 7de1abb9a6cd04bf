// Package config persists the user's Everything path override and loads the
// host's runtime settings.
//
// Both live in a single JSON document next to the host executable.  The Store
// owns the "everything_path" field and rewrites it in place; every other field
// is left untouched so that settings added by hand survive a set_path.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

import (
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/p00ya/chrome-everything-bridge/internal/hosterr"
)

// FileName is the name of the configuration document in the host directory.
const FileName = "config.json"

// pathKey is the field holding the override path.
const pathKey = "everything_path"

// Configuration is the persisted state used by the resolver.
type Configuration struct {
	// EverythingPath is the user-chosen path to Everything.exe, or empty.
	EverythingPath string
}

// Store reads and writes the configuration document.
type Store struct {
	path string
	log  logrus.FieldLogger
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string, log logrus.FieldLogger) *Store {
	return &Store{path: path, log: log}
}

// NewStoreIn returns a Store backed by FileName inside dir.
func NewStoreIn(dir string, log logrus.FieldLogger) *Store {
	return NewStore(filepath.Join(dir, FileName), log)
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load returns the current configuration.  A missing or malformed document
// yields the zero Configuration.
func (s *Store) Load() Configuration {
	buf, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		return Configuration{}
	case err != nil:
		s.log.WithError(err).Warnf("Reading config %s", s.path)
		return Configuration{}
	case !gjson.ValidBytes(buf):
		s.log.Warnf("Ignoring malformed config %s", s.path)
		return Configuration{}
	}

	v := gjson.GetBytes(buf, pathKey)
	if v.Type != gjson.String {
		return Configuration{}
	}
	return Configuration{EverythingPath: v.Str}
}

// Save records path as the override, preserving the document's other fields.
func (s *Store) Save(path string) error {
	buf, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return hosterr.Wrap(err, hosterr.Persistence, "reading %s", s.path)
	}
	if len(buf) == 0 || !gjson.ValidBytes(buf) || !gjson.ParseBytes(buf).IsObject() {
		buf = []byte("{}")
	}

	buf, err = sjson.SetBytes(buf, pathKey, path)
	if err != nil {
		return hosterr.Wrap(err, hosterr.Persistence, "encoding %s", s.path)
	}

	if err := writeFileAtomic(s.path, buf); err != nil {
		return hosterr.Wrap(err, hosterr.Persistence, "writing %s", s.path)
	}
	s.log.Infof("Saved Everything path %s to %s", path, s.path)
	return nil
}

// writeFileAtomic replaces name with buf via a temporary file in the same
// directory.
func writeFileAtomic(name string, buf []byte) error {
	dir := filepath.Dir(name)
	f, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(buf); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, name); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}
