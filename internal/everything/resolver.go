package everything

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

import (
	"github.com/sirupsen/logrus"

	"github.com/p00ya/chrome-everything-bridge/internal/config"
	"github.com/p00ya/chrome-everything-bridge/internal/hosterr"
)

// EnvPath is the environment variable naming Everything.exe directly.
const EnvPath = "EVERYTHING_PATH"

// ConfigLoader returns the persisted configuration.
type ConfigLoader interface {
	Load() config.Configuration
}

// PathValidator checks a candidate executable.
type PathValidator interface {
	Validate(path string) bool
}

// Default search locations.  Entries may contain %VAR% references.
var (
	DefaultProgramRoots = []string{
		`%ProgramFiles%`,
		`%ProgramFiles(x86)%`,
		`%ProgramW6432%`,
		`C:\Program Files`,
		`C:\Program Files (x86)`,
	}

	DefaultProductDirs = []string{
		`Everything 1.5a`,
		`Everything`,
		`Everything 1.4`,
		`voidtools\Everything`,
	}

	DefaultCommonDirs = []string{
		`%LOCALAPPDATA%\Everything`,
		`%LOCALAPPDATA%\Programs\Everything`,
		`%APPDATA%\Everything`,
		`%USERPROFILE%\Everything`,
		`%USERPROFILE%\PortableApps\Everything`,
		`%USERPROFILE%\scoop\apps\everything\current`,
		`C:\Tools\Everything`,
		`C:\Everything`,
	}
)

// Resolver finds Everything.exe.  Nothing is cached: every call re-examines
// the configuration and the filesystem.
type Resolver struct {
	Config    ConfigLoader
	Validator PathValidator

	ProgramRoots []string
	ProductDirs  []string
	CommonDirs   []string

	// LookupEnv, LookPath and Registry are replaceable for tests.
	LookupEnv func(string) (string, bool)
	LookPath  func(string) (string, error)
	Registry  func() []string

	log logrus.FieldLogger
}

// NewResolver returns a Resolver searching the default locations.
func NewResolver(cfg ConfigLoader, v PathValidator, log logrus.FieldLogger) *Resolver {
	return &Resolver{
		Config:       cfg,
		Validator:    v,
		ProgramRoots: DefaultProgramRoots,
		ProductDirs:  DefaultProductDirs,
		CommonDirs:   DefaultCommonDirs,
		LookupEnv:    os.LookupEnv,
		LookPath:     exec.LookPath,
		Registry:     registryCandidates,
		log:          log,
	}
}

// Resolve returns the best path to Everything.exe, or false if there is none.
func (r *Resolver) Resolve() (string, bool) {
	p, err := r.Find()
	if err != nil {
		r.log.WithError(err).Error("Resolving Everything")
		return "", false
	}
	return p, true
}

// Find is Resolve with the reason for a miss, a hosterr.Resolution error.
//
// A saved override wins if it still validates.  Otherwise the environment
// override, the conventional install directories, the common user
// directories, the search path and (on Windows) the uninstall registry are
// tried in that order, and the first existing file is returned.
func (r *Resolver) Find() (string, error) {
	if p := r.Config.Load().EverythingPath; p != "" {
		if r.Validator.Validate(p) {
			r.log.Debugf("Using configured Everything at %s", p)
			return p, nil
		}
		r.log.Warnf("Configured Everything path %s is no longer valid", p)
	}

	for _, source := range r.sources() {
		for _, p := range source.candidates() {
			if exists(p) {
				r.log.Infof("Found Everything at %s (%s)", p, source.name)
				return p, nil
			}
		}
	}

	return "", hosterr.New(hosterr.Resolution, "%s not found", ExeName)
}

// Available returns every candidate path, from every source, that exists.
// The result is in priority order and never nil.
func (r *Resolver) Available() []string {
	found := []string{}
	seen := make(map[string]struct{})
	add := func(p string) {
		if p == "" || !exists(p) {
			return
		}
		key := strings.ToLower(filepath.Clean(p))
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		found = append(found, p)
	}

	add(r.Config.Load().EverythingPath)
	for _, source := range r.sources() {
		for _, p := range source.candidates() {
			add(p)
		}
	}
	return found
}

// source is one discovery strategy.  candidates is evaluated lazily so that
// Resolve stops at the first hit without shelling out to later strategies.
type source struct {
	name       string
	candidates func() []string
}

func (r *Resolver) sources() []source {
	return []source{
		{"environment", r.envCandidates},
		{"install directory", r.installCandidates},
		{"user directory", r.commonCandidates},
		{"search path", r.pathCandidates},
		{"registry", r.registryCandidates},
	}
}

func (r *Resolver) envCandidates() []string {
	p, ok := r.lookupEnv(EnvPath)
	if !ok || p == "" {
		return nil
	}
	return []string{r.expand(p)}
}

func (r *Resolver) installCandidates() []string {
	var paths []string
	for _, root := range r.ProgramRoots {
		for _, dir := range r.ProductDirs {
			paths = append(paths, joinWindows(r.expand(root), dir, ExeName))
		}
	}
	return dedupe(paths)
}

func (r *Resolver) commonCandidates() []string {
	var paths []string
	for _, dir := range r.CommonDirs {
		paths = append(paths, joinWindows(r.expand(dir), ExeName))
	}
	return dedupe(paths)
}

func (r *Resolver) pathCandidates() []string {
	if r.LookPath == nil {
		return nil
	}
	p, err := r.LookPath(ExeName)
	if err != nil {
		return nil
	}
	return []string{p}
}

func (r *Resolver) registryCandidates() []string {
	if r.Registry == nil {
		return nil
	}
	return r.Registry()
}

func (r *Resolver) lookupEnv(key string) (string, bool) {
	if r.LookupEnv == nil {
		return os.LookupEnv(key)
	}
	return r.LookupEnv(key)
}

func (r *Resolver) expand(s string) string {
	return expandPercent(s, r.lookupEnv)
}

// joinWindows joins path elements written with backslashes so that the
// result uses the host's separator.
func joinWindows(elem ...string) string {
	for i := range elem {
		elem[i] = filepath.FromSlash(strings.ReplaceAll(elem[i], `\`, "/"))
	}
	return filepath.Join(elem...)
}

// dedupe drops repeated paths, comparing case-insensitively as Windows does.
func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0]
	for _, p := range paths {
		key := strings.ToLower(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// exists reports whether p names something other than a directory.
func exists(p string) bool {
	if p == "" {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
