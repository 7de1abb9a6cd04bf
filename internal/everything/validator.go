// Package everything locates, checks and launches the voidtools Everything
// search program.
package everything

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

import (
	"github.com/sirupsen/logrus"

	"github.com/p00ya/chrome-everything-bridge/internal/hosterr"
)

// ExeName is the expected base name of the Everything executable.
const ExeName = "Everything.exe"

// diagnosticFlag is passed to a candidate executable to prove it starts.
const diagnosticFlag = "-version"

// DefaultValidateTimeout bounds the diagnostic run.
const DefaultValidateTimeout = 5 * time.Second

// Validator checks that a user-supplied path refers to Everything.
type Validator struct {
	// Timeout bounds the diagnostic run.  Zero means DefaultValidateTimeout.
	Timeout time.Duration

	log logrus.FieldLogger
}

// NewValidator returns a Validator with the default timeout.
func NewValidator(log logrus.FieldLogger) *Validator {
	return &Validator{Timeout: DefaultValidateTimeout, log: log}
}

// Validate reports whether path names an existing file called Everything.exe
// (in any case) that can be started.
func (v *Validator) Validate(path string) bool {
	if err := v.Check(path); err != nil {
		v.log.WithField("path", path).WithError(err).Debug("Rejected candidate")
		return false
	}
	return true
}

// Check is Validate with the reason: it returns a hosterr.Validation error
// if path is unusable, or nil.
func (v *Validator) Check(path string) error {
	if path == "" {
		return hosterr.New(hosterr.Validation, "empty path")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return hosterr.Wrap(err, hosterr.Validation, "candidate does not exist")
	}
	if !fi.Mode().IsRegular() {
		return hosterr.New(hosterr.Validation, "candidate is not a regular file")
	}
	if !strings.EqualFold(filepath.Base(path), ExeName) {
		return hosterr.New(hosterr.Validation, "candidate is not named %s", ExeName)
	}
	if err := v.run(path); err != nil {
		return hosterr.Wrap(err, hosterr.Validation, "diagnostic run failed")
	}
	return nil
}

// run invokes the executable with diagnosticFlag.  An exit status other than
// zero still proves the program starts.
func (v *Validator) run(path string) error {
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = DefaultValidateTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Nil stdio streams are connected to the null device.
	cmd := exec.CommandContext(ctx, path, diagnosticFlag)
	err := cmd.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
