// package main implements a Chrome native messaging host that opens the
// Everything search tool with text selected in the browser.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

import (
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/p00ya/chrome-everything-bridge/internal/bridge"
	"github.com/p00ya/chrome-everything-bridge/internal/chrome"
	"github.com/p00ya/chrome-everything-bridge/internal/config"
	"github.com/p00ya/chrome-everything-bridge/internal/everything"
	"github.com/p00ya/chrome-everything-bridge/internal/logging"
)

const (
	exitSuccess = 0
	exitFailure = 2
)

var errInteractive = errors.New("stdin is a terminal; this program is started by Chrome via native messaging")

// isTerminal is replaceable for tests.
var isTerminal = func(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// fileDescriptor is implemented by *os.File.
type fileDescriptor interface {
	Fd() uintptr
}

func newRootCommand() *cobra.Command {
	var dir string
	var parentWindow int

	cmd := &cobra.Command{
		Use:   "everything-host [ORIGIN]",
		Short: "Chrome native messaging host for the Everything search tool",
		Long: "everything-host is started by Chrome with the caller's extension origin as\n" +
			"its argument.  It reads length-prefixed JSON requests on stdin and writes\n" +
			"responses on stdout until Chrome closes the port.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				var err error
				if dir, err = executableDir(); err != nil {
					return err
				}
			}
			return run(dir, args, os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory holding config.json and the log (default: next to the executable)")
	// Chrome on Windows passes the handle of the calling window.
	cmd.Flags().IntVar(&parentWindow, "parent-window", 0, "Native window handle of the caller (set by Chrome)")
	_ = cmd.Flags().MarkHidden("parent-window")

	// stdout belongs to the protocol.
	cmd.SetOut(os.Stderr)
	cmd.SetErr(os.Stderr)
	return cmd
}

// run serves Chrome on stdin and stdout.  Nothing is read from stdin unless
// the caller's origin is allowed.
func run(dir string, args []string, stdin io.Reader, stdout io.Writer) error {
	if f, ok := stdin.(fileDescriptor); ok && isTerminal(f.Fd()) {
		return errInteractive
	}

	settings, settingsErr := config.LoadSettings(dir)
	log, closeLog := logging.New(logging.Options{
		Level: settings.LogLevel,
		File:  settings.LogFile,
	})
	defer closeLog()
	if settingsErr != nil {
		log.WithError(settingsErr).Warn("Using default settings")
	}

	origin := callerOrigin(args)
	log.WithField("origin", origin).Debugf("Started with args %q", args)
	if !settings.OriginAllowed(origin) {
		log.Errorf("Origin %q is not allowed", origin)
		return fmt.Errorf("origin %q is not allowed", origin)
	}

	store := config.NewStoreIn(dir, log)
	validator := everything.NewValidator(log)
	validator.Timeout = settings.ValidateTimeout
	resolver := everything.NewResolver(store, validator, log)
	launcher := everything.NewLauncher(log)
	dispatcher := bridge.NewDispatcher(resolver, validator, store, launcher, log)

	host := chrome.NewHost(stdin, stdout)
	host.SetMaxMessageBytes(settings.MaxMessageBytes)
	return dispatcher.Serve(host)
}

// executableDir returns the directory containing the running binary, with
// symlinks resolved.
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
	os.Exit(exitSuccess)
}
