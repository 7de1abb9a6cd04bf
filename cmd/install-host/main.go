// package main implements a command-line utility for registering the
// Everything native messaging host with Chrome.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/p00ya/chrome-everything-bridge/internal/chrome/install"
)

const (
	exitSuccess      = 0
	exitInvalidUsage = 1
	exitFailure      = 2
)

const defaultDescription = "Opens the Everything search tool from Chrome"

var (
	okText   = color.New(color.FgGreen).SprintFunc()
	warnText = color.New(color.FgYellow).SprintFunc()
	errText  = color.New(color.FgRed, color.Bold).SprintFunc()
)

type usageError struct{ error }

type installOptions struct {
	system       bool
	name         string
	description  string
	origins      []string
	extensionIDs []string
}

// allowedOrigins merges explicit origins with those built from extension IDs.
func (o installOptions) allowedOrigins() ([]string, error) {
	origins := append([]string(nil), o.origins...)
	for _, id := range o.extensionIDs {
		origin, err := install.ExtensionOrigin(id)
		if err != nil {
			return nil, err
		}
		origins = append(origins, origin)
	}
	return origins, nil
}

// manifest builds the manifest for the host binary.
func (o installOptions) manifest(binary string) (install.Manifest, error) {
	origins, err := o.allowedOrigins()
	if err != nil {
		return install.Manifest{}, usageError{err}
	}
	absPath, err := filepath.Abs(binary)
	if err != nil {
		return install.Manifest{}, fmt.Errorf("resolving absolute path to %s: %w", binary, err)
	}
	m := install.Manifest{
		Name:           o.name,
		Description:    o.description,
		Path:           absPath,
		AllowedOrigins: origins,
	}
	if err := m.Validate(); err != nil {
		return install.Manifest{}, usageError{err}
	}
	return m, nil
}

func newRootCommand() *cobra.Command {
	var opts installOptions

	cmd := &cobra.Command{
		Use:           "install-host [--system] [-o ORIGIN]... [--extension-id ID]... BINARY",
		Short:         "Register the Everything native messaging host with Chrome",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			binary := args[0]
			switch fi, err := os.Stat(binary); {
			case err != nil:
				fmt.Fprintf(cmd.ErrOrStderr(), "%s accessing binary: %v\n", warnText("Warning:"), err)
			case fi.Mode()&0100 == 0:
				fmt.Fprintf(cmd.ErrOrStderr(), "%s binary %s is not executable\n", warnText("Warning:"), binary)
			}

			m, err := opts.manifest(binary)
			if err != nil {
				return err
			}

			var where string
			if opts.system {
				where, err = install.System(m)
			} else {
				where, err = install.CurrentUser(m)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s manifest for %s to %s\n", okText("Wrote"), m.Name, where)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVar(&opts.system, "system", false, "Install system-wide (instead of for current user)")
	flags.StringVarP(&opts.name, "name", "n", install.HostName, "Host name")
	cmd.Flags().StringVarP(&opts.description, "description", "d", defaultDescription, "Host description")
	cmd.Flags().StringArrayVarP(&opts.origins, "origin", "o", nil, "Allowed-origin URL.  Repeat flag for multiple URLs")
	cmd.Flags().StringArrayVar(&opts.extensionIDs, "extension-id", nil, "Allowed extension ID.  Repeat flag for multiple IDs")

	cmd.AddCommand(newUninstallCommand(&opts))
	return cmd
}

func newUninstallCommand(opts *installOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the host registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !install.ValidName(opts.name) {
				return usageError{fmt.Errorf("invalid host name %q", opts.name)}
			}
			var err error
			if opts.system {
				err = install.UninstallSystem(opts.name)
			} else {
				err = install.UninstallCurrentUser(opts.name)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s manifest for %s\n", okText("Removed"), opts.name)
			return nil
		},
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errText("Error:"), err)
		var uerr usageError
		if errors.As(err, &uerr) {
			os.Exit(exitInvalidUsage)
		}
		os.Exit(exitFailure)
	}
	os.Exit(exitSuccess)
}
