// package main implements a command-line utility for sending a single request
// to the Everything native messaging host, as Chrome would.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/p00ya/chrome-everything-bridge/internal/bridge"
)

const (
	exitSuccess      = 0
	exitInvalidUsage = 1
	exitFailure      = 2
)

// defaultOrigin is passed to the host in place of a real extension origin.
const defaultOrigin = "chrome-extension://knldjmfmopnpolahpmmgbagdohdnhkik/"

var actions = []string{
	bridge.ActionSearch,
	bridge.ActionGetStatus,
	bridge.ActionSetPath,
	bridge.ActionValidatePath,
}

var errRejected = errors.New("host reported failure")

func newRootCommand() *cobra.Command {
	var opts requestOptions
	var origin, dir string

	cmd := &cobra.Command{
		Use:           "send-request [--action ACTION] [-q QUERY] [-p PATH] HOST_BINARY",
		Short:         "Send one request to the Everything native messaging host",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := buildRequest(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.CyanString("->"), request)

			hostArgs := []string{origin}
			if dir != "" {
				hostArgs = append(hostArgs, "--dir", dir)
			}
			response, err := exchange(args[0], hostArgs, request, cmd.ErrOrStderr())
			if response == nil {
				return err
			}

			paint := color.New(color.FgGreen).SprintFunc()
			if !succeeded(response) {
				paint = color.New(color.FgRed).SprintFunc()
			}
			fmt.Fprintln(cmd.OutOrStdout(), paint(strings.TrimSpace(prettyResponse(response))))
			if err != nil {
				return err
			}
			if !succeeded(response) {
				return errRejected
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.action, "action", "a", bridge.ActionGetStatus,
		"Request action, one of: "+strings.Join(actions, ", "))
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Search text for the search action")
	cmd.Flags().StringVarP(&opts.path, "path", "p", "", "Path for the set_path and validate_path actions")
	cmd.Flags().StringVar(&origin, "origin", defaultOrigin, "Caller origin passed to the host")
	cmd.Flags().StringVar(&dir, "dir", "", "Host data directory (passed through as --dir)")
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errRejected) {
			fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		}
		if strings.Contains(err.Error(), "accepts 1 arg") {
			os.Exit(exitInvalidUsage)
		}
		os.Exit(exitFailure)
	}
	os.Exit(exitSuccess)
}
