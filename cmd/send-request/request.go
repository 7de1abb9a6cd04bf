package main

import (
	"fmt"
	"io"
	"os/exec"
)

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/p00ya/chrome-everything-bridge/internal/bridge"
	"github.com/p00ya/chrome-everything-bridge/internal/chrome"
)

// requestOptions mirrors the fields an extension can send.
type requestOptions struct {
	action string
	query  string
	path   string
}

// buildRequest returns the JSON body for the chosen action, setting only
// the fields that action accepts.
func buildRequest(opts requestOptions) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "action", opts.action)
	if err != nil {
		return nil, err
	}
	switch opts.action {
	case bridge.ActionSearch:
		return sjson.SetBytes(body, "query", opts.query)
	case bridge.ActionSetPath, bridge.ActionValidatePath:
		return sjson.SetBytes(body, "path", opts.path)
	default:
		return body, nil
	}
}

// exchange starts the host, sends one framed request and reads one framed
// response.  The host exits once its stdin is closed.
func exchange(binary string, args []string, request []byte, stderr io.Writer) ([]byte, error) {
	cmd := exec.Command(binary, args...)
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting host: %w", err)
	}

	if _, err := stdin.Write(chrome.EncodeFrame(request)); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("writing request: %w", err)
	}
	stdin.Close()

	response, readErr := chrome.DecodeFrame(stdout)
	waitErr := cmd.Wait()
	if readErr != nil {
		return nil, fmt.Errorf("reading response: %w", readErr)
	}
	if waitErr != nil {
		return response, fmt.Errorf("host exited: %w", waitErr)
	}
	return response, nil
}

// succeeded reports the response's "success" field.
func succeeded(response []byte) bool {
	return gjson.GetBytes(response, "success").Bool()
}

// prettyResponse indents a response for display.
func prettyResponse(response []byte) string {
	if !gjson.ValidBytes(response) {
		return string(response)
	}
	return gjson.GetBytes(response, "@pretty").String()
}
