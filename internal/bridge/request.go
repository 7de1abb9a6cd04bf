package bridge

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"github.com/p00ya/chrome-everything-bridge/internal/hosterr"
)

// Actions understood by the host.
const (
	ActionSearch       = "search"
	ActionGetStatus    = "get_status"
	ActionSetPath      = "set_path"
	ActionValidatePath = "validate_path"
)

// Request is a decoded message from the extension.
type Request interface {
	Action() string
}

// SearchRequest asks the host to open Everything searching for Query.
type SearchRequest struct {
	Query string `json:"query"`
}

// StatusRequest asks where Everything is.
type StatusRequest struct{}

// SetPathRequest saves Path as the Everything override.
type SetPathRequest struct {
	Path string `json:"path"`
}

// ValidatePathRequest checks Path without saving it.
type ValidatePathRequest struct {
	Path string `json:"path"`
}

func (SearchRequest) Action() string       { return ActionSearch }
func (StatusRequest) Action() string       { return ActionGetStatus }
func (SetPathRequest) Action() string      { return ActionSetPath }
func (ValidatePathRequest) Action() string { return ActionValidatePath }

// UnknownActionError reports a well-formed request naming no known action.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return "Unknown action: " + e.Name
}

//go:embed schemas/*.json
var schemaFiles embed.FS

// requestSchemas holds one compiled schema per action.
var requestSchemas = mustCompileSchemas(ActionSearch, ActionGetStatus, ActionSetPath, ActionValidatePath)

func mustCompileSchemas(actions ...string) map[string]*jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	schemas := make(map[string]*jsonschema.Schema, len(actions))
	for _, action := range actions {
		name := action + ".json"
		buf, err := schemaFiles.ReadFile("schemas/" + name)
		if err != nil {
			panic(err)
		}
		if err := compiler.AddResource(name, strings.NewReader(string(buf))); err != nil {
			panic(fmt.Sprintf("adding schema %s: %v", name, err))
		}
		schemas[action] = compiler.MustCompile(name)
	}
	return schemas
}

// DecodeRequest parses a frame payload into a Request.
//
// Malformed payloads yield a hosterr.Protocol error.  A payload naming an
// unrecognized action yields an *UnknownActionError.
func DecodeRequest(payload []byte) (Request, error) {
	if !utf8.Valid(payload) {
		return nil, hosterr.New(hosterr.Protocol, "request is not valid UTF-8")
	}
	if !gjson.ValidBytes(payload) {
		return nil, hosterr.New(hosterr.Protocol, "request is not valid JSON")
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return nil, hosterr.New(hosterr.Protocol, "request is not a JSON object")
	}

	action := root.Get("action")
	switch {
	case !action.Exists():
		return nil, hosterr.New(hosterr.Protocol, "request has no action")
	case action.Type != gjson.String:
		return nil, hosterr.New(hosterr.Protocol, "action must be a string, got %s", action.Raw)
	}

	schema, ok := requestSchemas[action.Str]
	if !ok {
		return nil, &UnknownActionError{Name: action.Str}
	}

	var doc interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, hosterr.Wrap(err, hosterr.Protocol, "decoding %s request", action.Str)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, hosterr.New(hosterr.Protocol, "invalid %s request: %s", action.Str, describe(err))
	}

	var req Request
	switch action.Str {
	case ActionSearch:
		var r SearchRequest
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, hosterr.Wrap(err, hosterr.Protocol, "decoding %s request", action.Str)
		}
		req = r
	case ActionGetStatus:
		req = StatusRequest{}
	case ActionSetPath:
		var r SetPathRequest
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, hosterr.Wrap(err, hosterr.Protocol, "decoding %s request", action.Str)
		}
		req = r
	case ActionValidatePath:
		var r ValidatePathRequest
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, hosterr.Wrap(err, hosterr.Protocol, "decoding %s request", action.Str)
		}
		req = r
	}
	return req, nil
}

// describe flattens a schema validation error into its leaf messages.
func describe(err error) string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var messages []string
	collectErrors(verr, &messages)
	if len(messages) == 0 {
		return verr.Message
	}
	return strings.Join(messages, "; ")
}

func collectErrors(err *jsonschema.ValidationError, messages *[]string) {
	if len(err.Causes) == 0 {
		if err.InstanceLocation != "" {
			*messages = append(*messages, fmt.Sprintf("%s: %s", err.InstanceLocation, err.Message))
		} else {
			*messages = append(*messages, err.Message)
		}
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
