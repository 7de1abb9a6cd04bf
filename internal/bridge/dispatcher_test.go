package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p00ya/chrome-everything-bridge/internal/chrome"
	"github.com/p00ya/chrome-everything-bridge/internal/config"
	"github.com/p00ya/chrome-everything-bridge/internal/everything"
	"github.com/p00ya/chrome-everything-bridge/internal/hosterr"
	"github.com/p00ya/chrome-everything-bridge/internal/logging"
)

type fakeResolver struct {
	path      string
	available []string
	calls     int
}

func (r *fakeResolver) Resolve() (string, bool) {
	r.calls++
	return r.path, r.path != ""
}

func (r *fakeResolver) Available() []string {
	return r.available
}

type fakeValidator map[string]bool

func (v fakeValidator) Validate(p string) bool {
	return v[p]
}

type fakeStore struct {
	saved []string
	err   error
}

func (s *fakeStore) Save(p string) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, p)
	return nil
}

type launch struct {
	path, query string
}

type fakeLauncher struct {
	launches []launch
	err      error
	panic    bool
}

func (l *fakeLauncher) Launch(path, query string) error {
	if l.panic {
		panic("launcher exploded")
	}
	l.launches = append(l.launches, launch{path, query})
	return l.err
}

type fixture struct {
	resolver  *fakeResolver
	validator fakeValidator
	store     *fakeStore
	launcher  *fakeLauncher
	d         *Dispatcher
}

const everythingPath = `C:\Program Files\Everything\Everything.exe`

func newFixture() *fixture {
	f := &fixture{
		resolver:  &fakeResolver{path: everythingPath, available: []string{everythingPath}},
		validator: fakeValidator{everythingPath: true},
		store:     &fakeStore{},
		launcher:  &fakeLauncher{},
	}
	f.d = NewDispatcher(f.resolver, f.validator, f.store, f.launcher, logging.Null())
	return f
}

// handleJSON runs a request through the dispatcher and returns the marshaled
// response.
func handleJSON(t *testing.T, d *Dispatcher, request string) string {
	t.Helper()
	buf, err := json.Marshal(d.Handle([]byte(request)))
	require.NoError(t, err)
	return string(buf)
}

func TestSearch(t *testing.T) {
	f := newFixture()
	got := handleJSON(t, f.d, `{"action":"search","query":"budget.xlsx"}`)

	assert.JSONEq(t, `{"success":true,"message":"Searching for: budget.xlsx","everything_path":"C:\\Program Files\\Everything\\Everything.exe"}`, got)
	assert.Equal(t, []launch{{everythingPath, "budget.xlsx"}}, f.launcher.launches)
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newFixture()
	got := handleJSON(t, f.d, `{"action":"search","query":""}`)

	assert.JSONEq(t, `{"success":false,"error":"No search query provided"}`, got)
	assert.Empty(t, f.launcher.launches)
	assert.Zero(t, f.resolver.calls)
}

func TestSearchNotFound(t *testing.T) {
	f := newFixture()
	f.resolver.path = ""
	f.resolver.available = []string{`D:\stale\Everything.exe`}

	got := handleJSON(t, f.d, `{"action":"search","query":"x"}`)
	assert.JSONEq(t, `{"success":false,"error":"Everything.exe not found","available_paths":["D:\\stale\\Everything.exe"]}`, got)
	assert.Empty(t, f.launcher.launches)
}

func TestSearchLaunchFailure(t *testing.T) {
	f := newFixture()
	f.launcher.err = hosterr.Wrap(errors.New("permission denied"), hosterr.Launch, "launching x")

	got := handleJSON(t, f.d, `{"action":"search","query":"x"}`)
	assert.JSONEq(t, `{"success":false,"error":"permission denied"}`, got)
}

func TestGetStatus(t *testing.T) {
	f := newFixture()
	got := handleJSON(t, f.d, `{"action":"get_status"}`)
	assert.JSONEq(t, `{"success":true,"everything_found":true,"everything_path":"C:\\Program Files\\Everything\\Everything.exe","available_paths":["C:\\Program Files\\Everything\\Everything.exe"]}`, got)
}

func TestGetStatusNothingFound(t *testing.T) {
	f := newFixture()
	f.resolver.path = ""
	f.resolver.available = nil

	got := handleJSON(t, f.d, `{"action":"get_status"}`)
	assert.JSONEq(t, `{"success":true,"everything_found":false,"everything_path":null,"available_paths":[]}`, got)
}

func TestSetPath(t *testing.T) {
	f := newFixture()
	got := handleJSON(t, f.d, `{"action":"set_path","path":"C:\\Program Files\\Everything\\Everything.exe"}`)

	assert.JSONEq(t, `{"success":true,"message":"Everything path saved: C:\\Program Files\\Everything\\Everything.exe","everything_path":"C:\\Program Files\\Everything\\Everything.exe"}`, got)
	assert.Equal(t, []string{everythingPath}, f.store.saved)
}

func TestSetPathInvalid(t *testing.T) {
	f := newFixture()
	got := handleJSON(t, f.d, `{"action":"set_path","path":"C:\\Windows\\notepad.exe"}`)

	assert.JSONEq(t, `{"success":false,"error":"Invalid Everything.exe path"}`, got)
	assert.Empty(t, f.store.saved)
}

func TestSetPathSaveFailure(t *testing.T) {
	f := newFixture()
	f.store.err = hosterr.New(hosterr.Persistence, "disk full")

	got := handleJSON(t, f.d, `{"action":"set_path","path":"C:\\Program Files\\Everything\\Everything.exe"}`)
	assert.JSONEq(t, `{"success":false,"error":"Failed to save path"}`, got)
}

func TestValidatePath(t *testing.T) {
	f := newFixture()

	got := handleJSON(t, f.d, `{"action":"validate_path","path":"C:\\Program Files\\Everything\\Everything.exe"}`)
	assert.JSONEq(t, `{"success":true,"valid":true,"path":"C:\\Program Files\\Everything\\Everything.exe"}`, got)

	got = handleJSON(t, f.d, `{"action":"validate_path","path":""}`)
	assert.JSONEq(t, `{"success":true,"valid":false,"path":""}`, got)
	assert.Empty(t, f.store.saved)
}

func TestUnknownAction(t *testing.T) {
	f := newFixture()
	got := handleJSON(t, f.d, `{"action":"delete_everything"}`)
	assert.JSONEq(t, `{"success":false,"error":"Unknown action: delete_everything"}`, got)
}

func TestMalformedRequests(t *testing.T) {
	var tests = []struct {
		name    string
		request string
	}{
		{"Empty", ``},
		{"NotJSON", `search budget`},
		{"InvalidUTF8", "{\"action\":\"search\",\"query\":\"\xff\"}"},
		{"Array", `["search"]`},
		{"NoAction", `{"query":"x"}`},
		{"ActionNotString", `{"action":1}`},
		{"MissingQuery", `{"action":"search"}`},
		{"QueryNotString", `{"action":"search","query":5}`},
		{"UnknownField", `{"action":"get_status","verbose":true}`},
		{"MissingPath", `{"action":"set_path"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			res := f.d.Handle([]byte(tt.request))
			require.IsType(t, Failure{}, res)
			assert.False(t, res.Succeeded())
			assert.NotEmpty(t, res.(Failure).Error)
			assert.Empty(t, f.store.saved)
			assert.Empty(t, f.launcher.launches)
		})
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"action":"search","query":"néw \"file\""}`))
	require.NoError(t, err)
	assert.Equal(t, SearchRequest{Query: `néw "file"`}, req)

	req, err = DecodeRequest([]byte(`{"action":"validate_path","path":"p"}`))
	require.NoError(t, err)
	assert.Equal(t, ValidatePathRequest{Path: "p"}, req)

	_, err = DecodeRequest([]byte(`{"action":"search"}`))
	assert.True(t, hosterr.Is(err, hosterr.Protocol))
	assert.Contains(t, err.Error(), "query")

	_, err = DecodeRequest([]byte(`{"action":"nope"}`))
	var unknown *UnknownActionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)
}

func TestHandlerPanic(t *testing.T) {
	f := newFixture()
	f.launcher.panic = true

	got := handleJSON(t, f.d, `{"action":"search","query":"x"}`)
	assert.JSONEq(t, `{"success":false,"error":"launcher exploded"}`, got)
}

// frames concatenates the wire encoding of the given payloads.
func frames(payloads ...string) []byte {
	var wire []byte
	for _, p := range payloads {
		wire = append(wire, chrome.EncodeFrame([]byte(p))...)
	}
	return wire
}

// readResponses decodes every frame written by the host.
func readResponses(t *testing.T, out *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var responses []map[string]interface{}
	for out.Len() > 0 {
		payload, err := chrome.DecodeFrame(out)
		require.NoError(t, err)
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(payload, &m))
		responses = append(responses, m)
	}
	return responses
}

func TestServeOneResponsePerRequest(t *testing.T) {
	f := newFixture()
	in := bytes.NewReader(frames(
		`{"action":"get_status"}`,
		``,
		`{"action":"search","query":"budget.xlsx"}`,
		`{"action":"bogus"}`,
		`{"action":"validate_path","path":"C:\\nowhere\\Everything.exe"}`,
	))
	var out bytes.Buffer

	require.NoError(t, f.d.Serve(chrome.NewHost(in, &out)))

	responses := readResponses(t, &out)
	require.Len(t, responses, 5)
	assert.Equal(t, true, responses[0]["success"])
	assert.Equal(t, false, responses[1]["success"])
	assert.Equal(t, "Searching for: budget.xlsx", responses[2]["message"])
	assert.Equal(t, "Unknown action: bogus", responses[3]["error"])
	assert.Equal(t, false, responses[4]["valid"])
}

func TestServeOversizedResponse(t *testing.T) {
	f := newFixture()
	query := strings.Repeat("a", 1<<20+10)
	in := bytes.NewReader(frames(
		`{"action":"search","query":"`+query+`"}`,
		`{"action":"get_status"}`,
	))
	var out bytes.Buffer

	require.NoError(t, f.d.Serve(chrome.NewHost(in, &out)))

	responses := readResponses(t, &out)
	require.Len(t, responses, 2)
	assert.Equal(t, false, responses[0]["success"])
	assert.Equal(t, "Response too large", responses[0]["error"])
	assert.Equal(t, true, responses[1]["success"])
	assert.Len(t, f.launcher.launches, 1)
}

func TestServeFramingError(t *testing.T) {
	f := newFixture()
	wire := append(frames(`{"action":"get_status"}`), 0x10, 0x00)
	var out bytes.Buffer

	err := f.d.Serve(chrome.NewHost(bytes.NewReader(wire), &out))
	require.Error(t, err)
	assert.True(t, hosterr.Is(err, hosterr.Framing))
	assert.Len(t, readResponses(t, &out), 1)
}

func TestServeEmptyStream(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, newFixture().d.Serve(chrome.NewHost(bytes.NewReader(nil), &out)))
	assert.Zero(t, out.Len())
}

// failingWriter rejects every write.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestServeWriteError(t *testing.T) {
	err := newFixture().d.Serve(chrome.NewHost(bytes.NewReader(frames(`{"action":"get_status"}`)), failingWriter{}))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

// TestEndToEnd wires the real resolver, validator, store and launcher.
func TestEndToEnd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake executables are shell scripts")
	}
	dir := t.TempDir()
	exe := filepath.Join(dir, "bin", "Everything.exe")
	require.NoError(t, os.MkdirAll(filepath.Dir(exe), 0755))
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\nexit 0\n"), 0755))
	notepad := filepath.Join(dir, "bin", "notepad.exe")
	require.NoError(t, os.WriteFile(notepad, []byte("#!/bin/sh\nexit 0\n"), 0755))
	t.Setenv(everything.EnvPath, "")

	log := logging.Null()
	store := config.NewStoreIn(dir, log)
	validator := everything.NewValidator(log)
	resolver := everything.NewResolver(store, validator, log)
	resolver.ProgramRoots = nil
	resolver.CommonDirs = nil
	resolver.LookPath = func(string) (string, error) { return "", errors.New("not on path") }
	d := NewDispatcher(resolver, validator, store, everything.NewLauncher(log), log)

	got := handleJSON(t, d, `{"action":"get_status"}`)
	assert.JSONEq(t, `{"success":true,"everything_found":false,"everything_path":null,"available_paths":[]}`, got)

	got = handleJSON(t, d, `{"action":"set_path","path":`+quote(notepad)+`}`)
	assert.JSONEq(t, `{"success":false,"error":"Invalid Everything.exe path"}`, got)
	assert.Empty(t, store.Load().EverythingPath)

	got = handleJSON(t, d, `{"action":"set_path","path":`+quote(exe)+`}`)
	assert.JSONEq(t, `{"success":true,"message":"Everything path saved: `+exe+`","everything_path":`+quote(exe)+`}`, got)

	got = handleJSON(t, d, `{"action":"search","query":"budget.xlsx"}`)
	assert.JSONEq(t, `{"success":true,"message":"Searching for: budget.xlsx","everything_path":`+quote(exe)+`}`, got)
}

func quote(s string) string {
	buf, _ := json.Marshal(s)
	return string(buf)
}
