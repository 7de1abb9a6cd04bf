// Package bridge implements the native messaging host's request loop: it
// reads a request from Chrome, carries it out against Everything, and writes
// exactly one response.
package bridge

import (
	"errors"
	"fmt"
	"io"
)

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/p00ya/chrome-everything-bridge/internal/chrome"
	"github.com/p00ya/chrome-everything-bridge/internal/everything"
	"github.com/p00ya/chrome-everything-bridge/internal/hosterr"
)

// Response error texts.
const (
	errNoQuery      = "No search query provided"
	errNotFound     = everything.ExeName + " not found"
	errInvalidPath  = "Invalid " + everything.ExeName + " path"
	errSaveFailed   = "Failed to save path"
	errTooLarge     = "Response too large"
	msgSearchPrefix = "Searching for: "
	msgSavedPrefix  = "Everything path saved: "
)

// Channel carries framed messages to and from Chrome.
type Channel interface {
	ReadMessage() ([]byte, error)
	WriteMessage(v interface{}) error
}

// Resolver locates Everything.
type Resolver interface {
	Resolve() (string, bool)
	Available() []string
}

// Validator checks a user-supplied path.
type Validator interface {
	Validate(path string) bool
}

// Store persists the override path.
type Store interface {
	Save(path string) error
}

// Launcher starts a search.
type Launcher interface {
	Launch(path, query string) error
}

// Dispatcher routes requests to their handlers.
type Dispatcher struct {
	resolver  Resolver
	validator Validator
	store     Store
	launcher  Launcher
	log       logrus.FieldLogger
}

// NewDispatcher returns a Dispatcher using the given collaborators.
func NewDispatcher(r Resolver, v Validator, s Store, l Launcher, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		resolver:  r,
		validator: v,
		store:     s,
		launcher:  l,
		log:       log,
	}
}

// Serve answers requests on ch until Chrome closes the stream.
//
// It returns nil on a clean end-of-stream, or the framing or write error that
// made the channel unusable.
func (d *Dispatcher) Serve(ch Channel) error {
	d.log.Info("Native host started")
	for {
		payload, err := ch.ReadMessage()
		switch {
		case err == io.EOF:
			// Clean exit - Chrome destroyed native messaging port.
			d.log.Info("Native host ended")
			return nil
		case err != nil:
			d.log.WithError(err).Error("Reading message")
			return err
		}

		log := d.log.WithField("request_id", uuid.NewString())
		res := d.handle(payload, log)
		err = ch.WriteMessage(res)
		if errors.Is(err, chrome.ErrResponseTooLarge) {
			log.WithError(err).Warn("Replacing oversized response")
			res = failure(errTooLarge)
			err = ch.WriteMessage(res)
		}
		if err != nil {
			log.WithError(err).Error("Writing response")
			return err
		}
		log.WithField("success", res.Succeeded()).Debugf("Sent response: %+v", res)
	}
}

// Handle decodes and carries out one request.  It always returns a Response,
// converting decode errors and handler panics into a Failure.
func (d *Dispatcher) Handle(payload []byte) Response {
	return d.handle(payload, d.log)
}

func (d *Dispatcher) handle(payload []byte, log logrus.FieldLogger) (res Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Error in main loop: %v", r)
			res = failure(fmt.Sprint(r))
		}
	}()

	req, err := DecodeRequest(payload)
	if err != nil {
		var unknown *UnknownActionError
		if errors.As(err, &unknown) {
			log.Warn(err)
		} else {
			log.WithError(err).Warn("Rejected request")
		}
		return failure(err.Error())
	}

	log = log.WithField("action", req.Action())
	log.Infof("Received message: %+v", req)

	switch req := req.(type) {
	case SearchRequest:
		return d.search(req, log)
	case StatusRequest:
		return d.status(log)
	case SetPathRequest:
		return d.setPath(req, log)
	case ValidatePathRequest:
		return d.validatePath(req)
	default:
		return failure((&UnknownActionError{Name: req.Action()}).Error())
	}
}

func (d *Dispatcher) search(req SearchRequest, log logrus.FieldLogger) Response {
	if req.Query == "" {
		return failure(errNoQuery)
	}

	path, ok := d.resolver.Resolve()
	if !ok {
		return NotFound{Error: errNotFound, AvailablePaths: d.available()}
	}

	if err := d.launcher.Launch(path, req.Query); err != nil {
		log.WithError(err).Error("Error launching Everything")
		return failure(osText(err))
	}
	return SearchStarted{
		Success:        true,
		Message:        msgSearchPrefix + req.Query,
		EverythingPath: path,
	}
}

func (d *Dispatcher) status(log logrus.FieldLogger) Response {
	res := Status{Success: true, AvailablePaths: d.available()}
	if path, ok := d.resolver.Resolve(); ok {
		res.EverythingFound = true
		res.EverythingPath = &path
	}
	log.Debugf("Status: found=%t paths=%v", res.EverythingFound, res.AvailablePaths)
	return res
}

func (d *Dispatcher) setPath(req SetPathRequest, log logrus.FieldLogger) Response {
	if !d.validator.Validate(req.Path) {
		log.Warnf("Refusing to save invalid path %q", req.Path)
		return failure(errInvalidPath)
	}
	if err := d.store.Save(req.Path); err != nil {
		log.WithError(err).Error("Saving Everything path")
		return failure(errSaveFailed)
	}
	return PathSaved{
		Success:        true,
		Message:        msgSavedPrefix + req.Path,
		EverythingPath: req.Path,
	}
}

func (d *Dispatcher) validatePath(req ValidatePathRequest) Response {
	return PathValidity{
		Success: true,
		Valid:   d.validator.Validate(req.Path),
		Path:    req.Path,
	}
}

func (d *Dispatcher) available() []string {
	paths := d.resolver.Available()
	if paths == nil {
		paths = []string{}
	}
	return paths
}

// osText returns the innermost description of a launch failure.
func osText(err error) string {
	var herr *hosterr.Error
	if errors.As(err, &herr) && herr.Cause != nil {
		return herr.Cause.Error()
	}
	return err.Error()
}
