package hosterr

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

import "github.com/stretchr/testify/assert"

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad frame", New(Framing, "bad frame").Error())
	assert.Equal(t, "short read: unexpected EOF",
		Wrap(io.ErrUnexpectedEOF, Framing, "short read").Error())
}

func TestIs(t *testing.T) {
	inner := Wrap(io.ErrUnexpectedEOF, Framing, "payload")
	outer := fmt.Errorf("reading: %w", inner)

	assert.True(t, Is(outer, Framing))
	assert.False(t, Is(outer, Protocol))
	assert.False(t, Is(io.EOF, Framing))
	assert.False(t, Is(nil, Framing))
	assert.True(t, errors.Is(outer, io.ErrUnexpectedEOF))
}

func TestIsNestedKinds(t *testing.T) {
	err := Wrap(New(Validation, "not executable"), Persistence, "saving")
	assert.True(t, Is(err, Persistence))
	assert.True(t, Is(err, Validation))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "launch", Launch.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
