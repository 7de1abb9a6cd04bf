// Package chrome provides the I/O for a Chrome native messaging host.
//
// Chrome talks to a native messaging host over the host's stdin and stdout.
// Each message is a 4-byte unsigned little-endian length followed by that many
// bytes of UTF-8 JSON.  See:
// https://developer.chrome.com/docs/extensions/develop/concepts/native-messaging
package chrome

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"math"
)

import "github.com/p00ya/chrome-everything-bridge/internal/hosterr"

// headerLen is the number of bytes in the Chrome native messaging header.
const headerLen = 4

// DefaultMaxMessageBytes is the default limit on the length of a message from
// Chrome (not including the 4-byte header).
const DefaultMaxMessageBytes = 64 << 20

// maxResponseBytes is Chrome's limit on a single message from the host.
const maxResponseBytes = 1 << 20

// ErrResponseTooLarge is the cause of a WriteMessage failure for a response
// over Chrome's limit.  Nothing is written in that case, so the channel is
// still usable.
var ErrResponseTooLarge = errors.New("response too large")

// Host reads requests from Chrome and writes responses, one at a time.
//
// A Host is not safe for concurrent use; the message loop that owns it must
// alternate ReadMessage and WriteMessage calls.
type Host struct {
	// reader is the stream from Chrome (typically stdin).
	reader io.Reader

	// writer buffers the stream to Chrome (typically stdout).  It is flushed
	// after every frame.
	writer *bufio.Writer

	// maxMessageBytes bounds the payload length accepted from Chrome.
	maxMessageBytes uint32
}

// NewHost returns a Chrome native messaging host that will read requests from
// the given reader, and send responses on the given writer.  Neither stream
// may translate line endings.
func NewHost(in io.Reader, out io.Writer) *Host {
	return &Host{
		reader:          in,
		writer:          bufio.NewWriter(out),
		maxMessageBytes: DefaultMaxMessageBytes,
	}
}

// SetMaxMessageBytes changes the largest request payload the host will
// accept.  Non-positive values restore the default.
func (h *Host) SetMaxMessageBytes(n int) {
	if n <= 0 || uint64(n) > math.MaxUint32 {
		n = DefaultMaxMessageBytes
	}
	h.maxMessageBytes = uint32(n)
}

// ReadMessage blocks until Chrome sends a message and returns its payload.
//
// It returns io.EOF if Chrome closed the stream before sending any header
// bytes.  A truncated header or payload, or an oversized length, is reported
// as a hosterr.Framing error.
func (h *Host) ReadMessage() ([]byte, error) {
	return readPayload(h.reader, h.maxMessageBytes)
}

// WriteMessage serializes v as JSON and sends it to Chrome as one frame.
func (h *Host) WriteMessage(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return hosterr.Wrap(err, hosterr.Framing, "encoding response")
	}
	if len(payload) > maxResponseBytes {
		return hosterr.Wrap(ErrResponseTooLarge, hosterr.Framing, "response of %d bytes exceeds %d-byte limit", len(payload), maxResponseBytes)
	}
	if err := writePayload(payload, h.writer); err != nil {
		return err
	}
	if err := h.writer.Flush(); err != nil {
		return hosterr.Wrap(err, hosterr.Framing, "flushing response")
	}
	return nil
}

// readPayload returns a Chrome native messaging payload read from the given
// reader.
func readPayload(in io.Reader, maxBytes uint32) ([]byte, error) {
	header := make([]byte, headerLen)
	switch n, err := io.ReadFull(in, header); {
	case n == 0 && err == io.EOF:
		// Clean shutdown from Chrome's end.
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, hosterr.New(hosterr.Framing, "wanted %d-byte header, read %d bytes", headerLen, n)
	case err != nil:
		return nil, hosterr.Wrap(err, hosterr.Framing, "reading header")
	}

	payloadLen := binary.LittleEndian.Uint32(header)
	if payloadLen > maxBytes {
		return nil, hosterr.New(hosterr.Framing, "want at most %d-byte payload, got %d", maxBytes, payloadLen)
	}

	payload := make([]byte, payloadLen)
	if n, err := io.ReadFull(in, payload); err != nil {
		return nil, hosterr.Wrap(err, hosterr.Framing, "wanted %d-byte payload, read %d bytes", payloadLen, n)
	}
	return payload, nil
}

// writePayload sends a Chrome native messaging payload to Chrome.
func writePayload(payload []byte, out io.Writer) error {
	buf := EncodeFrame(payload)
	for len(buf) > 0 {
		switch n, err := out.Write(buf); {
		case err != nil:
			return hosterr.Wrap(err, hosterr.Framing, "writing response")
		case n == 0:
			return hosterr.Wrap(io.ErrShortWrite, hosterr.Framing, "writing response")
		default:
			buf = buf[n:]
		}
	}
	return nil
}

// EncodeFrame returns payload prefixed with its little-endian length.
func EncodeFrame(payload []byte) []byte {
	buf := make([]byte, headerLen+len(payload))
	binary.LittleEndian.PutUint32(buf[:headerLen], uint32(len(payload)))
	copy(buf[headerLen:], payload)
	return buf
}

// DecodeFrame reads one frame from r, as Chrome would read a response.
func DecodeFrame(r io.Reader) ([]byte, error) {
	return readPayload(r, maxResponseBytes)
}
