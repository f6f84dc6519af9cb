package quic

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/zeusync/viewsync/internal/core/protocol"
	"github.com/zeusync/viewsync/pkg/generic"
)

const frameHeaderSize = 4

var frames = generic.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

// WriteFrame writes payload behind a 4 byte big-endian length. An empty
// payload is a valid frame.
func WriteFrame(w io.Writer, payload []byte) error {
	buf := frames.Get()
	defer frames.Put(buf)

	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	buf.Write(header[:])
	buf.Write(payload)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write frame")
	}
	return nil
}

// ReadFrame reads one frame. Frames longer than limit are rejected before
// their payload is read; a zero limit disables the check.
func ReadFrame(r io.Reader, limit uint32) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, errors.Wrap(err, "failed to read frame header")
	}
	size := binary.BigEndian.Uint32(header[:])
	if limit > 0 && size > limit {
		return nil, protocol.NewProtocolError(protocol.ErrorCodeFrameTooLarge, "read frame", protocol.ErrFrameTooLarge).
			WithContext("size", size).
			WithContext("limit", limit)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.Wrap(err, "failed to read frame payload")
	}
	return payload, nil
}
