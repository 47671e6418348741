package network

import (
	"errors"

	"github.com/minegate/minegate-node/pkg/protocol"
)

// accumulator collects raw inbound bytes until they form at least one
// complete length-prefixed frame. It never blocks: tryExtractFrame
// reports false when more bytes are needed and leaves the buffer
// untouched.
type accumulator struct {
	buf []byte
}

// feed appends raw bytes to the accumulator.
func (a *accumulator) feed(p []byte) {
	a.buf = append(a.buf, p...)
}

// pending returns the number of buffered bytes not yet consumed.
func (a *accumulator) pending() int {
	return len(a.buf)
}

// tryExtractFrame attempts to slice one frame payload off the front of
// the buffer. It returns (payload, true, nil) on success and
// (nil, false, nil) when the buffered bytes are insufficient. A
// malformed length prefix is an error; the caller must treat it as
// fatal because the stream can no longer be re-synchronized.
func (a *accumulator) tryExtractFrame() ([]byte, bool, error) {
	if len(a.buf) == 0 {
		return nil, false, nil
	}

	b := protocol.NewBuffer(a.buf)
	length, err := b.ReadVarInt()
	if err != nil {
		if errors.Is(err, protocol.ErrUnexpectedEOF) && len(a.buf) < 5 {
			// Length prefix still arriving.
			return nil, false, nil
		}
		return nil, false, err
	}
	if length < 0 {
		return nil, false, ErrNegativeFrameLength
	}
	if length > protocol.MaxFrameLength {
		return nil, false, ErrFrameTooLarge
	}
	if b.Remaining() < int(length) {
		return nil, false, nil
	}

	prefix := len(a.buf) - b.Remaining()
	payload := make([]byte, length)
	copy(payload, a.buf[prefix:prefix+int(length)])

	rest := copy(a.buf, a.buf[prefix+int(length):])
	a.buf = a.buf[:rest]

	return payload, true, nil
}

// zero wipes the buffered bytes and releases the buffer. Called on the
// fatal path so no partially decrypted data lingers.
func (a *accumulator) zero() {
	for i := range a.buf {
		a.buf[i] = 0
	}
	a.buf = nil
}

// appendFrame appends payload to dst as one length-prefixed frame.
func appendFrame(dst, payload []byte) ([]byte, error) {
	if len(payload) > protocol.MaxFrameLength {
		return nil, ErrFrameTooLarge
	}
	b := protocol.NewBuffer(dst)
	b.WriteVarInt(int32(len(payload)))
	b.WriteRaw(payload)
	return b.Bytes(), nil
}
