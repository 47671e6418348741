package protocol

import "errors"

// Codec errors, returned by Buffer read methods.
var (
	ErrVarIntTooBig   = errors.New("varint exceeds maximum byte length")
	ErrUnexpectedEOF  = errors.New("unexpected end of buffer")
	ErrInvalidUTF8    = errors.New("string is not valid UTF-8")
	ErrStringTooLong  = errors.New("string exceeds maximum length")
	ErrNegativeLength = errors.New("negative length prefix")
)

// Packet errors, returned by Registry encode/decode.
var (
	// ErrUnknownPacket marks a wire id with no registry entry. It is the
	// only recoverable decode error: the frame is already consumed and
	// the connection may continue.
	ErrUnknownPacket = errors.New("unknown packet id")

	// ErrTrailingBytes marks a packet body that did not consume its
	// whole frame payload.
	ErrTrailingBytes = errors.New("trailing bytes after packet body")
)
