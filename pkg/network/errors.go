package network

import (
	"errors"

	"github.com/minegate/minegate-node/pkg/protocol"
)

// ===== FRAMING ERRORS =====

var (
	ErrFrameTooLarge       = errors.New("frame exceeds maximum length")
	ErrNegativeFrameLength = errors.New("negative frame length")
)

// ===== COMPRESSION ERRORS =====

var (
	ErrCompressionThreshold = errors.New("compressed frame below threshold")
	ErrDecompressionFailed  = errors.New("decompression failed")
)

// ===== ENCRYPTION ERRORS =====

var (
	ErrEncryptionAlreadyEnabled = errors.New("encryption already enabled")
	ErrEncryptionNotEstablished = errors.New("encryption not established")
	ErrBadVerifyToken           = errors.New("verify token mismatch")
)

// ===== STATE MACHINE ERRORS =====

var (
	ErrUnexpectedPacket  = errors.New("unexpected packet for phase")
	ErrProtocolViolation = errors.New("protocol violation")
)

// ===== SESSION ERRORS =====

var (
	ErrAuthenticationFailed  = errors.New("session authentication failed")
	ErrAuthenticationTimeout = errors.New("session authentication timed out")
	ErrLoginRefused          = errors.New("login refused by server")
)

// ===== CONNECTION ERRORS =====

var (
	// ErrConnClosed is returned by operations on a connection that has
	// already reached the Closed phase.
	ErrConnClosed = errors.New("connection closed")

	// ErrNoData is returned by ReadPacket on a transportless connection
	// when the buffered bytes do not hold a complete frame.
	ErrNoData = errors.New("no complete frame buffered")

	// ErrIdleTimeout is the abort reason when the peer stops answering
	// keep-alives.
	ErrIdleTimeout = errors.New("connection idle timeout")

	ErrNotConnected = errors.New("not connected")
)

// errorKind buckets an error for the metrics error counter.
func errorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrFrameTooLarge), errors.Is(err, ErrNegativeFrameLength):
		return "framing"
	case errors.Is(err, ErrCompressionThreshold), errors.Is(err, ErrDecompressionFailed):
		return "compression"
	case errors.Is(err, ErrEncryptionAlreadyEnabled),
		errors.Is(err, ErrEncryptionNotEstablished),
		errors.Is(err, ErrBadVerifyToken):
		return "encryption"
	case errors.Is(err, protocol.ErrVarIntTooBig),
		errors.Is(err, protocol.ErrUnexpectedEOF),
		errors.Is(err, protocol.ErrInvalidUTF8),
		errors.Is(err, protocol.ErrStringTooLong),
		errors.Is(err, protocol.ErrNegativeLength),
		errors.Is(err, protocol.ErrTrailingBytes):
		return "codec"
	case errors.Is(err, ErrUnexpectedPacket), errors.Is(err, ErrProtocolViolation):
		return "violation"
	case errors.Is(err, ErrAuthenticationTimeout):
		return "auth_timeout"
	case errors.Is(err, ErrAuthenticationFailed), errors.Is(err, ErrLoginRefused):
		return "auth"
	case errors.Is(err, ErrIdleTimeout):
		return "idle"
	default:
		return "io"
	}
}
