package network

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/minegate/minegate-node/pkg/protocol"
)

// compressPayload applies the compression stage to an outbound frame
// payload. Payloads shorter than the threshold travel raw behind a zero
// marker; everything else is deflated behind its uncompressed length.
func compressPayload(payload []byte, threshold int32) ([]byte, error) {
	out := protocol.NewBuffer(nil)

	if int32(len(payload)) < threshold {
		out.WriteVarInt(0)
		out.WriteRaw(payload)
		return out.Bytes(), nil
	}

	out.WriteVarInt(int32(len(payload)))

	var deflated bytes.Buffer
	zw := zlib.NewWriter(&deflated)
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to deflate payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to deflate payload: %w", err)
	}
	out.WriteRaw(deflated.Bytes())

	return out.Bytes(), nil
}

// decompressPayload reverses the compression stage on an inbound frame
// payload. The declared uncompressed length is validated before any
// inflation happens so a hostile prefix cannot force a huge allocation.
func decompressPayload(payload []byte, threshold int32) ([]byte, error) {
	b := protocol.NewBuffer(payload)

	declared, err := b.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("failed to read uncompressed length: %w", err)
	}
	if declared == 0 {
		return b.ReadRemaining(), nil
	}
	if declared < 0 {
		return nil, ErrNegativeFrameLength
	}
	if declared > protocol.MaxFrameLength {
		return nil, ErrFrameTooLarge
	}
	if declared < threshold {
		return nil, ErrCompressionThreshold
	}

	zr, err := zlib.NewReader(bytes.NewReader(b.ReadRemaining()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
	}
	defer zr.Close()

	// Read one byte past the declared size so an oversized stream is
	// detected without inflating it fully.
	inflated, err := io.ReadAll(io.LimitReader(zr, int64(declared)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
	}
	if int32(len(inflated)) != declared {
		return nil, fmt.Errorf("%w: declared %d bytes, got %d",
			ErrDecompressionFailed, declared, len(inflated))
	}
	return inflated, nil
}
