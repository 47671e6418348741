package network

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/minegate/minegate-node/pkg/protocol"
)

func TestCompressRoundTripBelowThreshold(t *testing.T) {
	payload := []byte("short")

	wire, err := compressPayload(payload, 64)
	if err != nil {
		t.Fatalf("compressPayload: %v", err)
	}
	if wire[0] != 0x00 {
		t.Errorf("marker = %#x, want 0x00 for an uncompressed payload", wire[0])
	}
	if !bytes.Equal(wire[1:], payload) {
		t.Errorf("body = %x, want raw payload %x", wire[1:], payload)
	}

	got, err := decompressPayload(wire, 64)
	if err != nil {
		t.Fatalf("decompressPayload: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round trip = %q, want %q", got, payload)
	}
}

func TestCompressRoundTripAboveThreshold(t *testing.T) {
	payload := bytes.Repeat([]byte("block data "), 64)

	wire, err := compressPayload(payload, 64)
	if err != nil {
		t.Fatalf("compressPayload: %v", err)
	}
	if wire[0] == 0x00 {
		t.Error("payload above threshold kept the uncompressed marker")
	}
	if len(wire) >= len(payload) {
		t.Errorf("compressed size %d not smaller than input %d", len(wire), len(payload))
	}

	got, err := decompressPayload(wire, 64)
	if err != nil {
		t.Fatalf("decompressPayload: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("round trip mismatch")
	}
}

func TestDecompressRejectsBelowThresholdDeclaration(t *testing.T) {
	// A compliant peer never compresses a payload smaller than the
	// threshold, so a declared size below it is an abuse signal.
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	if _, err := zw.Write([]byte("tiny")); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}

	buf := protocol.NewBuffer(nil)
	buf.WriteVarInt(4)
	wire := append(buf.Bytes(), zbuf.Bytes()...)

	_, err := decompressPayload(wire, 64)
	if !errors.Is(err, ErrCompressionThreshold) {
		t.Errorf("err = %v, want ErrCompressionThreshold", err)
	}
}

func TestDecompressRejectsOversizedDeclaration(t *testing.T) {
	buf := protocol.NewBuffer(nil)
	buf.WriteVarInt(protocol.MaxFrameLength + 1)

	_, err := decompressPayload(buf.Bytes(), 64)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestDecompressRejectsNegativeDeclaration(t *testing.T) {
	buf := protocol.NewBuffer(nil)
	buf.WriteVarInt(-1)

	_, err := decompressPayload(buf.Bytes(), 64)
	if !errors.Is(err, ErrNegativeFrameLength) {
		t.Errorf("err = %v, want ErrNegativeFrameLength", err)
	}
}

func TestDecompressRejectsGarbageStream(t *testing.T) {
	buf := protocol.NewBuffer(nil)
	buf.WriteVarInt(128)
	wire := append(buf.Bytes(), 0xDE, 0xAD, 0xBE, 0xEF)

	_, err := decompressPayload(wire, 64)
	if !errors.Is(err, ErrDecompressionFailed) {
		t.Errorf("err = %v, want ErrDecompressionFailed", err)
	}
}

func TestDecompressRejectsLengthMismatch(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, 80)
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}

	// Declare more than the stream actually inflates to.
	buf := protocol.NewBuffer(nil)
	buf.WriteVarInt(200)
	wire := append(buf.Bytes(), zbuf.Bytes()...)

	_, err := decompressPayload(wire, 64)
	if !errors.Is(err, ErrDecompressionFailed) {
		t.Errorf("err = %v, want ErrDecompressionFailed", err)
	}
}

func TestCompressZeroThresholdCompressesEverything(t *testing.T) {
	payload := []byte{0x01}

	wire, err := compressPayload(payload, 0)
	if err != nil {
		t.Fatalf("compressPayload: %v", err)
	}
	if wire[0] == 0x00 {
		t.Error("threshold 0 produced an uncompressed payload")
	}

	got, err := decompressPayload(wire, 0)
	if err != nil {
		t.Fatalf("decompressPayload: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round trip = %x, want %x", got, payload)
	}
}
