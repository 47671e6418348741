package network

import (
	"bytes"
	"errors"
	"testing"

	"github.com/minegate/minegate-node/pkg/protocol"
)

func TestAccumulatorExtractsWholeFrame(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	frame, err := appendFrame(nil, payload)
	if err != nil {
		t.Fatalf("appendFrame: %v", err)
	}

	var acc accumulator
	acc.feed(frame)

	got, ok, err := acc.tryExtractFrame()
	if err != nil {
		t.Fatalf("tryExtractFrame: %v", err)
	}
	if !ok {
		t.Fatal("expected a complete frame")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %x, want %x", got, payload)
	}
	if acc.pending() != 0 {
		t.Errorf("pending = %d, want 0", acc.pending())
	}
}

func TestAccumulatorByteAtATime(t *testing.T) {
	payload := []byte("partial delivery")
	frame, err := appendFrame(nil, payload)
	if err != nil {
		t.Fatalf("appendFrame: %v", err)
	}

	var acc accumulator
	for i, b := range frame {
		got, ok, err := acc.tryExtractFrame()
		if err != nil {
			t.Fatalf("tryExtractFrame after %d bytes: %v", i, err)
		}
		if ok {
			t.Fatalf("frame complete after %d of %d bytes: %x", i, len(frame), got)
		}
		acc.feed([]byte{b})
	}

	got, ok, err := acc.tryExtractFrame()
	if err != nil || !ok {
		t.Fatalf("tryExtractFrame = (%v, %v), want complete frame", ok, err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}

func TestAccumulatorBackToBackFrames(t *testing.T) {
	first := []byte("first")
	second := []byte("second frame")

	wire, err := appendFrame(nil, first)
	if err != nil {
		t.Fatalf("appendFrame: %v", err)
	}
	wire, err = appendFrame(wire, second)
	if err != nil {
		t.Fatalf("appendFrame: %v", err)
	}

	var acc accumulator
	acc.feed(wire)

	for _, want := range [][]byte{first, second} {
		got, ok, err := acc.tryExtractFrame()
		if err != nil || !ok {
			t.Fatalf("tryExtractFrame = (%v, %v), want frame %q", ok, err, want)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("payload = %q, want %q", got, want)
		}
	}
	if _, ok, _ := acc.tryExtractFrame(); ok {
		t.Error("extracted a third frame from two-frame input")
	}
}

func TestAccumulatorEmptyFrame(t *testing.T) {
	var acc accumulator
	acc.feed([]byte{0x00})

	got, ok, err := acc.tryExtractFrame()
	if err != nil || !ok {
		t.Fatalf("tryExtractFrame = (%v, %v), want empty frame", ok, err)
	}
	if len(got) != 0 {
		t.Errorf("payload length = %d, want 0", len(got))
	}
}

func TestAccumulatorRejectsOversizedLength(t *testing.T) {
	// VarInt for 2^21, one past the maximum frame length.
	var acc accumulator
	acc.feed([]byte{0x80, 0x80, 0x80, 0x01})

	_, _, err := acc.tryExtractFrame()
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestAccumulatorRejectsNegativeLength(t *testing.T) {
	// VarInt for -1.
	var acc accumulator
	acc.feed([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F})

	_, _, err := acc.tryExtractFrame()
	if !errors.Is(err, ErrNegativeFrameLength) {
		t.Errorf("err = %v, want ErrNegativeFrameLength", err)
	}
}

func TestAccumulatorRejectsMalformedPrefix(t *testing.T) {
	// Five continuation bytes never terminate a VarInt.
	var acc accumulator
	acc.feed([]byte{0x80, 0x80, 0x80, 0x80, 0x80})

	_, _, err := acc.tryExtractFrame()
	if !errors.Is(err, protocol.ErrVarIntTooBig) {
		t.Errorf("err = %v, want ErrVarIntTooBig", err)
	}
}

func TestAppendFrameRejectsOversizedPayload(t *testing.T) {
	payload := make([]byte, protocol.MaxFrameLength+1)
	if _, err := appendFrame(nil, payload); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestAccumulatorZero(t *testing.T) {
	var acc accumulator
	acc.feed([]byte{0x05, 0x01, 0x02})
	acc.zero()

	if acc.pending() != 0 {
		t.Errorf("pending = %d after zero, want 0", acc.pending())
	}
	if _, ok, err := acc.tryExtractFrame(); ok || err != nil {
		t.Errorf("tryExtractFrame after zero = (%v, %v), want (false, nil)", ok, err)
	}
}
