package protocol

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestVarIntEncodeDecode(t *testing.T) {
	tests := []struct {
		name  string
		value int32
		wire  []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"one", 1, []byte{0x01}},
		{"two", 2, []byte{0x02}},
		{"127", 127, []byte{0x7F}},
		{"128", 128, []byte{0x80, 0x01}},
		{"255", 255, []byte{0xFF, 0x01}},
		{"25565", 25565, []byte{0xDD, 0xC7, 0x01}},
		{"2097151", 2097151, []byte{0xFF, 0xFF, 0x7F}},
		{"max int32", math.MaxInt32, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x07}},
		{"minus one", -1, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
		{"min int32", math.MinInt32, []byte{0x80, 0x80, 0x80, 0x80, 0x08}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer(nil)
			buf.WriteVarInt(tt.value)
			if !bytes.Equal(buf.Bytes(), tt.wire) {
				t.Errorf("WriteVarInt(%d) = %x, want %x", tt.value, buf.Bytes(), tt.wire)
			}

			got, err := NewBuffer(tt.wire).ReadVarInt()
			if err != nil {
				t.Fatalf("ReadVarInt() error = %v", err)
			}
			if got != tt.value {
				t.Errorf("ReadVarInt() = %d, want %d", got, tt.value)
			}
		})
	}
}

func TestVarIntDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		wire    []byte
		wantErr error
	}{
		{"empty", []byte{}, ErrUnexpectedEOF},
		{"cut mid value", []byte{0x80}, ErrUnexpectedEOF},
		{"cut after four continuations", []byte{0xFF, 0xFF, 0xFF, 0xFF}, ErrUnexpectedEOF},
		{"six bytes", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, ErrVarIntTooBig},
		{"all continuations", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, ErrVarIntTooBig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuffer(tt.wire).ReadVarInt()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadVarInt() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVarLongEncodeDecode(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		wire  []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"127", 127, []byte{0x7F}},
		{"128", 128, []byte{0x80, 0x01}},
		{"max int64", math.MaxInt64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
		{"minus one", -1, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
		{"min int64", math.MinInt64, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer(nil)
			buf.WriteVarLong(tt.value)
			if !bytes.Equal(buf.Bytes(), tt.wire) {
				t.Errorf("WriteVarLong(%d) = %x, want %x", tt.value, buf.Bytes(), tt.wire)
			}

			got, err := NewBuffer(tt.wire).ReadVarLong()
			if err != nil {
				t.Fatalf("ReadVarLong() error = %v", err)
			}
			if got != tt.value {
				t.Errorf("ReadVarLong() = %d, want %d", got, tt.value)
			}
		})
	}
}

func TestVarLongTooBig(t *testing.T) {
	wire := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	_, err := NewBuffer(wire).ReadVarLong()
	if !errors.Is(err, ErrVarIntTooBig) {
		t.Errorf("ReadVarLong() error = %v, want %v", err, ErrVarIntTooBig)
	}
}

func TestVarIntLen(t *testing.T) {
	for _, v := range []int32{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, math.MaxInt32, -1} {
		buf := NewBuffer(nil)
		buf.WriteVarInt(v)
		if got := VarIntLen(v); got != buf.Len() {
			t.Errorf("VarIntLen(%d) = %d, want %d", v, got, buf.Len())
		}
	}
}

func TestStringEncodeDecode(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"ascii", "hello"},
		{"hostname", "play.example.com"},
		{"multibyte", "höhleé世界"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer(nil)
			buf.WriteString(tt.value)

			got, err := NewBuffer(buf.Bytes()).ReadString(MaxStringLength)
			if err != nil {
				t.Fatalf("ReadString() error = %v", err)
			}
			if got != tt.value {
				t.Errorf("ReadString() = %q, want %q", got, tt.value)
			}
		})
	}
}

func TestStringDecodeErrors(t *testing.T) {
	overlong := NewBuffer(nil)
	overlong.WriteString("abcdefghij")

	tests := []struct {
		name    string
		wire    []byte
		max     int
		wantErr error
	}{
		{"negative length", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}, 16, ErrNegativeLength},
		{"declared length past remainder", []byte{0x05, 'a', 'b'}, 16, ErrUnexpectedEOF},
		{"declared length past max", []byte{0xFF, 0xFF, 0x7F}, 16, ErrStringTooLong},
		{"rune count past max", overlong.Bytes(), 5, ErrStringTooLong},
		{"invalid utf-8", []byte{0x02, 0xC0, 0x20}, 16, ErrInvalidUTF8},
		{"empty buffer", []byte{}, 16, ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuffer(tt.wire).ReadString(tt.max)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadString() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFixedWidthRoundTrip(t *testing.T) {
	buf := NewBuffer(nil)
	buf.WriteBool(true)
	buf.WriteUint8(0xAB)
	buf.WriteInt8(-5)
	buf.WriteUint16(25565)
	buf.WriteInt16(-12345)
	buf.WriteInt32(-2000000000)
	buf.WriteInt64(math.MinInt64)
	buf.WriteUint64(math.MaxUint64)
	buf.WriteFloat32(3.5)
	buf.WriteFloat64(-0.25)

	r := NewBuffer(buf.Bytes())

	if v, err := r.ReadBool(); err != nil || v != true {
		t.Errorf("ReadBool() = %v, %v", v, err)
	}
	if v, err := r.ReadUint8(); err != nil || v != 0xAB {
		t.Errorf("ReadUint8() = %v, %v", v, err)
	}
	if v, err := r.ReadInt8(); err != nil || v != -5 {
		t.Errorf("ReadInt8() = %v, %v", v, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 25565 {
		t.Errorf("ReadUint16() = %v, %v", v, err)
	}
	if v, err := r.ReadInt16(); err != nil || v != -12345 {
		t.Errorf("ReadInt16() = %v, %v", v, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != -2000000000 {
		t.Errorf("ReadInt32() = %v, %v", v, err)
	}
	if v, err := r.ReadInt64(); err != nil || v != math.MinInt64 {
		t.Errorf("ReadInt64() = %v, %v", v, err)
	}
	if v, err := r.ReadUint64(); err != nil || v != math.MaxUint64 {
		t.Errorf("ReadUint64() = %v, %v", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || v != 3.5 {
		t.Errorf("ReadFloat32() = %v, %v", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || v != -0.25 {
		t.Errorf("ReadFloat64() = %v, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d after full read, want 0", r.Remaining())
	}
}

func TestReadPastEnd(t *testing.T) {
	r := NewBuffer([]byte{0x01, 0x02})
	if _, err := r.ReadInt32(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("ReadInt32() error = %v, want %v", err, ErrUnexpectedEOF)
	}
	// A failed read must not consume anything.
	if r.Remaining() != 2 {
		t.Errorf("Remaining() = %d after failed read, want 2", r.Remaining())
	}
}

func TestUUIDEncodeDecode(t *testing.T) {
	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")

	buf := NewBuffer(nil)
	buf.WriteUUID(id)

	// Wire form is the raw 16 bytes, most significant first.
	want := []byte{
		0x06, 0x9A, 0x79, 0xF4, 0x44, 0xE9, 0x47, 0x26,
		0xA5, 0xBE, 0xFC, 0xA9, 0x0E, 0x38, 0xAA, 0xF5,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("WriteUUID() = %x, want %x", buf.Bytes(), want)
	}

	got, err := NewBuffer(buf.Bytes()).ReadUUID()
	if err != nil {
		t.Fatalf("ReadUUID() error = %v", err)
	}
	if got != id {
		t.Errorf("ReadUUID() = %s, want %s", got, id)
	}
}

func TestPositionPacking(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
	}{
		{"origin", Position{0, 0, 0}},
		{"positive", Position{X: 1000, Y: 64, Z: 2000}},
		{"negative", Position{X: -1000, Y: -64, Z: -2000}},
		{"x extremes", Position{X: 33554431, Y: 0, Z: -33554432}},
		{"y extremes", Position{X: 0, Y: 2047, Z: 0}},
		{"y floor", Position{X: 0, Y: -2048, Z: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnpackPosition(tt.pos.Pack())
			if got != tt.pos {
				t.Errorf("UnpackPosition(Pack()) = %+v, want %+v", got, tt.pos)
			}
		})
	}
}

func TestPositionWireForm(t *testing.T) {
	// x=18357644 z=-20882616 y=831 in packed form.
	p := Position{X: 18357644, Y: 831, Z: -20882616}
	if got := p.Pack(); got != 0x4607632C15B4833F {
		t.Errorf("Pack() = %#016x, want 0x4607632C15B4833F", got)
	}
}

func TestByteArrayRoundTrip(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	buf := NewBuffer(nil)
	buf.WriteByteArray(payload)

	r := NewBuffer(buf.Bytes())
	got, err := r.ReadByteArray()
	if err != nil {
		t.Fatalf("ReadByteArray() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("ReadByteArray() = %x, want %x", got, payload)
	}
}

func TestByteArrayDeclaredPastRemainder(t *testing.T) {
	wire := []byte{0x7F, 0x01, 0x02}
	_, err := NewBuffer(wire).ReadByteArray()
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("ReadByteArray() error = %v, want %v", err, ErrUnexpectedEOF)
	}
}

func TestReadRemaining(t *testing.T) {
	r := NewBuffer([]byte{0x01, 0x02, 0x03})
	if _, err := r.ReadUint8(); err != nil {
		t.Fatalf("ReadUint8() error = %v", err)
	}

	rest := r.ReadRemaining()
	if !bytes.Equal(rest, []byte{0x02, 0x03}) {
		t.Errorf("ReadRemaining() = %x, want 0203", rest)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", r.Remaining())
	}
}
