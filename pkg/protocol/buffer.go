package protocol

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Buffer is the byte cursor all packet field codecs operate on. Write
// methods append to the backing slice; read methods consume from the
// current position and return explicit errors instead of panicking on
// short input.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	data []byte
	pos  int
}

// NewBuffer wraps data for reading. NewBuffer(nil) gives an empty
// buffer ready for writing.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the full backing slice, including bytes already read.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the total number of bytes in the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.pos
}

// Peek returns the unread bytes without consuming them.
func (b *Buffer) Peek() []byte {
	return b.data[b.pos:]
}

// Skip consumes n bytes without interpreting them.
func (b *Buffer) Skip(n int) error {
	if n < 0 {
		return ErrNegativeLength
	}
	if b.Remaining() < n {
		return ErrUnexpectedEOF
	}
	b.pos += n
	return nil
}

// ===== FIXED-WIDTH WRITERS =====

// WriteBool appends a bool as a single 0x00 or 0x01 byte.
func (b *Buffer) WriteBool(v bool) {
	if v {
		b.data = append(b.data, 1)
	} else {
		b.data = append(b.data, 0)
	}
}

// WriteUint8 appends a single byte.
func (b *Buffer) WriteUint8(v uint8) {
	b.data = append(b.data, v)
}

// WriteInt8 appends a signed byte.
func (b *Buffer) WriteInt8(v int8) {
	b.data = append(b.data, byte(v))
}

// WriteUint16 appends a big-endian uint16.
func (b *Buffer) WriteUint16(v uint16) {
	b.data = binary.BigEndian.AppendUint16(b.data, v)
}

// WriteInt16 appends a big-endian int16.
func (b *Buffer) WriteInt16(v int16) {
	b.data = binary.BigEndian.AppendUint16(b.data, uint16(v))
}

// WriteInt32 appends a big-endian int32.
func (b *Buffer) WriteInt32(v int32) {
	b.data = binary.BigEndian.AppendUint32(b.data, uint32(v))
}

// WriteInt64 appends a big-endian int64.
func (b *Buffer) WriteInt64(v int64) {
	b.data = binary.BigEndian.AppendUint64(b.data, uint64(v))
}

// WriteUint64 appends a big-endian uint64.
func (b *Buffer) WriteUint64(v uint64) {
	b.data = binary.BigEndian.AppendUint64(b.data, v)
}

// WriteFloat32 appends an IEEE 754 single in big-endian byte order.
func (b *Buffer) WriteFloat32(v float32) {
	b.data = binary.BigEndian.AppendUint32(b.data, math.Float32bits(v))
}

// WriteFloat64 appends an IEEE 754 double in big-endian byte order.
func (b *Buffer) WriteFloat64(v float64) {
	b.data = binary.BigEndian.AppendUint64(b.data, math.Float64bits(v))
}

// ===== FIXED-WIDTH READERS =====

// ReadBool consumes one byte; any non-zero value reads as true.
func (b *Buffer) ReadBool() (bool, error) {
	v, err := b.ReadUint8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadUint8 consumes a single byte.
func (b *Buffer) ReadUint8() (uint8, error) {
	if b.pos >= len(b.data) {
		return 0, ErrUnexpectedEOF
	}
	v := b.data[b.pos]
	b.pos++
	return v, nil
}

// ReadInt8 consumes a signed byte.
func (b *Buffer) ReadInt8() (int8, error) {
	v, err := b.ReadUint8()
	return int8(v), err
}

// ReadUint16 consumes a big-endian uint16.
func (b *Buffer) ReadUint16() (uint16, error) {
	if b.Remaining() < 2 {
		return 0, ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint16(b.data[b.pos:])
	b.pos += 2
	return v, nil
}

// ReadInt16 consumes a big-endian int16.
func (b *Buffer) ReadInt16() (int16, error) {
	v, err := b.ReadUint16()
	return int16(v), err
}

// ReadInt32 consumes a big-endian int32.
func (b *Buffer) ReadInt32() (int32, error) {
	if b.Remaining() < 4 {
		return 0, ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint32(b.data[b.pos:])
	b.pos += 4
	return int32(v), nil
}

// ReadInt64 consumes a big-endian int64.
func (b *Buffer) ReadInt64() (int64, error) {
	v, err := b.ReadUint64()
	return int64(v), err
}

// ReadUint64 consumes a big-endian uint64.
func (b *Buffer) ReadUint64() (uint64, error) {
	if b.Remaining() < 8 {
		return 0, ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint64(b.data[b.pos:])
	b.pos += 8
	return v, nil
}

// ReadFloat32 consumes an IEEE 754 single.
func (b *Buffer) ReadFloat32() (float32, error) {
	if b.Remaining() < 4 {
		return 0, ErrUnexpectedEOF
	}
	v := math.Float32frombits(binary.BigEndian.Uint32(b.data[b.pos:]))
	b.pos += 4
	return v, nil
}

// ReadFloat64 consumes an IEEE 754 double.
func (b *Buffer) ReadFloat64() (float64, error) {
	if b.Remaining() < 8 {
		return 0, ErrUnexpectedEOF
	}
	v := math.Float64frombits(binary.BigEndian.Uint64(b.data[b.pos:]))
	b.pos += 8
	return v, nil
}

// ===== VARIABLE-LENGTH INTEGERS =====

// WriteVarInt appends v in variable-length form: least significant
// 7-bit group first, high bit marking continuation. The encoding is
// minimal, at most 5 bytes.
func (b *Buffer) WriteVarInt(v int32) {
	u := uint32(v)
	for u&^0x7F != 0 {
		b.data = append(b.data, byte(u&0x7F|0x80))
		u >>= 7
	}
	b.data = append(b.data, byte(u))
}

// ReadVarInt consumes a variable-length int32. A fifth byte with the
// continuation bit set fails with ErrVarIntTooBig.
func (b *Buffer) ReadVarInt() (int32, error) {
	var v uint32
	for shift := 0; shift < 35; shift += 7 {
		c, err := b.ReadUint8()
		if err != nil {
			return 0, err
		}
		v |= uint32(c&0x7F) << shift
		if c&0x80 == 0 {
			return int32(v), nil
		}
	}
	return 0, ErrVarIntTooBig
}

// WriteVarLong appends v in variable-length form, at most 10 bytes.
func (b *Buffer) WriteVarLong(v int64) {
	u := uint64(v)
	for u&^0x7F != 0 {
		b.data = append(b.data, byte(u&0x7F|0x80))
		u >>= 7
	}
	b.data = append(b.data, byte(u))
}

// ReadVarLong consumes a variable-length int64. A tenth byte with the
// continuation bit set fails with ErrVarIntTooBig.
func (b *Buffer) ReadVarLong() (int64, error) {
	var v uint64
	for shift := 0; shift < 70; shift += 7 {
		c, err := b.ReadUint8()
		if err != nil {
			return 0, err
		}
		v |= uint64(c&0x7F) << shift
		if c&0x80 == 0 {
			return int64(v), nil
		}
	}
	return 0, ErrVarIntTooBig
}

// VarIntLen returns the encoded size of v in bytes.
func VarIntLen(v int32) int {
	n := 1
	for u := uint32(v); u&^0x7F != 0; u >>= 7 {
		n++
	}
	return n
}

// ===== STRINGS AND BYTE SLICES =====

// WriteString appends a VarInt byte length followed by the UTF-8 bytes
// of s.
func (b *Buffer) WriteString(s string) {
	b.WriteVarInt(int32(len(s)))
	b.data = append(b.data, s...)
}

// ReadString consumes a VarInt byte length and that many UTF-8 bytes.
// max bounds the rune count; the declared byte length is rejected past
// 4*max before any allocation so hostile prefixes cannot force large
// reads.
func (b *Buffer) ReadString(max int) (string, error) {
	n, err := b.ReadVarInt()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", ErrNegativeLength
	}
	if int(n) > max*4 {
		return "", ErrStringTooLong
	}
	raw, err := b.ReadRaw(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", ErrInvalidUTF8
	}
	if utf8.RuneCount(raw) > max {
		return "", ErrStringTooLong
	}
	return string(raw), nil
}

// WriteByteArray appends a VarInt length followed by the raw bytes.
func (b *Buffer) WriteByteArray(p []byte) {
	b.WriteVarInt(int32(len(p)))
	b.data = append(b.data, p...)
}

// ReadByteArray consumes a VarInt length and that many bytes. The
// declared length is bounded by the unread remainder, so a corrupt
// prefix cannot force a large allocation.
func (b *Buffer) ReadByteArray() ([]byte, error) {
	n, err := b.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, ErrNegativeLength
	}
	return b.ReadRaw(int(n))
}

// WriteRaw appends p with no length prefix.
func (b *Buffer) WriteRaw(p []byte) {
	b.data = append(b.data, p...)
}

// ReadRaw consumes exactly n bytes. The returned slice is a copy.
func (b *Buffer) ReadRaw(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeLength
	}
	if b.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	out := make([]byte, n)
	copy(out, b.data[b.pos:])
	b.pos += n
	return out, nil
}

// ReadRemaining consumes and returns all unread bytes.
func (b *Buffer) ReadRemaining() []byte {
	out := make([]byte, b.Remaining())
	copy(out, b.data[b.pos:])
	b.pos = len(b.data)
	return out
}

// ===== COMPOSITE TYPES =====

// WriteUUID appends the 16 bytes of u, most significant first. This is
// the two big-endian uint64 wire form.
func (b *Buffer) WriteUUID(u uuid.UUID) {
	b.data = append(b.data, u[:]...)
}

// ReadUUID consumes 16 bytes into a UUID.
func (b *Buffer) ReadUUID() (uuid.UUID, error) {
	var u uuid.UUID
	if b.Remaining() < 16 {
		return u, ErrUnexpectedEOF
	}
	copy(u[:], b.data[b.pos:])
	b.pos += 16
	return u, nil
}

// WritePosition appends a packed block position.
func (b *Buffer) WritePosition(p Position) {
	b.WriteUint64(p.Pack())
}

// ReadPosition consumes a packed block position.
func (b *Buffer) ReadPosition() (Position, error) {
	v, err := b.ReadUint64()
	if err != nil {
		return Position{}, err
	}
	return UnpackPosition(v), nil
}
