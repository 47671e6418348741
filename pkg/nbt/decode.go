package nbt

import (
	"encoding/binary"
	"math"
)

// Decode reads one network-form tag from the front of data: a type
// byte, no name, then the payload. It returns the tag and the number
// of bytes consumed, leaving any trailing data to the caller.
func Decode(data []byte) (Tag, int, error) {
	d := &decoder{data: data}

	t, err := d.readType()
	if err != nil {
		return nil, 0, err
	}
	if t == TagEnd {
		return nil, 0, ErrInvalidTagType
	}

	tag, err := d.readPayload(t, 0)
	if err != nil {
		return nil, 0, err
	}
	return tag, d.pos, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) remaining() int {
	return len(d.data) - d.pos
}

func (d *decoder) readType() (TagType, error) {
	if d.remaining() < 1 {
		return TagEnd, ErrUnexpectedEOF
	}
	t := TagType(d.data[d.pos])
	d.pos++
	if t > TagLongArray {
		return TagEnd, ErrInvalidTagType
	}
	return t, nil
}

func (d *decoder) readInt16() (int16, error) {
	if d.remaining() < 2 {
		return 0, ErrUnexpectedEOF
	}
	v := int16(binary.BigEndian.Uint16(d.data[d.pos:]))
	d.pos += 2
	return v, nil
}

func (d *decoder) readInt32() (int32, error) {
	if d.remaining() < 4 {
		return 0, ErrUnexpectedEOF
	}
	v := int32(binary.BigEndian.Uint32(d.data[d.pos:]))
	d.pos += 4
	return v, nil
}

func (d *decoder) readInt64() (int64, error) {
	if d.remaining() < 8 {
		return 0, ErrUnexpectedEOF
	}
	v := int64(binary.BigEndian.Uint64(d.data[d.pos:]))
	d.pos += 8
	return v, nil
}

// readString consumes a uint16 length and that many bytes. Tag strings
// pass through as raw bytes; the format's modified UTF-8 quirks are
// not interpreted.
func (d *decoder) readString() (string, error) {
	if d.remaining() < 2 {
		return "", ErrUnexpectedEOF
	}
	n := int(binary.BigEndian.Uint16(d.data[d.pos:]))
	d.pos += 2
	if d.remaining() < n {
		return "", ErrUnexpectedEOF
	}
	s := string(d.data[d.pos : d.pos+n])
	d.pos += n
	return s, nil
}

func (d *decoder) readPayload(t TagType, depth int) (Tag, error) {
	if depth > MaxDepth {
		return nil, ErrNestingTooDeep
	}

	switch t {
	case TagByte:
		if d.remaining() < 1 {
			return nil, ErrUnexpectedEOF
		}
		v := Byte(d.data[d.pos])
		d.pos++
		return v, nil

	case TagShort:
		v, err := d.readInt16()
		return Short(v), err

	case TagInt:
		v, err := d.readInt32()
		return Int(v), err

	case TagLong:
		v, err := d.readInt64()
		return Long(v), err

	case TagFloat:
		v, err := d.readInt32()
		return Float(math.Float32frombits(uint32(v))), err

	case TagDouble:
		v, err := d.readInt64()
		return Double(math.Float64frombits(uint64(v))), err

	case TagByteArray:
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, ErrNegativeLength
		}
		if d.remaining() < int(n) {
			return nil, ErrUnexpectedEOF
		}
		out := make(ByteArray, n)
		copy(out, d.data[d.pos:])
		d.pos += int(n)
		return out, nil

	case TagString:
		s, err := d.readString()
		return String(s), err

	case TagList:
		return d.readList(depth)

	case TagCompound:
		return d.readCompound(depth)

	case TagIntArray:
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, ErrNegativeLength
		}
		if d.remaining() < int(n)*4 {
			return nil, ErrUnexpectedEOF
		}
		out := make(IntArray, n)
		for i := range out {
			v, _ := d.readInt32()
			out[i] = v
		}
		return out, nil

	case TagLongArray:
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, ErrNegativeLength
		}
		if d.remaining() < int(n)*8 {
			return nil, ErrUnexpectedEOF
		}
		out := make(LongArray, n)
		for i := range out {
			v, _ := d.readInt64()
			out[i] = v
		}
		return out, nil

	default:
		return nil, ErrInvalidTagType
	}
}

func (d *decoder) readList(depth int) (Tag, error) {
	elem, err := d.readType()
	if err != nil {
		return nil, err
	}
	count, err := d.readInt32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, ErrNegativeLength
	}
	// Only the end tag has a zero-size payload, and a non-empty list
	// of end tags is not a thing. This keeps count bounded by the
	// remaining bytes.
	if elem == TagEnd && count > 0 {
		return nil, ErrInvalidTagType
	}
	if int(count) > d.remaining() {
		return nil, ErrUnexpectedEOF
	}

	list := List{Elem: elem, Items: make([]Tag, 0, count)}
	for i := int32(0); i < count; i++ {
		item, err := d.readPayload(elem, depth+1)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
	}
	return list, nil
}

func (d *decoder) readCompound(depth int) (Tag, error) {
	c := Compound{}
	for {
		t, err := d.readType()
		if err != nil {
			return nil, err
		}
		if t == TagEnd {
			return c, nil
		}
		name, err := d.readString()
		if err != nil {
			return nil, err
		}
		child, err := d.readPayload(t, depth+1)
		if err != nil {
			return nil, err
		}
		c[name] = child
	}
}
