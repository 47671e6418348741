package nbt

import (
	"encoding/binary"
	"math"
	"sort"
)

// Encode renders t in network form: a type byte, no name, then the
// payload. Compound entries render in sorted key order, so equal trees
// produce identical bytes.
func Encode(t Tag) ([]byte, error) {
	if t == nil {
		return nil, ErrNilTag
	}
	e := &encoder{}
	e.buf = append(e.buf, byte(t.Type()))
	if err := e.writePayload(t, 0); err != nil {
		return nil, err
	}
	return e.buf, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) writeString(s string) error {
	if len(s) > math.MaxUint16 {
		return ErrStringTooLong
	}
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(len(s)))
	e.buf = append(e.buf, s...)
	return nil
}

// writePayload walks the tree. A Compound can be made to contain
// itself, so encoding carries the same depth bound as decoding.
func (e *encoder) writePayload(t Tag, depth int) error {
	if depth > MaxDepth {
		return ErrNestingTooDeep
	}

	switch v := t.(type) {
	case Byte:
		e.buf = append(e.buf, byte(v))

	case Short:
		e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(v))

	case Int:
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(v))

	case Long:
		e.buf = binary.BigEndian.AppendUint64(e.buf, uint64(v))

	case Float:
		e.buf = binary.BigEndian.AppendUint32(e.buf, math.Float32bits(float32(v)))

	case Double:
		e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(float64(v)))

	case ByteArray:
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(len(v)))
		e.buf = append(e.buf, v...)

	case String:
		return e.writeString(string(v))

	case IntArray:
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(len(v)))
		for _, n := range v {
			e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(n))
		}

	case LongArray:
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(len(v)))
		for _, n := range v {
			e.buf = binary.BigEndian.AppendUint64(e.buf, uint64(n))
		}

	case List:
		e.buf = append(e.buf, byte(v.Elem))
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(len(v.Items)))
		for _, item := range v.Items {
			if item == nil {
				return ErrNilTag
			}
			if item.Type() != v.Elem {
				return ErrListElemType
			}
			if err := e.writePayload(item, depth+1); err != nil {
				return err
			}
		}

	case Compound:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			child := v[name]
			if child == nil {
				return ErrNilTag
			}
			e.buf = append(e.buf, byte(child.Type()))
			if err := e.writeString(name); err != nil {
				return err
			}
			if err := e.writePayload(child, depth+1); err != nil {
				return err
			}
		}
		e.buf = append(e.buf, byte(TagEnd))

	default:
		return ErrInvalidTagType
	}

	return nil
}
