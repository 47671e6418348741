// Package nbt implements the self-describing tagged tree format used
// for structured payloads inside packets (text components, registry
// data). It covers the network form: a root tag with a type byte and
// no name, as the protocol has carried since game version 1.20.2.
//
// Decoding is recursive with a hard depth bound, and every length
// prefix is checked against the unread remainder before allocation, so
// corrupt or hostile input surfaces as an error instead of a large
// allocation or a stack overflow.
package nbt

import "errors"

// TagType identifies the payload shape of a tag.
type TagType byte

const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

// String returns the tag type name for errors and logging.
func (t TagType) String() string {
	switch t {
	case TagEnd:
		return "end"
	case TagByte:
		return "byte"
	case TagShort:
		return "short"
	case TagInt:
		return "int"
	case TagLong:
		return "long"
	case TagFloat:
		return "float"
	case TagDouble:
		return "double"
	case TagByteArray:
		return "byte_array"
	case TagString:
		return "string"
	case TagList:
		return "list"
	case TagCompound:
		return "compound"
	case TagIntArray:
		return "int_array"
	case TagLongArray:
		return "long_array"
	default:
		return "invalid"
	}
}

// MaxDepth bounds tree nesting in both directions.
const MaxDepth = 512

var (
	ErrNestingTooDeep = errors.New("nbt: nesting exceeds maximum depth")
	ErrUnexpectedEOF  = errors.New("nbt: unexpected end of data")
	ErrInvalidTagType = errors.New("nbt: invalid tag type")
	ErrNegativeLength = errors.New("nbt: negative length")
	ErrStringTooLong  = errors.New("nbt: string exceeds uint16 length")
	ErrListElemType   = errors.New("nbt: list element type mismatch")
	ErrNilTag         = errors.New("nbt: nil tag")
)

// Tag is one node of the tree. The concrete types below mirror the
// wire tag types one to one.
type Tag interface {
	Type() TagType
}

type (
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	ByteArray []byte
	String    string
	IntArray  []int32
	LongArray []int64

	// Compound maps names to child tags. Encoding renders entries in
	// sorted key order so output is deterministic.
	Compound map[string]Tag

	// List holds same-typed children. Elem must match every item's
	// type; it also types the empty list.
	List struct {
		Elem  TagType
		Items []Tag
	}
)

func (Byte) Type() TagType      { return TagByte }
func (Short) Type() TagType     { return TagShort }
func (Int) Type() TagType       { return TagInt }
func (Long) Type() TagType      { return TagLong }
func (Float) Type() TagType     { return TagFloat }
func (Double) Type() TagType    { return TagDouble }
func (ByteArray) Type() TagType { return TagByteArray }
func (String) Type() TagType    { return TagString }
func (IntArray) Type() TagType  { return TagIntArray }
func (LongArray) Type() TagType { return TagLongArray }
func (Compound) Type() TagType  { return TagCompound }
func (List) Type() TagType      { return TagList }
