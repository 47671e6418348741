package protocol

// Position is a block coordinate triple. On the wire it packs into a
// single uint64: x in the top 26 bits, z in the middle 26, y in the low
// 12, each field two's-complement.
type Position struct {
	X int32
	Y int32
	Z int32
}

// Pack packs the coordinates into wire form. Coordinates outside the
// representable range wrap, matching the wire format's truncation.
func (p Position) Pack() uint64 {
	return (uint64(uint32(p.X))&0x3FFFFFF)<<38 |
		(uint64(uint32(p.Z))&0x3FFFFFF)<<12 |
		uint64(uint32(p.Y))&0xFFF
}

// UnpackPosition reverses Pack, sign-extending each field.
func UnpackPosition(v uint64) Position {
	return Position{
		X: int32(int64(v) >> 38),
		Y: int32(int64(v) << 52 >> 52),
		Z: int32(int64(v) << 26 >> 38),
	}
}
