package protocol

import (
	"fmt"
	"sync"
)

// Row declares one packet binding for registration.
type Row struct {
	Version   int32
	Phase     Phase
	Direction Direction
	ID        int32
	Kind      Kind
	New       func() Packet
}

// Entry is a resolved registry binding.
type Entry struct {
	ID   int32
	Kind Kind
	New  func() Packet
}

type idKey struct {
	version   int32
	phase     Phase
	direction Direction
	id        int32
}

type kindKey struct {
	version   int32
	phase     Phase
	direction Direction
	kind      Kind
}

// Registry maps (version, phase, direction, wire id) to packet
// constructors, and the reverse mapping from kind to wire id for
// encoding. Register rows at startup, call Freeze, then share freely:
// a frozen registry is immutable and safe for concurrent readers.
type Registry struct {
	mu     sync.Mutex
	frozen bool
	byID   map[idKey]*Entry
	byKind map[kindKey]*Entry
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[idKey]*Entry),
		byKind: make(map[kindKey]*Entry),
	}
}

// Register adds rows to the table. It panics on a duplicate binding or
// after Freeze: both are table construction bugs, not runtime
// conditions.
func (r *Registry) Register(rows ...Row) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		panic("protocol: register after freeze")
	}

	for _, row := range rows {
		if row.New == nil {
			panic(fmt.Sprintf("protocol: nil constructor for %s", row.Kind))
		}

		ik := idKey{row.Version, row.Phase, row.Direction, row.ID}
		if _, exists := r.byID[ik]; exists {
			panic(fmt.Sprintf("protocol: duplicate id 0x%02X in %s/%s v%d",
				row.ID, row.Phase, row.Direction, row.Version))
		}

		kk := kindKey{row.Version, row.Phase, row.Direction, row.Kind}
		if _, exists := r.byKind[kk]; exists {
			panic(fmt.Sprintf("protocol: duplicate kind %s in %s/%s v%d",
				row.Kind, row.Phase, row.Direction, row.Version))
		}

		entry := &Entry{ID: row.ID, Kind: row.Kind, New: row.New}
		r.byID[ik] = entry
		r.byKind[kk] = entry
	}
}

// Freeze marks the table complete. It returns r for chaining.
func (r *Registry) Freeze() *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	return r
}

// Lookup resolves a wire id. Absence is not an error: ids unknown to
// the table are expected from newer peers and are the caller's call.
func (r *Registry) Lookup(version int32, phase Phase, direction Direction, id int32) (*Entry, bool) {
	e, ok := r.byID[idKey{version, phase, direction, id}]
	return e, ok
}

// LookupKind resolves the wire id a kind carries in one
// version/phase/direction cell.
func (r *Registry) LookupKind(version int32, phase Phase, direction Direction, kind Kind) (*Entry, bool) {
	e, ok := r.byKind[kindKey{version, phase, direction, kind}]
	return e, ok
}

// Decode parses one frame payload: a leading VarInt wire id, then the
// packet body. The body must consume the payload exactly; leftover
// bytes fail with ErrTrailingBytes. An id with no table entry fails
// with ErrUnknownPacket, the one decode error a connection survives.
func (r *Registry) Decode(version int32, phase Phase, direction Direction, payload []byte) (Packet, error) {
	buf := NewBuffer(payload)

	id, err := buf.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("failed to read packet id: %w", err)
	}

	entry, ok := r.Lookup(version, phase, direction, id)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X in %s/%s v%d",
			ErrUnknownPacket, id, phase, direction, version)
	}

	pkt := entry.New()
	if err := pkt.Decode(buf); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", entry.Kind, err)
	}

	if buf.Remaining() > 0 {
		return nil, fmt.Errorf("%w: %d after %s", ErrTrailingBytes, buf.Remaining(), entry.Kind)
	}

	return pkt, nil
}

// Encode renders the frame payload for p: its wire id in this cell,
// then the packet body. A kind with no binding in the cell fails with
// ErrUnknownPacket.
func (r *Registry) Encode(version int32, phase Phase, direction Direction, p Packet) ([]byte, error) {
	entry, ok := r.LookupKind(version, phase, direction, p.Kind())
	if !ok {
		return nil, fmt.Errorf("%w: no id for %s in %s/%s v%d",
			ErrUnknownPacket, p.Kind(), phase, direction, version)
	}

	buf := NewBuffer(nil)
	buf.WriteVarInt(entry.ID)
	if err := p.Encode(buf); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", entry.Kind, err)
	}

	return buf.Bytes(), nil
}

// defaultRegistry carries the tables shipped with this package.
var defaultRegistry = func() *Registry {
	r := NewRegistry()
	r.Register(rows774()...)
	return r.Freeze()
}()

// Default returns the registry with the built-in version tables. It is
// frozen; callers needing extra versions or rows build their own with
// NewRegistry and Register.
func Default() *Registry {
	return defaultRegistry
}
