package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestRegistryLookup(t *testing.T) {
	r := Default()

	tests := []struct {
		name      string
		phase     Phase
		direction Direction
		id        int32
		wantKind  Kind
		wantOK    bool
	}{
		{"handshake intention", PhaseHandshake, Serverbound, 0x00, KindIntention, true},
		{"status request", PhaseStatus, Serverbound, 0x00, KindStatusRequest, true},
		{"login start", PhaseLogin, Serverbound, 0x00, KindLoginStart, true},
		{"encryption request", PhaseLogin, Clientbound, 0x01, KindEncryptionRequest, true},
		{"set compression", PhaseLogin, Clientbound, 0x03, KindSetCompression, true},
		{"config keep alive", PhaseConfiguration, Clientbound, 0x04, KindKeepAlive, true},
		{"play keep alive serverbound", PhasePlay, Serverbound, 0x1B, KindKeepAlive, true},
		{"play keep alive clientbound", PhasePlay, Clientbound, 0x2B, KindKeepAlive, true},
		{"unknown id", PhasePlay, Serverbound, 0x7F, KindUnknown, false},
		{"status id in play", PhasePlay, Serverbound, 0x01, KindUnknown, false},
		{"clientbound id on serverbound side", PhaseLogin, Serverbound, 0x02, KindUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := r.Lookup(Version774, tt.phase, tt.direction, tt.id)
			if ok != tt.wantOK {
				t.Fatalf("Lookup() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && entry.Kind != tt.wantKind {
				t.Errorf("Lookup() kind = %s, want %s", entry.Kind, tt.wantKind)
			}
		})
	}
}

func TestRegistryUnknownVersion(t *testing.T) {
	if _, ok := Default().Lookup(999, PhaseLogin, Serverbound, 0x00); ok {
		t.Error("Lookup() resolved an id in an unregistered version")
	}
}

func TestRegistryDecode(t *testing.T) {
	// A login start frame payload: id 0x00, name, uuid.
	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	buf := NewBuffer(nil)
	buf.WriteVarInt(0x00)
	buf.WriteString("Notch")
	buf.WriteUUID(id)

	pkt, err := Default().Decode(Version774, PhaseLogin, Serverbound, buf.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	start, ok := pkt.(*LoginStart)
	if !ok {
		t.Fatalf("Decode() type = %T, want *LoginStart", pkt)
	}
	if start.Name != "Notch" {
		t.Errorf("Name = %q, want %q", start.Name, "Notch")
	}
	if start.UUID != id {
		t.Errorf("UUID = %s, want %s", start.UUID, id)
	}
}

func TestRegistryDecodeUnknownPacket(t *testing.T) {
	buf := NewBuffer(nil)
	buf.WriteVarInt(0x7F)
	buf.WriteRaw([]byte{0x01, 0x02, 0x03})

	_, err := Default().Decode(Version774, PhasePlay, Serverbound, buf.Bytes())
	if !errors.Is(err, ErrUnknownPacket) {
		t.Errorf("Decode() error = %v, want %v", err, ErrUnknownPacket)
	}
}

func TestRegistryDecodeTrailingBytes(t *testing.T) {
	buf := NewBuffer(nil)
	buf.WriteVarInt(0x04) // configuration keep-alive
	buf.WriteInt64(42)
	buf.WriteUint8(0xFF) // one byte too many

	_, err := Default().Decode(Version774, PhaseConfiguration, Serverbound, buf.Bytes())
	if !errors.Is(err, ErrTrailingBytes) {
		t.Errorf("Decode() error = %v, want %v", err, ErrTrailingBytes)
	}
}

func TestRegistryDecodeTruncated(t *testing.T) {
	buf := NewBuffer(nil)
	buf.WriteVarInt(0x04)
	buf.WriteRaw([]byte{0x00, 0x00}) // keep-alive id cut short

	_, err := Default().Decode(Version774, PhaseConfiguration, Serverbound, buf.Bytes())
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("Decode() error = %v, want %v", err, ErrUnexpectedEOF)
	}
}

func TestRegistryEncodeDecodeMirror(t *testing.T) {
	r := Default()

	packets := []Packet{
		&Intention{ProtocolVersion: Version774, ServerAddress: "play.example.com", ServerPort: 25565, Intent: IntentLogin},
		&StatusRequest{},
		&PingRequest{Timestamp: 1724371200123},
		&KeepAlive{ID: -7},
		&MovePlayerPosRot{X: 100.5, FeetY: 64, Z: -32.25, Yaw: 90, Pitch: -10, Flags: 0x01},
	}

	phases := map[Kind]Phase{
		KindIntention:        PhaseHandshake,
		KindStatusRequest:    PhaseStatus,
		KindPingRequest:      PhaseStatus,
		KindKeepAlive:        PhasePlay,
		KindMovePlayerPosRot: PhasePlay,
	}

	for _, p := range packets {
		phase := phases[p.Kind()]

		payload, err := r.Encode(Version774, phase, Serverbound, p)
		if err != nil {
			t.Fatalf("Encode(%s) error = %v", p.Kind(), err)
		}

		decoded, err := r.Decode(Version774, phase, Serverbound, payload)
		if err != nil {
			t.Fatalf("Decode(%s) error = %v", p.Kind(), err)
		}

		reencoded, err := r.Encode(Version774, phase, Serverbound, decoded)
		if err != nil {
			t.Fatalf("re-Encode(%s) error = %v", p.Kind(), err)
		}
		if !bytes.Equal(payload, reencoded) {
			t.Errorf("%s: encode/decode/encode changed bytes: %x != %x", p.Kind(), payload, reencoded)
		}
	}
}

func TestRegistryEncodeUnboundKind(t *testing.T) {
	// Keep-alive has no binding in the status phase.
	_, err := Default().Encode(Version774, PhaseStatus, Serverbound, &KeepAlive{ID: 1})
	if !errors.Is(err, ErrUnknownPacket) {
		t.Errorf("Encode() error = %v, want %v", err, ErrUnknownPacket)
	}
}

func TestRegistryCustomVersion(t *testing.T) {
	// Callers can stand up their own tables for versions this package
	// does not ship, with ids unrelated to 774's.
	r := NewRegistry()
	r.Register(Row{
		Version:   500,
		Phase:     PhasePlay,
		Direction: Clientbound,
		ID:        0x21,
		Kind:      KindKeepAlive,
		New:       func() Packet { return &KeepAlive{} },
	})
	r.Freeze()

	entry, ok := r.Lookup(500, PhasePlay, Clientbound, 0x21)
	if !ok {
		t.Fatal("Lookup() failed for registered custom row")
	}
	if entry.Kind != KindKeepAlive {
		t.Errorf("Kind = %s, want %s", entry.Kind, KindKeepAlive)
	}

	if _, ok := r.Lookup(Version774, PhasePlay, Clientbound, 0x2B); ok {
		t.Error("custom registry resolved a version it never registered")
	}
}

func TestRegistryRegisterAfterFreezePanics(t *testing.T) {
	r := NewRegistry().Freeze()

	defer func() {
		if recover() == nil {
			t.Error("Register() after Freeze() did not panic")
		}
	}()
	r.Register(Row{
		Version: 500, Phase: PhasePlay, Direction: Clientbound, ID: 0x21,
		Kind: KindKeepAlive, New: func() Packet { return &KeepAlive{} },
	})
}

func TestRegistryDuplicateIDPanics(t *testing.T) {
	r := NewRegistry()
	row := Row{
		Version: 500, Phase: PhasePlay, Direction: Clientbound, ID: 0x21,
		Kind: KindKeepAlive, New: func() Packet { return &KeepAlive{} },
	}
	r.Register(row)

	defer func() {
		if recover() == nil {
			t.Error("Register() with duplicate id did not panic")
		}
	}()
	r.Register(row)
}

func TestRegistryBuildDeterministic(t *testing.T) {
	// Two registries built from the same rows must resolve every cell
	// identically, in both directions.
	a := NewRegistry()
	a.Register(rows774()...)
	a.Freeze()

	b := NewRegistry()
	b.Register(rows774()...)
	b.Freeze()

	for _, row := range rows774() {
		ea, okA := a.Lookup(row.Version, row.Phase, row.Direction, row.ID)
		eb, okB := b.Lookup(row.Version, row.Phase, row.Direction, row.ID)
		if !okA || !okB {
			t.Fatalf("Lookup(0x%02X %s/%s) ok = %v, %v, want both true",
				row.ID, row.Phase, row.Direction, okA, okB)
		}
		if ea.Kind != eb.Kind || ea.ID != eb.ID {
			t.Errorf("Lookup(0x%02X %s/%s) = %s/0x%02X and %s/0x%02X",
				row.ID, row.Phase, row.Direction, ea.Kind, ea.ID, eb.Kind, eb.ID)
		}

		ka, okA := a.LookupKind(row.Version, row.Phase, row.Direction, row.Kind)
		kb, okB := b.LookupKind(row.Version, row.Phase, row.Direction, row.Kind)
		if !okA || !okB {
			t.Fatalf("LookupKind(%s %s/%s) ok = %v, %v, want both true",
				row.Kind, row.Phase, row.Direction, okA, okB)
		}
		if ka.ID != kb.ID {
			t.Errorf("LookupKind(%s %s/%s) id = 0x%02X and 0x%02X",
				row.Kind, row.Phase, row.Direction, ka.ID, kb.ID)
		}
	}

	// Misses agree too.
	if _, ok := a.Lookup(Version774, PhaseStatus, Serverbound, 0x7F); ok {
		t.Error("first build resolved an unregistered id")
	}
	if _, ok := b.Lookup(Version774, PhaseStatus, Serverbound, 0x7F); ok {
		t.Error("second build resolved an unregistered id")
	}
}
