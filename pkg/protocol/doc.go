// Package protocol implements the wire codec and packet tables for the
// Minecraft Java-edition network protocol.
//
// The package defines the primitive field codec, the concrete packet
// types, and the versioned registry that binds wire ids to packets.
// Connection handling, framing, compression, and encryption live in
// pkg/network; this package is pure data plumbing with no I/O.
//
// # Protocol Overview
//
// The protocol is a length-prefixed binary protocol over TCP:
//   - Every packet travels as a frame: VarInt length, then payload
//   - The payload starts with a VarInt wire id, then the packet fields
//   - Wire ids are scoped to (protocol version, phase, direction)
//   - Multi-byte integers are big-endian; VarInts are 7-bit groups,
//     least significant first, high bit marking continuation
//
// # Phases
//
// A connection moves through phases, each with its own id table:
//
//	Handshake:     the single intention packet selecting what follows
//	Status:        server list ping (request/response, ping/pong)
//	Login:         identity, encryption challenge, compression setup
//	Configuration: settings and data pack negotiation
//	Play:          the game itself
//
// Transitions are edge-triggered by specific packets: the intention
// packet leaves handshake, login acknowledgment enters configuration,
// and the finish-configuration acknowledgment enters play.
//
// # Packet Identity
//
// Wire ids are unstable across game versions, so packets carry a
// stable Kind and the Registry owns the (version, phase, direction,
// id) binding in both directions. Code reacting to packets switches on
// kinds; only the declarative tables in this package mention raw ids.
//
// The shipped tables cover protocol 774 (game version 1.21.9). The
// registry is fully versioned: callers build their own Registry and
// Register rows for other versions, then Freeze it before use. A
// frozen registry is immutable and safe for concurrent readers.
//
// # Field Types
//
// Buffer provides the primitive field codec:
//   - VarInt/VarLong: variable-length 32/64-bit integers
//   - String: VarInt byte length plus UTF-8 data, validated on read
//   - UUID: 16 bytes, most significant first
//   - Position: x/z/y block coordinates packed into one uint64
//   - ByteArray: VarInt length plus raw bytes
//   - Fixed-width booleans, integers, and IEEE 754 floats
//
// All read methods return explicit errors; short input surfaces as
// ErrUnexpectedEOF, hostile length prefixes as ErrNegativeLength or
// ErrStringTooLong before any allocation happens.
//
// # Usage Example
//
//	// Decode one frame payload received in the login phase.
//	pkt, err := protocol.Default().Decode(
//	    protocol.Version774, protocol.PhaseLogin, protocol.Serverbound, payload)
//	if errors.Is(err, protocol.ErrUnknownPacket) {
//	    // Frame consumed, connection continues.
//	}
//
//	switch p := pkt.(type) {
//	case *protocol.LoginStart:
//	    fmt.Println("player", p.Name)
//	}
package protocol
