package network

import (
	"crypto/cipher"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/minegate/minegate-node/pkg/crypto"
	"github.com/minegate/minegate-node/pkg/protocol"
)

// Side identifies which end of the connection this process is.
type Side uint8

const (
	// SideServer reads serverbound packets and writes clientbound ones.
	SideServer Side = iota
	// SideClient reads clientbound packets and writes serverbound ones.
	SideClient
)

// UnknownPacket marks a frame whose wire id has no registry row. It is
// only surfaced in the Configuration and Play phases, where the set of
// packets is open-ended; the connection stays usable after one.
type UnknownPacket struct {
	ID      int32
	Payload []byte
}

func (p *UnknownPacket) Kind() protocol.Kind { return protocol.KindUnknown }

func (p *UnknownPacket) Encode(b *protocol.Buffer) error {
	b.WriteRaw(p.Payload)
	return nil
}

func (p *UnknownPacket) Decode(b *protocol.Buffer) error {
	p.Payload = b.ReadRemaining()
	return nil
}

// Conn runs the per-connection protocol state machine over an optional
// transport. With a net.Conn attached, ReadPacket blocks on the socket;
// without one, Feed supplies inbound wire bytes and Drain collects
// outbound ones, which is how tests and callers with their own
// transport drive it.
//
// ReadPacket must be called from a single goroutine. WritePacket is
// safe for concurrent use.
type Conn struct {
	netConn net.Conn
	side    Side
	reg     *protocol.Registry
	log     zerolog.Logger
	metrics *Metrics

	// mu guards the fields below.
	mu         sync.Mutex
	phase      protocol.Phase
	version    int32
	threshold  int32
	encryptOut cipher.Stream
	decryptIn  cipher.Stream
	secret     []byte
	acc        accumulator
	out        []byte
	err        error

	// Play sub-state. The connection is spawned once the first
	// position sync has been confirmed by the peer.
	spawned         bool
	pendingTeleport int32
	hasPending      bool

	// writeMu serializes WritePacket so frames and cipher state stay
	// ordered on the stream.
	writeMu sync.Mutex

	readBuf []byte
	readErr error
}

// NewConn wraps an established transport.
func NewConn(nc net.Conn, side Side) *Conn {
	c := newConn(side)
	c.netConn = nc
	c.readBuf = make([]byte, 4096)
	return c
}

// NewByteConn returns a transportless connection fed through Feed and
// drained through Drain.
func NewByteConn(side Side) *Conn {
	return newConn(side)
}

func newConn(side Side) *Conn {
	return &Conn{
		side:      side,
		reg:       protocol.Default(),
		log:       zerolog.Nop(),
		phase:     protocol.PhaseHandshake,
		version:   protocol.Version774,
		threshold: -1,
	}
}

// SetLogger replaces the connection logger.
func (c *Conn) SetLogger(log zerolog.Logger) {
	c.log = log
}

// SetRegistry replaces the packet registry. Must be called before any
// packet is read or written.
func (c *Conn) SetRegistry(reg *protocol.Registry) {
	c.reg = reg
}

// AttachMetrics attaches a metrics recorder.
func (c *Conn) AttachMetrics(m *Metrics) {
	c.metrics = m
}

// Phase returns the current protocol phase.
func (c *Conn) Phase() protocol.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Version returns the negotiated protocol version.
func (c *Conn) Version() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// SetVersion overrides the protocol version used for registry lookups.
// The server side learns the version from the handshake; the client
// side may set it before dialing.
func (c *Conn) SetVersion(v int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = v
}

// Spawned reports whether the Play spawn sequence has completed.
func (c *Conn) Spawned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spawned
}

// Encrypted reports whether stream encryption is active.
func (c *Conn) Encrypted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encryptOut != nil
}

// Err returns the sticky fatal error, if any.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// RemoteAddr returns the transport's remote address, or nil without a
// transport.
func (c *Conn) RemoteAddr() net.Addr {
	if c.netConn == nil {
		return nil
	}
	return c.netConn.RemoteAddr()
}

// SetReadDeadline forwards to the transport, if any.
func (c *Conn) SetReadDeadline(t time.Time) error {
	if c.netConn == nil {
		return nil
	}
	return c.netConn.SetReadDeadline(t)
}

// readDirection is the direction of packets this side consumes.
func (c *Conn) readDirection() protocol.Direction {
	if c.side == SideServer {
		return protocol.Serverbound
	}
	return protocol.Clientbound
}

func (c *Conn) writeDirection() protocol.Direction {
	return c.readDirection().Opposite()
}

// Feed appends inbound wire bytes on a transportless connection. Bytes
// pass through the inbound cipher exactly as socket reads would.
func (c *Conn) Feed(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	buf := append([]byte(nil), p...)
	if c.decryptIn != nil {
		c.decryptIn.XORKeyStream(buf, buf)
	}
	c.acc.feed(buf)
}

// Drain returns and clears the outbound wire bytes accumulated on a
// transportless connection.
func (c *Conn) Drain() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.out
	c.out = nil
	return out
}

// EnableEncryption activates AES/CFB8 stream ciphers for both
// directions, keyed and seeded with the shared secret. Activation
// requires an empty inbound buffer: the peer must not have bytes in
// flight when the cipher regime changes, since the whole octet stream
// is enciphered from here on.
func (c *Conn) EnableEncryption(secret []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.encryptOut != nil || c.decryptIn != nil {
		return ErrEncryptionAlreadyEnabled
	}
	if n := c.acc.pending(); n > 0 {
		return fmt.Errorf("%w: %d bytes buffered at cipher activation", ErrProtocolViolation, n)
	}
	out, in, err := crypto.NewStreamPair(secret)
	if err != nil {
		return err
	}
	c.secret = append([]byte(nil), secret...)
	c.encryptOut = out
	c.decryptIn = in
	c.log.Debug().Msg("stream encryption enabled")
	return nil
}

// EnableCompression sets the compression threshold. Negative disables
// the stage. Takes effect for the next frame in each direction.
func (c *Conn) EnableCompression(threshold int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if threshold < 0 {
		threshold = -1
	}
	c.threshold = threshold
	c.log.Debug().Int32("threshold", threshold).Msg("compression threshold set")
}

// Close shuts the connection down cleanly, zeroing buffered data and
// key material. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil
	}
	c.err = ErrConnClosed
	c.phase = protocol.PhaseClosed
	c.teardownLocked()
	return nil
}

// Abort fails the connection with the given error. Used by drivers
// that detect a violation above this layer.
func (c *Conn) Abort(err error) error {
	return c.fail(err)
}

func (c *Conn) fail(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failLocked(err)
}

// failLocked records the first fatal error, moves to Closed and tears
// the connection down. Later failures return the original error.
func (c *Conn) failLocked(err error) error {
	if c.err != nil {
		return c.err
	}
	c.err = err
	c.phase = protocol.PhaseClosed
	c.teardownLocked()
	if c.metrics != nil {
		c.metrics.RecordError(errorKind(err))
	}
	c.log.Debug().Err(err).Msg("connection failed")
	return err
}

func (c *Conn) teardownLocked() {
	c.acc.zero()
	for i := range c.secret {
		c.secret[i] = 0
	}
	c.secret = nil
	c.encryptOut = nil
	c.decryptIn = nil
	if c.netConn != nil {
		c.netConn.Close()
	}
}

// ReadPacket returns the next inbound packet, running the frame,
// compression and decode stages and applying any phase transition the
// packet triggers. On a transportless connection it returns ErrNoData
// when the buffered bytes do not hold a complete frame. A clean peer
// close surfaces as io.EOF.
func (c *Conn) ReadPacket() (protocol.Packet, error) {
	for {
		c.mu.Lock()
		if c.err != nil {
			err := c.err
			c.mu.Unlock()
			return nil, err
		}
		payload, ok, ferr := c.acc.tryExtractFrame()
		c.mu.Unlock()

		if ferr != nil {
			return nil, c.fail(ferr)
		}
		if ok {
			return c.decodeFrame(payload)
		}

		if c.readErr != nil {
			rerr := c.readErr
			if errors.Is(rerr, io.EOF) {
				c.Close()
				return nil, io.EOF
			}
			return nil, c.fail(fmt.Errorf("failed to read from transport: %w", rerr))
		}
		if c.netConn == nil {
			return nil, ErrNoData
		}

		n, rerr := c.netConn.Read(c.readBuf)
		if n > 0 {
			c.mu.Lock()
			if c.err == nil {
				if c.decryptIn != nil {
					c.decryptIn.XORKeyStream(c.readBuf[:n], c.readBuf[:n])
				}
				c.acc.feed(c.readBuf[:n])
				if c.metrics != nil {
					c.metrics.RecordBytes(c.readDirection(), n)
				}
			}
			c.mu.Unlock()
		}
		if rerr != nil {
			// Buffered bytes may still complete a frame; deliver it
			// before surfacing the transport error.
			c.readErr = rerr
		}
	}
}

// decodeFrame runs one extracted frame payload through decompression,
// id resolution, packet decode and the phase transition table.
func (c *Conn) decodeFrame(payload []byte) (protocol.Packet, error) {
	c.mu.Lock()
	phase := c.phase
	version := c.version
	threshold := c.threshold
	c.mu.Unlock()

	if threshold >= 0 {
		var err error
		if payload, err = decompressPayload(payload, threshold); err != nil {
			return nil, c.fail(err)
		}
	}

	b := protocol.NewBuffer(payload)
	id, err := b.ReadVarInt()
	if err != nil {
		return nil, c.fail(fmt.Errorf("failed to read packet id: %w", err))
	}

	dir := c.readDirection()
	entry, found := c.reg.Lookup(version, phase, dir, id)
	if !found {
		if phase == protocol.PhaseConfiguration || phase == protocol.PhasePlay {
			if c.metrics != nil {
				c.metrics.RecordUnknown(phase)
			}
			c.log.Debug().Int32("id", id).Stringer("phase", phase).Msg("unknown packet id")
			return &UnknownPacket{ID: id, Payload: b.ReadRemaining()}, nil
		}
		return nil, c.fail(fmt.Errorf("%w: id 0x%02x in %s phase", ErrUnexpectedPacket, id, phase))
	}

	pkt := entry.New()
	if err := pkt.Decode(b); err != nil {
		return nil, c.fail(fmt.Errorf("failed to decode %s: %w", entry.Kind, err))
	}
	if n := b.Remaining(); n > 0 {
		return nil, c.fail(fmt.Errorf("%w: %d bytes after %s", protocol.ErrTrailingBytes, n, entry.Kind))
	}

	if err := c.advanceRead(pkt); err != nil {
		return nil, c.fail(err)
	}
	if c.metrics != nil {
		c.metrics.RecordPacket(phase, dir)
	}
	return pkt, nil
}

// WritePacket encodes p under the current phase, runs the compression
// and framing stages, applies the outbound cipher and writes the frame
// to the transport (or the Drain buffer). Phase transitions triggered
// by the written packet are applied after the frame is out.
func (c *Conn) WritePacket(p protocol.Packet) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	if err := c.checkWriteLocked(p); err != nil {
		err = c.failLocked(err)
		c.mu.Unlock()
		return err
	}
	phase := c.phase
	version := c.version
	threshold := c.threshold
	c.mu.Unlock()

	dir := c.writeDirection()
	raw, err := c.reg.Encode(version, phase, dir, p)
	if err != nil {
		// Encoding an unbound kind is a programmer error, not a wire
		// fault; the connection stays usable.
		return fmt.Errorf("failed to encode %s: %w", p.Kind(), err)
	}
	if threshold >= 0 {
		if raw, err = compressPayload(raw, threshold); err != nil {
			return c.fail(err)
		}
	}
	frame, err := appendFrame(nil, raw)
	if err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	if c.encryptOut != nil {
		c.encryptOut.XORKeyStream(frame, frame)
	}
	if c.netConn == nil {
		c.out = append(c.out, frame...)
		c.mu.Unlock()
	} else {
		c.mu.Unlock()
		if _, err := c.netConn.Write(frame); err != nil {
			return c.fail(fmt.Errorf("failed to write frame: %w", err))
		}
	}

	c.commitWrite(p)
	if c.metrics != nil {
		c.metrics.RecordPacket(phase, dir)
		c.metrics.RecordBytes(dir, len(frame))
	}
	return nil
}

// advanceRead applies the transition an inbound packet triggers. All
// transition-triggering packets are serverbound, so most arms act only
// on the server side.
func (c *Conn) advanceRead(p protocol.Packet) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch pk := p.(type) {
	case *protocol.Intention:
		next, err := pk.NextPhase()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrProtocolViolation, err)
		}
		c.version = pk.ProtocolVersion
		c.setPhaseLocked(next)

	case *protocol.LoginAcknowledged:
		c.setPhaseLocked(protocol.PhaseConfiguration)

	case *protocol.FinishConfiguration:
		if c.side == SideServer && c.phase == protocol.PhaseConfiguration {
			c.enterPlayLocked()
		}

	case *protocol.ConfigurationAcknowledged:
		if c.side == SideServer && c.phase == protocol.PhasePlay {
			c.setPhaseLocked(protocol.PhaseConfiguration)
		}

	case *protocol.SyncPlayerPosition:
		if c.side == SideClient {
			c.pendingTeleport = pk.TeleportID
			c.hasPending = true
		}

	case *protocol.AcceptTeleportation:
		// Stale confirms are ignored; the pending teleport stands.
		if c.side == SideServer && c.hasPending && pk.TeleportID == c.pendingTeleport {
			c.hasPending = false
			c.spawned = true
		}

	case *protocol.MovePlayerPos, *protocol.MovePlayerPosRot, *protocol.MovePlayerRot:
		if c.side == SideServer && !c.spawned {
			return fmt.Errorf("%w: movement before spawn sequence completed", ErrProtocolViolation)
		}
	}
	return nil
}

// checkWriteLocked rejects outbound packets that would violate the
// state machine, before any bytes hit the wire.
func (c *Conn) checkWriteLocked(p protocol.Packet) error {
	switch pk := p.(type) {
	case *protocol.Intention:
		if _, err := pk.NextPhase(); err != nil {
			return fmt.Errorf("%w: %v", ErrProtocolViolation, err)
		}
	case *protocol.MovePlayerPos, *protocol.MovePlayerPosRot, *protocol.MovePlayerRot:
		if c.side == SideClient && !c.spawned {
			return fmt.Errorf("%w: movement before spawn sequence completed", ErrProtocolViolation)
		}
	}
	return nil
}

// commitWrite applies the transition an outbound packet triggers, after
// its frame has been written.
func (c *Conn) commitWrite(p protocol.Packet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch pk := p.(type) {
	case *protocol.Intention:
		if c.side == SideClient {
			if next, err := pk.NextPhase(); err == nil {
				c.version = pk.ProtocolVersion
				c.setPhaseLocked(next)
			}
		}

	case *protocol.LoginAcknowledged:
		if c.side == SideClient {
			c.setPhaseLocked(protocol.PhaseConfiguration)
		}

	case *protocol.FinishConfiguration:
		if c.side == SideClient && c.phase == protocol.PhaseConfiguration {
			c.enterPlayLocked()
		}

	case *protocol.ConfigurationAcknowledged:
		if c.side == SideClient && c.phase == protocol.PhasePlay {
			c.setPhaseLocked(protocol.PhaseConfiguration)
		}

	case *protocol.SyncPlayerPosition:
		if c.side == SideServer {
			c.pendingTeleport = pk.TeleportID
			c.hasPending = true
		}

	case *protocol.AcceptTeleportation:
		if c.side == SideClient && c.hasPending && pk.TeleportID == c.pendingTeleport {
			c.hasPending = false
			c.spawned = true
		}
	}
}

func (c *Conn) setPhaseLocked(next protocol.Phase) {
	if c.phase == next {
		return
	}
	c.log.Debug().Stringer("from", c.phase).Stringer("to", next).Msg("phase transition")
	c.phase = next
}

func (c *Conn) enterPlayLocked() {
	c.setPhaseLocked(protocol.PhasePlay)
	c.spawned = false
	c.hasPending = false
}
