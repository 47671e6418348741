package network

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/minegate/minegate-node/pkg/protocol"
)

// Dialer opens client-side connections. The zero value dials with the
// shipped protocol version and default registry.
type Dialer struct {
	// Version is the protocol version to announce. Zero means the
	// shipped version.
	Version int32

	// Registry overrides the packet registry. Nil means the default.
	Registry *protocol.Registry

	// Timeout bounds the TCP dial. Zero means 10 seconds.
	Timeout time.Duration

	Logger  zerolog.Logger
	Metrics *Metrics
}

// Dial connects to addr ("host:port") and sends the handshake with the
// given intent. The returned connection sits in the phase the intent
// selected.
func (d *Dialer) Dial(addr string, intent int32) (*Conn, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse address %q: %w", addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to parse port %q: %w", portStr, err)
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	nc, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	c := d.prepare(NewConn(nc, SideClient))
	if err := d.handshake(c, host, uint16(port), intent); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// prepare applies the dialer's settings to a fresh connection.
func (d *Dialer) prepare(c *Conn) *Conn {
	if d.Registry != nil {
		c.SetRegistry(d.Registry)
	}
	c.SetLogger(d.Logger)
	c.AttachMetrics(d.Metrics)
	if d.Version != 0 {
		c.SetVersion(d.Version)
	}
	return c
}

// handshake sends the intention packet, moving the connection out of
// the Handshake phase.
func (d *Dialer) handshake(c *Conn, host string, port uint16, intent int32) error {
	hs := &protocol.Intention{
		ProtocolVersion: c.Version(),
		ServerAddress:   host,
		ServerPort:      port,
		Intent:          intent,
	}
	return c.WritePacket(hs)
}

// Status runs a complete status exchange against addr and returns the
// parsed document and the ping round-trip time.
func (d *Dialer) Status(addr string) (*StatusInfo, time.Duration, error) {
	c, err := d.Dial(addr, protocol.IntentStatus)
	if err != nil {
		return nil, 0, err
	}
	defer c.Close()
	return StatusExchange(c)
}

// StatusExchange drives the status flow on an already-dialed
// connection in the Status phase.
func StatusExchange(c *Conn) (*StatusInfo, time.Duration, error) {
	if c.Phase() != protocol.PhaseStatus {
		return nil, 0, fmt.Errorf("%w: status exchange in %s phase", ErrProtocolViolation, c.Phase())
	}

	if err := c.WritePacket(&protocol.StatusRequest{}); err != nil {
		return nil, 0, err
	}
	p, err := c.ReadPacket()
	if err != nil {
		return nil, 0, err
	}
	resp, ok := p.(*protocol.StatusResponse)
	if !ok {
		return nil, 0, wrongPacket(c, p, "status_response")
	}
	info, err := ParseStatus(resp.Payload)
	if err != nil {
		return nil, 0, c.Abort(err)
	}

	start := time.Now()
	if err := c.WritePacket(&protocol.PingRequest{Timestamp: start.UnixMilli()}); err != nil {
		return nil, 0, err
	}
	p, err = c.ReadPacket()
	if err != nil {
		return nil, 0, err
	}
	if _, ok := p.(*protocol.PongResponse); !ok {
		return nil, 0, wrongPacket(c, p, "pong_response")
	}
	return info, time.Since(start), nil
}

// Login dials addr and runs the full client login. The returned
// connection sits in the Configuration phase.
func (d *Dialer) Login(ctx context.Context, addr string, cfg ClientLoginConfig) (*Conn, *Profile, error) {
	c, err := d.Dial(addr, protocol.IntentLogin)
	if err != nil {
		return nil, nil, err
	}
	profile, err := ClientLogin(ctx, c, cfg)
	if err != nil {
		c.Close()
		return nil, nil, err
	}
	return c, profile, nil
}

// Join dials addr, logs in and drives the configuration exchange,
// returning the connection in the Play phase. info may be nil.
func (d *Dialer) Join(ctx context.Context, addr string, cfg ClientLoginConfig, info *protocol.ClientInformation) (*Conn, *Profile, error) {
	c, profile, err := d.Login(ctx, addr, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := ClientConfigure(c, info); err != nil {
		c.Close()
		return nil, nil, err
	}
	return c, profile, nil
}
