package network

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/minegate/minegate-node/pkg/protocol"
)

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	// Addr is the TCP listen address, e.g. ":25565".
	Addr string

	// OnlineMode runs the encryption challenge and session verify on
	// every login.
	OnlineMode bool

	// Key is the server RSA keypair. Required in online mode.
	Key *rsa.PrivateKey

	// Verifier resolves joining players. Required in online mode.
	Verifier SessionVerifier

	// VerifyTimeout bounds each session verify call.
	VerifyTimeout time.Duration

	// Threshold enables compression when non-negative. Note the zero
	// value compresses everything; use -1 to disable.
	Threshold int32

	// SupportedVersions lists accepted protocol versions. Nil means
	// the shipped version only.
	SupportedVersions []int32

	// Status builds the status response document. Nil installs a
	// default that reports live player counts.
	Status func() StatusInfo

	// MOTD is the description line of the default status document.
	MOTD string

	// MaxPlayers is reported in the default status document.
	MaxPlayers int

	// KeepAliveInterval is the clientbound keep-alive period. Zero
	// means 15 seconds.
	KeepAliveInterval time.Duration

	// IdleTimeout closes connections whose peer stops responding.
	// Zero means 30 seconds; negative disables.
	IdleTimeout time.Duration

	// Registry overrides the packet registry. Nil means the default.
	Registry *protocol.Registry

	Logger  zerolog.Logger
	Metrics *Metrics
}

// Stats is a point-in-time snapshot of gateway counters.
type Stats struct {
	UptimeSeconds     int64  `json:"uptime_seconds"`
	ActiveConnections int    `json:"active_connections"`
	OnlinePlayers     int    `json:"online_players"`
	TotalAccepted     uint64 `json:"total_accepted"`
	TotalLogins       uint64 `json:"total_logins"`
	TotalDisconnects  uint64 `json:"total_disconnects"`
	OnlineMode        bool   `json:"online_mode"`
}

// ConnInfo describes one live connection for the ops surface. It
// carries operational state only, never profile data.
type ConnInfo struct {
	ID            uint64    `json:"id"`
	RemoteAddr    string    `json:"remote_addr"`
	Phase         string    `json:"phase"`
	ConnectedAt   time.Time `json:"connected_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

// ClientConn is one accepted connection with its gateway-side state.
type ClientConn struct {
	*Conn

	id          uint64
	connectedAt time.Time

	mu        sync.Mutex
	profile   *Profile
	lastAlive time.Time
	pendingKA int64
	awaiting  bool
}

// Profile returns the authenticated profile, or nil before login
// completes.
func (cc *ClientConn) Profile() *Profile {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.profile
}

func (cc *ClientConn) setProfile(p *Profile) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.profile = p
}

// ConnectedAt returns when the connection was accepted.
func (cc *ClientConn) ConnectedAt() time.Time {
	return cc.connectedAt
}

// Gateway accepts connections and runs each through the server-side
// state machine: status exchanges answered in place, logins verified
// and handed to the embedder through the hook fields.
type Gateway struct {
	cfg GatewayConfig
	log zerolog.Logger

	listener  net.Listener
	startTime time.Time
	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	mu          sync.RWMutex
	conns       map[uint64]*ClientConn
	nextID      uint64
	closed      bool
	accepted    uint64
	logins      uint64
	disconnects uint64

	// OnLogin runs after a login completes, with the connection in the
	// Configuration phase. Configuration content written here goes out
	// ahead of the finish exchange.
	OnLogin func(*ClientConn)

	// OnPacket receives every post-login packet the gateway does not
	// consume itself, including UnknownPacket markers.
	OnPacket func(*ClientConn, protocol.Packet)

	// OnDisconnect runs after a connection ends. err is nil for a
	// clean close.
	OnDisconnect func(*ClientConn, error)
}

// NewGateway builds a Gateway from cfg.
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.OnlineMode && (cfg.Key == nil || cfg.Verifier == nil) {
		return nil, errors.New("online mode requires a key and a session verifier")
	}
	if cfg.KeepAliveInterval <= 0 {
		cfg.KeepAliveInterval = 15 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 30 * time.Second
	}
	if cfg.Registry == nil {
		cfg.Registry = protocol.Default()
	}
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = 20
	}
	if len(cfg.SupportedVersions) == 0 {
		cfg.SupportedVersions = []int32{protocol.Version774}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Gateway{
		cfg:       cfg,
		log:       cfg.Logger,
		startTime: time.Now(),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		conns:     make(map[uint64]*ClientConn),
	}, nil
}

// Start begins listening and accepting connections.
func (g *Gateway) Start() error {
	ln, err := net.Listen("tcp", g.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.cfg.Addr, err)
	}
	g.listener = ln
	g.log.Info().
		Str("addr", ln.Addr().String()).
		Bool("online_mode", g.cfg.OnlineMode).
		Msg("gateway listening")

	g.wg.Add(1)
	go g.acceptLoop()
	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (g *Gateway) Addr() net.Addr {
	if g.listener == nil {
		return nil
	}
	return g.listener.Addr()
}

// Stop closes the listener and every live connection, then waits for
// the per-connection goroutines to drain.
func (g *Gateway) Stop() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()

	close(g.done)
	g.cancel()
	if g.listener != nil {
		g.listener.Close()
	}

	g.mu.RLock()
	conns := make([]*ClientConn, 0, len(g.conns))
	for _, cc := range g.conns {
		conns = append(conns, cc)
	}
	g.mu.RUnlock()
	for _, cc := range conns {
		cc.Close()
	}

	g.wg.Wait()
	g.log.Info().Msg("gateway stopped")
	return nil
}

// ServeConn runs one pre-established connection through the gateway on
// the caller's goroutine. Useful behind custom listeners.
func (g *Gateway) ServeConn(nc net.Conn) {
	g.wg.Add(1)
	g.handleConn(nc)
}

// Stats returns a snapshot of the gateway counters.
func (g *Gateway) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	online := 0
	for _, cc := range g.conns {
		if cc.Profile() != nil {
			online++
		}
	}
	return Stats{
		UptimeSeconds:     int64(time.Since(g.startTime).Seconds()),
		ActiveConnections: len(g.conns),
		OnlinePlayers:     online,
		TotalAccepted:     g.accepted,
		TotalLogins:       g.logins,
		TotalDisconnects:  g.disconnects,
		OnlineMode:        g.cfg.OnlineMode,
	}
}

// Connections describes every live connection.
func (g *Gateway) Connections() []ConnInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()

	infos := make([]ConnInfo, 0, len(g.conns))
	for _, cc := range g.conns {
		info := ConnInfo{
			ID:            cc.id,
			Phase:         cc.Phase().String(),
			ConnectedAt:   cc.connectedAt,
			UptimeSeconds: int64(time.Since(cc.connectedAt).Seconds()),
		}
		if addr := cc.RemoteAddr(); addr != nil {
			info.RemoteAddr = addr.String()
		}
		infos = append(infos, info)
	}
	return infos
}

func (g *Gateway) acceptLoop() {
	defer g.wg.Done()

	for {
		nc, err := g.listener.Accept()
		if err != nil {
			select {
			case <-g.done:
			default:
				g.log.Error().Err(err).Msg("accept failed")
			}
			return
		}
		g.wg.Add(1)
		go g.handleConn(nc)
	}
}

// handleConn owns one connection from accept to cleanup.
func (g *Gateway) handleConn(nc net.Conn) {
	defer g.wg.Done()

	c := NewConn(nc, SideServer)
	c.SetRegistry(g.cfg.Registry)
	c.AttachMetrics(g.cfg.Metrics)

	log := g.log.With().Str("remote", nc.RemoteAddr().String()).Logger()
	c.SetLogger(log)

	cc := &ClientConn{
		Conn:        c,
		connectedAt: time.Now(),
		lastAlive:   time.Now(),
	}

	g.mu.Lock()
	g.nextID++
	cc.id = g.nextID
	g.conns[cc.id] = cc
	g.accepted++
	g.mu.Unlock()
	if g.cfg.Metrics != nil {
		g.cfg.Metrics.ConnOpened()
	}
	log.Debug().Msg("connection accepted")

	err := g.runConn(cc)
	if errors.Is(err, io.EOF) || errors.Is(err, ErrConnClosed) {
		err = nil
	}

	cc.Close()
	g.mu.Lock()
	delete(g.conns, cc.id)
	g.disconnects++
	g.mu.Unlock()
	if g.cfg.Metrics != nil {
		g.cfg.Metrics.ConnClosed()
	}

	if err != nil {
		log.Info().Err(err).Msg("connection ended")
	} else {
		log.Debug().Msg("connection closed")
	}
	if g.OnDisconnect != nil {
		g.OnDisconnect(cc, err)
	}
}

// runConn drives the phase flows for one connection.
func (g *Gateway) runConn(cc *ClientConn) error {
	if g.cfg.IdleTimeout > 0 {
		cc.SetReadDeadline(time.Now().Add(g.cfg.IdleTimeout))
	}

	p, err := cc.ReadPacket()
	if err != nil {
		return err
	}
	hs, ok := p.(*protocol.Intention)
	if !ok {
		return wrongPacket(cc.Conn, p, "intention")
	}

	switch cc.Phase() {
	case protocol.PhaseStatus:
		return g.serveStatus(cc)

	case protocol.PhaseLogin:
		if !g.versionSupported(hs.ProtocolVersion) {
			// The login disconnect id is stable across protocol
			// versions; encode the kick with the shipped table.
			cc.SetVersion(protocol.Version774)
			DisconnectLogin(cc.Conn, "Unsupported protocol version")
			return fmt.Errorf("%w: protocol version %d", ErrLoginRefused, hs.ProtocolVersion)
		}

		loginStart := time.Now()
		profile, err := ServerLogin(g.ctx, cc.Conn, ServerLoginConfig{
			OnlineMode:    g.cfg.OnlineMode,
			Key:           g.cfg.Key,
			Verifier:      g.cfg.Verifier,
			VerifyTimeout: g.cfg.VerifyTimeout,
			Threshold:     g.cfg.Threshold,
		})
		if err != nil {
			return err
		}
		cc.setProfile(profile)
		cc.touch()

		g.mu.Lock()
		g.logins++
		g.mu.Unlock()
		if g.cfg.Metrics != nil {
			g.cfg.Metrics.RecordLogin(time.Since(loginStart))
		}
		g.log.Info().
			Str("name", profile.Name).
			Str("uuid", profile.UUID.String()).
			Msg("login complete")

		if g.OnLogin != nil {
			g.OnLogin(cc)
		}
		return g.serveSession(cc)
	}
	return nil
}

func (g *Gateway) versionSupported(v int32) bool {
	for _, s := range g.cfg.SupportedVersions {
		if s == v {
			return true
		}
	}
	return false
}

// serveStatus answers status and ping requests until the exchange
// completes or the peer leaves.
func (g *Gateway) serveStatus(cc *ClientConn) error {
	for {
		if g.cfg.IdleTimeout > 0 {
			cc.SetReadDeadline(time.Now().Add(g.cfg.IdleTimeout))
		}
		p, err := cc.ReadPacket()
		if err != nil {
			return err
		}

		switch pk := p.(type) {
		case *protocol.StatusRequest:
			payload, err := g.status().Payload()
			if err != nil {
				return cc.Abort(err)
			}
			if err := cc.WritePacket(&protocol.StatusResponse{Payload: payload}); err != nil {
				return err
			}

		case *protocol.PingRequest:
			if err := cc.WritePacket(&protocol.PongResponse{Timestamp: pk.Timestamp}); err != nil {
				return err
			}
			return nil
		}
	}
}

// StatusDocument returns the status document currently served to
// status pings.
func (g *Gateway) StatusDocument() StatusInfo {
	return g.status()
}

func (g *Gateway) status() StatusInfo {
	if g.cfg.Status != nil {
		return g.cfg.Status()
	}
	stats := g.Stats()
	motd := g.cfg.MOTD
	if motd == "" {
		motd = "A MineGate server"
	}
	return StatusInfo{
		Version: StatusVersion{Name: protocol.GameVersion774, Protocol: protocol.Version774},
		Players: StatusPlayers{Max: g.cfg.MaxPlayers, Online: stats.OnlinePlayers},
		Description: TextDescription(motd),
	}
}

// serveSession runs the Configuration and Play phases: it finishes the
// configuration exchange, keeps the keep-alive loop fed, and hands all
// other traffic to the OnPacket hook.
func (g *Gateway) serveSession(cc *ClientConn) error {
	if err := cc.WritePacket(&protocol.FinishConfiguration{}); err != nil {
		return err
	}
	if g.cfg.IdleTimeout > 0 {
		// The keep-alive loop owns liveness from here.
		cc.SetReadDeadline(time.Time{})
	}

	g.wg.Add(1)
	go g.keepaliveLoop(cc)

	for {
		p, err := cc.ReadPacket()
		if err != nil {
			return err
		}

		switch pk := p.(type) {
		case *protocol.KeepAlive:
			cc.confirmKeepAlive(pk.ID)
		case *protocol.FinishConfiguration:
			// The configuration finish ack; the phase transition has
			// already been applied.
		default:
			if g.OnPacket != nil {
				g.OnPacket(cc, p)
			}
		}
	}
}
