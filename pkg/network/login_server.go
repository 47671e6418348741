package network

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/rsa"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/minegate/minegate-node/pkg/crypto"
	"github.com/minegate/minegate-node/pkg/protocol"
)

// DefaultVerifyTimeout bounds the session verify call when the caller
// does not supply a timeout.
const DefaultVerifyTimeout = 5 * time.Second

// Profile identifies an authenticated (or offline-derived) player.
type Profile struct {
	UUID       uuid.UUID
	Name       string
	Properties []protocol.ProfileProperty
}

// SessionVerifier resolves the joining player against the session
// service. Implementations typically call the hasJoined endpoint.
type SessionVerifier interface {
	Verify(ctx context.Context, username, serverHash, ip string) (*Profile, error)
}

// ServerLoginConfig carries everything the server-side login flow
// needs beyond the connection itself.
type ServerLoginConfig struct {
	// OnlineMode runs the encryption challenge and session verify.
	OnlineMode bool

	// Key is the server RSA keypair for the encryption challenge.
	// Required in online mode.
	Key *rsa.PrivateKey

	// Verifier resolves the player profile. Required in online mode.
	Verifier SessionVerifier

	// VerifyTimeout bounds the Verifier call. Zero means
	// DefaultVerifyTimeout.
	VerifyTimeout time.Duration

	// Threshold enables compression when non-negative.
	Threshold int32

	// ServerID is the server id string of the encryption challenge.
	// The published protocol sends it empty.
	ServerID string
}

// OfflineUUID derives the offline-mode player id from the username,
// the Java md5 name-UUID form.
func OfflineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	return uuid.UUID(sum)
}

// validUsername reports whether name fits the published charset.
func validUsername(name string) bool {
	if len(name) == 0 || len(name) > protocol.MaxUsername {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// ServerLogin drives the server side of the Login phase on c, which
// must have just entered it. On success the connection sits in the
// Configuration phase with encryption and compression active as
// configured, and the resolved profile is returned. Any protocol fault
// closes the connection.
func ServerLogin(ctx context.Context, c *Conn, cfg ServerLoginConfig) (*Profile, error) {
	if cfg.OnlineMode && (cfg.Key == nil || cfg.Verifier == nil) {
		return nil, errors.New("online mode requires a key and a session verifier")
	}
	if c.Phase() != protocol.PhaseLogin {
		return nil, fmt.Errorf("%w: login flow started in %s phase", ErrProtocolViolation, c.Phase())
	}

	p, err := c.ReadPacket()
	if err != nil {
		return nil, err
	}
	start, ok := p.(*protocol.LoginStart)
	if !ok {
		return nil, wrongPacket(c, p, "login_start")
	}
	if !validUsername(start.Name) {
		DisconnectLogin(c, "Invalid username")
		return nil, fmt.Errorf("%w: invalid username %q", ErrLoginRefused, start.Name)
	}

	var profile *Profile
	if cfg.OnlineMode {
		if profile, err = serverChallenge(ctx, c, cfg, start.Name); err != nil {
			return nil, err
		}
	} else {
		profile = &Profile{UUID: OfflineUUID(start.Name), Name: start.Name}
	}

	if cfg.Threshold >= 0 {
		if err := c.WritePacket(&protocol.SetCompression{Threshold: cfg.Threshold}); err != nil {
			return nil, err
		}
		c.EnableCompression(cfg.Threshold)
	}

	success := &protocol.LoginSuccess{
		UUID:       profile.UUID,
		Name:       profile.Name,
		Properties: profile.Properties,
	}
	if err := c.WritePacket(success); err != nil {
		return nil, err
	}

	p, err = c.ReadPacket()
	if err != nil {
		return nil, err
	}
	if _, ok := p.(*protocol.LoginAcknowledged); !ok {
		return nil, wrongPacket(c, p, "login_acknowledged")
	}

	return profile, nil
}

// serverChallenge runs the encryption challenge and the session
// verify, leaving the connection enciphered.
func serverChallenge(ctx context.Context, c *Conn, cfg ServerLoginConfig, username string) (*Profile, error) {
	pubDER, err := crypto.PublicKeyDER(&cfg.Key.PublicKey)
	if err != nil {
		return nil, c.Abort(fmt.Errorf("failed to export server public key: %w", err))
	}
	token, err := crypto.GenerateVerifyToken()
	if err != nil {
		return nil, c.Abort(fmt.Errorf("failed to generate verify token: %w", err))
	}

	request := &protocol.EncryptionRequest{
		ServerID:           cfg.ServerID,
		PublicKey:          pubDER,
		VerifyToken:        token,
		ShouldAuthenticate: true,
	}
	if err := c.WritePacket(request); err != nil {
		return nil, err
	}

	p, err := c.ReadPacket()
	if err != nil {
		return nil, err
	}
	response, ok := p.(*protocol.EncryptionResponse)
	if !ok {
		return nil, wrongPacket(c, p, "encryption_response")
	}

	secret, err := crypto.DecryptChallenge(response.SharedSecret, cfg.Key)
	if err != nil {
		return nil, c.Abort(fmt.Errorf("failed to decrypt shared secret: %w", err))
	}
	echoed, err := crypto.DecryptChallenge(response.VerifyToken, cfg.Key)
	if err != nil {
		return nil, c.Abort(fmt.Errorf("failed to decrypt verify token: %w", err))
	}
	if !bytes.Equal(echoed, token) {
		return nil, c.Abort(ErrBadVerifyToken)
	}

	if err := c.EnableEncryption(secret); err != nil {
		return nil, c.Abort(err)
	}

	timeout := cfg.VerifyTimeout
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hash := crypto.ServerHash(cfg.ServerID, secret, pubDER)
	profile, err := cfg.Verifier.Verify(vctx, username, hash, remoteIP(c))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, c.Abort(fmt.Errorf("%w: %v", ErrAuthenticationTimeout, err))
		}
		return nil, c.Abort(fmt.Errorf("%w: %v", ErrAuthenticationFailed, err))
	}
	if profile == nil {
		return nil, c.Abort(fmt.Errorf("%w: no profile for %s", ErrAuthenticationFailed, username))
	}
	return profile, nil
}

// DisconnectLogin sends a login-phase disconnect with a plain text
// reason and closes the connection.
func DisconnectLogin(c *Conn, text string) error {
	reason := string(TextDescription(text))
	if err := c.WritePacket(&protocol.LoginDisconnect{Reason: reason}); err != nil {
		return err
	}
	return c.Close()
}

func wrongPacket(c *Conn, got protocol.Packet, want string) error {
	return c.Abort(fmt.Errorf("%w: got %s, want %s", ErrUnexpectedPacket, got.Kind(), want))
}

// remoteIP extracts the bare host from the transport address, for the
// session verify.
func remoteIP(c *Conn) string {
	addr := c.RemoteAddr()
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
