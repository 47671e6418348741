package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minegate/minegate-node/pkg/crypto"
	"github.com/minegate/minegate-node/pkg/protocol"
)

// SessionJoiner announces the pending join to the session service so
// the server's hasJoined check can find it. Client side of the
// encryption challenge.
type SessionJoiner interface {
	Join(ctx context.Context, serverHash string) error
}

// ClientLoginConfig carries the identity the client logs in with.
type ClientLoginConfig struct {
	Username string
	UUID     uuid.UUID

	// Joiner is required when the server requests session
	// authentication. Without one, authenticated servers are refused.
	Joiner SessionJoiner

	// JoinTimeout bounds the Join call. Zero means
	// DefaultVerifyTimeout.
	JoinTimeout time.Duration
}

// ClientLogin drives the client side of the Login phase on c, which
// must have just entered it. On success the connection sits in the
// Configuration phase and the profile assigned by the server is
// returned.
func ClientLogin(ctx context.Context, c *Conn, cfg ClientLoginConfig) (*Profile, error) {
	if c.Phase() != protocol.PhaseLogin {
		return nil, fmt.Errorf("%w: login flow started in %s phase", ErrProtocolViolation, c.Phase())
	}

	start := &protocol.LoginStart{Name: cfg.Username, UUID: cfg.UUID}
	if err := c.WritePacket(start); err != nil {
		return nil, err
	}

	for {
		p, err := c.ReadPacket()
		if err != nil {
			return nil, err
		}

		switch pk := p.(type) {
		case *protocol.EncryptionRequest:
			if err := answerChallenge(ctx, c, cfg, pk); err != nil {
				return nil, err
			}

		case *protocol.SetCompression:
			c.EnableCompression(pk.Threshold)

		case *protocol.LoginSuccess:
			if err := c.WritePacket(&protocol.LoginAcknowledged{}); err != nil {
				return nil, err
			}
			return &Profile{UUID: pk.UUID, Name: pk.Name, Properties: pk.Properties}, nil

		case *protocol.LoginDisconnect:
			c.Close()
			return nil, fmt.Errorf("%w: %s", ErrLoginRefused, pk.Reason)

		default:
			return nil, wrongPacket(c, p, "login flow packet")
		}
	}
}

// answerChallenge generates the shared secret, announces the join when
// the server authenticates, and responds to the encryption request.
// The connection is enciphered once the response is out.
func answerChallenge(ctx context.Context, c *Conn, cfg ClientLoginConfig, req *protocol.EncryptionRequest) error {
	secret, err := crypto.GenerateSharedSecret()
	if err != nil {
		return c.Abort(fmt.Errorf("failed to generate shared secret: %w", err))
	}

	if req.ShouldAuthenticate {
		if cfg.Joiner == nil {
			return c.Abort(fmt.Errorf("%w: server requires session authentication", ErrAuthenticationFailed))
		}
		timeout := cfg.JoinTimeout
		if timeout <= 0 {
			timeout = DefaultVerifyTimeout
		}
		jctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		hash := crypto.ServerHash(req.ServerID, secret, req.PublicKey)
		if err := cfg.Joiner.Join(jctx, hash); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return c.Abort(fmt.Errorf("%w: %v", ErrAuthenticationTimeout, err))
			}
			return c.Abort(fmt.Errorf("%w: %v", ErrAuthenticationFailed, err))
		}
	}

	pub, err := crypto.ParsePublicKeyDER(req.PublicKey)
	if err != nil {
		return c.Abort(fmt.Errorf("failed to parse server public key: %w", err))
	}
	encSecret, err := crypto.EncryptChallenge(secret, pub)
	if err != nil {
		return c.Abort(fmt.Errorf("failed to encrypt shared secret: %w", err))
	}
	encToken, err := crypto.EncryptChallenge(req.VerifyToken, pub)
	if err != nil {
		return c.Abort(fmt.Errorf("failed to encrypt verify token: %w", err))
	}

	response := &protocol.EncryptionResponse{
		SharedSecret: encSecret,
		VerifyToken:  encToken,
	}
	if err := c.WritePacket(response); err != nil {
		return err
	}
	if err := c.EnableEncryption(secret); err != nil {
		return c.Abort(err)
	}
	return nil
}

// ClientConfigure drives the client side of the Configuration phase:
// it sends the client information, answers known-pack negotiation and
// keep-alives, consumes registry traffic, and acknowledges the finish.
// On return the connection sits in the Play phase.
func ClientConfigure(c *Conn, info *protocol.ClientInformation) error {
	if c.Phase() != protocol.PhaseConfiguration {
		return fmt.Errorf("%w: configure started in %s phase", ErrProtocolViolation, c.Phase())
	}

	if info != nil {
		if err := c.WritePacket(info); err != nil {
			return err
		}
	}

	for {
		p, err := c.ReadPacket()
		if err != nil {
			return err
		}

		switch pk := p.(type) {
		case *protocol.SelectKnownPacks:
			// Claim no shared packs; the server then sends its
			// registry data in full.
			if err := c.WritePacket(&protocol.SelectKnownPacks{}); err != nil {
				return err
			}

		case *protocol.KeepAlive:
			if err := c.WritePacket(&protocol.KeepAlive{ID: pk.ID}); err != nil {
				return err
			}

		case *protocol.FinishConfiguration:
			if err := c.WritePacket(&protocol.FinishConfiguration{}); err != nil {
				return err
			}
			return nil

		default:
			// Registry data and other configuration traffic carries no
			// state this layer tracks.
		}
	}
}
