package main

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/minegate/minegate-node/cmd/gateway/config"
	"github.com/minegate/minegate-node/pkg/crypto"
	"github.com/minegate/minegate-node/pkg/network"
	"github.com/minegate/minegate-node/pkg/network/api"
	"github.com/minegate/minegate-node/pkg/protocol"
	"github.com/minegate/minegate-node/pkg/session"
	"github.com/minegate/minegate-node/pkg/storage"
)

// App wires the gateway, session client, profile cache, and ops API
// together for one daemon run.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	gateway   *network.Gateway
	apiServer *api.Server
	store     *storage.ProfileStore
	registry  *prometheus.Registry

	cancel context.CancelFunc
}

// NewApp creates a new application instance
func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{
		cfg: cfg,
		log: log.With().Str("component", "app").Logger(),
	}

	if err := app.initialize(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}

	return app, nil
}

// initialize sets up the application components: metrics, key material,
// the session verifier chain, the gateway, and the ops API server.
func (a *App) initialize(_ context.Context, log zerolog.Logger) error {
	gwCfg := network.GatewayConfig{
		Addr:              a.cfg.Server.ListenAddr,
		OnlineMode:        a.cfg.Server.OnlineMode,
		Threshold:         int32(a.cfg.Server.CompressionThreshold),
		MOTD:              a.cfg.Server.MOTD,
		MaxPlayers:        a.cfg.Server.MaxPlayers,
		KeepAliveInterval: a.cfg.Server.KeepAliveInterval,
		IdleTimeout:       a.cfg.Server.IdleTimeout,
		VerifyTimeout:     a.cfg.Server.VerifyTimeout,
		Logger:            log.With().Str("component", "gateway").Logger(),
	}

	if a.cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		gwCfg.Metrics = network.NewMetrics(a.registry)
	}

	if a.cfg.Server.OnlineMode {
		key, err := loadOrGenerateKey(a.cfg.Server.KeyPath, a.log)
		if err != nil {
			return fmt.Errorf("failed to load server key: %w", err)
		}
		gwCfg.Key = key

		var cache session.ProfileCache
		if a.cfg.Cache.Enabled {
			store, err := storage.NewProfileStore(storage.Config{
				Path:       a.cfg.Cache.Path,
				TTL:        a.cfg.Cache.TTL,
				SealSecret: a.cfg.Cache.SealSecret,
				Logger:     log.With().Str("component", "cache").Logger(),
			})
			if err != nil {
				return fmt.Errorf("failed to open profile cache: %w", err)
			}
			a.store = store
			cache = store
			a.log.Info().
				Str("path", a.cfg.Cache.Path).
				Bool("sealed", a.cfg.Cache.SealSecret != "").
				Msg("Profile cache enabled")
		}

		sessions := session.NewClient(session.Config{
			SessionURL:  a.cfg.Session.SessionURL,
			AccountURL:  a.cfg.Session.AccountURL,
			ServicesURL: a.cfg.Session.ServicesURL,
			Timeout:     a.cfg.Session.Timeout,
			Cache:       cache,
			Logger:      log.With().Str("component", "session").Logger(),
		})
		gwCfg.Verifier = &sessionVerifier{sessions: sessions}
	}

	gw, err := network.NewGateway(gwCfg)
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}
	a.gateway = gw

	if a.cfg.API.Enabled {
		// A typed nil registry must not reach the Gatherer interface.
		var gatherer prometheus.Gatherer
		if a.registry != nil {
			gatherer = a.registry
		}
		srv, err := api.NewServer(gw, gatherer, &api.Config{
			Addr:       a.cfg.API.ListenAddr,
			EnableCORS: a.cfg.API.EnableCORS,
			RateLimit:  a.cfg.API.RateLimit,
			Logger:     log.With().Str("component", "api").Logger(),
		})
		if err != nil {
			return fmt.Errorf("failed to create api server: %w", err)
		}
		a.apiServer = srv
	}

	return nil
}

// Run starts the application and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.gateway.Start(); err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}

	if a.apiServer != nil {
		go func() {
			if err := a.apiServer.Start(runCtx); err != nil {
				a.log.Error().Err(err).Msg("API server error")
			}
		}()
	}

	go a.statsReporter(runCtx)

	return a.runWithGracefulShutdown(runCtx)
}

// runWithGracefulShutdown handles shutdown signals.
func (a *App) runWithGracefulShutdown(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	a.log.Info().Msg("Gateway started successfully")

	select {
	case <-ctx.Done():
		a.log.Info().Msg("Context canceled, initiating shutdown")
	case sig := <-sigCh:
		a.log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	if a.cancel != nil {
		a.cancel()
	}

	return a.shutdown()
}

// shutdown drains live connections and closes the profile cache. The
// API server shuts itself down when the run context is canceled.
func (a *App) shutdown() error {
	a.log.Info().Msg("Initiating graceful shutdown")

	if err := a.gateway.Stop(); err != nil {
		a.log.Error().Err(err).Msg("Gateway shutdown error")
		return err
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Error().Err(err).Msg("Profile cache close error")
		}
	}

	a.log.Info().Msg("Graceful shutdown complete")
	return nil
}

// statsReporter periodically reports gateway statistics.
func (a *App) statsReporter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := a.gateway.Stats()

			a.log.Info().
				Int("active_connections", stats.ActiveConnections).
				Int("online_players", stats.OnlinePlayers).
				Uint64("total_accepted", stats.TotalAccepted).
				Uint64("total_logins", stats.TotalLogins).
				Uint64("total_disconnects", stats.TotalDisconnects).
				Int64("uptime_seconds", stats.UptimeSeconds).
				Msg("Gateway statistics")
		}
	}
}

// loadOrGenerateKey reads the server RSA key from keyPath, generating
// and saving a fresh one when no file exists there yet.
func loadOrGenerateKey(keyPath string, log zerolog.Logger) (*rsa.PrivateKey, error) {
	if _, err := os.Stat(keyPath); err == nil {
		pemData, err := crypto.LoadKeyFromFile(keyPath)
		if err != nil {
			return nil, err
		}

		key, err := crypto.ImportPrivateKeyPEM(pemData)
		if err != nil {
			return nil, err
		}

		log.Info().Str("path", keyPath).Msg("Loaded server key")
		return key, nil
	}

	log.Info().Str("path", keyPath).Msg("Generating new server key")

	key, err := crypto.GenerateServerKey()
	if err != nil {
		return nil, err
	}

	pemData, err := crypto.ExportPrivateKeyPEM(key)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(keyPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
	}

	if err := crypto.SaveKeyToFile(keyPath, pemData); err != nil {
		return nil, err
	}

	return key, nil
}

// sessionVerifier adapts the session client to the gateway's verifier
// interface, converting the collaborator's profile shape to the
// gateway's.
type sessionVerifier struct {
	sessions *session.Client
}

func (v *sessionVerifier) Verify(ctx context.Context, username, serverHash, ip string) (*network.Profile, error) {
	p, err := v.sessions.HasJoined(ctx, username, serverHash, ip)
	if err != nil {
		return nil, err
	}

	id, err := p.UUID()
	if err != nil {
		return nil, fmt.Errorf("session returned invalid profile id %q: %w", p.ID, err)
	}

	props := make([]protocol.ProfileProperty, 0, len(p.Properties))
	for _, prop := range p.Properties {
		props = append(props, protocol.ProfileProperty{
			Name:      prop.Name,
			Value:     prop.Value,
			Signature: prop.Signature,
			HasSig:    prop.Signature != "",
		})
	}

	return &network.Profile{UUID: id, Name: p.Name, Properties: props}, nil
}
