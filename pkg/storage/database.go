// Package storage caches resolved session profiles in sqlite.
package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound = errors.New("profile not found")
)

const (
	defaultTTL      = time.Hour
	cleanupInterval = 10 * time.Minute
)

// Config wires a ProfileStore.
type Config struct {
	// Path is the sqlite database file.
	Path string

	// TTL bounds how long a cached profile stays valid. Zero means
	// one hour.
	TTL time.Duration

	// SealSecret, when set, seals property blobs at rest with a key
	// derived from it and a per-store random salt.
	SealSecret string

	Logger zerolog.Logger
}

// ProfileStore is a TTL cache of resolved profiles. It implements the
// session read-through cache interface.
type ProfileStore struct {
	db     *sql.DB
	ttl    time.Duration
	sealer *sealer
	log    zerolog.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewProfileStore opens the database, runs the schema, and starts the
// expiry cleanup loop.
func NewProfileStore(cfg Config) (*ProfileStore, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}

	// WAL mode for better concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &ProfileStore{
		db:   db,
		ttl:  ttl,
		log:  cfg.Logger,
		done: make(chan struct{}),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.SealSecret != "" {
		salt, err := store.sealSalt()
		if err != nil {
			db.Close()
			return nil, err
		}
		sealer, err := newSealer(cfg.SealSecret, salt)
		if err != nil {
			db.Close()
			return nil, err
		}
		store.sealer = sealer
	}

	go store.cleanupLoop()
	return store, nil
}

func (s *ProfileStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		properties BLOB,
		sealed INTEGER NOT NULL DEFAULT 0,
		cached_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);

	-- Index for expiry cleanup
	CREATE INDEX IF NOT EXISTS idx_profiles_expires ON profiles(expires_at);

	-- Index for name lookups
	CREATE INDEX IF NOT EXISTS idx_profiles_name ON profiles(name);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// sealSalt loads the store's key-derivation salt, generating it on
// first use so every store seals under a distinct key.
func (s *ProfileStore) sealSalt() ([]byte, error) {
	var salt []byte
	err := s.db.QueryRow(`SELECT value FROM store_meta WHERE key = 'seal_salt'`).Scan(&salt)
	if err == nil {
		return salt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load seal salt: %w", err)
	}

	salt = make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate seal salt: %w", err)
	}
	if _, err := s.db.Exec(`INSERT INTO store_meta (key, value) VALUES ('seal_salt', ?)`, salt); err != nil {
		return nil, fmt.Errorf("failed to persist seal salt: %w", err)
	}
	return salt, nil
}

func (s *ProfileStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			purged, err := s.PurgeExpired(context.Background())
			if err != nil {
				s.log.Warn().Err(err).Msg("profile cache cleanup failed")
				continue
			}
			if purged > 0 {
				s.log.Debug().Int64("purged", purged).Msg("purged expired profiles")
			}
		case <-s.done:
			return
		}
	}
}

// Close stops the cleanup loop and closes the database.
func (s *ProfileStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	return s.db.Close()
}
