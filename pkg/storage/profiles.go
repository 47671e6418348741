package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minegate/minegate-node/pkg/session"
)

// Store upserts a resolved profile, stamping the cache TTL.
func (s *ProfileStore) Store(ctx context.Context, profile *session.Profile) error {
	id, err := profile.UUID()
	if err != nil {
		return fmt.Errorf("failed to parse profile id: %w", err)
	}

	blob, err := json.Marshal(profile.Properties)
	if err != nil {
		return fmt.Errorf("failed to encode properties: %w", err)
	}
	sealed := 0
	if s.sealer != nil {
		if blob, err = s.sealer.seal(blob); err != nil {
			return err
		}
		sealed = 1
	}

	now := time.Now().Unix()
	query := `
		INSERT INTO profiles (uuid, name, properties, sealed, cached_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			name = excluded.name,
			properties = excluded.properties,
			sealed = excluded.sealed,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at
	`

	_, err = s.db.ExecContext(ctx, query,
		id.String(), profile.Name, blob, sealed, now, now+int64(s.ttl.Seconds()))
	if err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

// Get returns a cached profile, or ErrNotFound once it expired.
func (s *ProfileStore) Get(ctx context.Context, id uuid.UUID) (*session.Profile, error) {
	query := `SELECT name, properties, sealed FROM profiles WHERE uuid = ? AND expires_at > ?`

	var (
		name   string
		blob   []byte
		sealed int
	)
	err := s.db.QueryRowContext(ctx, query, id.String(), time.Now().Unix()).
		Scan(&name, &blob, &sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	props, err := s.decodeProperties(blob, sealed)
	if err != nil {
		return nil, err
	}
	return &session.Profile{
		ID:         hex.EncodeToString(id[:]),
		Name:       name,
		Properties: props,
	}, nil
}

// GetByName returns the freshest cached profile under name, or
// ErrNotFound.
func (s *ProfileStore) GetByName(ctx context.Context, name string) (*session.Profile, error) {
	query := `
		SELECT uuid, properties, sealed FROM profiles
		WHERE name = ? AND expires_at > ?
		ORDER BY cached_at DESC LIMIT 1
	`

	var (
		idStr  string
		blob   []byte
		sealed int
	)
	err := s.db.QueryRowContext(ctx, query, name, time.Now().Unix()).
		Scan(&idStr, &blob, &sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored profile id %q: %w", idStr, err)
	}
	props, err := s.decodeProperties(blob, sealed)
	if err != nil {
		return nil, err
	}
	return &session.Profile{
		ID:         hex.EncodeToString(id[:]),
		Name:       name,
		Properties: props,
	}, nil
}

// Lookup adapts Get to the session read-through cache interface.
func (s *ProfileStore) Lookup(ctx context.Context, id uuid.UUID) (*session.Profile, bool, error) {
	profile, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return profile, true, nil
}

// Delete removes one profile regardless of expiry.
func (s *ProfileStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE uuid = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired rows and reports how many went.
func (s *ProfileStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge profiles: %w", err)
	}
	purged, _ := result.RowsAffected()
	return purged, nil
}

// Count returns the number of unexpired cached profiles.
func (s *ProfileStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE expires_at > ?`, time.Now().Unix()).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

// decodeProperties unwraps a stored properties blob. Sealed rows the
// configured secret cannot open read as misses; the cache refetches
// rather than serving garbage.
func (s *ProfileStore) decodeProperties(blob []byte, sealed int) ([]session.Property, error) {
	if sealed != 0 {
		if s.sealer == nil {
			s.log.Debug().Msg("discarding sealed profile, store opened without a secret")
			return nil, ErrNotFound
		}
		plain, err := s.sealer.open(blob)
		if err != nil {
			s.log.Debug().Err(err).Msg("discarding unreadable sealed profile")
			return nil, ErrNotFound
		}
		blob = plain
	}

	var props []session.Property
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &props); err != nil {
			return nil, fmt.Errorf("failed to decode properties: %w", err)
		}
	}
	return props, nil
}
