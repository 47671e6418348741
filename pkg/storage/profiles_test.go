package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minegate/minegate-node/pkg/session"
)

var _ session.ProfileCache = (*ProfileStore)(nil)

func newTestStore(t *testing.T, cfg Config) *ProfileStore {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "profiles.db")
	}
	store, err := NewProfileStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func notchProfile() *session.Profile {
	return &session.Profile{
		ID:   "069a79f444e94726a5befca90e38aaf5",
		Name: "Notch",
		Properties: []session.Property{
			{Name: "textures", Value: "e30=", Signature: "c2ln"},
		},
	}
}

func TestStoreAndGet(t *testing.T) {
	store := newTestStore(t, Config{})
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, notchProfile()))

	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	profile, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Notch", profile.Name)
	assert.Equal(t, "069a79f444e94726a5befca90e38aaf5", profile.ID)
	require.Len(t, profile.Properties, 1)
	assert.Equal(t, "textures", profile.Properties[0].Name)
	assert.Equal(t, "c2ln", profile.Properties[0].Signature)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t, Config{})
	ctx := context.Background()

	_, err := store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	profile, ok, err := store.Lookup(ctx, uuid.New())
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, profile)
}

func TestStoreUpserts(t *testing.T) {
	store := newTestStore(t, Config{})
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, notchProfile()))

	renamed := notchProfile()
	renamed.Name = "Markus"
	renamed.Properties = nil
	require.NoError(t, store.Store(ctx, renamed))

	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	profile, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Markus", profile.Name)
	assert.Empty(t, profile.Properties)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExpiry(t *testing.T) {
	store := newTestStore(t, Config{})
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, notchProfile()))

	// Age the row past its TTL.
	_, err := store.db.Exec(`UPDATE profiles SET expires_at = ?`, time.Now().Add(-time.Minute).Unix())
	require.NoError(t, err)

	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok, err := store.Lookup(ctx, id)
	assert.NoError(t, err)
	assert.False(t, ok)

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetByName(t *testing.T) {
	store := newTestStore(t, Config{})
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, notchProfile()))

	profile, err := store.GetByName(ctx, "Notch")
	require.NoError(t, err)
	assert.Equal(t, "069a79f444e94726a5befca90e38aaf5", profile.ID)

	_, err = store.GetByName(ctx, "Herobrine")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t, Config{})
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, notchProfile()))

	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	require.NoError(t, store.Delete(ctx, id))

	_, err := store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

// ===== SEALING =====

func TestSealedAtRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sealed.db")
	store := newTestStore(t, Config{Path: path, SealSecret: "hunter2"})
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, notchProfile()))

	// The raw row must not leak property names.
	var blob []byte
	var sealed int
	require.NoError(t, store.db.QueryRow(`SELECT properties, sealed FROM profiles`).Scan(&blob, &sealed))
	assert.Equal(t, 1, sealed)
	assert.False(t, bytes.Contains(blob, []byte("textures")))

	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	profile, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, profile.Properties, 1)
	assert.Equal(t, "textures", profile.Properties[0].Name)

	// The salt persists: a fresh store over the same file and secret
	// still opens the rows.
	require.NoError(t, store.Close())
	reopened, err := NewProfileStore(Config{Path: path, SealSecret: "hunter2"})
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	profile, err = reopened.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Notch", profile.Name)
	require.Len(t, profile.Properties, 1)
}

func TestSealedRowsReadAsMissesWithoutSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sealed.db")
	store := newTestStore(t, Config{Path: path, SealSecret: "hunter2"})
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, notchProfile()))
	require.NoError(t, store.Close())

	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")

	t.Run("WrongSecret", func(t *testing.T) {
		wrong, err := NewProfileStore(Config{Path: path, SealSecret: "swordfish"})
		require.NoError(t, err)
		t.Cleanup(func() { wrong.Close() })

		_, err = wrong.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("NoSecret", func(t *testing.T) {
		open, err := NewProfileStore(Config{Path: path})
		require.NoError(t, err)
		t.Cleanup(func() { open.Close() })

		_, ok, err := open.Lookup(ctx, id)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSealerRoundTrip(t *testing.T) {
	salt := bytes.Repeat([]byte{0x5a}, saltSize)
	s, err := newSealer("hunter2", salt)
	require.NoError(t, err)

	plain := []byte(`[{"name":"textures","value":"e30="}]`)
	blob, err := s.seal(plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, blob)

	opened, err := s.open(blob)
	require.NoError(t, err)
	assert.Equal(t, plain, opened)
}

func TestSealerRejectsTampering(t *testing.T) {
	salt := bytes.Repeat([]byte{0x5a}, saltSize)
	s, err := newSealer("hunter2", salt)
	require.NoError(t, err)

	blob, err := s.seal([]byte("payload"))
	require.NoError(t, err)

	blob[len(blob)-1] ^= 0x01
	_, err = s.open(blob)
	assert.Error(t, err)

	_, err = s.open(blob[:sealNonceSize-1])
	assert.Error(t, err)
}
