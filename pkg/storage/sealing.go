package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// AES-256 key size.
	sealKeySize = 32

	// Standard GCM nonce size.
	sealNonceSize = 12

	// PBKDF2 iterations.
	sealIterations = 100000

	saltSize = 16
)

// sealer seals property blobs with AES-256-GCM under a key derived
// from the configured secret and the store's persisted salt.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(secret string, salt []byte) (*sealer, error) {
	key := pbkdf2.Key([]byte(secret), salt, sealIterations, sealKeySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &sealer{aead: aead}, nil
}

// seal produces nonce || ciphertext, the auth tag included.
func (s *sealer) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, sealNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plain, nil), nil
}

// open splits nonce || ciphertext and authenticates.
func (s *sealer) open(blob []byte) ([]byte, error) {
	if len(blob) < sealNonceSize {
		return nil, fmt.Errorf("sealed blob too short")
	}
	plain, err := s.aead.Open(nil, blob[:sealNonceSize], blob[sealNonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open sealed blob: %w", err)
	}
	return plain, nil
}
