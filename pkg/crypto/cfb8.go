package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
)

// ErrBadSecret marks a shared secret that is not a valid AES-128 key.
var ErrBadSecret = errors.New("shared secret must be 16 bytes")

// SharedSecretSize is the AES-128 key length the protocol negotiates.
const SharedSecretSize = 16

// cfb8 is the 8-bit cipher feedback mode the protocol encrypts the
// stream with. The standard library only ships full-block CFB, so the
// byte-granular variant lives here. One instance handles one
// direction; it is not safe for concurrent use.
type cfb8 struct {
	block   cipher.Block
	sr      []byte // shift register, one block wide
	tmp     []byte
	decrypt bool
}

func newCFB8(block cipher.Block, iv []byte, decrypt bool) *cfb8 {
	c := &cfb8{
		block:   block,
		sr:      make([]byte, block.BlockSize()),
		tmp:     make([]byte, block.BlockSize()),
		decrypt: decrypt,
	}
	copy(c.sr, iv)
	return c
}

// XORKeyStream implements cipher.Stream. Each byte is enciphered
// against the first byte of the encrypted shift register, then the
// ciphertext byte is fed back in.
func (c *cfb8) XORKeyStream(dst, src []byte) {
	for i := range src {
		c.block.Encrypt(c.tmp, c.sr)
		out := src[i] ^ c.tmp[0]

		fb := out
		if c.decrypt {
			fb = src[i]
		}
		copy(c.sr, c.sr[1:])
		c.sr[len(c.sr)-1] = fb

		dst[i] = out
	}
}

// NewStreamPair builds the outbound and inbound cipher streams for one
// shared secret. The secret doubles as key and initialization vector,
// with independent shift registers per direction.
func NewStreamPair(secret []byte) (out, in cipher.Stream, err error) {
	if len(secret) != SharedSecretSize {
		return nil, nil, ErrBadSecret
	}

	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, nil, err
	}

	return newCFB8(block, secret, false), newCFB8(block, secret, true), nil
}

// GenerateSharedSecret generates the random AES key a client proposes
// during the encryption challenge.
func GenerateSharedSecret() ([]byte, error) {
	return GenerateNonce(SharedSecretSize)
}

// GenerateVerifyToken generates the short random token the server
// expects echoed back encrypted.
func GenerateVerifyToken() ([]byte, error) {
	return GenerateNonce(4)
}

// GenerateNonce generates size random bytes
func GenerateNonce(size int) ([]byte, error) {
	nonce := make([]byte, size)
	_, err := rand.Read(nonce)
	if err != nil {
		return nil, err
	}
	return nonce, nil
}
