package crypto

import (
	"bytes"
	"crypto/aes"
	"encoding/hex"
	"errors"
	"testing"
)

// NIST SP 800-38A F.3.7/F.3.8 CFB8-AES128 vectors, where key and IV
// differ, exercising the mode itself rather than the protocol's
// key-equals-IV convention.
func TestCFB8KnownVectors(t *testing.T) {
	key, _ := hex.DecodeString("2b7e151628aed2a6abf7158809cf4f3c")
	iv, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	plaintext, _ := hex.DecodeString("6bc1bee22e409f96e93d7e117393172aae2d")
	ciphertext, _ := hex.DecodeString("3b79424c9c0dd436bace9e0ed4586a4f32b9")

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher() error = %v", err)
	}

	got := make([]byte, len(plaintext))
	newCFB8(block, iv, false).XORKeyStream(got, plaintext)
	if !bytes.Equal(got, ciphertext) {
		t.Errorf("encrypt = %x, want %x", got, ciphertext)
	}

	newCFB8(block, iv, true).XORKeyStream(got, ciphertext)
	if !bytes.Equal(got, plaintext) {
		t.Errorf("decrypt = %x, want %x", got, plaintext)
	}
}

func TestCFB8ByteAtATime(t *testing.T) {
	key, _ := hex.DecodeString("2b7e151628aed2a6abf7158809cf4f3c")
	iv, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	plaintext, _ := hex.DecodeString("6bc1bee22e409f96e93d7e117393172aae2d")

	block, _ := aes.NewCipher(key)

	whole := make([]byte, len(plaintext))
	newCFB8(block, iv, false).XORKeyStream(whole, plaintext)

	// Splitting the input across calls must not change the stream.
	stream := newCFB8(block, iv, false)
	piecewise := make([]byte, len(plaintext))
	for i := range plaintext {
		stream.XORKeyStream(piecewise[i:i+1], plaintext[i:i+1])
	}

	if !bytes.Equal(whole, piecewise) {
		t.Errorf("piecewise = %x, want %x", piecewise, whole)
	}
}

func TestStreamPairRoundTrip(t *testing.T) {
	secret, err := GenerateSharedSecret()
	if err != nil {
		t.Fatalf("GenerateSharedSecret() error = %v", err)
	}
	if len(secret) != SharedSecretSize {
		t.Fatalf("secret length = %d, want %d", len(secret), SharedSecretSize)
	}

	// Client-to-server direction uses the client's out stream and the
	// server's in stream.
	clientOut, _, err := NewStreamPair(secret)
	if err != nil {
		t.Fatalf("NewStreamPair() error = %v", err)
	}
	_, serverIn, err := NewStreamPair(secret)
	if err != nil {
		t.Fatalf("NewStreamPair() error = %v", err)
	}

	msg := []byte("frame one")
	wire := make([]byte, len(msg))
	clientOut.XORKeyStream(wire, msg)

	if bytes.Equal(wire, msg) {
		t.Error("cipher stream left plaintext unchanged")
	}

	got := make([]byte, len(wire))
	serverIn.XORKeyStream(got, wire)
	if !bytes.Equal(got, msg) {
		t.Errorf("decrypt = %q, want %q", got, msg)
	}

	// The stream carries state across frames.
	msg2 := []byte("frame two, longer than the first")
	wire2 := make([]byte, len(msg2))
	clientOut.XORKeyStream(wire2, msg2)

	got2 := make([]byte, len(wire2))
	serverIn.XORKeyStream(got2, wire2)
	if !bytes.Equal(got2, msg2) {
		t.Errorf("second frame decrypt = %q, want %q", got2, msg2)
	}
}

func TestNewStreamPairBadSecret(t *testing.T) {
	if _, _, err := NewStreamPair([]byte("short")); !errors.Is(err, ErrBadSecret) {
		t.Errorf("NewStreamPair() error = %v, want %v", err, ErrBadSecret)
	}
}

func TestGenerateVerifyToken(t *testing.T) {
	a, err := GenerateVerifyToken()
	if err != nil {
		t.Fatalf("GenerateVerifyToken() error = %v", err)
	}
	if len(a) != 4 {
		t.Errorf("token length = %d, want 4", len(a))
	}

	b, _ := GenerateVerifyToken()
	if bytes.Equal(a, b) {
		t.Error("two tokens came out identical")
	}
}
