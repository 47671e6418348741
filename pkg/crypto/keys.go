package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
)

var (
	ErrInvalidKey       = errors.New("invalid key")
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// ServerKeyBits is the RSA size for the login challenge keypair. The
// key protects only the 16-byte shared secret in transit, per the
// published protocol.
const ServerKeyBits = 1024

// GenerateServerKey generates the RSA keypair used for the encryption
// challenge.
func GenerateServerKey() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, ServerKeyBits)
}

// PublicKeyDER renders the public key in the DER form carried by the
// encryption request packet.
func PublicKeyDER(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, err
	}
	return der, nil
}

// ParsePublicKeyDER parses a public key received in an encryption
// request.
func ParsePublicKeyDER(der []byte) (*rsa.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, ErrInvalidKey
	}

	return rsaPub, nil
}

// ExportPrivateKeyPEM exports a private key to PEM format
func ExportPrivateKeyPEM(key *rsa.PrivateKey) ([]byte, error) {
	privASN1 := x509.MarshalPKCS1PrivateKey(key)

	privBlock := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: privASN1,
	}

	return pem.EncodeToMemory(privBlock), nil
}

// ImportPrivateKeyPEM imports a private key from PEM format
func ImportPrivateKeyPEM(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, ErrInvalidKey
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	return key, nil
}

// SaveKeyToFile saves a PEM encoded key to file
func SaveKeyToFile(filename string, pemData []byte) error {
	return os.WriteFile(filename, pemData, 0600)
}

// LoadKeyFromFile loads a PEM encoded key from file
func LoadKeyFromFile(filename string) ([]byte, error) {
	return os.ReadFile(filename)
}

// EncryptChallenge encrypts a challenge value (shared secret or verify
// token) with the server's public key. The protocol mandates
// PKCS #1 v1.5 padding here.
func EncryptChallenge(data []byte, publicKey *rsa.PublicKey) ([]byte, error) {
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, publicKey, data)
	if err != nil {
		return nil, ErrEncryptionFailed
	}
	return ciphertext, nil
}

// DecryptChallenge decrypts a challenge value with the server's
// private key.
func DecryptChallenge(ciphertext []byte, privateKey *rsa.PrivateKey) ([]byte, error) {
	plaintext, err := rsa.DecryptPKCS1v15(rand.Reader, privateKey, ciphertext)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
