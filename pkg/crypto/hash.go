package crypto

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"strings"
)

// ServerHash computes the digest a client reports to the session
// service during login: SHA-1 over the server id, the shared secret,
// and the server's public key DER, rendered the way Java prints a
// signed big integer in hex. A digest with the top bit set becomes its
// two's complement with a leading minus; leading zeros drop.
func ServerHash(serverID string, secret, publicKeyDER []byte) string {
	h := sha1.New()
	io.WriteString(h, serverID)
	h.Write(secret)
	h.Write(publicKeyDER)
	return signedHex(h.Sum(nil))
}

func signedHex(sum []byte) string {
	negative := sum[0]&0x80 != 0

	if negative {
		carry := true
		for i := len(sum) - 1; i >= 0; i-- {
			sum[i] = ^sum[i]
			if carry {
				sum[i]++
				carry = sum[i] == 0
			}
		}
	}

	s := strings.TrimLeft(hex.EncodeToString(sum), "0")
	if s == "" {
		s = "0"
	}
	if negative {
		s = "-" + s
	}
	return s
}
