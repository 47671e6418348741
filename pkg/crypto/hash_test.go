package crypto

import "testing"

func TestServerHash(t *testing.T) {
	// The three published digest examples, covering the positive,
	// negative, and leading-zero renderings.
	tests := []struct {
		name     string
		serverID string
		want     string
	}{
		{"positive digest", "Notch", "4ed1f46bbe04bc756bcb17c0c7ce3e4632f06a48"},
		{"negative digest", "jeb_", "-7c9d5b0044c130109a5d7b5fb5c317c02b4e28c1"},
		{"leading zero drops", "simon", "88e16a1019277b15d58faf0541e11910eb756f6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ServerHash(tt.serverID, nil, nil)
			if got != tt.want {
				t.Errorf("ServerHash(%q) = %s, want %s", tt.serverID, got, tt.want)
			}
		})
	}
}

func TestServerHashUsesAllInputs(t *testing.T) {
	base := ServerHash("", []byte{0x01}, []byte{0x02})

	if ServerHash("", []byte{0x01}, []byte{0x03}) == base {
		t.Error("ServerHash() ignored the public key")
	}
	if ServerHash("", []byte{0x02}, []byte{0x02}) == base {
		t.Error("ServerHash() ignored the secret")
	}
	if ServerHash("x", []byte{0x01}, []byte{0x02}) == base {
		t.Error("ServerHash() ignored the server id")
	}
}
