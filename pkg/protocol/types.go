package protocol

// Protocol versions with packet tables shipped in this package.
const (
	// Version774 is the wire protocol of game version 1.21.9.
	Version774 int32 = 774

	// GameVersion774 is the game version name reported for Version774
	// in status responses.
	GameVersion774 = "1.21.9"
)

// Wire limits
const (
	// MaxFrameLength is the maximum frame payload size in either
	// direction, before and after compression.
	MaxFrameLength = 1<<21 - 1

	// MaxStringLength is the default cap for length-prefixed strings.
	MaxStringLength = 32767

	// MaxServerAddress caps the server address field of the intention
	// packet.
	MaxServerAddress = 255

	// MaxUsername caps player names in login packets.
	MaxUsername = 16
)

// Phase identifies the protocol phase of a connection. Wire ids are
// only meaningful relative to the phase and direction they travel in.
type Phase uint8

const (
	PhaseHandshake Phase = iota
	PhaseStatus
	PhaseLogin
	PhaseConfiguration
	PhasePlay
	PhaseClosed
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseHandshake:
		return "handshake"
	case PhaseStatus:
		return "status"
	case PhaseLogin:
		return "login"
	case PhaseConfiguration:
		return "configuration"
	case PhasePlay:
		return "play"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Direction identifies which peer a packet travels toward.
type Direction uint8

const (
	// Serverbound packets travel client to server.
	Serverbound Direction = iota
	// Clientbound packets travel server to client.
	Clientbound
)

// String returns the direction name for logging.
func (d Direction) String() string {
	switch d {
	case Serverbound:
		return "serverbound"
	case Clientbound:
		return "clientbound"
	default:
		return "unknown"
	}
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	if d == Serverbound {
		return Clientbound
	}
	return Serverbound
}

// Intention next-state values carried by the handshake packet.
const (
	IntentStatus   int32 = 1
	IntentLogin    int32 = 2
	IntentTransfer int32 = 3
)
