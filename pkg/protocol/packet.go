package protocol

// Kind is the stable, version-independent identity of a packet. Wire
// ids shift between protocol versions; kinds do not. Connection state
// handling keys on kinds so that id churn stays confined to the
// registry tables.
type Kind uint16

const (
	KindUnknown Kind = iota

	// Handshake
	KindIntention

	// Status
	KindStatusRequest
	KindStatusResponse
	KindPingRequest
	KindPongResponse

	// Login
	KindLoginDisconnect
	KindLoginStart
	KindEncryptionRequest
	KindEncryptionResponse
	KindLoginSuccess
	KindSetCompression
	KindLoginAcknowledged

	// Configuration
	KindClientInformation
	KindCustomPayload
	KindFinishConfiguration
	KindSelectKnownPacks

	// Configuration and Play (same shape in both phases)
	KindKeepAlive

	// Play
	KindPlayLogin
	KindSystemChat
	KindSyncPlayerPosition
	KindAcceptTeleportation
	KindMovePlayerPos
	KindMovePlayerPosRot
	KindMovePlayerRot
	KindPlayerLoaded
	KindSetHealth
	KindSetTime
	KindChunkBatchStart
	KindChunkBatchFinished
	KindChunkBatchReceived

	// Play -> Configuration re-entry. Both bodies are empty; no wire id
	// is bound for these in the shipped tables, callers registering
	// additional versions bind them there.
	KindStartConfiguration
	KindConfigurationAcknowledged
)

// kindNames is indexed by Kind for String.
var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindIntention:           "intention",
	KindStatusRequest:       "status_request",
	KindStatusResponse:      "status_response",
	KindPingRequest:         "ping_request",
	KindPongResponse:        "pong_response",
	KindLoginDisconnect:     "login_disconnect",
	KindLoginStart:          "login_start",
	KindEncryptionRequest:   "encryption_request",
	KindEncryptionResponse:  "encryption_response",
	KindLoginSuccess:        "login_success",
	KindSetCompression:      "set_compression",
	KindLoginAcknowledged:   "login_acknowledged",
	KindClientInformation:   "client_information",
	KindCustomPayload:       "custom_payload",
	KindFinishConfiguration: "finish_configuration",
	KindSelectKnownPacks:    "select_known_packs",
	KindKeepAlive:           "keep_alive",
	KindPlayLogin:           "play_login",
	KindSystemChat:          "system_chat",
	KindSyncPlayerPosition:  "sync_player_position",
	KindAcceptTeleportation: "accept_teleportation",
	KindMovePlayerPos:       "move_player_pos",
	KindMovePlayerPosRot:    "move_player_pos_rot",
	KindMovePlayerRot:       "move_player_rot",
	KindPlayerLoaded:        "player_loaded",
	KindSetHealth:           "set_health",
	KindSetTime:             "set_time",
	KindChunkBatchStart:     "chunk_batch_start",
	KindChunkBatchFinished:  "chunk_batch_finished",
	KindChunkBatchReceived:  "chunk_batch_received",

	KindStartConfiguration:        "start_configuration",
	KindConfigurationAcknowledged: "configuration_acknowledged",
}

// String returns the kind name for logging.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Packet is implemented by every concrete packet type. Encode and
// Decode walk the payload fields only; the leading wire id belongs to
// the Registry, which owns the (version, phase, direction, id) binding.
type Packet interface {
	// Kind returns the packet's stable identity.
	Kind() Kind

	// Encode appends the payload fields to b.
	Encode(b *Buffer) error

	// Decode consumes the payload fields from b.
	Decode(b *Buffer) error
}
