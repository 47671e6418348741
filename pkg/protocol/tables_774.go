package protocol

// rows774 declares the packet table for protocol 774 (game version
// 1.21.9). The play section covers the subset this engine handles:
// keep-alive, chat, the spawn and position sync exchange, and chunk
// batch pacing.
func rows774() []Row {
	const v = Version774

	return []Row{
		// ===== HANDSHAKE =====
		{v, PhaseHandshake, Serverbound, 0x00, KindIntention, func() Packet { return &Intention{} }},

		// ===== STATUS =====
		{v, PhaseStatus, Serverbound, 0x00, KindStatusRequest, func() Packet { return &StatusRequest{} }},
		{v, PhaseStatus, Serverbound, 0x01, KindPingRequest, func() Packet { return &PingRequest{} }},
		{v, PhaseStatus, Clientbound, 0x00, KindStatusResponse, func() Packet { return &StatusResponse{} }},
		{v, PhaseStatus, Clientbound, 0x01, KindPongResponse, func() Packet { return &PongResponse{} }},

		// ===== LOGIN =====
		{v, PhaseLogin, Serverbound, 0x00, KindLoginStart, func() Packet { return &LoginStart{} }},
		{v, PhaseLogin, Serverbound, 0x01, KindEncryptionResponse, func() Packet { return &EncryptionResponse{} }},
		{v, PhaseLogin, Serverbound, 0x03, KindLoginAcknowledged, func() Packet { return &LoginAcknowledged{} }},
		{v, PhaseLogin, Clientbound, 0x00, KindLoginDisconnect, func() Packet { return &LoginDisconnect{} }},
		{v, PhaseLogin, Clientbound, 0x01, KindEncryptionRequest, func() Packet { return &EncryptionRequest{} }},
		{v, PhaseLogin, Clientbound, 0x02, KindLoginSuccess, func() Packet { return &LoginSuccess{} }},
		{v, PhaseLogin, Clientbound, 0x03, KindSetCompression, func() Packet { return &SetCompression{} }},

		// ===== CONFIGURATION =====
		{v, PhaseConfiguration, Serverbound, 0x00, KindClientInformation, func() Packet { return &ClientInformation{} }},
		{v, PhaseConfiguration, Serverbound, 0x02, KindCustomPayload, func() Packet { return &CustomPayload{} }},
		{v, PhaseConfiguration, Serverbound, 0x03, KindFinishConfiguration, func() Packet { return &FinishConfiguration{} }},
		{v, PhaseConfiguration, Serverbound, 0x04, KindKeepAlive, func() Packet { return &KeepAlive{} }},
		{v, PhaseConfiguration, Serverbound, 0x07, KindSelectKnownPacks, func() Packet { return &SelectKnownPacks{} }},
		{v, PhaseConfiguration, Clientbound, 0x03, KindFinishConfiguration, func() Packet { return &FinishConfiguration{} }},
		{v, PhaseConfiguration, Clientbound, 0x04, KindKeepAlive, func() Packet { return &KeepAlive{} }},
		{v, PhaseConfiguration, Clientbound, 0x0E, KindSelectKnownPacks, func() Packet { return &SelectKnownPacks{} }},

		// ===== PLAY =====
		{v, PhasePlay, Serverbound, 0x00, KindAcceptTeleportation, func() Packet { return &AcceptTeleportation{} }},
		{v, PhasePlay, Serverbound, 0x0A, KindChunkBatchReceived, func() Packet { return &ChunkBatchReceived{} }},
		{v, PhasePlay, Serverbound, 0x1B, KindKeepAlive, func() Packet { return &KeepAlive{} }},
		{v, PhasePlay, Serverbound, 0x1D, KindMovePlayerPos, func() Packet { return &MovePlayerPos{} }},
		{v, PhasePlay, Serverbound, 0x1E, KindMovePlayerPosRot, func() Packet { return &MovePlayerPosRot{} }},
		{v, PhasePlay, Serverbound, 0x1F, KindMovePlayerRot, func() Packet { return &MovePlayerRot{} }},
		{v, PhasePlay, Serverbound, 0x2B, KindPlayerLoaded, func() Packet { return &PlayerLoaded{} }},
		{v, PhasePlay, Clientbound, 0x0B, KindChunkBatchFinished, func() Packet { return &ChunkBatchFinished{} }},
		{v, PhasePlay, Clientbound, 0x0C, KindChunkBatchStart, func() Packet { return &ChunkBatchStart{} }},
		{v, PhasePlay, Clientbound, 0x2B, KindKeepAlive, func() Packet { return &KeepAlive{} }},
		{v, PhasePlay, Clientbound, 0x30, KindPlayLogin, func() Packet { return &PlayLogin{} }},
		{v, PhasePlay, Clientbound, 0x46, KindSyncPlayerPosition, func() Packet { return &SyncPlayerPosition{} }},
		{v, PhasePlay, Clientbound, 0x66, KindSetHealth, func() Packet { return &SetHealth{} }},
		{v, PhasePlay, Clientbound, 0x6F, KindSetTime, func() Packet { return &SetTime{} }},
		{v, PhasePlay, Clientbound, 0x77, KindSystemChat, func() Packet { return &SystemChat{} }},
	}
}
