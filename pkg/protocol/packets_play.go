package protocol

import (
	"github.com/minegate/minegate-node/pkg/nbt"
)

// ===== PLAY CLIENTBOUND =====

// PlayLogin opens the play phase with the world parameters the client
// needs before it can render anything.
type PlayLogin struct {
	EntityID            int32
	Hardcore            bool
	DimensionNames      []string
	MaxPlayers          int32
	ViewDistance        int32
	SimulationDistance  int32
	ReducedDebugInfo    bool
	EnableRespawnScreen bool
	DoLimitedCrafting   bool
	DimensionType       int32
	DimensionName       string
	HashedSeed          int64
	GameMode            uint8
	PreviousGameMode    int8
	Debug               bool
	Flat                bool
	HasDeathLocation    bool
	DeathDimensionName  string
	DeathLocation       Position
	PortalCooldown      int32
	SeaLevel            int32
	EnforcesSecureChat  bool
}

func (p *PlayLogin) Kind() Kind { return KindPlayLogin }

func (p *PlayLogin) Encode(b *Buffer) error {
	b.WriteInt32(p.EntityID)
	b.WriteBool(p.Hardcore)
	b.WriteVarInt(int32(len(p.DimensionNames)))
	for _, name := range p.DimensionNames {
		b.WriteString(name)
	}
	b.WriteVarInt(p.MaxPlayers)
	b.WriteVarInt(p.ViewDistance)
	b.WriteVarInt(p.SimulationDistance)
	b.WriteBool(p.ReducedDebugInfo)
	b.WriteBool(p.EnableRespawnScreen)
	b.WriteBool(p.DoLimitedCrafting)
	b.WriteVarInt(p.DimensionType)
	b.WriteString(p.DimensionName)
	b.WriteInt64(p.HashedSeed)
	b.WriteUint8(p.GameMode)
	b.WriteInt8(p.PreviousGameMode)
	b.WriteBool(p.Debug)
	b.WriteBool(p.Flat)
	b.WriteBool(p.HasDeathLocation)
	if p.HasDeathLocation {
		b.WriteString(p.DeathDimensionName)
		b.WritePosition(p.DeathLocation)
	}
	b.WriteVarInt(p.PortalCooldown)
	b.WriteVarInt(p.SeaLevel)
	b.WriteBool(p.EnforcesSecureChat)
	return nil
}

func (p *PlayLogin) Decode(b *Buffer) error {
	var err error
	if p.EntityID, err = b.ReadInt32(); err != nil {
		return err
	}
	if p.Hardcore, err = b.ReadBool(); err != nil {
		return err
	}
	count, err := b.ReadVarInt()
	if err != nil {
		return err
	}
	if count < 0 {
		return ErrNegativeLength
	}
	if int(count) > b.Remaining() {
		return ErrUnexpectedEOF
	}
	p.DimensionNames = make([]string, count)
	for i := range p.DimensionNames {
		if p.DimensionNames[i], err = b.ReadString(MaxStringLength); err != nil {
			return err
		}
	}
	if p.MaxPlayers, err = b.ReadVarInt(); err != nil {
		return err
	}
	if p.ViewDistance, err = b.ReadVarInt(); err != nil {
		return err
	}
	if p.SimulationDistance, err = b.ReadVarInt(); err != nil {
		return err
	}
	if p.ReducedDebugInfo, err = b.ReadBool(); err != nil {
		return err
	}
	if p.EnableRespawnScreen, err = b.ReadBool(); err != nil {
		return err
	}
	if p.DoLimitedCrafting, err = b.ReadBool(); err != nil {
		return err
	}
	if p.DimensionType, err = b.ReadVarInt(); err != nil {
		return err
	}
	if p.DimensionName, err = b.ReadString(MaxStringLength); err != nil {
		return err
	}
	if p.HashedSeed, err = b.ReadInt64(); err != nil {
		return err
	}
	if p.GameMode, err = b.ReadUint8(); err != nil {
		return err
	}
	if p.PreviousGameMode, err = b.ReadInt8(); err != nil {
		return err
	}
	if p.Debug, err = b.ReadBool(); err != nil {
		return err
	}
	if p.Flat, err = b.ReadBool(); err != nil {
		return err
	}
	if p.HasDeathLocation, err = b.ReadBool(); err != nil {
		return err
	}
	if p.HasDeathLocation {
		if p.DeathDimensionName, err = b.ReadString(MaxStringLength); err != nil {
			return err
		}
		if p.DeathLocation, err = b.ReadPosition(); err != nil {
			return err
		}
	}
	if p.PortalCooldown, err = b.ReadVarInt(); err != nil {
		return err
	}
	if p.SeaLevel, err = b.ReadVarInt(); err != nil {
		return err
	}
	if p.EnforcesSecureChat, err = b.ReadBool(); err != nil {
		return err
	}
	return nil
}

// SystemChat is a server-originated chat line. The content is a text
// component in network NBT form, carried undecoded past the tag tree.
type SystemChat struct {
	Content nbt.Tag
	Overlay bool
}

func (p *SystemChat) Kind() Kind { return KindSystemChat }

func (p *SystemChat) Encode(b *Buffer) error {
	data, err := nbt.Encode(p.Content)
	if err != nil {
		return err
	}
	b.WriteRaw(data)
	b.WriteBool(p.Overlay)
	return nil
}

func (p *SystemChat) Decode(b *Buffer) error {
	tag, n, err := nbt.Decode(b.Peek())
	if err != nil {
		return err
	}
	if err := b.Skip(n); err != nil {
		return err
	}
	p.Content = tag
	p.Overlay, err = b.ReadBool()
	return err
}

// SyncPlayerPosition teleports the player. The client must answer with
// AcceptTeleportation carrying the same teleport id before its own
// movement is accepted again.
type SyncPlayerPosition struct {
	TeleportID int32
	X, Y, Z    float64
	VelX       float64
	VelY       float64
	VelZ       float64
	Yaw        float32
	Pitch      float32
	Flags      int32
}

func (p *SyncPlayerPosition) Kind() Kind { return KindSyncPlayerPosition }

func (p *SyncPlayerPosition) Encode(b *Buffer) error {
	b.WriteVarInt(p.TeleportID)
	b.WriteFloat64(p.X)
	b.WriteFloat64(p.Y)
	b.WriteFloat64(p.Z)
	b.WriteFloat64(p.VelX)
	b.WriteFloat64(p.VelY)
	b.WriteFloat64(p.VelZ)
	b.WriteFloat32(p.Yaw)
	b.WriteFloat32(p.Pitch)
	b.WriteInt32(p.Flags)
	return nil
}

func (p *SyncPlayerPosition) Decode(b *Buffer) error {
	var err error
	if p.TeleportID, err = b.ReadVarInt(); err != nil {
		return err
	}
	if p.X, err = b.ReadFloat64(); err != nil {
		return err
	}
	if p.Y, err = b.ReadFloat64(); err != nil {
		return err
	}
	if p.Z, err = b.ReadFloat64(); err != nil {
		return err
	}
	if p.VelX, err = b.ReadFloat64(); err != nil {
		return err
	}
	if p.VelY, err = b.ReadFloat64(); err != nil {
		return err
	}
	if p.VelZ, err = b.ReadFloat64(); err != nil {
		return err
	}
	if p.Yaw, err = b.ReadFloat32(); err != nil {
		return err
	}
	if p.Pitch, err = b.ReadFloat32(); err != nil {
		return err
	}
	if p.Flags, err = b.ReadInt32(); err != nil {
		return err
	}
	return nil
}

// SetHealth updates the health bar. Health at or below zero means dead.
type SetHealth struct {
	Health     float32
	Food       int32
	Saturation float32
}

func (p *SetHealth) Kind() Kind { return KindSetHealth }

func (p *SetHealth) Encode(b *Buffer) error {
	b.WriteFloat32(p.Health)
	b.WriteVarInt(p.Food)
	b.WriteFloat32(p.Saturation)
	return nil
}

func (p *SetHealth) Decode(b *Buffer) error {
	var err error
	if p.Health, err = b.ReadFloat32(); err != nil {
		return err
	}
	if p.Food, err = b.ReadVarInt(); err != nil {
		return err
	}
	if p.Saturation, err = b.ReadFloat32(); err != nil {
		return err
	}
	return nil
}

// SetTime synchronizes the world clock.
type SetTime struct {
	WorldAge            int64
	TimeOfDay           int64
	TimeOfDayIncreasing bool
}

func (p *SetTime) Kind() Kind { return KindSetTime }

func (p *SetTime) Encode(b *Buffer) error {
	b.WriteInt64(p.WorldAge)
	b.WriteInt64(p.TimeOfDay)
	b.WriteBool(p.TimeOfDayIncreasing)
	return nil
}

func (p *SetTime) Decode(b *Buffer) error {
	var err error
	if p.WorldAge, err = b.ReadInt64(); err != nil {
		return err
	}
	if p.TimeOfDay, err = b.ReadInt64(); err != nil {
		return err
	}
	if p.TimeOfDayIncreasing, err = b.ReadBool(); err != nil {
		return err
	}
	return nil
}

// ChunkBatchStart marks the beginning of a chunk batch. Empty payload.
type ChunkBatchStart struct{}

func (p *ChunkBatchStart) Kind() Kind            { return KindChunkBatchStart }
func (p *ChunkBatchStart) Encode(b *Buffer) error { return nil }
func (p *ChunkBatchStart) Decode(b *Buffer) error { return nil }

// ChunkBatchFinished closes a chunk batch with the number of chunks it
// carried, so the client can pace acknowledgments.
type ChunkBatchFinished struct {
	BatchSize int32
}

func (p *ChunkBatchFinished) Kind() Kind { return KindChunkBatchFinished }

func (p *ChunkBatchFinished) Encode(b *Buffer) error {
	b.WriteVarInt(p.BatchSize)
	return nil
}

func (p *ChunkBatchFinished) Decode(b *Buffer) error {
	var err error
	p.BatchSize, err = b.ReadVarInt()
	return err
}

// ===== PLAY SERVERBOUND =====

// AcceptTeleportation confirms a SyncPlayerPosition teleport.
type AcceptTeleportation struct {
	TeleportID int32
}

func (p *AcceptTeleportation) Kind() Kind { return KindAcceptTeleportation }

func (p *AcceptTeleportation) Encode(b *Buffer) error {
	b.WriteVarInt(p.TeleportID)
	return nil
}

func (p *AcceptTeleportation) Decode(b *Buffer) error {
	var err error
	p.TeleportID, err = b.ReadVarInt()
	return err
}

// MovePlayerPos updates the player position without rotation. Flags bit
// 0 is on-ground, bit 1 is pushing against a wall.
type MovePlayerPos struct {
	X     float64
	FeetY float64
	Z     float64
	Flags uint8
}

func (p *MovePlayerPos) Kind() Kind { return KindMovePlayerPos }

func (p *MovePlayerPos) Encode(b *Buffer) error {
	b.WriteFloat64(p.X)
	b.WriteFloat64(p.FeetY)
	b.WriteFloat64(p.Z)
	b.WriteUint8(p.Flags)
	return nil
}

func (p *MovePlayerPos) Decode(b *Buffer) error {
	var err error
	if p.X, err = b.ReadFloat64(); err != nil {
		return err
	}
	if p.FeetY, err = b.ReadFloat64(); err != nil {
		return err
	}
	if p.Z, err = b.ReadFloat64(); err != nil {
		return err
	}
	if p.Flags, err = b.ReadUint8(); err != nil {
		return err
	}
	return nil
}

// MovePlayerPosRot updates position and look direction together.
type MovePlayerPosRot struct {
	X     float64
	FeetY float64
	Z     float64
	Yaw   float32
	Pitch float32
	Flags uint8
}

func (p *MovePlayerPosRot) Kind() Kind { return KindMovePlayerPosRot }

func (p *MovePlayerPosRot) Encode(b *Buffer) error {
	b.WriteFloat64(p.X)
	b.WriteFloat64(p.FeetY)
	b.WriteFloat64(p.Z)
	b.WriteFloat32(p.Yaw)
	b.WriteFloat32(p.Pitch)
	b.WriteUint8(p.Flags)
	return nil
}

func (p *MovePlayerPosRot) Decode(b *Buffer) error {
	var err error
	if p.X, err = b.ReadFloat64(); err != nil {
		return err
	}
	if p.FeetY, err = b.ReadFloat64(); err != nil {
		return err
	}
	if p.Z, err = b.ReadFloat64(); err != nil {
		return err
	}
	if p.Yaw, err = b.ReadFloat32(); err != nil {
		return err
	}
	if p.Pitch, err = b.ReadFloat32(); err != nil {
		return err
	}
	if p.Flags, err = b.ReadUint8(); err != nil {
		return err
	}
	return nil
}

// MovePlayerRot updates the look direction only.
type MovePlayerRot struct {
	Yaw   float32
	Pitch float32
	Flags uint8
}

func (p *MovePlayerRot) Kind() Kind { return KindMovePlayerRot }

func (p *MovePlayerRot) Encode(b *Buffer) error {
	b.WriteFloat32(p.Yaw)
	b.WriteFloat32(p.Pitch)
	b.WriteUint8(p.Flags)
	return nil
}

func (p *MovePlayerRot) Decode(b *Buffer) error {
	var err error
	if p.Yaw, err = b.ReadFloat32(); err != nil {
		return err
	}
	if p.Pitch, err = b.ReadFloat32(); err != nil {
		return err
	}
	if p.Flags, err = b.ReadUint8(); err != nil {
		return err
	}
	return nil
}

// PlayerLoaded signals the client finished loading into the world.
// Empty payload.
type PlayerLoaded struct{}

func (p *PlayerLoaded) Kind() Kind            { return KindPlayerLoaded }
func (p *PlayerLoaded) Encode(b *Buffer) error { return nil }
func (p *PlayerLoaded) Decode(b *Buffer) error { return nil }

// ChunkBatchReceived acknowledges a chunk batch with the rate the
// client wants future batches at.
type ChunkBatchReceived struct {
	ChunksPerTick float32
}

func (p *ChunkBatchReceived) Kind() Kind { return KindChunkBatchReceived }

func (p *ChunkBatchReceived) Encode(b *Buffer) error {
	b.WriteFloat32(p.ChunksPerTick)
	return nil
}

func (p *ChunkBatchReceived) Decode(b *Buffer) error {
	var err error
	p.ChunksPerTick, err = b.ReadFloat32()
	return err
}

// StartConfiguration asks the client to drop back into the
// Configuration phase. Empty payload.
type StartConfiguration struct{}

func (p *StartConfiguration) Kind() Kind             { return KindStartConfiguration }
func (p *StartConfiguration) Encode(b *Buffer) error { return nil }
func (p *StartConfiguration) Decode(b *Buffer) error { return nil }

// ConfigurationAcknowledged is the client's answer to
// StartConfiguration; both sides switch phase on it. Empty payload.
type ConfigurationAcknowledged struct{}

func (p *ConfigurationAcknowledged) Kind() Kind             { return KindConfigurationAcknowledged }
func (p *ConfigurationAcknowledged) Encode(b *Buffer) error { return nil }
func (p *ConfigurationAcknowledged) Decode(b *Buffer) error { return nil }
