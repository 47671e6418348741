package protocol

// ===== CONFIGURATION SERVERBOUND =====

// ClientInformation reports the client's settings. Sent at the start of
// configuration and again whenever a setting changes.
type ClientInformation struct {
	Locale              string
	ViewDistance        int8
	ChatMode            int32
	ChatColors          bool
	DisplayedSkinParts  uint8
	MainHand            int32
	EnableTextFiltering bool
	AllowServerListings bool
	ParticleStatus      int32
}

func (p *ClientInformation) Kind() Kind { return KindClientInformation }

func (p *ClientInformation) Encode(b *Buffer) error {
	b.WriteString(p.Locale)
	b.WriteInt8(p.ViewDistance)
	b.WriteVarInt(p.ChatMode)
	b.WriteBool(p.ChatColors)
	b.WriteUint8(p.DisplayedSkinParts)
	b.WriteVarInt(p.MainHand)
	b.WriteBool(p.EnableTextFiltering)
	b.WriteBool(p.AllowServerListings)
	b.WriteVarInt(p.ParticleStatus)
	return nil
}

func (p *ClientInformation) Decode(b *Buffer) error {
	var err error
	if p.Locale, err = b.ReadString(16); err != nil {
		return err
	}
	if p.ViewDistance, err = b.ReadInt8(); err != nil {
		return err
	}
	if p.ChatMode, err = b.ReadVarInt(); err != nil {
		return err
	}
	if p.ChatColors, err = b.ReadBool(); err != nil {
		return err
	}
	if p.DisplayedSkinParts, err = b.ReadUint8(); err != nil {
		return err
	}
	if p.MainHand, err = b.ReadVarInt(); err != nil {
		return err
	}
	if p.EnableTextFiltering, err = b.ReadBool(); err != nil {
		return err
	}
	if p.AllowServerListings, err = b.ReadBool(); err != nil {
		return err
	}
	if p.ParticleStatus, err = b.ReadVarInt(); err != nil {
		return err
	}
	return nil
}

// CustomPayload is a mod channel message. The channel is a namespaced
// identifier; the data is opaque and runs to the end of the packet.
type CustomPayload struct {
	Channel string
	Data    []byte
}

func (p *CustomPayload) Kind() Kind { return KindCustomPayload }

func (p *CustomPayload) Encode(b *Buffer) error {
	b.WriteString(p.Channel)
	b.WriteRaw(p.Data)
	return nil
}

func (p *CustomPayload) Decode(b *Buffer) error {
	var err error
	if p.Channel, err = b.ReadString(MaxStringLength); err != nil {
		return err
	}
	p.Data = b.ReadRemaining()
	return nil
}

// ===== CONFIGURATION BOTH DIRECTIONS =====

// FinishConfiguration closes the configuration phase. The server sends
// it when done; the client echoes it, completing the transition to
// play. Empty payload.
type FinishConfiguration struct{}

func (p *FinishConfiguration) Kind() Kind            { return KindFinishConfiguration }
func (p *FinishConfiguration) Encode(b *Buffer) error { return nil }
func (p *FinishConfiguration) Decode(b *Buffer) error { return nil }

// KnownPack names one data pack by namespace, id, and version.
type KnownPack struct {
	Namespace string
	ID        string
	Version   string
}

// SelectKnownPacks negotiates which registry data packs both sides
// already know, so the server can skip sending them.
type SelectKnownPacks struct {
	Packs []KnownPack
}

func (p *SelectKnownPacks) Kind() Kind { return KindSelectKnownPacks }

func (p *SelectKnownPacks) Encode(b *Buffer) error {
	b.WriteVarInt(int32(len(p.Packs)))
	for i := range p.Packs {
		b.WriteString(p.Packs[i].Namespace)
		b.WriteString(p.Packs[i].ID)
		b.WriteString(p.Packs[i].Version)
	}
	return nil
}

func (p *SelectKnownPacks) Decode(b *Buffer) error {
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
	p.Packs = make([]KnownPack, count)
	for i := range p.Packs {
		if p.Packs[i].Namespace, err = b.ReadString(MaxStringLength); err != nil {
			return err
		}
		if p.Packs[i].ID, err = b.ReadString(MaxStringLength); err != nil {
			return err
		}
		if p.Packs[i].Version, err = b.ReadString(MaxStringLength); err != nil {
			return err
		}
	}
	return nil
}

// KeepAlive is the liveness probe used in both the configuration and
// play phases. The receiver echoes the id unchanged.
type KeepAlive struct {
	ID int64
}

func (p *KeepAlive) Kind() Kind { return KindKeepAlive }

func (p *KeepAlive) Encode(b *Buffer) error {
	b.WriteInt64(p.ID)
	return nil
}

func (p *KeepAlive) Decode(b *Buffer) error {
	var err error
	p.ID, err = b.ReadInt64()
	return err
}
