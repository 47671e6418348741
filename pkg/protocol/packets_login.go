package protocol

import "github.com/google/uuid"

// ===== LOGIN SERVERBOUND =====

// LoginStart opens the login phase with the player's claimed name and
// id. The id is unverified until the session lookup completes.
type LoginStart struct {
	Name string
	UUID uuid.UUID
}

func (p *LoginStart) Kind() Kind { return KindLoginStart }

func (p *LoginStart) Encode(b *Buffer) error {
	b.WriteString(p.Name)
	b.WriteUUID(p.UUID)
	return nil
}

func (p *LoginStart) Decode(b *Buffer) error {
	var err error
	if p.Name, err = b.ReadString(MaxUsername); err != nil {
		return err
	}
	if p.UUID, err = b.ReadUUID(); err != nil {
		return err
	}
	return nil
}

// EncryptionResponse answers the challenge: the shared secret and the
// verify token, each encrypted with the server's public key.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

func (p *EncryptionResponse) Kind() Kind { return KindEncryptionResponse }

func (p *EncryptionResponse) Encode(b *Buffer) error {
	b.WriteByteArray(p.SharedSecret)
	b.WriteByteArray(p.VerifyToken)
	return nil
}

func (p *EncryptionResponse) Decode(b *Buffer) error {
	var err error
	if p.SharedSecret, err = b.ReadByteArray(); err != nil {
		return err
	}
	if p.VerifyToken, err = b.ReadByteArray(); err != nil {
		return err
	}
	return nil
}

// LoginAcknowledged confirms LoginSuccess and moves the connection to
// the configuration phase. Empty payload.
type LoginAcknowledged struct{}

func (p *LoginAcknowledged) Kind() Kind            { return KindLoginAcknowledged }
func (p *LoginAcknowledged) Encode(b *Buffer) error { return nil }
func (p *LoginAcknowledged) Decode(b *Buffer) error { return nil }

// ===== LOGIN CLIENTBOUND =====

// LoginDisconnect rejects the login with a JSON text component reason.
type LoginDisconnect struct {
	Reason string
}

func (p *LoginDisconnect) Kind() Kind { return KindLoginDisconnect }

func (p *LoginDisconnect) Encode(b *Buffer) error {
	b.WriteString(p.Reason)
	return nil
}

func (p *LoginDisconnect) Decode(b *Buffer) error {
	var err error
	p.Reason, err = b.ReadString(MaxStringLength)
	return err
}

// EncryptionRequest opens the encryption challenge: the server's public
// key in DER form and a short random verify token the client must
// return encrypted.
type EncryptionRequest struct {
	ServerID           string
	PublicKey          []byte
	VerifyToken        []byte
	ShouldAuthenticate bool
}

func (p *EncryptionRequest) Kind() Kind { return KindEncryptionRequest }

func (p *EncryptionRequest) Encode(b *Buffer) error {
	b.WriteString(p.ServerID)
	b.WriteByteArray(p.PublicKey)
	b.WriteByteArray(p.VerifyToken)
	b.WriteBool(p.ShouldAuthenticate)
	return nil
}

func (p *EncryptionRequest) Decode(b *Buffer) error {
	var err error
	if p.ServerID, err = b.ReadString(20); err != nil {
		return err
	}
	if p.PublicKey, err = b.ReadByteArray(); err != nil {
		return err
	}
	if p.VerifyToken, err = b.ReadByteArray(); err != nil {
		return err
	}
	if p.ShouldAuthenticate, err = b.ReadBool(); err != nil {
		return err
	}
	return nil
}

// ProfileProperty is one signed attribute of a game profile, usually
// the skin blob.
type ProfileProperty struct {
	Name      string
	Value     string
	Signature string
	HasSig    bool
}

func (p *ProfileProperty) encode(b *Buffer) {
	b.WriteString(p.Name)
	b.WriteString(p.Value)
	b.WriteBool(p.HasSig)
	if p.HasSig {
		b.WriteString(p.Signature)
	}
}

func (p *ProfileProperty) decode(b *Buffer) error {
	var err error
	if p.Name, err = b.ReadString(MaxStringLength); err != nil {
		return err
	}
	if p.Value, err = b.ReadString(MaxStringLength); err != nil {
		return err
	}
	if p.HasSig, err = b.ReadBool(); err != nil {
		return err
	}
	if p.HasSig {
		if p.Signature, err = b.ReadString(MaxStringLength); err != nil {
			return err
		}
	}
	return nil
}

// LoginSuccess carries the verified profile back to the client.
type LoginSuccess struct {
	UUID       uuid.UUID
	Name       string
	Properties []ProfileProperty
}

func (p *LoginSuccess) Kind() Kind { return KindLoginSuccess }

func (p *LoginSuccess) Encode(b *Buffer) error {
	b.WriteUUID(p.UUID)
	b.WriteString(p.Name)
	b.WriteVarInt(int32(len(p.Properties)))
	for i := range p.Properties {
		p.Properties[i].encode(b)
	}
	return nil
}

func (p *LoginSuccess) Decode(b *Buffer) error {
	var err error
	if p.UUID, err = b.ReadUUID(); err != nil {
		return err
	}
	if p.Name, err = b.ReadString(MaxUsername); err != nil {
		return err
	}
	count, err := b.ReadVarInt()
	if err != nil {
		return err
	}
	if count < 0 {
		return ErrNegativeLength
	}
	// Every property costs at least one byte, so a count past the
	// unread remainder can never complete.
	if int(count) > b.Remaining() {
		return ErrUnexpectedEOF
	}
	p.Properties = make([]ProfileProperty, count)
	for i := range p.Properties {
		if err := p.Properties[i].decode(b); err != nil {
			return err
		}
	}
	return nil
}

// SetCompression announces the compression threshold. A negative
// threshold disables compression.
type SetCompression struct {
	Threshold int32
}

func (p *SetCompression) Kind() Kind { return KindSetCompression }

func (p *SetCompression) Encode(b *Buffer) error {
	b.WriteVarInt(p.Threshold)
	return nil
}

func (p *SetCompression) Decode(b *Buffer) error {
	var err error
	p.Threshold, err = b.ReadVarInt()
	return err
}
