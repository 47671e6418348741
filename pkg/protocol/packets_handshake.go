package protocol

import "fmt"

// Intention is the single handshake packet. It carries the protocol
// version the client speaks and selects the next phase: status, login,
// or transfer.
type Intention struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	Intent          int32
}

func (p *Intention) Kind() Kind { return KindIntention }

func (p *Intention) Encode(b *Buffer) error {
	b.WriteVarInt(p.ProtocolVersion)
	b.WriteString(p.ServerAddress)
	b.WriteUint16(p.ServerPort)
	b.WriteVarInt(p.Intent)
	return nil
}

func (p *Intention) Decode(b *Buffer) error {
	var err error
	if p.ProtocolVersion, err = b.ReadVarInt(); err != nil {
		return err
	}
	if p.ServerAddress, err = b.ReadString(MaxServerAddress); err != nil {
		return err
	}
	if p.ServerPort, err = b.ReadUint16(); err != nil {
		return err
	}
	if p.Intent, err = b.ReadVarInt(); err != nil {
		return err
	}
	return nil
}

// NextPhase maps the intent value to the phase it selects.
func (p *Intention) NextPhase() (Phase, error) {
	switch p.Intent {
	case IntentStatus:
		return PhaseStatus, nil
	case IntentLogin, IntentTransfer:
		return PhaseLogin, nil
	default:
		return PhaseClosed, fmt.Errorf("invalid intention next state %d", p.Intent)
	}
}
