package protocol

// StatusRequest asks the server for its status document. Empty payload.
type StatusRequest struct{}

func (p *StatusRequest) Kind() Kind            { return KindStatusRequest }
func (p *StatusRequest) Encode(b *Buffer) error { return nil }
func (p *StatusRequest) Decode(b *Buffer) error { return nil }

// StatusResponse carries the status document as a JSON string. The
// engine does not interpret the document.
type StatusResponse struct {
	Payload string
}

func (p *StatusResponse) Kind() Kind { return KindStatusResponse }

func (p *StatusResponse) Encode(b *Buffer) error {
	b.WriteString(p.Payload)
	return nil
}

func (p *StatusResponse) Decode(b *Buffer) error {
	var err error
	p.Payload, err = b.ReadString(MaxStringLength)
	return err
}

// PingRequest carries an opaque client timestamp the server echoes
// back, used for latency measurement.
type PingRequest struct {
	Timestamp int64
}

func (p *PingRequest) Kind() Kind { return KindPingRequest }

func (p *PingRequest) Encode(b *Buffer) error {
	b.WriteInt64(p.Timestamp)
	return nil
}

func (p *PingRequest) Decode(b *Buffer) error {
	var err error
	p.Timestamp, err = b.ReadInt64()
	return err
}

// PongResponse echoes the ping timestamp.
type PongResponse struct {
	Timestamp int64
}

func (p *PongResponse) Kind() Kind { return KindPongResponse }

func (p *PongResponse) Encode(b *Buffer) error {
	b.WriteInt64(p.Timestamp)
	return nil
}

func (p *PongResponse) Decode(b *Buffer) error {
	var err error
	p.Timestamp, err = b.ReadInt64()
	return err
}
