package network

import (
	"time"

	"github.com/minegate/minegate-node/pkg/protocol"
)

// touch marks the connection as alive.
func (cc *ClientConn) touch() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.lastAlive = time.Now()
}

// idleFor returns the time since the peer last proved liveness.
func (cc *ClientConn) idleFor() time.Duration {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return time.Since(cc.lastAlive)
}

// armKeepAlive records the challenge id carried by the next
// clientbound keep-alive.
func (cc *ClientConn) armKeepAlive(id int64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pendingKA = id
	cc.awaiting = true
}

// confirmKeepAlive answers a serverbound keep-alive. Echoes of the
// pending challenge prove liveness; stale echoes are ignored.
func (cc *ClientConn) confirmKeepAlive(id int64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.awaiting && cc.pendingKA == id {
		cc.awaiting = false
		cc.lastAlive = time.Now()
	}
}

// keepaliveLoop sends periodic keep-alive challenges and aborts the
// connection when the peer stops echoing them.
func (g *Gateway) keepaliveLoop(cc *ClientConn) {
	defer g.wg.Done()

	ticker := time.NewTicker(g.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
		}

		if cc.Err() != nil {
			return
		}
		if g.cfg.IdleTimeout > 0 && cc.idleFor() > g.cfg.IdleTimeout {
			cc.Abort(ErrIdleTimeout)
			return
		}

		id := time.Now().UnixMilli()
		cc.armKeepAlive(id)
		if err := cc.WritePacket(&protocol.KeepAlive{ID: id}); err != nil {
			return
		}
	}
}
