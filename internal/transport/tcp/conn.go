package tcp

import (
	"net"
	"sync"
	"time"

	"trivia-arena/internal/protocol"
)

// pushConn wraps the long-lived server→client connection. Writes are
// serialized so the engine's send actions and the handshake Accepted can
// never interleave bytes.
type pushConn struct {
	mu      sync.Mutex
	conn    net.Conn
	timeout time.Duration
}

func newPushConn(conn net.Conn, timeout time.Duration) *pushConn {
	return &pushConn{conn: conn, timeout: timeout}
}

func (p *pushConn) Send(msg protocol.ServerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(p.timeout))
	}
	return protocol.WriteServer(p.conn, msg)
}

func (p *pushConn) Close() error {
	return p.conn.Close()
}
