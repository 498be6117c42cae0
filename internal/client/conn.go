package client

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// session wraps a single live WebSocket connection. The connection handle
// is owned exclusively by the connect loop; the send and heartbeat loops
// reach it only through Client.send, never holding it themselves.
type session struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, writeTimeout time.Duration) *session {
	return &session{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// write serializes concurrent writers onto the connection.
func (s *session) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// close is safe to call from multiple goroutines; only the first call
// closes the underlying connection.
func (s *session) close() {
	s.closeOnce.Do(func() {
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.conn.Close()
	})
}
