package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// sendQueueSize bounds the per-connection outbound queue. A peer that
	// falls this far behind is dropped rather than blocking senders.
	sendQueueSize = 256

	writeWait = 10 * time.Second
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrSendQueueFull = errors.New("outbound queue full")
)

// session wraps one websocket connection with a bounded outbound queue
// drained by a single write pump, so a stalled peer never blocks the
// goroutine delivering to it.
type session struct {
	conn *websocket.Conn
	out  chan any
	done chan struct{}
	once sync.Once
	log  *zap.Logger
}

func newSession(conn *websocket.Conn, log *zap.Logger) *session {
	return &session{
		conn: conn,
		out:  make(chan any, sendQueueSize),
		done: make(chan struct{}),
		log:  log,
	}
}

var _ Pusher = (*session)(nil)

func (s *session) Push(payload any) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.out <- payload:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close is idempotent. Closing the underlying connection also ends the
// owning read loop promptly.
func (s *session) Close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// writePump owns all writes on the underlying connection.
func (s *session) writePump() {
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(payload); err != nil {
				s.log.Debug("write failed", zap.Error(err))
				s.Close()
				return
			}
		}
	}
}
