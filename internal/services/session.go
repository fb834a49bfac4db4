package services

import (
	"log"
	"time"
)

// SessionState tracks a connection through its lifecycle. There is no
// transition out of StateClosed.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateActive
	StateClosed
)

// outboundQueueSize bounds the per-session delivery queue. A session that
// cannot drain fast enough loses events instead of stalling the room.
const outboundQueueSize = 256

// Session is one connection's identity within a room. It is created in
// StateConnecting, becomes StateActive when Join registers it, and is
// StateClosed exactly once when Leave tears it down. The state field and
// the enqueue path are guarded by the owning ChatService mutex.
type Session struct {
	ID       string
	Username string
	RoomID   string
	JoinedAt time.Time

	state   SessionState
	send    chan []byte
	dropped int
}

func newSession(roomID, username string) *Session {
	return &Session{
		ID:       newSessionID(),
		Username: username,
		RoomID:   roomID,
		JoinedAt: time.Now(),
		state:    StateConnecting,
		send:     make(chan []byte, outboundQueueSize),
	}
}

// Outbound returns the session's delivery queue. The transport's write pump
// ranges over it; the channel is closed when the session leaves its room.
func (s *Session) Outbound() <-chan []byte {
	return s.send
}

// enqueue queues a payload for delivery without blocking. Overflow drops the
// payload for this recipient only. Callers hold the ChatService mutex.
func (s *Session) enqueue(payload []byte) {
	if s.state != StateActive || payload == nil {
		return
	}
	select {
	case s.send <- payload:
	default:
		s.dropped++
		log.Printf("session %s: outbound queue full, dropped event (%d total)", s.ID, s.dropped)
	}
}
