package services

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"chat-relay/internal/models"

	"github.com/google/uuid"
)

const (
	// maxHistorySize is the per-room storage cap; the oldest message is
	// evicted when a new one arrives over capacity.
	maxHistorySize = 1000
	// historyReplaySize is how many recent messages a joining session
	// receives, independent of the storage cap.
	historyReplaySize = 50
)

// ErrRoomNotFound is returned when an operation references a room that is
// not currently in the registry.
var ErrRoomNotFound = errors.New("room not found")

// ChatService owns the room registry, per-room bounded history, and the
// fan-out path. A single mutex serializes every compound operation:
// check-then-create on join, check-then-delete on reap, and history append
// versus join-time replay. Holding the mutex while enqueueing to member
// queues gives per-room FIFO delivery without blocking on any socket.
type ChatService struct {
	mu     sync.Mutex
	rooms  map[string]*room
	seq    int64
	server string
	reaper *roomReaper
}

type room struct {
	id        string
	createdAt time.Time
	members   map[string]*Session
	history   []models.Message
}

// NewChatService creates the relay core. Empty rooms are deleted after
// grace elapses with membership still empty at check time.
func NewChatService(server string, grace time.Duration) *ChatService {
	s := &ChatService{
		rooms:  make(map[string]*room),
		server: server,
	}
	s.reaper = newRoomReaper(grace, s.removeRoomIfEmpty)
	return s
}

// Stop cancels pending room reaps. In-flight sessions are torn down by
// their own transport close signals.
func (s *ChatService) Stop() {
	s.reaper.stop()
}

func newSessionID() string {
	return uuid.NewString()
}

// Join registers a new session in roomID, creating the room if absent.
// The welcome acknowledgment and the history replay are queued to the new
// session alone, and a join notice is fanned out to the other members. All
// of it happens under the mutex so replay is consistent with live delivery:
// every message is either in the replayed history or queued after it, never
// both, never neither.
func (s *ChatService) Join(roomID, username string) *Session {
	sess := newSession(roomID, username)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		r = &room{
			id:        roomID,
			createdAt: time.Now(),
			members:   make(map[string]*Session),
		}
		s.rooms[roomID] = r
	}
	s.reaper.cancel(roomID)

	r.members[sess.ID] = sess
	sess.state = StateActive
	count := len(r.members)

	sess.enqueue(marshalEvent(models.WelcomeEvent{
		Type:      models.KindSystem,
		Message:   "Welcome, " + username,
		RoomID:    roomID,
		UserID:    sess.ID,
		Username:  username,
		UserCount: count,
		Server:    s.server,
	}))

	s.fanOut(r, sess.ID, marshalEvent(models.PresenceEvent{
		Type:      models.KindUserJoin,
		Username:  username,
		UserID:    sess.ID,
		UserCount: count,
		Timestamp: time.Now().UnixMilli(),
	}))

	sess.enqueue(marshalEvent(models.HistoryEvent{
		Type:     models.KindHistory,
		Messages: lastMessages(r.history, historyReplaySize),
	}))

	return sess
}

// Leave removes the session from its room exactly once. Calling it again,
// or for a session whose transport reported closure twice, is a no-op.
func (s *ChatService) Leave(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.state == StateClosed {
		return
	}
	sess.state = StateClosed
	close(sess.send)

	r, ok := s.rooms[sess.RoomID]
	if !ok {
		return
	}
	delete(r.members, sess.ID)

	s.fanOut(r, "", marshalEvent(models.PresenceEvent{
		Type:      models.KindUserLeave,
		Username:  sess.Username,
		UserID:    sess.ID,
		UserCount: len(r.members),
		Timestamp: time.Now().UnixMilli(),
	}))

	if len(r.members) == 0 {
		s.reaper.schedule(r.id)
	}
}

// SendChat validates and relays a chat submission from an active session.
// The message is delivered to every other member; the sender renders its
// own copy locally. Invalid submissions are dropped silently, as are
// submissions from sessions that are not active.
func (s *ChatService) SendChat(sess *Session, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.state != StateActive {
		return false
	}
	r, ok := s.rooms[sess.RoomID]
	if !ok {
		return false
	}

	msg := s.append(r, models.Message{
		Type:     models.KindChat,
		RoomID:   r.id,
		UserID:   sess.ID,
		Username: sess.Username,
		Text:     text,
	})
	s.fanOut(r, sess.ID, marshalEvent(msg))
	return true
}

// PostImage appends a finished attachment message produced by the upload
// collaborator and broadcasts it to the entire room, sender included.
func (s *ChatService) PostImage(roomID, userID, username, imageURL, fileName string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return models.Message{}, ErrRoomNotFound
	}

	msg := s.append(r, models.Message{
		Type:     models.KindChat,
		RoomID:   roomID,
		UserID:   userID,
		Username: username,
		Text:     "shared an image",
		ImageURL: imageURL,
		FileName: fileName,
	})
	s.fanOut(r, "", marshalEvent(msg))
	return msg, nil
}

// RoomInfo reads a room's existence, member count, and creation time
// without side effects. An unknown room is a result, not an error.
func (s *ChatService) RoomInfo(roomID string) models.RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return models.RoomInfo{RoomID: roomID}
	}
	return models.RoomInfo{
		Exists:    true,
		RoomID:    roomID,
		UserCount: len(r.members),
		CreatedAt: r.createdAt.UnixMilli(),
	}
}

// Stats returns the room count and the total active session count.
func (s *ChatService) Stats() (rooms, sessions int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rooms {
		sessions += len(r.members)
	}
	return len(s.rooms), sessions
}

// append assigns the next message id and timestamp, stores the message in
// the room's history, and evicts the oldest entry over capacity. Caller
// holds the mutex.
func (s *ChatService) append(r *room, msg models.Message) models.Message {
	s.seq++
	msg.ID = s.seq
	msg.Timestamp = time.Now().UnixMilli()

	r.history = append(r.history, msg)
	if len(r.history) > maxHistorySize {
		r.history = r.history[len(r.history)-maxHistorySize:]
	}
	return msg
}

// fanOut queues payload to every member except excludeID. Caller holds the
// mutex; enqueue never blocks, so one slow recipient cannot stall the rest.
func (s *ChatService) fanOut(r *room, excludeID string, payload []byte) {
	for id, member := range r.members {
		if id == excludeID {
			continue
		}
		member.enqueue(payload)
	}
}

// removeRoomIfEmpty deletes the room and its history only if membership is
// still empty when the reaper fires. A member that rejoined during the
// grace period keeps the room alive. Idempotent.
func (s *ChatService) removeRoomIfEmpty(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok || len(r.members) > 0 {
		return false
	}
	delete(s.rooms, roomID)
	return true
}

func lastMessages(history []models.Message, limit int) []models.Message {
	start := len(history) - limit
	if start < 0 {
		start = 0
	}
	out := make([]models.Message, len(history)-start)
	copy(out, history[start:])
	return out
}

func marshalEvent(v interface{}) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return nil
	}
	return payload
}
