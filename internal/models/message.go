package models

// Message kinds as stored in a room's history.
const (
	KindChat      = "chat"
	KindSystem    = "system"
	KindUserJoin  = "user-join"
	KindUserLeave = "user-leave"
	KindHistory   = "history"
)

// Message is one immutable entry in a room's history. Image messages are
// broadcast with Type "chat" plus attachment fields so clients render them
// through the same path as text.
type Message struct {
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	RoomID    string `json:"roomId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	ImageURL  string `json:"imageUrl,omitempty"`
	FileName  string `json:"fileName,omitempty"`
}

// InboundEvent is the only client-to-server frame shape. Frames that do not
// parse into it, or that carry an unknown kind, are dropped.
type InboundEvent struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// WelcomeEvent is sent to a session alone right after it joins.
type WelcomeEvent struct {
	Type      string `json:"type"` // "system"
	Message   string `json:"message"`
	RoomID    string `json:"roomId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	UserCount int    `json:"userCount"`
	Server    string `json:"server"`
}

// PresenceEvent announces a join or leave to the rest of the room.
type PresenceEvent struct {
	Type      string `json:"type"` // "user-join" or "user-leave"
	Username  string `json:"username"`
	UserID    string `json:"userId"`
	UserCount int    `json:"userCount"`
	Timestamp int64  `json:"timestamp"`
}

// HistoryEvent replays recent messages to a newly joined session.
type HistoryEvent struct {
	Type     string    `json:"type"` // KindHistory
	Messages []Message `json:"messages"`
}
