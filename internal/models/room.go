package models

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// MaxRoomIDLength bounds client-supplied room identifiers.
const MaxRoomIDLength = 32

// RoomInfo is the read-only view of a room exposed over HTTP.
type RoomInfo struct {
	Exists    bool   `json:"exists"`
	RoomID    string `json:"roomId"`
	UserCount int    `json:"userCount"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// HealthStatus reports aggregate relay state for liveness checks.
type HealthStatus struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
	Uptime      int64  `json:"uptime"`
}

// GenerateRoomID returns an 8-character uppercase hex token from a
// cryptographically random source. Collisions are treated as negligible;
// a colliding creator silently joins the existing room.
func GenerateRoomID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return strings.ToUpper(hex.EncodeToString(buf))
}

// ValidRoomID reports whether a client-supplied room identifier is a
// reasonably short alphanumeric token. Shape only; the registry does not
// care how identifiers were generated.
func ValidRoomID(id string) bool {
	if id == "" || len(id) > MaxRoomIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
