package handlers

import (
	"log"
	"strings"

	"chat-relay/internal/models"
	"chat-relay/internal/services"
	"chat-relay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// WebSocketHandler runs one connection's lifecycle: resolve the join
// parameters, register the session, pump outbound events, and read inbound
// frames until the transport closes. Teardown is idempotent, so a close
// signal that fires more than once only deregisters the session once.
func WebSocketHandler(chat *services.ChatService) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		roomID := c.Query("room")
		if !models.ValidRoomID(roomID) {
			roomID = models.GenerateRoomID()
		}
		username := strings.TrimSpace(c.Query("user"))
		if username == "" {
			username = guestName()
		}

		sess := chat.Join(roomID, username)
		defer func() {
			chat.Leave(sess)
			c.Close()
		}()

		done := make(chan struct{})
		go writePump(c, sess, done)

		for {
			msgType, raw, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					log.Printf("error: %v", err)
				}
				break
			}
			handleInbound(chat, sess, msgType, raw)
		}

		chat.Leave(sess)
		<-done
	})
}

// handleInbound filters one frame against the closed inbound variant set.
// Non-text frames, malformed payloads, and unknown kinds are dropped without
// a reply; the sender gets no error for a bad submission.
func handleInbound(chat *services.ChatService, sess *services.Session, msgType int, raw []byte) {
	if msgType != websocket.TextMessage {
		return
	}
	var ev models.InboundEvent
	if err := utils.SafeJSONParse(raw, &ev); err != nil {
		return
	}
	if ev.Kind != "chat" {
		return
	}
	chat.SendChat(sess, ev.Text)
}

// writePump drains the session's outbound queue onto the socket. A write
// failure is logged but does not stop the pump; disconnecting is left to
// the read side's own close signal.
func writePump(c *websocket.Conn, sess *services.Session, done chan struct{}) {
	defer close(done)

	for payload := range sess.Outbound() {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.LogError(err, "writePump")
		}
	}
}

// WSUpgradeMiddleware rejects plain HTTP requests on the websocket route.
func WSUpgradeMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func guestName() string {
	return "guest-" + uuid.NewString()[:8]
}
