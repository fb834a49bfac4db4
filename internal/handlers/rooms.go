package handlers

import (
	"time"

	"chat-relay/internal/models"
	"chat-relay/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RoomInfoHandler reports whether a room exists along with its member count
// and creation time. Unknown rooms answer exists:false, never an error.
func RoomInfoHandler(chat *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(chat.RoomInfo(c.Params("roomID")))
	}
}

// HealthHandler reports aggregate relay state for liveness probes.
func HealthHandler(chat *services.ChatService, started time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rooms, sessions := chat.Stats()
		return c.JSON(models.HealthStatus{
			Status:      "ok",
			Rooms:       rooms,
			Connections: sessions,
			Uptime:      int64(time.Since(started).Seconds()),
		})
	}
}
