package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"chat-relay/internal/services"
	"chat-relay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// maxUploadBytes caps attachment size at 5 MiB.
const maxUploadBytes = 5 << 20

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadImageHandler accepts a multipart image, stores it on disk, and hands
// the relay a finished attachment message for the target room. Validation
// failures surface as request-level errors and nothing is stored or
// broadcast; on success the message goes to the entire room, sender
// included.
func UploadImageHandler(chat *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roomID := c.FormValue("room")
		userID := c.FormValue("userId")
		username := c.FormValue("username")
		if roomID == "" || userID == "" || username == "" {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "room, userId and username are required"})
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "image file is required"})
		}
		if fileHeader.Size > maxUploadBytes {
			return c.Status(http.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "image exceeds 5MB limit"})
		}

		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if !allowedImageExts[ext] {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "unsupported image type"})
		}

		uploadDir := utils.GetEnv("UPLOAD_DIR", "uploads")
		if err := os.MkdirAll(uploadDir, 0755); err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create upload dir"})
		}

		filename := uuid.NewString() + ext
		destPath := filepath.Join(uploadDir, filename)
		if err := c.SaveFile(fileHeader, destPath); err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save file"})
		}

		msg, err := chat.PostImage(roomID, userID, username, buildUploadURL(c, filename), fileHeader.Filename)
		if err != nil {
			// Room vanished between upload and post; drop the orphan file.
			_ = os.Remove(destPath)
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "room not found"})
		}

		return c.Status(http.StatusCreated).JSON(msg)
	}
}

// buildUploadURL constructs an absolute URL for an uploaded file based on
// BASE_URL, falling back to the request host.
func buildUploadURL(c *fiber.Ctx, filename string) string {
	if base := utils.GetEnv("BASE_URL", ""); base != "" {
		return fmt.Sprintf("%s/uploads/%s", base, filename)
	}

	protocol := "http"
	if c.Protocol() == "https" || c.Get("X-Forwarded-Proto") == "https" {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/uploads/%s", protocol, c.Hostname(), filename)
}
