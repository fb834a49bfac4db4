package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-relay/internal/models"
	"chat-relay/internal/services"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T) (*fiber.App, *services.ChatService) {
	t.Helper()
	t.Setenv("UPLOAD_DIR", t.TempDir())
	t.Setenv("BASE_URL", "")

	chat := services.NewChatService("test", time.Minute)
	t.Cleanup(chat.Stop)

	app := fiber.New()
	app.Get("/health", HealthHandler(chat, time.Now()))
	app.Get("/api/rooms/:roomID", RoomInfoHandler(chat))
	app.Post("/api/upload", UploadImageHandler(chat))
	return app, chat
}

func decodeBody(t *testing.T, body io.Reader, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestHealthHandler(t *testing.T) {
	app, chat := newTestApp(t)
	chat.Join("ROOM1", "alice")

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var health models.HealthStatus
	decodeBody(t, resp.Body, &health)
	if health.Status != "ok" || health.Rooms != 1 || health.Connections != 1 {
		t.Errorf("health = %+v, want ok with 1 room and 1 connection", health)
	}
}

func TestRoomInfoHandler(t *testing.T) {
	app, chat := newTestApp(t)
	chat.Join("ROOM1", "alice")

	tests := []struct {
		name       string
		roomID     string
		wantExists bool
		wantCount  int
	}{
		{"existing room", "ROOM1", true, 1},
		{"unknown room", "NOPE", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", "/api/rooms/"+tt.roomID, nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != 200 {
				t.Fatalf("status = %d, want 200 even for unknown rooms", resp.StatusCode)
			}

			var info models.RoomInfo
			decodeBody(t, resp.Body, &info)
			if info.Exists != tt.wantExists || info.UserCount != tt.wantCount {
				t.Errorf("info = %+v, want exists=%v userCount=%d", info, tt.wantExists, tt.wantCount)
			}
		})
	}
}

func TestUploadImageHandlerValidation(t *testing.T) {
	app, chat := newTestApp(t)
	chat.Join("ROOM1", "alice")

	tests := []struct {
		name       string
		fields     map[string]string
		fileField  string
		filename   string
		wantStatus int
	}{
		{
			name:       "missing identity fields",
			fields:     map[string]string{"room": "ROOM1"},
			fileField:  "image",
			filename:   "cat.png",
			wantStatus: 400,
		},
		{
			name:       "missing file",
			fields:     map[string]string{"room": "ROOM1", "userId": "u1", "username": "alice"},
			wantStatus: 400,
		},
		{
			name:       "unsupported extension",
			fields:     map[string]string{"room": "ROOM1", "userId": "u1", "username": "alice"},
			fileField:  "image",
			filename:   "script.exe",
			wantStatus: 400,
		},
		{
			name:       "unknown room",
			fields:     map[string]string{"room": "NOPE", "userId": "u1", "username": "alice"},
			fileField:  "image",
			filename:   "cat.png",
			wantStatus: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.fields, tt.fileField, tt.filename, []byte("data"))
			req := httptest.NewRequest("POST", "/api/upload", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestUploadImageHandlerSuccess(t *testing.T) {
	app, chat := newTestApp(t)
	chat.Join("ROOM1", "alice")

	fields := map[string]string{"room": "ROOM1", "userId": "u1", "username": "alice"}
	body, contentType := multipartBody(t, fields, "image", "cat.png", []byte("pngdata"))
	req := httptest.NewRequest("POST", "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var msg models.Message
	decodeBody(t, resp.Body, &msg)
	if msg.Text != "shared an image" || msg.FileName != "cat.png" {
		t.Errorf("message = %+v, want fixed caption and original filename", msg)
	}
	if !strings.Contains(msg.ImageURL, "/uploads/") || !strings.HasSuffix(msg.ImageURL, ".png") {
		t.Errorf("imageUrl = %q, want a /uploads/ URL with preserved extension", msg.ImageURL)
	}
	if msg.ID == 0 || msg.Timestamp == 0 {
		t.Errorf("message = %+v, want assigned id and timestamp", msg)
	}
}
