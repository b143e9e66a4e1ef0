package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nihalvp321/ekarbot-server/internal/middleware"
	"github.com/nihalvp321/ekarbot-server/internal/models"
	"github.com/nihalvp321/ekarbot-server/internal/services"
)

const maxAttachmentBytes = 25 * 1024 * 1024 // matches the portal's upload cap

type MessageHandler struct {
	db      *gorm.DB
	hub     *services.Hub
	storage *services.MediaStorage
}

func NewMessageHandler(db *gorm.DB, hub *services.Hub, storage *services.MediaStorage) *MessageHandler {
	return &MessageHandler{db: db, hub: hub, storage: storage}
}

// ─── Send ───────────────────────────────────────────────────────────────────

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var req struct {
		ReceiverID     string `json:"receiver_id"`
		Body           string `json:"body"`
		AttachmentURL  string `json:"attachment_url"`
		AttachmentType string `json:"attachment_type"`
		AttachmentName string `json:"attachment_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}
	if req.Body == "" && req.AttachmentURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Message body or attachment is required",
		})
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid receiver ID",
		})
	}

	var receiver models.User
	if err := h.db.First(&receiver, "id = ? AND is_active = ?", receiverID, true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Receiver not found",
		})
	}

	if req.AttachmentType != "" {
		switch req.AttachmentType {
		case models.AttachmentFile, models.AttachmentImage, models.AttachmentVoice:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "attachment_type must be file, image, or voice",
			})
		}
	}

	msg := models.Message{
		SenderID:       middleware.UserID(c),
		ReceiverID:     receiverID,
		Body:           req.Body,
		AttachmentURL:  req.AttachmentURL,
		AttachmentType: req.AttachmentType,
		AttachmentName: req.AttachmentName,
	}
	if err := h.db.Create(&msg).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to send message",
		})
	}

	h.db.Preload("Sender").First(&msg, "id = ?", msg.ID)
	h.hub.Push(receiverID, "message", msg)

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// ─── Upload ─────────────────────────────────────────────────────────────────

// UploadAttachment stores a multipart file and returns its hosted URL
// for a subsequent Send call.
func (h *MessageHandler) UploadAttachment(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "A file field is required",
		})
	}
	if fileHeader.Size > maxAttachmentBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error":   true,
			"message": "Attachment exceeds the 25MB limit",
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to read upload",
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to read upload",
		})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	publicID := fmt.Sprintf("msg-%s-%s", middleware.UserID(c), uuid.NewString())

	url, err := h.storage.Upload(data, contentType, publicID)
	if err != nil {
		slog.Error("Attachment upload failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to store attachment",
		})
	}

	return c.JSON(fiber.Map{
		"url":             url,
		"attachment_type": attachmentTypeFor(contentType),
		"name":            fileHeader.Filename,
	})
}

func attachmentTypeFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.AttachmentImage
	case strings.HasPrefix(contentType, "audio/"):
		return models.AttachmentVoice
	default:
		return models.AttachmentFile
	}
}

// ─── Conversations ──────────────────────────────────────────────────────────

// ListConversations returns the caller's distinct peers with the last
// message and unread count each, newest first.
func (h *MessageHandler) ListConversations(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var msgs []models.Message
	if err := h.db.
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&msgs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list conversations",
		})
	}

	type conversation struct {
		Peer   models.User    `json:"peer"`
		Last   models.Message `json:"last_message"`
		Unread int64          `json:"unread"`
	}

	seen := make(map[uuid.UUID]*conversation)
	order := make([]uuid.UUID, 0)
	for _, m := range msgs {
		peerID := m.SenderID
		if peerID == userID {
			peerID = m.ReceiverID
		}
		if _, ok := seen[peerID]; ok {
			continue
		}
		seen[peerID] = &conversation{Last: m}
		order = append(order, peerID)
	}

	conversations := make([]conversation, 0, len(order))
	for _, peerID := range order {
		conv := seen[peerID]
		if err := h.db.First(&conv.Peer, "id = ?", peerID).Error; err != nil {
			continue // peer removed, skip the thread
		}
		h.db.Model(&models.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND read = ?", peerID, userID, false).
			Count(&conv.Unread)
		conversations = append(conversations, *conv)
	}

	return c.JSON(fiber.Map{"conversations": conversations})
}

// GetThread returns the full message thread with one peer and marks the
// peer's messages read.
func (h *MessageHandler) GetThread(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	peerID, err := uuid.Parse(c.Params("peerID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid peer ID",
		})
	}

	var msgs []models.Message
	if err := h.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, peerID, peerID, userID).
		Order("created_at ASC").
		Preload("Sender").
		Find(&msgs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to load thread",
		})
	}

	h.db.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", peerID, userID, false).
		Update("read", true)

	return c.JSON(fiber.Map{"messages": msgs})
}

// Delete removes one of the caller's own messages.
func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	msgID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid message ID",
		})
	}

	res := h.db.Delete(&models.Message{}, "id = ? AND sender_id = ?", msgID, userID)
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Message not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}

// ─── Live delivery ──────────────────────────────────────────────────────────

// UpgradeCheck is middleware that checks if the request is a websocket upgrade
func (h *MessageHandler) UpgradeCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// HandleSocket keeps a connection registered with the hub until the
// client goes away. Inbound frames are ignored except for close.
func (h *MessageHandler) HandleSocket() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		userID, ok := c.Locals("user_id").(uuid.UUID)
		if !ok {
			c.WriteMessage(websocket.TextMessage, []byte(`{"event":"error","data":"unauthenticated"}`))
			return
		}

		h.hub.Register(userID, c)
		defer h.hub.Unregister(userID, c)

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	})
}
