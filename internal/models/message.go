package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment kinds carried by portal messages.
const (
	AttachmentFile  = "file"
	AttachmentImage = "image"
	AttachmentVoice = "voice"
)

// Message is a direct message between two portal users.
type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	Sender     *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index" json:"receiver_id"`
	Receiver   *User     `gorm:"foreignKey:ReceiverID" json:"-"`

	Body string `gorm:"type:text" json:"body"`

	AttachmentURL  string `gorm:"size:512" json:"attachment_url"`
	AttachmentType string `gorm:"size:12" json:"attachment_type"` // file, image, voice
	AttachmentName string `gorm:"size:256" json:"attachment_name"`

	Read      bool           `gorm:"default:false;index" json:"read"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
