package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChatSession is a named container of assistant turns owned by one agent.
type ChatSession struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AgentID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"agent_id"`
	Agent     *User          `gorm:"foreignKey:AgentID" json:"-"`
	Title     string         `gorm:"not null" json:"title"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ChatRow is one stored assistant-chat row. Two schemas coexist in the
// table: legacy paired rows carry UserMessage and BotResponse together,
// modern rows carry one turn via MessageType and MessageContent.
type ChatRow struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`

	// Modern schema: one row per turn.
	MessageType    string `gorm:"size:12" json:"message_type"` // user, bot
	MessageContent string `gorm:"type:text" json:"message_content"`

	// Legacy schema: both turns on one row.
	UserMessage string `gorm:"type:text" json:"user_message"`
	BotResponse string `gorm:"type:text" json:"bot_response"`

	// Raw upstream webhook reply, attached to bot turns.
	ResponseData datatypes.JSON `gorm:"type:jsonb" json:"response_data"`

	ChatMode  string    `gorm:"size:32" json:"chat_mode"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// IDs are also assigned client-side so the models work on databases
// without gen_random_uuid().
func (s *ChatSession) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (r *ChatRow) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
