package models

import "time"

// PortalSetting is one remotely tunable key the web and mobile clients
// read at startup (feature flags, announcement banner, chat defaults).
type PortalSetting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"not null;uniqueIndex" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	Type      string    `gorm:"size:10;default:'string'" json:"type"` // string, bool, int
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
