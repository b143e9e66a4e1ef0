package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Portal roles.
const (
	RoleSalesAgent  = "sales_agent"
	RoleDeveloper   = "developer"
	RoleUserManager = "user_manager"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username     string         `gorm:"not null;uniqueIndex" json:"username"`
	PasswordHash string         `gorm:"not null" json:"-"`
	DisplayName  string         `gorm:"not null" json:"display_name"`
	Role         string         `gorm:"not null;index" json:"role"` // sales_agent, developer, user_manager
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	LastSeenAt   *time.Time     `json:"last_seen_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
