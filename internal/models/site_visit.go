package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SiteVisit struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	AgentID   uuid.UUID `gorm:"type:uuid;not null;index" json:"agent_id"`
	Agent     *User     `gorm:"foreignKey:AgentID" json:"-"`

	CustomerName  string `gorm:"not null" json:"customer_name"`
	CustomerPhone string `gorm:"size:32" json:"customer_phone"`
	CustomerEmail string `gorm:"size:128" json:"customer_email"`

	VisitDate       time.Time `gorm:"not null;index" json:"visit_date"`
	VisitTime       string    `gorm:"size:8" json:"visit_time"` // "14:30"
	DurationMinutes int       `gorm:"default:60" json:"duration_minutes"`
	VisitType       string    `gorm:"size:16;default:'in_person'" json:"visit_type"` // in_person, virtual
	Status          string    `gorm:"size:16;default:'pending';index" json:"status"` // pending, confirmed, cancelled, completed
	Notes           string    `gorm:"type:text" json:"notes"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
