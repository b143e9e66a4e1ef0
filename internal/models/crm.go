package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Lead struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name       string         `gorm:"not null" json:"name"`
	Phone      string         `gorm:"size:32;index" json:"phone"`
	Email      string         `gorm:"size:128" json:"email"`
	Source     string         `gorm:"size:32" json:"source"` // portal, referral, campaign, walk_in
	Budget     float64        `json:"budget"`
	Interest   string         `gorm:"size:64" json:"interest"` // e.g. "villa in Dubai"
	Status     string         `gorm:"size:20;default:'new';index" json:"status"` // new, contacted, qualified, lost, converted
	AssignedTo *uuid.UUID     `gorm:"type:uuid;index" json:"assigned_to"`
	Agent      *User          `gorm:"foreignKey:AssignedTo" json:"-"`
	Notes      string         `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

type Customer struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Phone     string         `gorm:"size:32;index" json:"phone"`
	Email     string         `gorm:"size:128" json:"email"`
	Emirate   string         `gorm:"size:32" json:"emirate"`
	LeadID    *uuid.UUID     `gorm:"type:uuid" json:"lead_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Activity is one logged touchpoint against a lead or customer.
type Activity struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AgentID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"agent_id"`
	Agent       *User      `gorm:"foreignKey:AgentID" json:"-"`
	LeadID      *uuid.UUID `gorm:"type:uuid;index" json:"lead_id"`
	CustomerID  *uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	Type        string     `gorm:"size:20;not null" json:"type"` // call, email, meeting, note
	Description string     `gorm:"type:text" json:"description"`
	OccurredAt  time.Time  `gorm:"not null;index" json:"occurred_at"`
	CreatedAt   time.Time  `json:"created_at"`
}
