package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Project struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectCode   string         `gorm:"not null;uniqueIndex" json:"project_code"`
	Title         string         `gorm:"not null" json:"title"`
	Developer     string         `gorm:"index" json:"developer"`
	Emirate       string         `gorm:"index" json:"emirate"`
	Region        string         `json:"region"`
	PropertyType  string         `gorm:"size:32" json:"property_type"` // villa, apartment, townhouse, plot
	UnitType      string         `gorm:"size:32" json:"unit_type"`     // off_plan, ready, resale
	StartingPrice float64        `json:"starting_price"`
	CoverImage    string         `gorm:"size:512" json:"cover_image"`
	WebsiteURL    string         `gorm:"size:512" json:"website_url"`
	Description   string         `gorm:"type:text" json:"description"`
	Status        string         `gorm:"size:20;default:'active';index" json:"status"` // active, sold_out, archived
	Units         []Unit         `json:"units,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

type Unit struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_project_unit,unique" json:"project_id"`
	UnitCode    string         `gorm:"not null;index:idx_project_unit,unique" json:"unit_code"`
	Bedrooms    int            `json:"bedrooms"`
	Bathrooms   int            `json:"bathrooms"`
	SizeSqft    float64        `json:"size_sqft"`
	Price       float64        `json:"price"`
	Floor       int            `json:"floor"`
	IsAvailable bool           `gorm:"default:true" json:"is_available"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
