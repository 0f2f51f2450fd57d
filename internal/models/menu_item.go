package models

import (
	"time"

	"gorm.io/gorm"
)

// MenuItem is a sellable catalog entry. The order core only reads it; menu
// management lives outside this service.
type MenuItem struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price" gorm:"not null"`
	ImageURL    string         `json:"image_url"`
	Category    string         `json:"category"`
	Available   bool           `json:"available" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
