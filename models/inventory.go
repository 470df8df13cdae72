package models

import (
	"time"
)

// Inventory represents a part or supply stocked by the shop
type Inventory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Price     float64   `gorm:"not null;check:price >= 0" json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Inventory model
func (Inventory) TableName() string {
	return "inventory"
}
