package models

import (
	"time"
)

// Customer represents a customer who brings vehicles in for service
type Customer struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	FirstName    string          `gorm:"not null" json:"first_name"`
	LastName     string          `gorm:"not null" json:"last_name"`
	Email        string          `gorm:"uniqueIndex;not null" json:"email"`
	PhoneNumber  string          `json:"phone_number"`
	PasswordHash string          `gorm:"not null" json:"-"` // never serialized
	Address      string          `json:"address"`
	Tickets      []ServiceTicket `gorm:"foreignKey:CustomerID" json:"tickets,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}
