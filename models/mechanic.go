package models

import (
	"time"
)

// Mechanic represents an employee who performs vehicle services
type Mechanic struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"not null" json:"name"`
	Email           string          `gorm:"uniqueIndex;not null" json:"email"`
	Phone           string          `json:"phone"`
	Salary          *float64        `json:"salary"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	Specializations string          `json:"specializations"`
	Tickets         []ServiceTicket `gorm:"many2many:service_mechanics" json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Mechanic model
func (Mechanic) TableName() string {
	return "mechanics"
}
