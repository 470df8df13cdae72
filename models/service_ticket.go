package models

import (
	"time"
)

// Ticket status values
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// IsValidStatus reports whether s is an accepted ticket status
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ServiceTicket represents a work order for vehicle maintenance
type ServiceTicket struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	CustomerID    uint        `gorm:"not null;index" json:"customer_id"` // foreign key to customers table
	Customer      Customer    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Description   string      `gorm:"not null" json:"description"`
	ServiceDate   time.Time   `gorm:"not null" json:"service_date"`
	VehicleInfo   string      `json:"vehicle_info"`
	Status        string      `gorm:"not null;default:'pending'" json:"status"` // pending, in_progress, completed
	Priority      string      `json:"priority"`
	EstimatedCost *float64    `json:"estimated_cost"`
	ActualCost    *float64    `json:"actual_cost"` // set when work is completed
	PhotoS3Key    *string     `json:"photo_s3_key,omitempty"`
	PhotoURL      *string     `gorm:"-" json:"photo_url,omitempty"` // computed field, presigned URL
	Mechanics     []Mechanic  `gorm:"many2many:service_mechanics" json:"mechanics,omitempty"`
	Parts         []Inventory `gorm:"many2many:service_inventory" json:"parts,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	CompletedAt   *time.Time  `json:"completed_at"`
}

// TableName specifies the table name for the ServiceTicket model
func (ServiceTicket) TableName() string {
	return "service_tickets"
}
