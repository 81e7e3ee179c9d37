package models

import (
	"time"
)

// Driver represents a driver who can be assigned to moves
type Driver struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	Email        string    `db:"email" json:"email,omitempty"`
	IsContractor bool      `db:"is_contractor" json:"is_contractor"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// NewDriver creates an active driver
func NewDriver(name, phone, email string, isContractor bool) *Driver {
	return &Driver{
		ID:           GenerateID("drv"),
		Name:         name,
		Phone:        phone,
		Email:        email,
		IsContractor: isContractor,
		Active:       true,
		CreatedAt:    GetCurrentTime(),
	}
}
