package models

import (
	"etix/src/types"
)

type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Name         string     `json:"name,omitempty"`
	Email        string     `gorm:"uniqueIndex" json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	Role         types.Role `gorm:"default:'customer'" json:"role,omitempty"`

	Tickets []EventTicket `gorm:"foreignKey:user_id" json:"tickets,omitempty"`

	types.Timestamps
}
