package models

import (
	"etix/src/types"
	"time"
)

type Event struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"uniqueIndex" json:"name,omitempty"`
	Slug        string    `gorm:"index" json:"slug,omitempty"`
	City        string    `json:"city,omitempty"`
	Description *string   `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date,omitempty"`
	EndDate     time.Time `json:"end_date,omitempty"`
	CreatedBy   uint      `json:"created_by,omitempty"`

	Seats []EventSeat `gorm:"constraint:OnDelete:CASCADE" json:"seats,omitempty"`

	types.Timestamps
}
