package models

import (
	"etix/src/types"
)

// EventSeat is a priced ticket class within an event. At most one row may
// exist per (event, type) pair; the composite unique index enforces it.
type EventSeat struct {
	ID       uint           `gorm:"primarykey" json:"id"`
	EventID  uint           `gorm:"uniqueIndex:idx_event_seat_type" json:"event_id,omitempty"`
	Type     types.SeatType `gorm:"uniqueIndex:idx_event_seat_type" json:"type"`
	Quantity uint           `json:"quantity"`
	Price    float64        `json:"price"`

	Event   Event         `json:"event,omitempty"`
	Tickets []EventTicket `gorm:"foreignKey:seat_id;constraint:OnDelete:CASCADE" json:"tickets,omitempty"`

	// Derived, never stored.
	Available *uint `gorm:"-" json:"available,omitempty"`

	types.Timestamps
}
