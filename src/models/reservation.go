package models

import (
	"etix/src/types"
	"time"
)

// TicketReservation is the time-limited claim an unpaid ticket holds on
// its seat inventory.
type TicketReservation struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	TicketID    uint      `gorm:"uniqueIndex" json:"ticket_id,omitempty"`
	DateCreated time.Time `json:"date_created,omitempty"`
	DateExpired time.Time `gorm:"index" json:"date_expired,omitempty"`

	Ticket EventTicket `gorm:"foreignKey:ticket_id" json:"ticket,omitempty"`

	types.Timestamps
}
