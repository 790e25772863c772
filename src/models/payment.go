package models

import (
	"etix/src/types"
	"time"
)

type Payment struct {
	ID        uint              `gorm:"primarykey" json:"id"`
	TicketID  uint              `gorm:"uniqueIndex" json:"ticket_id,omitempty"`
	Type      types.PaymentType `json:"type"`
	DatePayed time.Time         `json:"date_payed,omitempty"`

	Ticket EventTicket `gorm:"foreignKey:ticket_id" json:"ticket,omitempty"`

	types.Timestamps
}
