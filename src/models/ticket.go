package models

import (
	"etix/src/types"
	"time"

	"github.com/google/uuid"
)

// EventTicket is one unit of inventory taken from a seat class. A ticket
// that is neither paid nor mid-payment must carry an active reservation;
// the expiry sweep deletes it once the hold window passes.
type EventTicket struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	SeatID      uint      `json:"seat_id,omitempty"`
	UserID      uint      `json:"user_id,omitempty"`
	PriceBought float64   `json:"price_bought"`
	DateBought  time.Time `json:"date_bought,omitempty"`
	IsPayed     bool      `gorm:"default:false" json:"is_payed"`
	IsInPayment bool      `gorm:"default:false" json:"is_in_payment"`

	// Code is embedded in the e-ticket QR and verified at admission.
	Code uuid.UUID `gorm:"type:uuid" json:"code,omitempty"`

	Seat        EventSeat          `gorm:"foreignKey:seat_id" json:"seat,omitempty"`
	User        *User              `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Reservation *TicketReservation `gorm:"foreignKey:ticket_id;constraint:OnDelete:CASCADE" json:"reservation,omitempty"`
	Payment     *Payment           `gorm:"foreignKey:ticket_id;constraint:OnDelete:CASCADE" json:"payment,omitempty"`

	types.Timestamps
}

// CartSummary aggregates a user's cart, overall and per seat type or event.
type CartSummary struct {
	TicketCount uint    `json:"ticket_count"`
	Total       float64 `json:"total"`
}

type CartGroupSummary struct {
	Label       string  `json:"label"`
	TicketCount uint    `json:"ticket_count"`
	Total       float64 `json:"total"`
}
