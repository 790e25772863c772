package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// SeatType is the priced, capacity-limited ticket class within an event.
type SeatType int

const (
	SEAT_REGULAR SeatType = iota
	SEAT_DISCOUNT
	SEAT_PREMIUM
	SEAT_VIP
	SEAT_FAMILY
)

var seatTypeNames = map[SeatType]string{
	SEAT_REGULAR:  "regular",
	SEAT_DISCOUNT: "discount",
	SEAT_PREMIUM:  "premium",
	SEAT_VIP:      "vip",
	SEAT_FAMILY:   "family",
}

func (t SeatType) String() string {
	if name, ok := seatTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("seat_type(%d)", int(t))
}

func ParseSeatType(s string) (SeatType, error) {
	for t, name := range seatTypeNames {
		if name == strings.ToLower(s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown seat type %q", s)
}

type PaymentType int

const (
	PAYMENT_CARD PaymentType = iota
	PAYMENT_BANK_TRANSFER
	PAYMENT_PAYPAL
)

var paymentTypeNames = map[PaymentType]string{
	PAYMENT_CARD:          "card",
	PAYMENT_BANK_TRANSFER: "bank_transfer",
	PAYMENT_PAYPAL:        "paypal",
}

func (t PaymentType) String() string {
	if name, ok := paymentTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("payment_type(%d)", int(t))
}

func ParsePaymentType(s string) (PaymentType, error) {
	for t, name := range paymentTypeNames {
		if name == strings.ToLower(s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown payment type %q", s)
}

// Role values carried on the user record. Owner grants event management.
type Role string

const (
	ROLE_CUSTOMER Role = "customer"
	ROLE_OWNER    Role = "owner"
)

func (r *Role) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		*r = Role(v)
	case string:
		*r = Role(v)
	default:
		return errors.New("unsupported column type for role")
	}
	return nil
}

func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}
