package utils

import (
	"context"
	"encoding/json"
	"errors"
	"etix/src/config"
	"etix/src/db"
	"etix/src/lib"
	"etix/src/models"
	"etix/src/types"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrSeatNotFound       = errors.New("seat not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrCapacityExceeded   = errors.New("not enough seats available")
	ErrDuplicateSeatType  = errors.New("seat type already exists for this event")
	ErrNotEventCreator    = errors.New("event belongs to another organizer")
	ErrCartEmpty          = errors.New("no reserved tickets in cart")
	ErrTicketAlreadyPayed = errors.New("ticket has already been payed for")
	ErrPaymentInProgress  = errors.New("a payment is already in progress")
	ErrNoPendingPayment   = errors.New("no payment in progress")
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

// lockForUpdate takes a row lock so concurrent reservations against the
// same seat class serialize. sqlite has a single writer and rejects the
// clause, so it is skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// countSeatHolds counts tickets issued from a seat class. Every existing
// ticket occupies inventory regardless of payment state; expired holds
// stop counting once the sweep deletes them.
func countSeatHolds(tx *gorm.DB, seatID uint) (int64, error) {
	var count int64
	err := tx.
		Model(&models.EventTicket{}).
		Where(&models.EventTicket{SeatID: seatID}).
		Count(&count).
		Error
	return count, err
}

// GetSeatAvailability reports how many units of a seat class can still be
// reserved right now.
func GetSeatAvailability(tx *gorm.DB, seat *models.EventSeat) (uint, error) {
	count, err := countSeatHolds(tx, seat.ID)
	if err != nil {
		return 0, err
	}
	if uint(count) >= seat.Quantity {
		return 0, nil
	}
	return seat.Quantity - uint(count), nil
}

// AddToCart reserves quantity units of a seat class for a user. The seat
// row is locked for the duration of the check so two carts cannot both
// claim the last unit. A request asking for more units than are available
// is rejected outright; past that check each unit is issued on its own
// savepoint, so one failing unit is skipped and reported as a warning
// while the units before and after it stay reserved.
func AddToCart(userId uint, params *types.AddToCartRequestBody) ([]uint, []string, error) {
	db := db.GetDb()
	ticketIDs := []uint{}
	warnings := make([]string, 0)
	now := time.Now()
	expirationTime := now.Add(config.RESERVATION_HOLD_WINDOW)
	err := db.Transaction(func(tx *gorm.DB) error {
		var seat models.EventSeat
		err := lockForUpdate(tx).Where(&models.EventSeat{ID: params.SeatID}).First(&seat).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSeatNotFound
			}
			return err
		}
		available, err := GetSeatAvailability(tx, &seat)
		if err != nil {
			return err
		}
		if params.Quantity > available {
			return fmt.Errorf("%w: seat [%s] has %d left, %d requested", ErrCapacityExceeded, seat.Type, available, params.Quantity)
		}
		for n := params.Quantity; n > 0; n-- {
			ticket := models.EventTicket{
				SeatID:      seat.ID,
				UserID:      userId,
				PriceBought: seat.Price,
				DateBought:  now,
				Code:        uuid.New(),
			}
			if err := tx.Transaction(func(tx2 *gorm.DB) error {
				if err := tx2.Create(&ticket).Error; err != nil {
					return err
				}
				reservation := models.TicketReservation{
					TicketID:    ticket.ID,
					DateCreated: now,
					DateExpired: expirationTime,
				}
				return tx2.Create(&reservation).Error
			}); err != nil {
				warning := fmt.Sprintf("could not issue ticket for seat [%s]: %s", seat.Type, err.Error())
				log.Println(warning)
				warnings = append(warnings, warning)
				continue
			}
			ticketIDs = append(ticketIDs, ticket.ID)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ticketIDs, warnings, nil
}

// ExpireReservations reclaims every unpaid ticket whose hold window has
// passed and reports how many were released. Tickets mid-payment keep
// their seat. Called from the scheduler, never from request handlers.
func ExpireReservations() (int64, error) {
	db := db.GetDb()
	var reclaimed int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		err := tx.
			Model(&models.EventTicket{}).
			Joins("JOIN ticket_reservations ON ticket_reservations.ticket_id = event_tickets.id AND ticket_reservations.deleted_at IS NULL").
			Where("ticket_reservations.date_expired < ?", time.Now()).
			Where("event_tickets.is_payed = ? AND event_tickets.is_in_payment = ?", false, false).
			Pluck("event_tickets.id", &ids).
			Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("ticket_id IN ?", ids).Delete(&models.TicketReservation{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.EventTicket{}, ids).Error; err != nil {
			return err
		}
		reclaimed = int64(len(ids))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reclaimed, nil
}

// GetCartTickets lists a user's live cart: unpaid tickets that are either
// mid-payment or still inside their hold window.
func GetCartTickets(userId uint) ([]models.EventTicket, error) {
	db := db.GetDb()
	tickets := []models.EventTicket{}
	err := db.
		Model(&models.EventTicket{}).
		Joins("LEFT JOIN ticket_reservations ON ticket_reservations.ticket_id = event_tickets.id AND ticket_reservations.deleted_at IS NULL").
		Where(&models.EventTicket{UserID: userId}).
		Where("event_tickets.is_payed = ?", false).
		Where("event_tickets.is_in_payment = ? OR ticket_reservations.date_expired > ?", true, time.Now()).
		Preload("Seat").
		Preload("Seat.Event").
		Preload("Reservation").
		Order("event_tickets.id asc").
		Find(&tickets).
		Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// DeleteCartItem drops a single unpaid ticket from the caller's cart and
// releases its reservation. Tickets belonging to other users are reported
// as not found rather than forbidden.
func DeleteCartItem(userId uint, ticketId uint) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		var ticket models.EventTicket
		err := tx.Where(&models.EventTicket{ID: ticketId, UserID: userId}).First(&ticket).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}
		if ticket.IsPayed {
			return ErrTicketAlreadyPayed
		}
		if ticket.IsInPayment {
			return ErrPaymentInProgress
		}
		if err := tx.Where(&models.TicketReservation{TicketID: ticket.ID}).Delete(&models.TicketReservation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ticket).Error
	})
}

// BeginPayment moves every reserved ticket in the user's cart into the
// payment phase. In-payment tickets are immune to the expiry sweep, so a
// customer cannot lose their seats while paying. Returns the number of
// tickets entering payment.
func BeginPayment(userId uint, method types.PaymentType) (int64, error) {
	db := db.GetDb()
	var count int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var pending int64
		err := tx.
			Model(&models.EventTicket{}).
			Where(&models.EventTicket{UserID: userId, IsInPayment: true}).
			Count(&pending).
			Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return ErrPaymentInProgress
		}
		var ids []uint
		err = tx.
			Model(&models.EventTicket{}).
			Joins("JOIN ticket_reservations ON ticket_reservations.ticket_id = event_tickets.id AND ticket_reservations.deleted_at IS NULL").
			Where(&models.EventTicket{UserID: userId}).
			Where("event_tickets.is_payed = ?", false).
			Where("ticket_reservations.date_expired > ?", time.Now()).
			Pluck("event_tickets.id", &ids).
			Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrCartEmpty
		}
		err = tx.
			Model(&models.EventTicket{}).
			Where("id IN ?", ids).
			Update("is_in_payment", true).
			Error
		if err != nil {
			return err
		}
		now := time.Now()
		for _, id := range ids {
			payment := models.Payment{
				TicketID:  id,
				Type:      method,
				DatePayed: now,
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
		}
		count = int64(len(ids))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CancelPayment aborts an in-flight checkout, returning the tickets to
// plain reserved state. The hold window is not extended; a reservation
// that lapsed during payment is reclaimed by the next sweep.
func CancelPayment(userId uint) (int64, error) {
	db := db.GetDb()
	var count int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		err := tx.
			Model(&models.EventTicket{}).
			Where(&models.EventTicket{UserID: userId, IsInPayment: true}).
			Where("is_payed = ?", false).
			Pluck("id", &ids).
			Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrNoPendingPayment
		}
		// Hard delete: a soft-deleted row would still hold the ticket_id
		// unique index against a later checkout of the same ticket.
		if err := tx.Unscoped().Where("ticket_id IN ?", ids).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		err = tx.
			Model(&models.EventTicket{}).
			Where("id IN ?", ids).
			Update("is_in_payment", false).
			Error
		if err != nil {
			return err
		}
		count = int64(len(ids))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetCartSummary totals the caller's cart.
func GetCartSummary(userId uint) (*models.CartSummary, error) {
	tickets, err := GetCartTickets(userId)
	if err != nil {
		return nil, err
	}
	summary := models.CartSummary{}
	for _, t := range tickets {
		summary.TicketCount++
		summary.Total += t.PriceBought
	}
	return &summary, nil
}

// GetCartSummaryBySeatType groups the caller's cart by seat class.
func GetCartSummaryBySeatType(userId uint) ([]models.CartGroupSummary, error) {
	tickets, err := GetCartTickets(userId)
	if err != nil {
		return nil, err
	}
	return groupCart(tickets, func(t *models.EventTicket) string {
		return t.Seat.Type.String()
	}), nil
}

// GetCartSummaryByEvent groups the caller's cart by event name.
func GetCartSummaryByEvent(userId uint) ([]models.CartGroupSummary, error) {
	tickets, err := GetCartTickets(userId)
	if err != nil {
		return nil, err
	}
	return groupCart(tickets, func(t *models.EventTicket) string {
		return t.Seat.Event.Name
	}), nil
}

func groupCart(tickets []models.EventTicket, label func(*models.EventTicket) string) []models.CartGroupSummary {
	order := []string{}
	byLabel := map[string]*models.CartGroupSummary{}
	for i := range tickets {
		l := label(&tickets[i])
		g, ok := byLabel[l]
		if !ok {
			g = &models.CartGroupSummary{Label: l}
			byLabel[l] = g
			order = append(order, l)
		}
		g.TicketCount++
		g.Total += tickets[i].PriceBought
	}
	groups := make([]models.CartGroupSummary, 0, len(order))
	for _, l := range order {
		groups = append(groups, *byLabel[l])
	}
	return groups
}

// ListEvents returns every event ordered by name, preferring the cached
// list when one is present. A miss repopulates the slot.
func ListEvents(ctx context.Context, cache lib.Cache) ([]models.Event, error) {
	if cached, err := cache.Get(ctx, config.EVENT_LIST_CACHE_KEY); err == nil {
		events := []models.Event{}
		if err := json.Unmarshal([]byte(cached), &events); err == nil {
			return events, nil
		}
		log.Printf("[cache] Discarding undecodable value for %q\n", config.EVENT_LIST_CACHE_KEY)
	} else if !errors.Is(err, lib.ErrCacheMiss) {
		log.Printf("[cache] Error reading %q: %s\n", config.EVENT_LIST_CACHE_KEY, err.Error())
	}
	db := db.GetDb()
	events := []models.Event{}
	if err := db.Model(&models.Event{}).Order("name asc").Find(&events).Error; err != nil {
		return nil, err
	}
	if body, err := json.Marshal(events); err == nil {
		if err := cache.Set(ctx, config.EVENT_LIST_CACHE_KEY, string(body), config.EVENT_LIST_CACHE_TTL); err != nil {
			log.Printf("[cache] Error writing %q: %s\n", config.EVENT_LIST_CACHE_KEY, err.Error())
		}
	}
	return events, nil
}

// SearchEvents filters events by name and city substring and by date
// bounds, always against the database. An empty result is not an error.
func SearchEvents(query *types.SearchEventsQuery) ([]models.Event, error) {
	db := db.GetDb()
	tx := db.Model(&models.Event{})
	if query.Name != "" {
		tx = tx.Where("LOWER(name) LIKE LOWER(?)", "%"+query.Name+"%")
	}
	if query.City != "" {
		tx = tx.Where("LOWER(city) LIKE LOWER(?)", "%"+query.City+"%")
	}
	if query.FromDate != "" {
		from, err := time.Parse(config.TIME_PARSE_FORMAT, query.FromDate)
		if err != nil {
			return nil, err
		}
		tx = tx.Where("start_date >= ?", from)
	}
	if query.ToDate != "" {
		to, err := time.Parse(config.TIME_PARSE_FORMAT, query.ToDate)
		if err != nil {
			return nil, err
		}
		tx = tx.Where("end_date <= ?", to)
	}
	events := []models.Event{}
	if err := tx.Order("name asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent loads a single event with per-seat availability filled in.
func GetEvent(eventId uint) (*models.Event, error) {
	db := db.GetDb()
	var event models.Event
	err := db.Where(&models.Event{ID: eventId}).Preload("Seats").First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	for i := range event.Seats {
		available, err := GetSeatAvailability(db, &event.Seats[i])
		if err != nil {
			return nil, err
		}
		event.Seats[i].Available = &available
	}
	return &event, nil
}

// CreateNewEvent creates an event owned by the caller.
func CreateNewEvent(params *types.CreateEventRequestBody, creatorId uint) (uint, error) {
	startDate, err := time.Parse(config.TIME_PARSE_FORMAT, params.StartDate)
	if err != nil {
		log.Printf("Error parsing start_date: %s\n", err.Error())
		return 0, err
	}
	endDate, err := time.Parse(config.TIME_PARSE_FORMAT, params.EndDate)
	if err != nil {
		log.Printf("Error parsing end_date: %s\n", err.Error())
		return 0, err
	}
	event := models.Event{
		Name:      params.Name,
		Slug:      slug.Make(params.Name),
		City:      params.City,
		StartDate: startDate,
		EndDate:   endDate,
		CreatedBy: creatorId,
	}
	if params.Description != "" {
		event.Description = &params.Description
	}
	db := db.GetDb()
	if err := db.Create(&event).Error; err != nil {
		return 0, err
	}
	return event.ID, nil
}

// DeleteEvent removes an event along with its seat classes and any
// tickets sold from them. Only the organizer who created the event may
// delete it.
func DeleteEvent(eventId uint, userId uint) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		err := tx.Where(&models.Event{ID: eventId}).First(&event).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if event.CreatedBy != userId {
			return ErrNotEventCreator
		}
		var seatIDs []uint
		err = tx.Model(&models.EventSeat{}).Where(&models.EventSeat{EventID: eventId}).Pluck("id", &seatIDs).Error
		if err != nil {
			return err
		}
		if len(seatIDs) > 0 {
			var ticketIDs []uint
			err = tx.Model(&models.EventTicket{}).Where("seat_id IN ?", seatIDs).Pluck("id", &ticketIDs).Error
			if err != nil {
				return err
			}
			if len(ticketIDs) > 0 {
				if err := tx.Where("ticket_id IN ?", ticketIDs).Delete(&models.TicketReservation{}).Error; err != nil {
					return err
				}
				if err := tx.Where("ticket_id IN ?", ticketIDs).Delete(&models.Payment{}).Error; err != nil {
					return err
				}
				if err := tx.Delete(&models.EventTicket{}, ticketIDs).Error; err != nil {
					return err
				}
			}
			if err := tx.Delete(&models.EventSeat{}, seatIDs).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&event).Error
	})
}

// CreateNewSeat adds a priced seat class to an event. Each event carries
// at most one class per seat type.
func CreateNewSeat(eventId uint, params *types.CreateSeatRequestBody) (*models.EventSeat, error) {
	seatType, err := types.ParseSeatType(params.Type)
	if err != nil {
		return nil, err
	}
	db := db.GetDb()
	var seat models.EventSeat
	err = db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		err := tx.Where(&models.Event{ID: eventId}).First(&event).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		// Struct conditions drop zero values, and SEAT_REGULAR is 0.
		var count int64
		err = tx.
			Model(&models.EventSeat{}).
			Where("event_id = ? AND type = ?", eventId, seatType).
			Count(&count).
			Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateSeatType
		}
		seat = models.EventSeat{
			EventID:  eventId,
			Type:     seatType,
			Quantity: *params.Quantity,
			Price:    params.Price,
		}
		return tx.Create(&seat).Error
	})
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

// GenerateJWT issues a signed token for the user, valid for 24 hours.
func GenerateJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := &types.Claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
