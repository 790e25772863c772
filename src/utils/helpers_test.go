package utils

import (
	"context"
	"etix/src/config"
	"etix/src/db"
	"etix/src/lib"
	"etix/src/models"
	"etix/src/types"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening test database", err)
	}
	err = d.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.EventSeat{},
		&models.EventTicket{},
		&models.TicketReservation{},
		&models.Payment{},
	)
	if err != nil {
		t.Fatalf("error migration: %s", err.Error())
	}
	db.NewDB(d)
	return d
}

func seedSeat(t *testing.T, d *gorm.DB, quantity uint, price float64) (*models.Event, *models.EventSeat) {
	t.Helper()
	start := time.Now().Add(48 * time.Hour)
	event := models.Event{
		Name:      fmt.Sprintf("%s event", t.Name()),
		Slug:      "test-event",
		City:      "Warsaw",
		StartDate: start,
		EndDate:   start.Add(4 * time.Hour),
		CreatedBy: 1,
	}
	if err := d.Create(&event).Error; err != nil {
		t.Fatalf("could not create event: %s", err.Error())
	}
	seat := models.EventSeat{
		EventID:  event.ID,
		Type:     types.SEAT_REGULAR,
		Quantity: quantity,
		Price:    price,
	}
	if err := d.Create(&seat).Error; err != nil {
		t.Fatalf("could not create seat: %s", err.Error())
	}
	return &event, &seat
}

func backdateReservations(t *testing.T, d *gorm.DB, ticketIDs []uint) {
	t.Helper()
	err := d.
		Model(&models.TicketReservation{}).
		Where("ticket_id IN ?", ticketIDs).
		Update("date_expired", time.Now().Add(-time.Minute)).
		Error
	if err != nil {
		t.Fatalf("could not backdate reservations: %s", err.Error())
	}
}

func TestSeatAvailability(t *testing.T) {
	d := newTestDB(t)
	_, seat := seedSeat(t, d, 5, 20)

	available, err := GetSeatAvailability(d, seat)
	assert.NoError(t, err)
	assert.Equal(t, uint(5), available)

	_, _, err = AddToCart(1, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 2})
	assert.NoError(t, err)

	available, err = GetSeatAvailability(d, seat)
	assert.NoError(t, err)
	assert.Equal(t, uint(3), available)
}

func TestAddToCartRejectsOverCapacityBatch(t *testing.T) {
	d := newTestDB(t)
	_, seat := seedSeat(t, d, 3, 20)

	_, _, err := AddToCart(1, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 5})
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	var count int64
	assert.NoError(t, d.Model(&models.EventTicket{}).Count(&count).Error)
	assert.Zero(t, count, "a rejected request must not issue tickets")
}

func TestAddToCartPartialSuccess(t *testing.T) {
	d := newTestDB(t)
	_, seat := seedSeat(t, d, 5, 20)

	// A stray reservation already claims the ticket id the second unit
	// will be assigned, so that unit fails while the first commits.
	stray := models.TicketReservation{
		TicketID:    2,
		DateCreated: time.Now(),
		DateExpired: time.Now().Add(time.Hour),
	}
	assert.NoError(t, d.Create(&stray).Error)

	ids, warnings, err := AddToCart(1, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 2})
	assert.NoError(t, err)
	assert.Len(t, ids, 1, "the unaffected unit is still issued")
	assert.Len(t, warnings, 1, "the failed unit surfaces as a warning")

	var count int64
	assert.NoError(t, d.Model(&models.EventTicket{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTicketAssociations(t *testing.T) {
	d := newTestDB(t)
	_, seat := seedSeat(t, d, 2, 30)

	ids, _, err := AddToCart(1, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 1})
	assert.NoError(t, err)
	_, err = BeginPayment(1, types.PAYMENT_CARD)
	assert.NoError(t, err)

	var ticket models.EventTicket
	assert.NoError(t, d.Preload("Reservation").Preload("Payment").First(&ticket, ids[0]).Error)
	assert.NotNil(t, ticket.Reservation)
	assert.Equal(t, ticket.ID, ticket.Reservation.TicketID)
	assert.NotNil(t, ticket.Payment)
	assert.Equal(t, ticket.ID, ticket.Payment.TicketID)
}

func TestAddToCartUnknownSeat(t *testing.T) {
	newTestDB(t)

	_, _, err := AddToCart(1, &types.AddToCartRequestBody{SeatID: 42, Quantity: 1})
	assert.ErrorIs(t, err, ErrSeatNotFound)
}

func TestReservationHoldWindow(t *testing.T) {
	d := newTestDB(t)
	_, seat := seedSeat(t, d, 1, 20)

	ids, _, err := AddToCart(1, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 1})
	assert.NoError(t, err)
	assert.Len(t, ids, 1)

	var reservation models.TicketReservation
	assert.NoError(t, d.Where(&models.TicketReservation{TicketID: ids[0]}).First(&reservation).Error)
	expected := time.Now().Add(config.RESERVATION_HOLD_WINDOW)
	assert.WithinDuration(t, expected, reservation.DateExpired, 5*time.Second)
}

func TestExpireReservationsSweep(t *testing.T) {
	d := newTestDB(t)
	_, seat := seedSeat(t, d, 10, 20)

	expired, _, err := AddToCart(1, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 2})
	assert.NoError(t, err)
	fresh, _, err := AddToCart(2, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 1})
	assert.NoError(t, err)
	inPayment, _, err := AddToCart(3, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 1})
	assert.NoError(t, err)
	_, err = BeginPayment(3, types.PAYMENT_CARD)
	assert.NoError(t, err)

	backdateReservations(t, d, expired)
	backdateReservations(t, d, inPayment)

	reclaimed, err := ExpireReservations()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), reclaimed, "only expired unpaid tickets are reclaimed")

	var remaining []uint
	assert.NoError(t, d.Model(&models.EventTicket{}).Order("id asc").Pluck("id", &remaining).Error)
	assert.ElementsMatch(t, append(fresh, inPayment...), remaining)

	available, err := GetSeatAvailability(d, seat)
	assert.NoError(t, err)
	assert.Equal(t, uint(8), available)

	reclaimed, err = ExpireReservations()
	assert.NoError(t, err)
	assert.Zero(t, reclaimed, "a second sweep finds nothing to reclaim")
}

func TestCapacityContention(t *testing.T) {
	d := newTestDB(t)
	_, seat := seedSeat(t, d, 2, 50)

	// First customer takes the whole capacity.
	held, _, err := AddToCart(1, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 2})
	assert.NoError(t, err)

	// Second customer cannot get even one unit.
	_, _, err = AddToCart(2, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// Once the first holds lapse and the sweep runs, the seats free up.
	backdateReservations(t, d, held)
	reclaimed, err := ExpireReservations()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), reclaimed)

	ids, _, err := AddToCart(2, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 2})
	assert.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestDeleteCartItem(t *testing.T) {
	d := newTestDB(t)
	_, seat := seedSeat(t, d, 2, 20)

	ids, _, err := AddToCart(1, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 1})
	assert.NoError(t, err)

	err = DeleteCartItem(2, ids[0])
	assert.ErrorIs(t, err, ErrTicketNotFound, "another user's ticket reads as not found")

	assert.NoError(t, DeleteCartItem(1, ids[0]))

	var count int64
	assert.NoError(t, d.Model(&models.TicketReservation{}).Count(&count).Error)
	assert.Zero(t, count, "releasing a ticket drops its reservation")

	available, err := GetSeatAvailability(d, seat)
	assert.NoError(t, err)
	assert.Equal(t, uint(2), available)
}

func TestDeleteCartItemDuringPayment(t *testing.T) {
	d := newTestDB(t)
	_, seat := seedSeat(t, d, 2, 20)

	ids, _, err := AddToCart(1, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 1})
	assert.NoError(t, err)
	_, err = BeginPayment(1, types.PAYMENT_PAYPAL)
	assert.NoError(t, err)

	err = DeleteCartItem(1, ids[0])
	assert.ErrorIs(t, err, ErrPaymentInProgress)
}

func TestBeginAndCancelPayment(t *testing.T) {
	d := newTestDB(t)
	_, seat := seedSeat(t, d, 5, 20)

	_, _, err := AddToCart(1, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 2})
	assert.NoError(t, err)

	_, err = BeginPayment(1, types.PAYMENT_BANK_TRANSFER)
	assert.NoError(t, err)

	var payments int64
	assert.NoError(t, d.Model(&models.Payment{}).Count(&payments).Error)
	assert.Equal(t, int64(2), payments)

	var inPayment int64
	assert.NoError(t, d.
		Model(&models.EventTicket{}).
		Where(&models.EventTicket{UserID: 1, IsInPayment: true}).
		Count(&inPayment).
		Error)
	assert.Equal(t, int64(2), inPayment)

	_, err = BeginPayment(1, types.PAYMENT_CARD)
	assert.ErrorIs(t, err, ErrPaymentInProgress)

	count, err := CancelPayment(1)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	assert.NoError(t, d.Model(&models.Payment{}).Count(&payments).Error)
	assert.Zero(t, payments, "cancelling drops the payment records")

	_, err = CancelPayment(1)
	assert.ErrorIs(t, err, ErrNoPendingPayment)
}

func TestBeginPaymentEmptyCart(t *testing.T) {
	newTestDB(t)

	_, err := BeginPayment(9, types.PAYMENT_CARD)
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestCartSummaries(t *testing.T) {
	d := newTestDB(t)
	event, seat := seedSeat(t, d, 5, 20)
	vip := models.EventSeat{
		EventID:  event.ID,
		Type:     types.SEAT_VIP,
		Quantity: 5,
		Price:    100,
	}
	assert.NoError(t, d.Create(&vip).Error)

	_, _, err := AddToCart(1, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 2})
	assert.NoError(t, err)
	_, _, err = AddToCart(1, &types.AddToCartRequestBody{SeatID: vip.ID, Quantity: 1})
	assert.NoError(t, err)

	summary, err := GetCartSummary(1)
	assert.NoError(t, err)
	assert.Equal(t, uint(3), summary.TicketCount)
	assert.Equal(t, float64(140), summary.Total)

	byType, err := GetCartSummaryBySeatType(1)
	assert.NoError(t, err)
	assert.Len(t, byType, 2)
	totals := map[string]float64{}
	for _, g := range byType {
		totals[g.Label] = g.Total
	}
	assert.Equal(t, float64(40), totals["regular"])
	assert.Equal(t, float64(100), totals["vip"])

	byEvent, err := GetCartSummaryByEvent(1)
	assert.NoError(t, err)
	assert.Len(t, byEvent, 1)
	assert.Equal(t, event.Name, byEvent[0].Label)
	assert.Equal(t, uint(3), byEvent[0].TicketCount)
}

func TestSearchEvents(t *testing.T) {
	d := newTestDB(t)

	base := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)
	seed := []models.Event{
		{Name: "Jazz Evening", City: "Warsaw", StartDate: base, EndDate: base.Add(3 * time.Hour), CreatedBy: 1},
		{Name: "Rock Festival", City: "Gdansk", StartDate: base.AddDate(0, 0, 5), EndDate: base.AddDate(0, 0, 7), CreatedBy: 1},
		{Name: "Late Night Jazz", City: "Krakow", StartDate: base.AddDate(0, 1, 0), EndDate: base.AddDate(0, 1, 0).Add(2 * time.Hour), CreatedBy: 1},
	}
	for i := range seed {
		assert.NoError(t, d.Create(&seed[i]).Error)
	}

	t.Run("name match is case-insensitive and ordered by name", func(t *testing.T) {
		events, err := SearchEvents(&types.SearchEventsQuery{Name: "JAZZ"})
		assert.NoError(t, err)
		assert.Len(t, events, 2)
		assert.Equal(t, "Jazz Evening", events[0].Name)
		assert.Equal(t, "Late Night Jazz", events[1].Name)
	})

	t.Run("city filter narrows the result", func(t *testing.T) {
		events, err := SearchEvents(&types.SearchEventsQuery{Name: "jazz", City: "krakow"})
		assert.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, "Late Night Jazz", events[0].Name)
	})

	t.Run("date bounds compose with AND", func(t *testing.T) {
		events, err := SearchEvents(&types.SearchEventsQuery{
			FromDate: base.AddDate(0, 0, 1).Format(config.TIME_PARSE_FORMAT),
			ToDate:   base.AddDate(0, 0, 20).Format(config.TIME_PARSE_FORMAT),
		})
		assert.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, "Rock Festival", events[0].Name)
	})

	t.Run("no filters returns everything", func(t *testing.T) {
		events, err := SearchEvents(&types.SearchEventsQuery{})
		assert.NoError(t, err)
		assert.Len(t, events, 3)
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		events, err := SearchEvents(&types.SearchEventsQuery{Name: "opera"})
		assert.NoError(t, err)
		assert.Empty(t, events)
	})
}

type stubCache struct {
	mu    sync.Mutex
	items map[string]string
	gets  int
	sets  int
}

func newStubCache() *stubCache {
	return &stubCache{items: map[string]string{}}
}

func (c *stubCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	val, ok := c.items[key]
	if !ok {
		return "", lib.ErrCacheMiss
	}
	return val, nil
}

func (c *stubCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.items[key] = value
	return nil
}

func (c *stubCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func TestListEventsCaching(t *testing.T) {
	d := newTestDB(t)
	seedSeat(t, d, 5, 20)

	cache := newStubCache()
	ctx := context.Background()

	first, err := ListEvents(ctx, cache)
	assert.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Equal(t, 1, cache.sets, "a miss populates the slot")

	second, err := ListEvents(ctx, cache)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets, "a hit does not rewrite the slot")

	// A stale slot keeps serving until something overwrites or drops it.
	assert.NoError(t, d.Create(&models.Event{
		Name:      "uncached event",
		City:      "Lodz",
		StartDate: time.Now().Add(24 * time.Hour),
		EndDate:   time.Now().Add(26 * time.Hour),
		CreatedBy: 1,
	}).Error)
	stale, err := ListEvents(ctx, cache)
	assert.NoError(t, err)
	assert.Len(t, stale, 1)

	assert.NoError(t, cache.Invalidate(ctx, "events_list"))
	refreshed, err := ListEvents(ctx, cache)
	assert.NoError(t, err)
	assert.Len(t, refreshed, 2)
}

func TestCreateNewSeatRejectsDuplicateType(t *testing.T) {
	d := newTestDB(t)
	event, _ := seedSeat(t, d, 5, 20)

	qty := uint(10)
	_, err := CreateNewSeat(event.ID, &types.CreateSeatRequestBody{Type: "regular", Quantity: &qty, Price: 15})
	assert.ErrorIs(t, err, ErrDuplicateSeatType)

	seat, err := CreateNewSeat(event.ID, &types.CreateSeatRequestBody{Type: "family", Quantity: &qty, Price: 60})
	assert.NoError(t, err)
	assert.Equal(t, types.SEAT_FAMILY, seat.Type)
}

func TestCreateNewSeatUnknownEvent(t *testing.T) {
	newTestDB(t)

	qty := uint(10)
	_, err := CreateNewSeat(42, &types.CreateSeatRequestBody{Type: "regular", Quantity: &qty, Price: 15})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestDeleteEvent(t *testing.T) {
	d := newTestDB(t)
	event, seat := seedSeat(t, d, 5, 20)

	_, _, err := AddToCart(1, &types.AddToCartRequestBody{SeatID: seat.ID, Quantity: 2})
	assert.NoError(t, err)

	err = DeleteEvent(event.ID, 99)
	assert.ErrorIs(t, err, ErrNotEventCreator)

	assert.NoError(t, DeleteEvent(event.ID, event.CreatedBy))

	var tickets int64
	assert.NoError(t, d.Model(&models.EventTicket{}).Count(&tickets).Error)
	assert.Zero(t, tickets, "deleting an event drops its tickets")

	_, err = GetEvent(event.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	err = DeleteEvent(event.ID, event.CreatedBy)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCreateNewEventSlug(t *testing.T) {
	newTestDB(t)

	start := time.Now().Add(48 * time.Hour)
	id, err := CreateNewEvent(&types.CreateEventRequestBody{
		Name:      "Summer Fest 2026",
		City:      "Poznan",
		StartDate: start.Format(config.TIME_PARSE_FORMAT),
		EndDate:   start.Add(6 * time.Hour).Format(config.TIME_PARSE_FORMAT),
	}, 7)
	assert.NoError(t, err)

	event, err := GetEvent(id)
	assert.NoError(t, err)
	assert.Equal(t, "summer-fest-2026", event.Slug)
	assert.Equal(t, uint(7), event.CreatedBy)
}
