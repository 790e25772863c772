package config

import (
	"fmt"
	"os"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// RESERVATION_HOLD_WINDOW is how long an unpaid cart ticket keeps its seat
// before the expiry sweep reclaims it.
const RESERVATION_HOLD_WINDOW = 15 * time.Minute

// EXPIRY_SWEEP_INTERVAL is how often the scheduler reclaims expired holds.
const EXPIRY_SWEEP_INTERVAL = 1 * time.Minute

// EVENT_LIST_CACHE_KEY is the single named slot holding the most recent
// unfiltered event list. It is only invalidated by being overwritten.
const EVENT_LIST_CACHE_KEY = "events_list"

// EVENT_LIST_CACHE_TTL bounds staleness of the cached list even when no
// write ever invalidates it.
const EVENT_LIST_CACHE_TTL = 5 * time.Minute
