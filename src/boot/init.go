package boot

import (
	"etix/src/config"
	"etix/src/db"
	"etix/src/lib"
	"etix/src/models"
	"etix/src/utils"
	"log"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.EventSeat{},
		&models.EventTicket{},
		&models.TicketReservation{},
		&models.Payment{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler starts the background sweep that reclaims expired
// reservation holds. Expiry never runs inside request handlers.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	id, err := lib.CreateCronJob(func() {
		reclaimed, err := utils.ExpireReservations()
		if err != nil {
			log.Printf("[scheduler] Error expiring reservations: %s\n", err.Error())
			return
		}
		if reclaimed > 0 {
			log.Printf("[scheduler] Reclaimed %d expired reservations\n", reclaimed)
		}
	}, config.EXPIRY_SWEEP_INTERVAL)
	if err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}
	log.Printf("[scheduler] Expiry sweep registered: %s\n", *id)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Printf("[scheduler] Error shutting down: %s\n", err.Error())
	}
}
