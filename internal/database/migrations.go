package database

import (
	"github.com/tcw0/lendit-sub000/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Item{},
		&models.Rental{},
		&models.Handover{},
		&models.Rating{},
		&models.ChatMessage{},
	)
	if err != nil {
		return err
	}

	// Older databases predate the version columns used for optimistic locking
	if db.Migrator().HasTable(&models.Rental{}) {
		if err := db.Exec(`ALTER TABLE rentals ADD COLUMN IF NOT EXISTS version bigint NOT NULL DEFAULT 0`).Error; err != nil {
			return err
		}
		db.Exec(`ALTER TABLE rentals DROP CONSTRAINT IF EXISTS rentals_rental_state_check`)
		db.Exec(`ALTER TABLE rentals ADD CONSTRAINT rentals_rental_state_check CHECK (rental_state IN
			('OFFER', 'ACCEPTED', 'DECLINED', 'PAID', 'PICKED_UP', 'PICK_UP_CONFIRMED',
			 'RETURNED', 'RETURN_CONFIRMED', 'RATED', 'CLOSED'))`)
	}

	if db.Migrator().HasTable(&models.Handover{}) {
		if err := db.Exec(`ALTER TABLE handovers ADD COLUMN IF NOT EXISTS version bigint NOT NULL DEFAULT 0`).Error; err != nil {
			return err
		}
		db.Exec(`ALTER TABLE handovers DROP CONSTRAINT IF EXISTS handovers_handover_type_check`)
		db.Exec(`ALTER TABLE handovers ADD CONSTRAINT handovers_handover_type_check CHECK (handover_type IN ('PICKUP', 'RETURN'))`)
	}

	return nil
}
