package models

import (
	"gorm.io/gorm"
)

// Database migration function
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Company{},
		&User{},
		&Location{},
		&Accommodation{},
		&Trip{},
		&Stop{},
		&TripAudit{},
		&Notification{},
		&NotificationQueue{},
	)
}

func CreateIndexes(db *gorm.DB) error {
	// Composite indexes for common queries
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_trips_company_status ON trips(company_id, status)").Error; err != nil {
		return err
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_trips_user_created_at ON trips(user_id, created_at DESC)").Error; err != nil {
		return err
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_queue_status_scheduled ON notification_queues(status, scheduled_for)").Error; err != nil {
		return err
	}

	return nil
}
