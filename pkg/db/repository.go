package db

import (
	"context"
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"gorm.io/gorm"
)

// DestinationVisits is one destination with the number of stops made to it
type DestinationVisits struct {
	LocationID string `json:"locationId"`
	Name       string `json:"name"`
	City       string `json:"city"`
	Visits     int64  `json:"visits"`
}

// Repository provides database operations for specific models
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *DB {
	return r.db
}

// WithTx runs fn inside a transaction. The repository handed to fn is bound
// to the transaction; returning an error rolls everything back.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: &DB{DB: tx, config: r.db.config}})
	})
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func orderStops(db *gorm.DB) *gorm.DB {
	return db.Order("stops.position ASC")
}

// Company repository methods
func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	return r.conn(ctx).Create(company).Error
}

// User repository methods
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.conn(ctx).Create(user).Error
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.conn(ctx).Where("id = ?", id).First(&user).Error
	return &user, err
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.conn(ctx).Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.conn(ctx).Save(user).Error
}

// GetUsersByRole returns the users of a company holding any of the roles
func (r *Repository) GetUsersByRole(ctx context.Context, companyID string, roles ...models.Role) ([]models.User, error) {
	var users []models.User
	err := r.conn(ctx).
		Where("company_id = ? AND role IN ?", companyID, roles).
		Find(&users).Error
	return users, err
}

// Location repository methods
func (r *Repository) CreateLocation(ctx context.Context, location *models.Location) error {
	return r.conn(ctx).Create(location).Error
}

func (r *Repository) LocationExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Location{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateAccommodation(ctx context.Context, accommodation *models.Accommodation) error {
	return r.conn(ctx).Create(accommodation).Error
}

func (r *Repository) AccommodationExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Accommodation{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Trip repository methods

// CreateTrip inserts the trip together with its stops
func (r *Repository) CreateTrip(ctx context.Context, trip *models.Trip) error {
	return r.conn(ctx).Create(trip).Error
}

func (r *Repository) GetTripByID(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	err := r.conn(ctx).
		Preload("Stops", orderStops).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("trip_audits.id ASC")
		}).
		Where("id = ?", id).
		First(&trip).Error
	return &trip, err
}

func (r *Repository) GetTripsByUserID(ctx context.Context, userID string, limit, offset int) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.conn(ctx).Where("user_id = ?", userID).
		Preload("Stops", orderStops).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&trips).Error
	return trips, err
}

func (r *Repository) CountTripsByUserID(ctx context.Context, userID string) (int, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Trip{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}

// GetTripsByCompany lists a company's trips, optionally restricted to one
// status. An empty status matches every trip.
func (r *Repository) GetTripsByCompany(ctx context.Context, companyID string, status models.TripStatus, limit, offset int) ([]models.Trip, error) {
	var trips []models.Trip
	query := r.conn(ctx).Where("company_id = ?", companyID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	err := query.
		Preload("Stops", orderStops).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&trips).Error
	return trips, err
}

func (r *Repository) CountTripsByCompany(ctx context.Context, companyID string, status models.TripStatus) (int, error) {
	var count int64
	query := r.conn(ctx).Model(&models.Trip{}).Where("company_id = ?", companyID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	err := query.Count(&count).Error
	return int(count), err
}

// UpdatePendingTrip writes the given columns of a trip that is still
// pending and returns the number of rows changed
func (r *Repository) UpdatePendingTrip(ctx context.Context, id string, updates map[string]interface{}) (int64, error) {
	result := r.conn(ctx).Model(&models.Trip{}).
		Where("id = ? AND status = ?", id, models.TripPending).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// TransitionTripStatus moves a trip of the company from one status to
// another. It returns the number of rows changed; zero means the trip does
// not exist in that company or is no longer in status from.
func (r *Repository) TransitionTripStatus(ctx context.Context, id, companyID string, from, to models.TripStatus) (int64, error) {
	result := r.conn(ctx).Model(&models.Trip{}).
		Where("id = ? AND company_id = ? AND status = ?", id, companyID, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// GetDestinationVisits counts the stops of a company's trips per
// destination, most visited first
func (r *Repository) GetDestinationVisits(ctx context.Context, companyID string) ([]DestinationVisits, error) {
	var visits []DestinationVisits
	err := r.conn(ctx).Model(&models.Stop{}).
		Select("stops.destination_branch_id AS location_id, locations.name AS name, locations.city AS city, COUNT(stops.id) AS visits").
		Joins("JOIN trips ON trips.id = stops.trip_id AND trips.deleted_at IS NULL").
		Joins("JOIN locations ON locations.id = stops.destination_branch_id").
		Where("trips.company_id = ?", companyID).
		Group("stops.destination_branch_id, locations.name, locations.city").
		Order("visits DESC").
		Scan(&visits).Error
	return visits, err
}

// Audit repository methods
func (r *Repository) CreateTripAudit(ctx context.Context, audit *models.TripAudit) error {
	return r.conn(ctx).Create(audit).Error
}

// Notification repository methods
func (r *Repository) CreateNotifications(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.conn(ctx).Create(&notifications).Error
}

func (r *Repository) GetNotificationsByUserID(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification
	query := r.conn(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	return notifications, err
}

func (r *Repository) CountNotificationsByUserID(ctx context.Context, userID string, unreadOnly bool) (int, error) {
	var count int64
	query := r.conn(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	err := query.Count(&count).Error
	return int(count), err
}

// MarkNotificationRead flags one of the user's notifications as read and
// returns the number of rows changed
func (r *Repository) MarkNotificationRead(ctx context.Context, id uint, userID string) (int64, error) {
	now := time.Now().UTC()
	result := r.conn(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": &now,
		})
	return result.RowsAffected, result.Error
}

// Queue repository methods
func (r *Repository) CreateQueueItems(ctx context.Context, items []models.NotificationQueue) error {
	if len(items) == 0 {
		return nil
	}
	return r.conn(ctx).Create(&items).Error
}

// GetPendingQueueItems returns queue items that are due, either for their
// first attempt or for a retry
func (r *Repository) GetPendingQueueItems(ctx context.Context, limit int) ([]models.NotificationQueue, error) {
	var items []models.NotificationQueue
	now := time.Now().UTC()
	err := r.conn(ctx).
		Where("status = ? AND scheduled_for <= ? AND (next_retry_at IS NULL OR next_retry_at <= ?)",
			models.QueueStatusPending, now, now).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// ClaimQueueItem moves a pending item to processing. It reports false when
// another worker claimed the item first.
func (r *Repository) ClaimQueueItem(ctx context.Context, id uint) (bool, error) {
	result := r.conn(ctx).Model(&models.NotificationQueue{}).
		Where("id = ? AND status = ?", id, models.QueueStatusPending).
		Update("status", models.QueueStatusProcessing)
	return result.RowsAffected == 1, result.Error
}

func (r *Repository) UpdateQueueItem(ctx context.Context, item *models.NotificationQueue) error {
	return r.conn(ctx).Save(item).Error
}

// DeleteProcessedQueueItems removes sent and failed items processed before
// the cutoff
func (r *Repository) DeleteProcessedQueueItems(ctx context.Context, before time.Time) (int64, error) {
	result := r.conn(ctx).
		Where("status IN ? AND processed_at < ?", []models.QueueStatus{models.QueueStatusSent, models.QueueStatusFailed}, before).
		Delete(&models.NotificationQueue{})
	return result.RowsAffected, result.Error
}

// ResetStuckQueueItems returns items left in processing since before the
// cutoff to pending
func (r *Repository) ResetStuckQueueItems(ctx context.Context, before time.Time) (int64, error) {
	result := r.conn(ctx).Model(&models.NotificationQueue{}).
		Where("status = ? AND updated_at < ?", models.QueueStatusProcessing, before).
		Update("status", models.QueueStatusPending)
	return result.RowsAffected, result.Error
}
