// Package trips implements the trip request lifecycle: submission, editing
// by the requester, approval or rejection by an approver of the same
// company, listings and destination statistics.
package trips

import (
	"context"
	"errors"
	"fmt"

	"github.com/balogunquadri/banshee-bn-backend/pkg/db"
	"github.com/balogunquadri/banshee-bn-backend/pkg/log"
	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/balogunquadri/banshee-bn-backend/pkg/providers"
	"github.com/balogunquadri/banshee-bn-backend/pkg/queue"
	"github.com/balogunquadri/banshee-bn-backend/pkg/utils"
	"github.com/balogunquadri/banshee-bn-backend/pkg/validation"
	"gorm.io/gorm"
)

var (
	ErrTripNotFound      = errors.New("trip does not exist")
	ErrNotOwner          = errors.New("trip belongs to another user")
	ErrNotPending        = errors.New("trip is no longer pending")
	ErrNoPendingRequests = errors.New("no pending requests")
	ErrMissingIdentity   = errors.New("request identity has no user id")
)

// Service runs trip operations against the repository
type Service struct {
	repo        *db.Repository
	logger      *log.Logger
	channels    []string
	maxAttempts int
}

// NewService creates a trip service. Every trip event is queued once per
// channel.
func NewService(repo *db.Repository, logger *log.Logger, channels []string, maxAttempts int) *Service {
	return &Service{
		repo:        repo,
		logger:      logger,
		channels:    channels,
		maxAttempts: maxAttempts,
	}
}

// Create stores a validated trip with its stops, its audit entry and the
// notifications for the company's approvers in one transaction
func (s *Service) Create(ctx context.Context, identity models.Identity, input *validation.Trip) (*models.Trip, error) {
	trip := &models.Trip{
		UserID:        identity.UserID,
		CompanyID:     identity.CompanyID,
		Type:          input.Type,
		StartBranchID: input.From,
		Reason:        input.Reason,
		TripDate:      input.DepartureDate,
		ReturnDate:    input.ReturnDate,
		Status:        models.TripPending,
	}
	for i, dest := range input.Destinations {
		trip.Stops = append(trip.Stops, models.Stop{
			Position:            i + 1,
			DestinationBranchID: dest.To,
			AccomodationID:      dest.Accomodation,
		})
	}

	err := s.repo.WithTx(ctx, func(tx *db.Repository) error {
		if err := tx.CreateTrip(ctx, trip); err != nil {
			return fmt.Errorf("failed to create trip: %w", err)
		}

		if err := tx.CreateTripAudit(ctx, &models.TripAudit{
			TripID:      trip.ID,
			ActorID:     identity.UserID,
			Action:      models.ActionCreated,
			StatusAfter: models.TripPending,
		}); err != nil {
			return fmt.Errorf("failed to audit trip: %w", err)
		}

		message := &providers.Message{
			Event:  models.EventTripSubmitted,
			TripID: trip.ID,
			Title:  "New trip request",
			Body:   fmt.Sprintf("%s submitted a %s trip request", identity.Email, trip.Type),
			Metadata: models.JSON{
				"type":      string(trip.Type),
				"companyId": trip.CompanyID,
				"status":    string(trip.Status),
			},
		}
		return s.notifyApprovers(ctx, tx, identity, message)
	})
	if err != nil {
		s.logger.LogTrip("", identity.UserID, "create", false, string(models.TripPending))
		return nil, err
	}

	s.logger.LogTrip(trip.ID, identity.UserID, "create", true, string(trip.Status))
	return trip, nil
}

// Edit changes a pending trip owned by the caller
func (s *Service) Edit(ctx context.Context, identity models.Identity, tripID string, edit *validation.TripEdit) (*models.Trip, error) {
	trip, err := s.find(ctx, s.repo, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID != identity.UserID {
		return nil, ErrNotOwner
	}
	if trip.Status != models.TripPending {
		return nil, ErrNotPending
	}
	if err := validation.CheckEdit(trip, edit); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if edit.From != nil {
		updates["start_branch_id"] = *edit.From
	}
	if edit.Reason != nil {
		updates["reason"] = *edit.Reason
	}
	if edit.DepartureDate != nil {
		updates["trip_date"] = *edit.DepartureDate
	}
	if edit.ReturnDate != nil {
		updates["return_date"] = *edit.ReturnDate
	}

	var updated *models.Trip
	err = s.repo.WithTx(ctx, func(tx *db.Repository) error {
		n, err := tx.UpdatePendingTrip(ctx, trip.ID, updates)
		if err != nil {
			return fmt.Errorf("failed to update trip: %w", err)
		}
		if n == 0 {
			return ErrNotPending
		}

		if err := tx.CreateTripAudit(ctx, &models.TripAudit{
			TripID:       trip.ID,
			ActorID:      identity.UserID,
			Action:       models.ActionEdited,
			StatusBefore: models.TripPending,
			StatusAfter:  models.TripPending,
		}); err != nil {
			return fmt.Errorf("failed to audit trip: %w", err)
		}

		message := &providers.Message{
			Event:  models.EventTripEdited,
			TripID: trip.ID,
			Title:  "Trip request updated",
			Body:   fmt.Sprintf("%s updated a %s trip request", identity.Email, trip.Type),
			Metadata: models.JSON{
				"type":      string(trip.Type),
				"companyId": trip.CompanyID,
			},
		}
		if err := s.notifyApprovers(ctx, tx, identity, message); err != nil {
			return err
		}

		updated, err = s.find(ctx, tx, trip.ID)
		return err
	})
	if err != nil {
		s.logger.LogTrip(tripID, identity.UserID, "edit", false, string(trip.Status))
		return nil, err
	}

	s.logger.LogTrip(tripID, identity.UserID, "edit", true, string(updated.Status))
	return updated, nil
}

// ListForApprover returns the trips of the approver's company. An empty
// status lists every trip, but only while at least one is pending.
func (s *Service) ListForApprover(ctx context.Context, identity models.Identity, status models.TripStatus, page, limit int) ([]models.Trip, *utils.Pagination, error) {
	if status == "" {
		pending, err := s.repo.CountTripsByCompany(ctx, identity.CompanyID, models.TripPending)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to count pending trips: %w", err)
		}
		if pending == 0 {
			return nil, nil, ErrNoPendingRequests
		}
	}

	total, err := s.repo.CountTripsByCompany(ctx, identity.CompanyID, status)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count trips: %w", err)
	}

	pagination := utils.NewPagination(page, limit, total)
	trips, err := s.repo.GetTripsByCompany(ctx, identity.CompanyID, status, pagination.Limit, pagination.GetOffset())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list trips: %w", err)
	}

	return nonNil(trips), pagination, nil
}

// ListForUser returns the caller's own trips
func (s *Service) ListForUser(ctx context.Context, identity models.Identity, page, limit int) ([]models.Trip, *utils.Pagination, error) {
	if identity.UserID == "" {
		return nil, nil, ErrMissingIdentity
	}

	total, err := s.repo.CountTripsByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count trips: %w", err)
	}

	pagination := utils.NewPagination(page, limit, total)
	trips, err := s.repo.GetTripsByUserID(ctx, identity.UserID, pagination.Limit, pagination.GetOffset())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list trips: %w", err)
	}

	return nonNil(trips), pagination, nil
}

// Get returns a trip with its stops and history. Only the requester and
// approvers of the requester's company can see it.
func (s *Service) Get(ctx context.Context, identity models.Identity, tripID string) (*models.Trip, error) {
	trip, err := s.find(ctx, s.repo, tripID)
	if err != nil {
		return nil, err
	}

	if trip.UserID == identity.UserID {
		return trip, nil
	}
	if trip.CompanyID == identity.CompanyID && models.IsAllowed(identity.Role, models.ApproverRoles...) {
		return trip, nil
	}
	return nil, ErrTripNotFound
}

// ModifyStatus approves or rejects a pending trip of the approver's
// company. Trips that are missing, in another company or already decided
// all report ErrTripNotFound.
func (s *Service) ModifyStatus(ctx context.Context, identity models.Identity, tripID string, status models.TripStatus) (*models.Trip, error) {
	if !models.TripPending.CanTransitionTo(status) {
		return nil, validation.Single("status", "Invalid trip status")
	}

	var trip *models.Trip
	err := s.repo.WithTx(ctx, func(tx *db.Repository) error {
		n, err := tx.TransitionTripStatus(ctx, tripID, identity.CompanyID, models.TripPending, status)
		if err != nil {
			return fmt.Errorf("failed to update trip status: %w", err)
		}
		if n == 0 {
			return ErrTripNotFound
		}

		action := models.ActionApproved
		event := models.EventTripApproved
		if status == models.TripRejected {
			action = models.ActionRejected
			event = models.EventTripRejected
		}

		if err := tx.CreateTripAudit(ctx, &models.TripAudit{
			TripID:       tripID,
			ActorID:      identity.UserID,
			Action:       action,
			StatusBefore: models.TripPending,
			StatusAfter:  status,
		}); err != nil {
			return fmt.Errorf("failed to audit trip: %w", err)
		}

		trip, err = s.find(ctx, tx, tripID)
		if err != nil {
			return err
		}

		message := &providers.Message{
			Event:  event,
			TripID: tripID,
			Title:  fmt.Sprintf("Trip %s", status),
			Body:   fmt.Sprintf("Your %s trip request was %s by %s", trip.Type, status, identity.Email),
			Metadata: models.JSON{
				"status":    string(status),
				"companyId": trip.CompanyID,
			},
		}
		return s.notify(ctx, tx, []string{trip.UserID}, message)
	})
	if err != nil {
		s.logger.LogTrip(tripID, identity.UserID, string(status), false, string(models.TripPending))
		return nil, err
	}

	s.logger.LogTrip(tripID, identity.UserID, string(status), true, string(status))
	return trip, nil
}

// MostVisited returns every destination of the company tied for the most
// stops
func (s *Service) MostVisited(ctx context.Context, identity models.Identity) ([]db.DestinationVisits, error) {
	visits, err := s.repo.GetDestinationVisits(ctx, identity.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count destination visits: %w", err)
	}
	return TopDestinations(visits), nil
}

// TopDestinations keeps the entries sharing the highest visit count
func TopDestinations(visits []db.DestinationVisits) []db.DestinationVisits {
	top := []db.DestinationVisits{}
	var best int64
	for _, v := range visits {
		switch {
		case v.Visits > best:
			best = v.Visits
			top = append(top[:0], v)
		case v.Visits == best && best > 0:
			top = append(top, v)
		}
	}
	return top
}

func (s *Service) find(ctx context.Context, repo *db.Repository, tripID string) (*models.Trip, error) {
	trip, err := repo.GetTripByID(ctx, tripID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// notifyApprovers notifies the approvers of the requester's company other
// than the requester
func (s *Service) notifyApprovers(ctx context.Context, tx *db.Repository, identity models.Identity, message *providers.Message) error {
	approvers, err := tx.GetUsersByRole(ctx, identity.CompanyID, models.ApproverRoles...)
	if err != nil {
		return fmt.Errorf("failed to get approvers: %w", err)
	}

	recipients := make([]string, 0, len(approvers))
	for _, approver := range approvers {
		if approver.ID != identity.UserID {
			recipients = append(recipients, approver.ID)
		}
	}
	return s.notify(ctx, tx, recipients, message)
}

// notify writes the in-app notifications and the outbox rows for message
func (s *Service) notify(ctx context.Context, tx *db.Repository, recipients []string, message *providers.Message) error {
	notifications := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		notifications = append(notifications, models.Notification{
			UserID:  userID,
			TripID:  message.TripID,
			Event:   message.Event,
			Message: message.Body,
		})
	}
	if err := tx.CreateNotifications(ctx, notifications); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}

	if err := tx.CreateQueueItems(ctx, queue.NewItems(s.channels, message, s.maxAttempts)); err != nil {
		return fmt.Errorf("failed to queue notifications: %w", err)
	}
	return nil
}

func nonNil(trips []models.Trip) []models.Trip {
	if trips == nil {
		return []models.Trip{}
	}
	return trips
}
