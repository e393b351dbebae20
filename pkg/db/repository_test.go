package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/config"
	"github.com/balogunquadri/banshee-bn-backend/pkg/db"
	"github.com/balogunquadri/banshee-bn-backend/pkg/db/dbtest"
	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/balogunquadri/banshee-bn-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedInitialDataIsIdempotent(t *testing.T) {
	database := dbtest.New(t)
	seed := &config.SeedConfig{CompanyName: "Banshee", AdminEmail: "root@banshee.test", AdminPassword: "s3cret!"}

	require.NoError(t, database.SeedInitialData(seed))
	require.NoError(t, database.SeedInitialData(seed))

	var companies, locations, accommodations, users int64
	database.Model(&models.Company{}).Count(&companies)
	database.Model(&models.Location{}).Count(&locations)
	database.Model(&models.Accommodation{}).Count(&accommodations)
	database.Model(&models.User{}).Count(&users)

	assert.EqualValues(t, 1, companies)
	assert.EqualValues(t, 4, locations)
	assert.EqualValues(t, 5, accommodations)
	assert.EqualValues(t, 1, users)

	admin, err := db.NewRepository(database).GetUserByEmail(context.Background(), "root@banshee.test")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTravelAdmin, admin.Role)
	assert.True(t, admin.IsVerified)
	assert.True(t, utils.CheckPassword(admin.PasswordHash, "s3cret!"))
}

func TestSeedInitialDataLowercasesAdminEmail(t *testing.T) {
	database := dbtest.New(t)
	seed := &config.SeedConfig{CompanyName: "Banshee", AdminEmail: " Root@Banshee.TEST ", AdminPassword: "s3cret!"}

	require.NoError(t, database.SeedInitialData(seed))
	seed.AdminEmail = "root@banshee.test"
	require.NoError(t, database.SeedInitialData(seed))

	var users int64
	database.Model(&models.User{}).Count(&users)
	assert.EqualValues(t, 1, users)

	admin, err := db.NewRepository(database).GetUserByEmail(context.Background(), "root@banshee.test")
	require.NoError(t, err)
	assert.Equal(t, "root@banshee.test", admin.Email)
}

func TestHealthCheck(t *testing.T) {
	database := dbtest.New(t)
	assert.NoError(t, database.HealthCheck(context.Background()))
}

func TestCreateTripWithStops(t *testing.T) {
	database := dbtest.New(t)
	f := dbtest.Seed(t, database)
	repo := db.NewRepository(database)
	ctx := context.Background()

	trip := dbtest.Trip(t, database, f.Staff, models.TripMultiCity, f.Lagos, f.KigaliHotel, f.NairobiHotel)

	got, err := repo.GetTripByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripPending, got.Status)
	require.Len(t, got.Stops, 2)
	assert.Equal(t, f.Kigali.ID, got.Stops[0].DestinationBranchID)
	assert.Equal(t, f.Nairobi.ID, got.Stops[1].DestinationBranchID)
	assert.Equal(t, 1, got.Stops[0].Position)
}

func TestWithTxRollsBack(t *testing.T) {
	database := dbtest.New(t)
	f := dbtest.Seed(t, database)
	repo := db.NewRepository(database)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(tx *db.Repository) error {
		trip := &models.Trip{
			UserID:        f.Staff.ID,
			CompanyID:     f.Company.ID,
			Type:          models.TripOneWay,
			StartBranchID: f.Lagos.ID,
			Reason:        "Onboarding",
			TripDate:      time.Now().UTC(),
			Stops:         []models.Stop{{Position: 1, DestinationBranchID: f.Kigali.ID, AccomodationID: f.KigaliHotel.ID}},
		}
		require.NoError(t, tx.CreateTrip(ctx, trip))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := repo.CountTripsByUserID(ctx, f.Staff.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	var stops int64
	database.Model(&models.Stop{}).Count(&stops)
	assert.Zero(t, stops)
}

func TestTransitionTripStatus(t *testing.T) {
	database := dbtest.New(t)
	f := dbtest.Seed(t, database)
	repo := db.NewRepository(database)
	ctx := context.Background()

	trip := dbtest.Trip(t, database, f.Staff, models.TripOneWay, f.Lagos, f.KigaliHotel)

	n, err := repo.TransitionTripStatus(ctx, trip.ID, f.OtherCompany.ID, models.TripPending, models.TripApproved)
	require.NoError(t, err)
	assert.Zero(t, n, "other company must not match")

	n, err = repo.TransitionTripStatus(ctx, trip.ID, f.Company.ID, models.TripPending, models.TripApproved)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.TransitionTripStatus(ctx, trip.ID, f.Company.ID, models.TripPending, models.TripRejected)
	require.NoError(t, err)
	assert.Zero(t, n, "approved trips are terminal")

	got, err := repo.GetTripByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripApproved, got.Status)
}

func TestTripsByCompanyFilters(t *testing.T) {
	database := dbtest.New(t)
	f := dbtest.Seed(t, database)
	repo := db.NewRepository(database)
	ctx := context.Background()

	first := dbtest.Trip(t, database, f.Staff, models.TripOneWay, f.Lagos, f.KigaliHotel)
	dbtest.Trip(t, database, f.Staff, models.TripOneWay, f.Lagos, f.NairobiHotel)
	dbtest.Trip(t, database, f.OtherManager, models.TripOneWay, f.Lagos, f.NairobiHotel)

	_, err := repo.TransitionTripStatus(ctx, first.ID, f.Company.ID, models.TripPending, models.TripRejected)
	require.NoError(t, err)

	all, err := repo.GetTripsByCompany(ctx, f.Company.ID, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := repo.CountTripsByCompany(ctx, f.Company.ID, models.TripPending)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	rejected, err := repo.GetTripsByCompany(ctx, f.Company.ID, models.TripRejected, 10, 0)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, first.ID, rejected[0].ID)
}

func TestDestinationVisits(t *testing.T) {
	database := dbtest.New(t)
	f := dbtest.Seed(t, database)
	repo := db.NewRepository(database)

	dbtest.Trip(t, database, f.Staff, models.TripOneWay, f.Lagos, f.KigaliHotel)
	dbtest.Trip(t, database, f.Manager, models.TripMultiCity, f.Lagos, f.KigaliHotel, f.NairobiHotel)
	dbtest.Trip(t, database, f.OtherManager, models.TripOneWay, f.Lagos, f.NairobiHotel)
	dbtest.Trip(t, database, f.OtherManager, models.TripOneWay, f.Kigali, f.NairobiHotel)

	visits, err := repo.GetDestinationVisits(context.Background(), f.Company.ID)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, db.DestinationVisits{LocationID: f.Kigali.ID, Name: "Kigali Branch", City: "Kigali", Visits: 2}, visits[0])
	assert.EqualValues(t, 1, visits[1].Visits)
}

func TestNotifications(t *testing.T) {
	database := dbtest.New(t)
	f := dbtest.Seed(t, database)
	repo := db.NewRepository(database)
	ctx := context.Background()

	trip := dbtest.Trip(t, database, f.Staff, models.TripOneWay, f.Lagos, f.KigaliHotel)
	require.NoError(t, repo.CreateNotifications(ctx, []models.Notification{
		{UserID: f.Manager.ID, TripID: trip.ID, Event: models.EventTripSubmitted, Message: "one"},
		{UserID: f.Manager.ID, TripID: trip.ID, Event: models.EventTripSubmitted, Message: "two"},
	}))
	require.NoError(t, repo.CreateNotifications(ctx, nil))

	list, err := repo.GetNotificationsByUserID(ctx, f.Manager.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	n, err := repo.MarkNotificationRead(ctx, list[0].ID, f.Staff.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "only the recipient may mark it read")

	n, err = repo.MarkNotificationRead(ctx, list[0].ID, f.Manager.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	unread, err := repo.CountNotificationsByUserID(ctx, f.Manager.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestQueueClaimAndCleanup(t *testing.T) {
	database := dbtest.New(t)
	repo := db.NewRepository(database)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.CreateQueueItems(ctx, []models.NotificationQueue{
		{Event: models.EventTripSubmitted, TripID: "t1", Channel: "webhook", Status: models.QueueStatusPending, ScheduledFor: past},
		{Event: models.EventTripSubmitted, TripID: "t1", Channel: "slack", Status: models.QueueStatusPending, ScheduledFor: past, NextRetryAt: &future},
		{Event: models.EventTripSubmitted, TripID: "t2", Channel: "webhook", Status: models.QueueStatusPending, ScheduledFor: future},
	}))

	items, err := repo.GetPendingQueueItems(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "webhook", items[0].Channel)

	claimed, err := repo.ClaimQueueItem(ctx, items[0].ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimQueueItem(ctx, items[0].ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	reset, err := repo.ResetStuckQueueItems(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, reset)

	item := items[0]
	processed := time.Now().UTC().Add(-48 * time.Hour)
	item.Status = models.QueueStatusSent
	item.ProcessedAt = &processed
	require.NoError(t, repo.UpdateQueueItem(ctx, &item))

	deleted, err := repo.DeleteProcessedQueueItems(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}
