// Package dbtest opens migrated in-memory sqlite databases for tests and
// provides fixtures for the trip domain.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/config"
	"github.com/balogunquadri/banshee-bn-backend/pkg/db"
	"github.com/balogunquadri/banshee-bn-backend/pkg/log"
	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Logger returns a logger that discards everything
func Logger(t testing.TB) *log.Logger {
	t.Helper()
	logger, err := log.New(&config.LoggingConfig{Level: "error", Format: "json", Output: "discard"})
	require.NoError(t, err)
	return logger
}

// New returns a migrated database private to the calling test
func New(t testing.TB) *db.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		Database:     "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}

	database, err := db.New(cfg, Logger(t))
	require.NoError(t, err)
	require.NoError(t, database.Migrate())

	t.Cleanup(func() { _ = database.Close() })
	return database
}

// Fixture is a company with one user per role and a few branches
type Fixture struct {
	Company      models.Company
	OtherCompany models.Company

	Staff        models.User
	Unverified   models.User
	Manager      models.User
	TravelAdmin  models.User
	OtherManager models.User

	Lagos   models.Location
	Nairobi models.Location
	Kigali  models.Location

	LagosHotel   models.Accommodation
	NairobiHotel models.Accommodation
	KigaliHotel  models.Accommodation
}

// Seed writes a Fixture into database
func Seed(t testing.TB, database *db.DB) *Fixture {
	t.Helper()

	f := &Fixture{
		Company:      models.Company{Name: "Banshee"},
		OtherCompany: models.Company{Name: "Rival"},
		Lagos:        models.Location{Name: "Lagos Branch", City: "Lagos", Country: "Nigeria"},
		Nairobi:      models.Location{Name: "Nairobi Branch", City: "Nairobi", Country: "Kenya"},
		Kigali:       models.Location{Name: "Kigali Branch", City: "Kigali", Country: "Rwanda"},
	}

	ctx := context.Background()
	repo := db.NewRepository(database)

	require.NoError(t, repo.CreateCompany(ctx, &f.Company))
	require.NoError(t, repo.CreateCompany(ctx, &f.OtherCompany))
	for _, location := range []*models.Location{&f.Lagos, &f.Nairobi, &f.Kigali} {
		require.NoError(t, repo.CreateLocation(ctx, location))
	}

	f.LagosHotel = models.Accommodation{Name: "Eko Lodge", LocationID: f.Lagos.ID}
	f.NairobiHotel = models.Accommodation{Name: "Westlands Inn", LocationID: f.Nairobi.ID}
	f.KigaliHotel = models.Accommodation{Name: "Hills Residence", LocationID: f.Kigali.ID}
	for _, accommodation := range []*models.Accommodation{&f.LagosHotel, &f.NairobiHotel, &f.KigaliHotel} {
		require.NoError(t, repo.CreateAccommodation(ctx, accommodation))
	}

	user := func(email string, role models.Role, company models.Company, verified bool) models.User {
		u := models.User{
			CompanyID:    company.ID,
			Email:        email,
			FirstName:    "Test",
			LastName:     string(role),
			PasswordHash: "$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva",
			Role:         role,
			IsVerified:   verified,
		}
		require.NoError(t, repo.CreateUser(ctx, &u))
		return u
	}

	f.Staff = user("staff@banshee.test", models.RoleStaff, f.Company, true)
	f.Unverified = user("new@banshee.test", models.RoleStaff, f.Company, false)
	f.Manager = user("manager@banshee.test", models.RoleManager, f.Company, true)
	f.TravelAdmin = user("admin@banshee.test", models.RoleTravelAdmin, f.Company, true)
	f.OtherManager = user("manager@rival.test", models.RoleManager, f.OtherCompany, true)

	return f
}

// Trip writes a pending trip for user from one branch to the given stops
func Trip(t testing.TB, database *db.DB, user models.User, tripType models.TripType, from models.Location, stops ...models.Accommodation) *models.Trip {
	t.Helper()

	trip := &models.Trip{
		UserID:        user.ID,
		CompanyID:     user.CompanyID,
		Type:          tripType,
		StartBranchID: from.ID,
		Reason:        "Quarterly review",
		TripDate:      time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	for i, stop := range stops {
		trip.Stops = append(trip.Stops, models.Stop{
			Position:            i + 1,
			DestinationBranchID: stop.LocationID,
			AccomodationID:      stop.ID,
		})
	}

	require.NoError(t, db.NewRepository(database).CreateTrip(context.Background(), trip))
	return trip
}

// FailOn makes every statement against table fail with err. It returns a
// func that removes the failure.
func FailOn(t testing.TB, database *db.DB, table string, err error) func() {
	t.Helper()

	name := "dbtest:fail_" + table
	hook := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(err)
		}
	}

	cb := database.Callback()
	require.NoError(t, cb.Create().Before("gorm:create").Register(name, hook))
	require.NoError(t, cb.Query().Before("gorm:query").Register(name, hook))
	require.NoError(t, cb.Update().Before("gorm:update").Register(name, hook))
	require.NoError(t, cb.Row().Before("gorm:row").Register(name, hook))

	removed := false
	remove := func() {
		if removed {
			return
		}
		removed = true
		_ = cb.Create().Remove(name)
		_ = cb.Query().Remove(name)
		_ = cb.Update().Remove(name)
		_ = cb.Row().Remove(name)
	}
	t.Cleanup(remove)
	return remove
}
