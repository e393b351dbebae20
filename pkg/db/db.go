package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/config"
	"github.com/balogunquadri/banshee-bn-backend/pkg/log"
	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/balogunquadri/banshee-bn-backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB wraps the gorm.DB instance with additional functionality
type DB struct {
	*gorm.DB
	config *config.DatabaseConfig
}

// New creates a new database connection
func New(cfg *config.DatabaseConfig, logger *log.Logger) (*DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.GetDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	// Configure GORM
	gormConfig := &gorm.Config{
		Logger: logger.GormLogger(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	// Open database connection
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     db,
		config: cfg,
	}, nil
}

// Migrate runs database migrations
func (db *DB) Migrate() error {
	if err := models.AutoMigrate(db.DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := models.CreateIndexes(db.DB); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// SeedInitialData seeds the company, branch locations with their
// accommodations and, when configured, a travel admin account.
func (db *DB) SeedInitialData(cfg *config.SeedConfig) error {
	company := models.Company{Name: cfg.CompanyName}
	if err := db.Where("name = ?", company.Name).FirstOrCreate(&company).Error; err != nil {
		return fmt.Errorf("failed to seed company %s: %w", cfg.CompanyName, err)
	}

	branches := []struct {
		location       models.Location
		accommodations []string
	}{
		{models.Location{Name: "Lagos Branch", City: "Lagos", Country: "Nigeria"}, []string{"Eko Lodge", "Marina Suites"}},
		{models.Location{Name: "Nairobi Branch", City: "Nairobi", Country: "Kenya"}, []string{"Westlands Inn"}},
		{models.Location{Name: "Kigali Branch", City: "Kigali", Country: "Rwanda"}, []string{"Hills Residence"}},
		{models.Location{Name: "Kampala Branch", City: "Kampala", Country: "Uganda"}, []string{"Lakeview Hotel"}},
	}

	for _, branch := range branches {
		location := branch.location
		var existing models.Location
		result := db.Where("name = ?", location.Name).First(&existing)
		if result.Error == nil {
			continue
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up location %s: %w", location.Name, result.Error)
		}

		for _, name := range branch.accommodations {
			location.Accommodations = append(location.Accommodations, models.Accommodation{Name: name})
		}
		if err := db.Create(&location).Error; err != nil {
			return fmt.Errorf("failed to seed location %s: %w", location.Name, err)
		}
	}

	// Login lowercases the submitted address before looking it up
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		return nil
	}

	var admin models.User
	result := db.Where("email = ?", email).First(&admin)
	if result.Error == nil {
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin: %w", result.Error)
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin = models.User{
		CompanyID:    company.ID,
		Email:        email,
		FirstName:    "Travel",
		LastName:     "Admin",
		PasswordHash: hash,
		Role:         models.RoleTravelAdmin,
		IsVerified:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}
