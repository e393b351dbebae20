package models

import (
	"time"

	"gorm.io/gorm"
)

// Location is a branch office a trip can start from or travel to
type Location struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name    string `gorm:"not null" json:"name"`
	City    string `gorm:"not null" json:"city"`
	Country string `gorm:"not null" json:"country"`

	Accommodations []Accommodation `gorm:"foreignKey:LocationID" json:"accommodations,omitempty"`
}

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	l.ID = newID(l.ID)
	return nil
}

// Accommodation is a place to stay, attached to a location
type Accommodation struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name       string    `gorm:"not null" json:"name"`
	Address    string    `json:"address,omitempty"`
	LocationID string    `gorm:"type:uuid;not null;index" json:"locationId"`
	Location   *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
}

func (a *Accommodation) BeforeCreate(tx *gorm.DB) error {
	a.ID = newID(a.ID)
	return nil
}
