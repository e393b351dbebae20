package models

import (
	"time"

	"gorm.io/gorm"
)

// Company groups users; approvals and statistics never cross it
type Company struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name string `gorm:"uniqueIndex;not null" json:"name"`

	Users []User `gorm:"foreignKey:CompanyID" json:"users,omitempty"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	c.ID = newID(c.ID)
	return nil
}
