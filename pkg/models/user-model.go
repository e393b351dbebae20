package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is an authorization label carried by every user.
type Role string

const (
	RoleSuperAdmin  Role = "super admin"
	RoleTravelAdmin Role = "travel admin"
	RoleManager     Role = "manager"
	RoleStaff       Role = "staff"
)

// ApproverRoles may list and decide on the trip requests of their company.
var ApproverRoles = []Role{RoleTravelAdmin, RoleManager}

// IsAllowed reports whether role is in the allowed set.
func IsAllowed(role Role, allowed ...Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// User represents a company member able to request or approve trips
type User struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CompanyID string   `gorm:"type:uuid;not null;index" json:"companyId"`
	Company   *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName    string `gorm:"not null" json:"firstName"`
	LastName     string `gorm:"not null" json:"lastName"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'staff'" json:"role"`

	// Verification (secondary confirmation step)
	IsVerified bool   `gorm:"not null;default:false" json:"isVerified"`
	TOTPSecret string `json:"-"`

	// Relationships
	Trips []Trip `gorm:"foreignKey:UserID" json:"trips,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.ID = newID(u.ID)
	return nil
}

// Identity returns the token identity for the user.
func (u *User) Identity() Identity {
	return Identity{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		Verified:  u.IsVerified,
	}
}
