package models

import (
	"time"

	"gorm.io/gorm"
)

// TripType enum
type TripType string

const (
	TripOneWay    TripType = "one-way"
	TripReturn    TripType = "return"
	TripMultiCity TripType = "multi-city"
)

// TripStatus enum
type TripStatus string

const (
	TripPending  TripStatus = "pending"
	TripApproved TripStatus = "approved"
	TripRejected TripStatus = "rejected"
)

// CanTransitionTo reports whether a trip in status s may move to next.
// approved and rejected are terminal.
func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	return s == TripPending && (next == TripApproved || next == TripRejected)
}

// Trip represents a travel request submitted by a user
type Trip struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID    string `gorm:"type:uuid;not null;index" json:"userId"`
	User      *User  `gorm:"foreignKey:UserID" json:"requester,omitempty"`
	CompanyID string `gorm:"type:uuid;not null;index" json:"companyId"`

	Type          TripType   `gorm:"type:varchar(20);not null" json:"type"`
	StartBranchID string     `gorm:"type:uuid;not null" json:"startBranchId"`
	StartBranch   *Location  `gorm:"foreignKey:StartBranchID" json:"startBranch,omitempty"`
	Reason        string     `gorm:"type:text;not null" json:"reason"`
	TripDate      time.Time  `gorm:"not null" json:"tripDate"`
	ReturnDate    *time.Time `json:"returnDate,omitempty"`
	Status        TripStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// Relationships
	Stops   []Stop      `gorm:"foreignKey:TripID" json:"stop"`
	History []TripAudit `gorm:"foreignKey:TripID" json:"history,omitempty"`
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	t.ID = newID(t.ID)
	if t.Status == "" {
		t.Status = TripPending
	}
	return nil
}

// Stop is one destination leg of a trip. Stops are written with their trip
// and never edited afterwards.
type Stop struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	TripID              string         `gorm:"type:uuid;not null;index" json:"tripId"`
	Position            int            `gorm:"not null" json:"position"`
	DestinationBranchID string         `gorm:"type:uuid;not null;index" json:"destinationBranchId"`
	DestinationBranch   *Location      `gorm:"foreignKey:DestinationBranchID" json:"destinationBranch,omitempty"`
	AccomodationID      string         `gorm:"type:uuid;not null" json:"accomodationId"`
	Accomodation        *Accommodation `gorm:"foreignKey:AccomodationID" json:"accomodation,omitempty"`
}

func (s *Stop) BeforeCreate(tx *gorm.DB) error {
	s.ID = newID(s.ID)
	return nil
}

// TripAction enum
type TripAction string

const (
	ActionCreated  TripAction = "created"
	ActionEdited   TripAction = "edited"
	ActionApproved TripAction = "approved"
	ActionRejected TripAction = "rejected"
)

// TripAudit is an append-only record of a change to a trip
type TripAudit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	TripID       string     `gorm:"type:uuid;not null;index" json:"tripId"`
	ActorID      string     `gorm:"type:uuid;not null" json:"actorId"`
	Action       TripAction `gorm:"type:varchar(20);not null" json:"action"`
	StatusBefore TripStatus `gorm:"type:varchar(20)" json:"statusBefore,omitempty"`
	StatusAfter  TripStatus `gorm:"type:varchar(20);not null" json:"statusAfter"`
}
