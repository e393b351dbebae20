package validation

import (
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
)

// Destination is one requested stop of a trip
type Destination struct {
	To           string `json:"to" validate:"required"`
	Accomodation string `json:"accomodation" validate:"required"`
}

// TripRequest is the body of a trip submission
type TripRequest struct {
	Type          string        `json:"type" validate:"required,oneof=one-way return multi-city"`
	From          string        `json:"from" validate:"required"`
	Destinations  []Destination `json:"destinations" validate:"required,min=1,dive"`
	DepartureDate string        `json:"departureDate" validate:"required,tripdate"`
	ReturnDate    string        `json:"returnDate" validate:"omitempty,tripdate"`
	Reason        string        `json:"reason" validate:"required"`
}

// EditTripRequest is the body of a trip edit. Absent fields are left
// unchanged.
type EditTripRequest struct {
	From          *string `json:"from" validate:"omitnil,min=1"`
	Reason        *string `json:"reason" validate:"omitnil,min=1"`
	DepartureDate *string `json:"departureDate" validate:"omitnil,tripdate"`
	ReturnDate    *string `json:"returnDate" validate:"omitnil,tripdate"`
}

// StatusRequest is the body of an approval decision
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// LoginRequest is the body of a login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerificationRequest carries a one-time code from the user's authenticator
type VerificationRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// Trip is a validated trip submission
type Trip struct {
	Type          models.TripType
	From          string
	Destinations  []Destination
	DepartureDate time.Time
	ReturnDate    *time.Time
	Reason        string
}

// TripEdit is a validated trip edit; nil fields are left unchanged
type TripEdit struct {
	From          *string
	Reason        *string
	DepartureDate *time.Time
	ReturnDate    *time.Time
}

var messages = map[string]string{
	"type.required":          "Trip type is required",
	"type.oneof":             "Invalid trip type",
	"from.required":          "Starting point is required",
	"from.min":               "Starting point is required",
	"destinations.required":  "At least one destination is required",
	"destinations.min":       "At least one destination is required",
	"to.required":            "Destination is required",
	"accomodation.required":  "Accomodation is required",
	"departureDate.required": "Departure date is required",
	"departureDate.tripdate": "Invalid departure date format",
	"returnDate.tripdate":    "Invalid return date format",
	"reason.required":        "Travel reason is required",
	"reason.min":             "Travel reason is required",
	"status.required":        "Trip status is required",
	"status.oneof":           "Invalid trip status",
	"email.required":         "Email is required",
	"email.email":            "Invalid email address",
	"password.required":      "Password is required",
	"code.required":          "Verification code is required",
	"code.len":               "Invalid verification code",
	"code.numeric":           "Invalid verification code",
}

const (
	msgStartNotFound       = "Start branch location does not exist"
	msgDestinationNotFound = "Destination does not exist"
	msgSameAsStart         = "Start and Destination should not be the same"
	msgRepeated            = "Destinations should not be repeated"
	msgAccomodationMissing = "Accomodation does not exist"
	msgSingleDestination   = "One-way and return trips must have exactly one destination"
	msgMultiDestination    = "Multi-city trips must have at least two destinations"
	msgReturnRequired      = "Return date is required"
	msgReturnBeforeDepart  = "Return date must be greater than departure date"
	msgReturnOnly          = "Only return trips have a return date"
	msgEmptyEdit           = "Provide at least one field to update"
	msgInvalidTripID       = "Invalid trip id"
	msgInvalidRequestType  = "Invalid request type"

	// MsgInvalidBody is reported under the "body" key for malformed JSON
	MsgInvalidBody = "Invalid request body"
)
