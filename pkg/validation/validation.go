// Package validation checks request payloads and reports every invalid
// field at once as a field to message map.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Errors maps a request field to the first problem found with it
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Has reports whether field already failed
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Err returns e as an error, or nil when nothing failed
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Single returns an Errors holding one field
func Single(field, msg string) Errors {
	return Errors{field: msg}
}

// Lookup answers existence questions about referenced records
type Lookup interface {
	LocationExists(ctx context.Context, id string) (bool, error)
	AccommodationExists(ctx context.Context, id string) (bool, error)
}

// Validator runs the tag rules and the checks that need storage
type Validator struct {
	validate *validator.Validate
	lookup   Lookup
}

// New creates a validator backed by lookup
func New(lookup Lookup) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for an empty tag or a nil func.
	_ = v.RegisterValidation("tripdate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})

	return &Validator{validate: v, lookup: lookup}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseDate accepts a calendar date or an RFC 3339 timestamp
func ParseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// IsTripID reports whether id is a well formed trip identifier
func IsTripID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// CanonicalID returns the lowercase hyphenated form of a uuid written in
// any spelling uuid.Parse accepts. Other values are returned unchanged.
func CanonicalID(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return id
}

// TripID checks a trip id taken from the request path
func TripID(id string) Errors {
	errs := Errors{}
	if !IsTripID(id) {
		errs.Add("tripId", msgInvalidTripID)
	}
	return errs
}

// RequestType parses the status filter of the approver listing. An empty
// value selects every status.
func RequestType(value string) (models.TripStatus, Errors) {
	switch status := models.TripStatus(value); status {
	case "", models.TripPending, models.TripApproved, models.TripRejected:
		return status, nil
	}
	return "", Single("type", msgInvalidRequestType)
}

// Struct applies the tag rules of a request schema
func (v *Validator) Struct(req interface{}) Errors {
	errs := Errors{}

	err := v.validate.Struct(req)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add("body", MsgInvalidBody)
		return errs
	}

	for _, fe := range fieldErrs {
		key := fe.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}

		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid " + fe.Field()
		}
		errs.Add(key, msg)
	}

	return errs
}

// exists treats ids that are not uuids as missing so they never reach a
// uuid column
func exists(ctx context.Context, id string, check func(context.Context, string) (bool, error)) (bool, error) {
	if !IsTripID(id) {
		return false, nil
	}
	return check(ctx, id)
}

// Trip validates a trip submission. The returned error is either Errors or
// a lookup failure.
func (v *Validator) Trip(ctx context.Context, req *TripRequest) (*Trip, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	req.From = CanonicalID(strings.TrimSpace(req.From))
	for i := range req.Destinations {
		req.Destinations[i].To = CanonicalID(strings.TrimSpace(req.Destinations[i].To))
		req.Destinations[i].Accomodation = CanonicalID(strings.TrimSpace(req.Destinations[i].Accomodation))
	}

	errs := v.Struct(req)
	tripType := models.TripType(req.Type)

	if !errs.Has("type") && !errs.Has("destinations") {
		switch tripType {
		case models.TripOneWay, models.TripReturn:
			if len(req.Destinations) != 1 {
				errs.Add("destinations", msgSingleDestination)
			}
		case models.TripMultiCity:
			if len(req.Destinations) < 2 {
				errs.Add("destinations", msgMultiDestination)
			}
		}
	}

	if !errs.Has("from") {
		ok, err := exists(ctx, req.From, v.lookup.LocationExists)
		if err != nil {
			return nil, err
		}
		if !ok {
			errs.Add("from", msgStartNotFound)
		}
	}

	seen := make(map[string]bool, len(req.Destinations))
	for i, dest := range req.Destinations {
		toKey := fmt.Sprintf("destinations[%d].to", i)
		if !errs.Has(toKey) {
			switch {
			case dest.To == req.From:
				errs.Add(toKey, msgSameAsStart)
			case seen[dest.To]:
				errs.Add(toKey, msgRepeated)
			default:
				ok, err := exists(ctx, dest.To, v.lookup.LocationExists)
				if err != nil {
					return nil, err
				}
				if !ok {
					errs.Add(toKey, msgDestinationNotFound)
				}
			}
			seen[dest.To] = true
		}

		accKey := fmt.Sprintf("destinations[%d].accomodation", i)
		if !errs.Has(accKey) {
			ok, err := exists(ctx, dest.Accomodation, v.lookup.AccommodationExists)
			if err != nil {
				return nil, err
			}
			if !ok {
				errs.Add(accKey, msgAccomodationMissing)
			}
		}
	}

	departure, departErr := ParseDate(req.DepartureDate)
	var returnDate *time.Time
	if tripType == models.TripReturn {
		switch {
		case req.ReturnDate == "":
			errs.Add("returnDate", msgReturnRequired)
		case !errs.Has("returnDate"):
			ret, _ := ParseDate(req.ReturnDate)
			if departErr == nil && !ret.After(departure) {
				errs.Add("returnDate", msgReturnBeforeDepart)
			}
			returnDate = &ret
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	return &Trip{
		Type:          tripType,
		From:          req.From,
		Destinations:  req.Destinations,
		DepartureDate: departure,
		ReturnDate:    returnDate,
		Reason:        req.Reason,
	}, nil
}

// Edit validates a trip edit. Rules that depend on the stored trip are
// left to the caller.
func (v *Validator) Edit(ctx context.Context, req *EditTripRequest) (*TripEdit, error) {
	if req.From != nil {
		from := CanonicalID(strings.TrimSpace(*req.From))
		req.From = &from
	}
	if req.Reason != nil {
		reason := strings.TrimSpace(*req.Reason)
		req.Reason = &reason
	}

	if req.From == nil && req.Reason == nil && req.DepartureDate == nil && req.ReturnDate == nil {
		return nil, Single("body", msgEmptyEdit)
	}

	errs := v.Struct(req)
	edit := &TripEdit{From: req.From, Reason: req.Reason}

	if req.From != nil && !errs.Has("from") {
		ok, err := exists(ctx, *req.From, v.lookup.LocationExists)
		if err != nil {
			return nil, err
		}
		if !ok {
			errs.Add("from", msgStartNotFound)
		}
	}

	if req.DepartureDate != nil && !errs.Has("departureDate") {
		departure, _ := ParseDate(*req.DepartureDate)
		edit.DepartureDate = &departure
	}
	if req.ReturnDate != nil && !errs.Has("returnDate") {
		ret, _ := ParseDate(*req.ReturnDate)
		edit.ReturnDate = &ret
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return edit, nil
}

// CheckEdit applies the rules that need the stored trip: the start branch
// must not be one of its stops and a return date must follow the departure
func CheckEdit(trip *models.Trip, edit *TripEdit) error {
	errs := Errors{}

	if edit.From != nil {
		for _, stop := range trip.Stops {
			if stop.DestinationBranchID == *edit.From {
				errs.Add("from", msgSameAsStart)
				break
			}
		}
	}

	departure := trip.TripDate
	if edit.DepartureDate != nil {
		departure = *edit.DepartureDate
	}

	returnDate := trip.ReturnDate
	if edit.ReturnDate != nil {
		if trip.Type != models.TripReturn {
			errs.Add("returnDate", msgReturnOnly)
		}
		returnDate = edit.ReturnDate
	}

	if returnDate != nil && !errs.Has("returnDate") && !returnDate.After(departure) {
		errs.Add("returnDate", msgReturnBeforeDepart)
	}

	return errs.Err()
}
