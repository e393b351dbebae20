package webserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/balogunquadri/banshee-bn-backend/pkg/utils"
	"github.com/balogunquadri/banshee-bn-backend/pkg/validation"
)

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

// createTrip submits a trip request for the caller
func (s *Server) createTrip(c *gin.Context) {
	var req validation.TripRequest
	if errs := bindBody(c, &req); len(errs) > 0 {
		s.respondError(c, errs)
		return
	}

	input, err := s.validator.Trip(c.Request.Context(), &req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	trip, err := s.trips.Create(c.Request.Context(), currentIdentity(c), input)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(gin.H{"trip": trip}, "Trip request created successfully"))
}

// editTrip changes one of the caller's pending trips
func (s *Server) editTrip(c *gin.Context) {
	tripID := validation.CanonicalID(c.Param("tripId"))
	idErrs := validation.TripID(tripID)

	var req validation.EditTripRequest
	if errs := bindBody(c, &req); len(errs) > 0 {
		s.respondError(c, combine(idErrs, errs))
		return
	}

	edit, err := s.validator.Edit(c.Request.Context(), &req)
	if err := combine(idErrs, err); err != nil {
		s.respondError(c, err)
		return
	}

	trip, err := s.trips.Edit(c.Request.Context(), currentIdentity(c), tripID, edit)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(gin.H{"trip": trip}, "Trip request updated successfully"))
}

// getTrips lists the trips of the approver's company
func (s *Server) getTrips(c *gin.Context) {
	status, errs := validation.RequestType(c.Query("type"))
	if len(errs) > 0 {
		s.respondError(c, errs)
		return
	}

	page, limit := pageParams(c)
	trips, pagination, err := s.trips.ListForApprover(c.Request.Context(), currentIdentity(c), status, page, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewPaginatedResponse(trips, pagination, "Requests retrieved"))
}

// getUserTrips lists the caller's own trips
func (s *Server) getUserTrips(c *gin.Context) {
	page, limit := pageParams(c)
	trips, pagination, err := s.trips.ListForUser(c.Request.Context(), currentIdentity(c), page, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewPaginatedResponse(trips, pagination, "User requests successfully retrieved"))
}

// getTrip returns one trip with its stops and history
func (s *Server) getTrip(c *gin.Context) {
	tripID := validation.CanonicalID(c.Param("tripId"))
	if errs := validation.TripID(tripID); len(errs) > 0 {
		s.respondError(c, errs)
		return
	}

	trip, err := s.trips.Get(c.Request.Context(), currentIdentity(c), tripID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(gin.H{"trip": trip}, "Trip retrieved"))
}

// modifyTripStatus approves or rejects a pending trip
func (s *Server) modifyTripStatus(c *gin.Context) {
	tripID := validation.CanonicalID(c.Param("tripId"))
	idErrs := validation.TripID(tripID)

	var req validation.StatusRequest
	if errs := bindBody(c, &req); len(errs) > 0 {
		s.respondError(c, combine(idErrs, errs))
		return
	}
	if err := combine(idErrs, s.validator.Struct(&req).Err()); err != nil {
		s.respondError(c, err)
		return
	}

	status := models.TripStatus(req.Status)
	trip, err := s.trips.ModifyStatus(c.Request.Context(), currentIdentity(c), tripID, status)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(trip, fmt.Sprintf("Trip %s successfully", status)))
}

// getMostVisited returns the company's most travelled destinations
func (s *Server) getMostVisited(c *gin.Context) {
	visits, err := s.trips.MostVisited(c.Request.Context(), currentIdentity(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(visits, "Successfully retrieved company user's most travelled destinations"))
}
