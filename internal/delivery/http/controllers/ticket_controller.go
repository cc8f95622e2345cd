package controllers

import (
	"log/slog"
	"net/http"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

// RegisterEventRequest is the optional request body for POST /event/registerEvent/{eventID}.
type RegisterEventRequest struct {
	Tier string `json:"tier" enums:"regular,vip"`
}

// Validate implements Validator.
func (r RegisterEventRequest) Validate() []string {
	if _, err := domain.ParseTier(r.Tier); err != nil {
		return []string{`tier must be "regular" or "vip"`}
	}
	return nil
}

// RegistrationSuccessResponse is the success response envelope for a registration (201).
type RegistrationSuccessResponse struct {
	Data  *domain.Registration `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// VerificationSuccessResponse is the success response envelope for a ticket verification.
type VerificationSuccessResponse struct {
	Data  *domain.VerificationResult `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// RegisteredEventsSuccessResponse is the success response envelope for GET /event/getRegisteredEvents.
type RegisteredEventsSuccessResponse struct {
	Data  []*domain.RegisteredEvent `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

type TicketController struct {
	Logger       *slog.Logger
	Registration domain.RegistrationService
	Verification domain.VerificationService
}

func NewTicketController(logger *slog.Logger, reg domain.RegistrationService, ver domain.VerificationService) *TicketController {
	return &TicketController{
		Logger:       logger,
		Registration: reg,
		Verification: ver,
	}
}

// RegisterEvent godoc
// @Summary Register for an event
// @Description Issues one ticket per user and event. The price is captured from the event's tier table. The body may be omitted (tier defaults to regular).
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body RegisterEventRequest false "Ticket tier"
// @Success 201 {object} controllers.RegistrationSuccessResponse "data contains ticket_id, tier, price and verification_link"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already registered)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /event/registerEvent/{eventID} [post]
func (c *TicketController) RegisterEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req RegisterEventRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	reg, err := c.Registration.Register(r.Context(), eventID, caller.UserID, req.Tier)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, reg)
}

// VerifyTicket godoc
// @Summary Verify a ticket
// @Description Organizer-only. Marks the ticket verified and records the holder as an attendee. Verifying twice succeeds with the same result.
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param ticketID path string true "Ticket ID (UUID)"
// @Success 200 {object} controllers.VerificationSuccessResponse "data contains event and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /event/verify/{ticketID} [patch]
func (c *TicketController) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	ticketID, ok := helpers.PathUUID(w, r, "ticketID")
	if !ok {
		return
	}
	res, err := c.Verification.Verify(r.Context(), ticketID, caller.UserID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// GetRegisteredEvents godoc
// @Summary List my registrations
// @Description Tickets held by the caller joined with their events, ordered by event date.
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.RegisteredEventsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (user)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /event/getRegisteredEvents [get]
func (c *TicketController) GetRegisteredEvents(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	regs, err := c.Verification.ListRegistrations(r.Context(), caller.UserID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, regs)
}
