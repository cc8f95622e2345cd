package controllers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

// CreateEventRequest is the request body for POST /event.
type CreateEventRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Date        string              `json:"date" example:"2026-05-01T18:00:00Z"`
	Location    string              `json:"location"`
	Type        string              `json:"type" enums:"public,private"`
	TicketPrice float64             `json:"ticket_price"`
	TicketTiers *domain.TicketTiers `json:"ticket_tiers"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		errs = append(errs, "description is required")
	}
	if strings.TrimSpace(c.Location) == "" {
		errs = append(errs, "location is required")
	}
	if strings.TrimSpace(c.Date) == "" {
		errs = append(errs, "date is required")
	} else if _, err := helpers.ParseDate(c.Date); err != nil {
		errs = append(errs, "date must be RFC 3339 or YYYY-MM-DD")
	}
	if c.Type != "" {
		if _, ok := domain.ParseEventType(c.Type); !ok {
			errs = append(errs, `type must be "public" or "private"`)
		}
	}
	return errs
}

func (c CreateEventRequest) toEvent(organizerID string) *domain.Event {
	date, _ := helpers.ParseDate(c.Date)
	eventType, _ := domain.ParseEventType(c.Type)
	var tiers domain.TicketTiers
	if c.TicketTiers != nil {
		tiers = *c.TicketTiers
	}
	return domain.NewEvent(strings.TrimSpace(c.Title), strings.TrimSpace(c.Description), strings.TrimSpace(c.Location),
		date, eventType, organizerID, c.TicketPrice, tiers)
}

// UpdateEventRequest is the request body for PUT /event/{eventID}. All fields optional; omitted
// fields are unchanged. ticket_tiers replaces the whole tier table.
type UpdateEventRequest struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Date        *string             `json:"date"`
	Location    *string             `json:"location"`
	Type        *string             `json:"type" enums:"public,private"`
	TicketPrice *float64            `json:"ticket_price"`
	TicketTiers *domain.TicketTiers `json:"ticket_tiers"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	blank := func(s *string) bool { return s != nil && strings.TrimSpace(*s) == "" }
	if blank(u.Title) {
		errs = append(errs, "title must not be empty")
	}
	if blank(u.Description) {
		errs = append(errs, "description must not be empty")
	}
	if blank(u.Location) {
		errs = append(errs, "location must not be empty")
	}
	if u.Date != nil {
		if _, err := helpers.ParseDate(*u.Date); err != nil {
			errs = append(errs, "date must be RFC 3339 or YYYY-MM-DD")
		}
	}
	if u.Type != nil {
		if _, ok := domain.ParseEventType(*u.Type); !ok {
			errs = append(errs, `type must be "public" or "private"`)
		}
	}
	return errs
}

func (u UpdateEventRequest) toPatch() domain.EventPatch {
	trimmed := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	patch := domain.EventPatch{
		Title:       trimmed(u.Title),
		Description: trimmed(u.Description),
		Location:    trimmed(u.Location),
		TicketPrice: u.TicketPrice,
		TicketTiers: u.TicketTiers,
	}
	if u.Date != nil {
		d, _ := helpers.ParseDate(*u.Date)
		patch.Date = &d
	}
	if u.Type != nil {
		t, _ := domain.ParseEventType(*u.Type)
		patch.Type = &t
	}
	return patch
}

// EventSuccessResponse is the success response envelope for a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success response envelope for GET /event.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SearchEventsResponse is the data of GET /event/search.
type SearchEventsResponse struct {
	Events []*domain.Event `json:"events"`
	Count  int             `json:"count"`
}

// SearchEventsSuccessResponse is the success response envelope for GET /event/search.
type SearchEventsSuccessResponse struct {
	Data  SearchEventsResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// DeleteEventResponse is the data of DELETE /event/{eventID}.
type DeleteEventResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Create an event. The authenticated user becomes its organizer. type defaults to public.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (organizer)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /event [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event := req.toEvent(caller.UserID)
	if err := c.Service.CreateEvent(r.Context(), event); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary List visible events
// @Description Public events plus the caller's own private events, ordered by date. Each event carries its organizer's name and email.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (user)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /event [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Service.ListVisibleEvents(r.Context(), caller.UserID, domain.EventFilter{})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// SearchEvents godoc
// @Summary Search visible events
// @Description Filters the visible events. Unparseable dates and unknown types are ignored.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param search query string false "Case-insensitive match on title or description"
// @Param location query string false "Case-insensitive match on location"
// @Param type query string false "public or private"
// @Param fromDate query string false "Inclusive lower bound (RFC 3339 or YYYY-MM-DD)"
// @Param toDate query string false "Inclusive upper bound (RFC 3339 or YYYY-MM-DD)"
// @Success 200 {object} controllers.SearchEventsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (user)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /event/search [get]
func (c *EventController) SearchEvents(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Service.ListVisibleEvents(r.Context(), caller.UserID, parseEventFilter(r.URL.Query()))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SearchEventsResponse{Events: events, Count: len(events)})
}

// parseEventFilter builds a filter from query parameters, dropping values that do not parse.
func parseEventFilter(q url.Values) domain.EventFilter {
	f := domain.EventFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Location: strings.TrimSpace(q.Get("location")),
	}
	if t, ok := domain.ParseEventType(q.Get("type")); ok {
		f.Type = t
	}
	if d, err := helpers.ParseDate(q.Get("fromDate")); err == nil {
		f.FromDate = &d
	}
	if d, err := helpers.ParseDate(q.Get("toDate")); err == nil {
		if len(strings.TrimSpace(q.Get("toDate"))) == len(time.DateOnly) {
			// a bare date bounds the whole day
			d = d.Add(24*time.Hour - time.Nanosecond)
		}
		f.ToDate = &d
	}
	return f
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Organizer-only. Omitted fields are unchanged. Attendees are emailed after the response.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /event/{eventID} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, caller.UserID, req.toPatch())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Organizer-only. Removes the event and its tickets. Attendees are emailed after the response.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains id and deleted"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /event/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), eventID, caller.UserID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteEventResponse{ID: eventID, Deleted: true})
}
