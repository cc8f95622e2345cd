package domain

import (
	"context"
	"strings"
	"time"
)

// EventType is the visibility of an event.
type EventType string

const (
	EventTypePublic  EventType = "public"
	EventTypePrivate EventType = "private"
)

// ParseEventType normalizes s and reports whether it names a known visibility.
func ParseEventType(s string) (EventType, bool) {
	switch t := EventType(strings.ToLower(strings.TrimSpace(s))); t {
	case EventTypePublic, EventTypePrivate:
		return t, true
	}
	return "", false
}

// TicketTiers is the per-tier price table of an event.
type TicketTiers struct {
	Regular float64 `json:"regular"`
	VIP     float64 `json:"vip"`
}

// PriceFor returns the price of tier.
func (t TicketTiers) PriceFor(tier Tier) float64 {
	if tier == TierVIP {
		return t.VIP
	}
	return t.Regular
}

// EventOrganizer is the public view of the user who owns an event.
type EventOrganizer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Event represents an organized event. Attendees is a read-side cache of users holding a
// verified ticket; it is only ever extended by ticket verification.
// swagger:model Event
type Event struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Location    string          `json:"location"`
	Type        EventType       `json:"type"`
	OrganizerID string          `json:"organizer_id"`
	Organizer   *EventOrganizer `json:"organizer,omitempty"`
	Attendees   []string        `json:"attendees"`
	TicketPrice float64         `json:"ticket_price"`
	TicketTiers TicketTiers     `json:"ticket_tiers"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewEvent returns a new Event owned by organizerID. ID is typically set by the repository on create.
func NewEvent(title, description, location string, date time.Time, eventType EventType, organizerID string, ticketPrice float64, tiers TicketTiers) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Date:        date,
		Location:    location,
		Type:        eventType,
		OrganizerID: organizerID,
		Attendees:   []string{},
		TicketPrice: ticketPrice,
		TicketTiers: tiers,
	}
}

// IsOrganizer reports whether userID owns the event.
func (e *Event) IsOrganizer(userID string) bool {
	return e.OrganizerID == userID
}

// HasAttendee reports whether userID is already in the attendee set.
func (e *Event) HasAttendee(userID string) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// Validate checks required fields and enum domains.
func (e *Event) Validate() error {
	var errs []string
	if strings.TrimSpace(e.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(e.Description) == "" {
		errs = append(errs, "description is required")
	}
	if strings.TrimSpace(e.Location) == "" {
		errs = append(errs, "location is required")
	}
	if e.Date.IsZero() {
		errs = append(errs, "date is required")
	}
	if _, ok := ParseEventType(string(e.Type)); !ok {
		errs = append(errs, `type must be "public" or "private"`)
	}
	if e.TicketPrice < 0 {
		errs = append(errs, "ticket_price must not be negative")
	}
	if e.TicketTiers.Regular < 0 || e.TicketTiers.VIP < 0 {
		errs = append(errs, "ticket_tiers prices must not be negative")
	}
	if len(errs) > 0 {
		return InvalidInput("%s", strings.Join(errs, "; "))
	}
	return nil
}

// EventPatch holds the optional field updates for an event. Nil fields are left unchanged.
// The organizer is not part of the patch.
type EventPatch struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
	Type        *EventType
	TicketPrice *float64
	TicketTiers *TicketTiers
}

// Apply copies the set fields of p onto e.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.TicketPrice != nil {
		e.TicketPrice = *p.TicketPrice
	}
	if p.TicketTiers != nil {
		e.TicketTiers = *p.TicketTiers
	}
}

// EventFilter narrows the visible event listing. Zero values mean "no constraint".
// Search matches title or description, Location matches location; both case-insensitive substrings.
type EventFilter struct {
	Search   string
	Location string
	Type     EventType
	FromDate *time.Time
	ToDate   *time.Time
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// ListVisible returns public events and the private events organized by userID, ordered by date ascending.
	ListVisible(ctx context.Context, userID string, filter EventFilter) ([]*Event, error)
	// Update persists the mutable fields of event. The organizer column is never written.
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
	// AddAttendee inserts userID into the event's attendee set unless it is already there.
	AddAttendee(ctx context.Context, eventID, userID string) (added bool, err error)
}

// EventService defines the event lifecycle operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	ListVisibleEvents(ctx context.Context, userID string, filter EventFilter) ([]*Event, error)
	UpdateEvent(ctx context.Context, eventID, requesterID string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, requesterID string) error
}
