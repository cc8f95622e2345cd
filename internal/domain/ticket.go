package domain

import (
	"context"
	"strings"
	"time"
)

// Tier is a named pricing category of an event.
type Tier string

const (
	TierRegular Tier = "regular"
	TierVIP     Tier = "vip"
)

// ParseTier normalizes s into a Tier. An empty string selects TierRegular; anything
// other than a known tier is rejected with ErrInvalidInput.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TierRegular, nil
	case TierRegular, TierVIP:
		return t, nil
	}
	return "", InvalidInput("tier must be %q or %q", TierRegular, TierVIP)
}

// Ticket is issued once per (event, user). Price is captured at issuance and never re-derived.
// swagger:model Ticket
type Ticket struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Tier      Tier      `json:"tier"`
	Price     float64   `json:"price"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTicket returns an unverified ticket. ID is typically set by the repository on create.
func NewTicket(eventID, userID string, tier Tier, price float64, createdAt time.Time) *Ticket {
	return &Ticket{
		EventID:   eventID,
		UserID:    userID,
		Tier:      tier,
		Price:     price,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// RegisteredEvent is a ticket joined with the event it admits to.
// swagger:model RegisteredEvent
type RegisteredEvent struct {
	TicketID string    `json:"ticket_id"`
	EventID  string    `json:"event_id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
	Tier     Tier      `json:"tier"`
	Price    float64   `json:"price"`
	Verified bool      `json:"verified"`
}

// Registration is the result of issuing a ticket.
// swagger:model Registration
type Registration struct {
	TicketID         string  `json:"ticket_id"`
	Tier             Tier    `json:"tier"`
	Price            float64 `json:"price"`
	VerificationLink string  `json:"verification_link"`
}

// VerificationResult describes a redeemed ticket.
// swagger:model VerificationResult
type VerificationResult struct {
	TicketID   string `json:"ticket_id"`
	EventID    string `json:"event_id"`
	EventTitle string `json:"event"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user"`
}

// TicketRepository defines storage operations for tickets.
type TicketRepository interface {
	// Create inserts the ticket. Returns ErrAlreadyRegistered if the (event, user) pair already holds one.
	Create(ctx context.Context, ticket *Ticket) error
	GetByID(ctx context.Context, id string) (*Ticket, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Ticket, error)
	MarkVerified(ctx context.Context, id string) error
	ListRegisteredEventsByUserID(ctx context.Context, userID string) ([]*RegisteredEvent, error)
}

// RegistrationService issues tickets.
type RegistrationService interface {
	Register(ctx context.Context, eventID, userID string, tier string) (*Registration, error)
}

// VerificationService redeems tickets and reads a user's registrations.
type VerificationService interface {
	Verify(ctx context.Context, ticketID, organizerID string) (*VerificationResult, error)
	ListRegistrations(ctx context.Context, userID string) ([]*RegisteredEvent, error)
}
