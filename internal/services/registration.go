package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

type registrationService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	ticketRepo     domain.TicketRepository
	tx             domain.Transactor
	clock          clock.Clock
	baseURL        string
	contextTimeout time.Duration
}

// NewRegistrationService returns a RegistrationService. Verification links are built as
// <baseURL>/verify/<ticketID>.
func NewRegistrationService(eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	ticketRepo domain.TicketRepository,
	tx domain.Transactor,
	clk clock.Clock,
	baseURL string,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		ticketRepo:     ticketRepo,
		tx:             tx,
		clock:          clk,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		contextTimeout: timeout,
	}
}

func (s *registrationService) Register(ctx context.Context, eventID, userID string, tier string) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	t, err := domain.ParseTier(tier)
	if err != nil {
		return nil, err
	}

	existing, err := s.ticketRepo.GetByEventAndUser(ctx, event.ID, userID)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrAlreadyRegistered
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("check existing ticket: %w", err)
	}

	ticket := domain.NewTicket(event.ID, userID, t, event.TicketTiers.PriceFor(t), s.clock.Now())
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// The (event, user) unique constraint settles concurrent registrations.
		if err := s.ticketRepo.Create(ctx, ticket); err != nil {
			if errors.Is(err, domain.ErrAlreadyRegistered) {
				return err
			}
			return fmt.Errorf("create ticket: %w", err)
		}
		if _, err := s.userRepo.AddRegisteredEvent(ctx, userID, event.ID); err != nil {
			return fmt.Errorf("add registered event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &domain.Registration{
		TicketID:         ticket.ID,
		Tier:             ticket.Tier,
		Price:            ticket.Price,
		VerificationLink: s.baseURL + "/verify/" + ticket.ID,
	}, nil
}
