package services

import (
	"context"
	"fmt"
	"time"

	"eventticketing/internal/domain"
)

type verificationService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	ticketRepo     domain.TicketRepository
	tx             domain.Transactor
	contextTimeout time.Duration
}

// NewVerificationService returns a VerificationService.
func NewVerificationService(eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	ticketRepo domain.TicketRepository,
	tx domain.Transactor,
	timeout time.Duration,
) domain.VerificationService {
	return &verificationService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		ticketRepo:     ticketRepo,
		tx:             tx,
		contextTimeout: timeout,
	}
}

// Verify redeems a ticket on behalf of the event's organizer. Re-verifying a ticket succeeds and
// leaves the attendee and registered-event lists unchanged.
func (s *verificationService) Verify(ctx context.Context, ticketID, organizerID string) (*domain.VerificationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var result *domain.VerificationResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		event, err := s.eventRepo.GetByID(ctx, ticket.EventID)
		if err != nil {
			return err
		}
		if !event.IsOrganizer(organizerID) {
			return domain.ErrForbidden
		}
		user, err := s.userRepo.GetByID(ctx, ticket.UserID)
		if err != nil {
			return err
		}

		if !ticket.Verified {
			if err := s.ticketRepo.MarkVerified(ctx, ticket.ID); err != nil {
				return fmt.Errorf("mark verified: %w", err)
			}
		}
		if _, err := s.eventRepo.AddAttendee(ctx, event.ID, user.ID); err != nil {
			return fmt.Errorf("add attendee: %w", err)
		}
		if _, err := s.userRepo.AddRegisteredEvent(ctx, user.ID, event.ID); err != nil {
			return fmt.Errorf("add registered event: %w", err)
		}

		result = &domain.VerificationResult{
			TicketID:   ticket.ID,
			EventID:    event.ID,
			EventTitle: event.Title,
			UserID:     user.ID,
			UserName:   user.Name,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *verificationService) ListRegistrations(ctx context.Context, userID string) ([]*domain.RegisteredEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	regs, err := s.ticketRepo.ListRegisteredEventsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if regs == nil {
		regs = []*domain.RegisteredEvent{}
	}
	return regs, nil
}
