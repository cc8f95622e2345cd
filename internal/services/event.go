package services

import (
	"context"
	"fmt"
	"time"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	tx             domain.Transactor
	notifier       domain.Notifier
	clock          clock.Clock
	contextTimeout time.Duration
}

// NewEventService returns an EventService. Attendee notifications for updates and deletions are
// handed to notifier after the change is persisted.
func NewEventService(eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	tx domain.Transactor,
	notifier domain.Notifier,
	clk clock.Clock,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		tx:             tx,
		notifier:       notifier,
		clock:          clk,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OrganizerID == "" {
		return domain.InvalidInput("event organizer is required")
	}
	if _, err := s.userRepo.GetByID(ctx, event.OrganizerID); err != nil {
		return err
	}

	if event.Type == "" {
		event.Type = domain.EventTypePublic
	}
	normalizeEventType(event)
	if err := event.Validate(); err != nil {
		return err
	}
	if event.Attendees == nil {
		event.Attendees = []string{}
	}

	now := s.clock.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) ListVisibleEvents(ctx context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListVisible(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, requesterID string, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.organizedEvent(ctx, eventID, requesterID)
	if err != nil {
		return nil, err
	}

	patch.Apply(event)
	normalizeEventType(event)
	if err := event.Validate(); err != nil {
		return nil, err
	}
	event.UpdatedAt = s.clock.Now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.notify(domain.NotificationEventUpdated, event.ID, event.Title, event.Attendees)
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, requesterID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.organizedEvent(ctx, eventID, requesterID)
	if err != nil {
		return err
	}
	attendees := append([]string(nil), event.Attendees...)
	title := event.Title

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.eventRepo.Delete(ctx, event.ID); err != nil {
			return err
		}
		if err := s.userRepo.RemoveRegisteredEvent(ctx, event.ID); err != nil {
			return fmt.Errorf("remove registered event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(domain.NotificationEventCancelled, event.ID, title, attendees)
	return nil
}

// normalizeEventType stores the canonical spelling of a recognised type; anything else is left
// for Validate to reject.
func normalizeEventType(e *domain.Event) {
	if t, ok := domain.ParseEventType(string(e.Type)); ok {
		e.Type = t
	}
}

// organizedEvent loads the requester and the event, and checks the requester organizes it.
func (s *eventService) organizedEvent(ctx context.Context, eventID, requesterID string) (*domain.Event, error) {
	if _, err := s.userRepo.GetByID(ctx, requesterID); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsOrganizer(requesterID) {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

func (s *eventService) notify(kind domain.NotificationKind, eventID, title string, recipients []string) {
	if s.notifier == nil || len(recipients) == 0 {
		return
	}
	s.notifier.Notify(domain.EventNotification{
		Kind:         kind,
		EventID:      eventID,
		EventTitle:   title,
		RecipientIDs: append([]string(nil), recipients...),
	})
}
