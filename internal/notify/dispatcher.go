// Package notify delivers attendee notifications after the triggering request has returned.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"eventticketing/internal/domain"

	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 8
	defaultTimeout     = 30 * time.Second
)

// Config bounds a Dispatcher. Zero values fall back to the defaults.
type Config struct {
	Concurrency int
	Timeout     time.Duration
}

// Dispatcher implements domain.Notifier. Each notification runs on its own goroutine with a
// context detached from the request; every recipient gets at most one attempt.
type Dispatcher struct {
	users       domain.UserRepository
	emails      domain.EmailService
	logger      *slog.Logger
	concurrency int
	timeout     time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ domain.Notifier = (*Dispatcher)(nil)

// NewDispatcher returns a Dispatcher that resolves recipients through users and sends through emails.
func NewDispatcher(users domain.UserRepository, emails domain.EmailService, logger *slog.Logger, cfg Config) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Dispatcher{
		users:       users,
		emails:      emails,
		logger:      logger,
		concurrency: cfg.Concurrency,
		timeout:     cfg.Timeout,
	}
}

// Notify schedules n and returns without waiting for delivery.
func (d *Dispatcher) Notify(n domain.EventNotification) {
	if len(n.RecipientIDs) == 0 {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("notification dropped after shutdown", "kind", n.Kind, "event_id", n.EventID, "recipients", len(n.RecipientIDs))
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		d.dispatch(n)
	}()
}

// Wait blocks until every scheduled notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown stops accepting notifications and waits for in-flight ones, or returns ctx.Err()
// once ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) dispatch(n domain.EventNotification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	ids := uniqueIDs(n.RecipientIDs)
	users, err := d.users.ListByIDs(ctx, ids)
	if err != nil {
		d.logger.ErrorContext(ctx, "notification recipients lookup failed",
			"kind", n.Kind, "event_id", n.EventID, "err", err)
		return
	}
	if missing := len(ids) - len(users); missing > 0 {
		d.logger.WarnContext(ctx, "notification recipients not found",
			"kind", n.Kind, "event_id", n.EventID, "missing", missing)
	}

	send := d.emails.SendEventUpdated
	if n.Kind == domain.NotificationEventCancelled {
		send = d.emails.SendEventCancelled
	}

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, u := range users {
		g.Go(func() error {
			err := send(ctx, &domain.EventNoticeEmailData{
				Email:      u.Email,
				Name:       u.Name,
				EventTitle: n.EventTitle,
			})
			if err != nil {
				d.logger.ErrorContext(ctx, "notification failed",
					"kind", n.Kind, "event_id", n.EventID, "user_id", u.ID, "email", u.Email, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
