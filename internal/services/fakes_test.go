package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"eventticketing/internal/domain"
)

// memStore backs the in-memory repositories used by the service tests. Reads return copies so
// services cannot mutate stored rows without going through a repository call.
type memStore struct {
	mu      sync.Mutex
	seq     int
	users   map[string]*domain.User
	events  map[string]*domain.Event
	tickets map[string]*domain.Ticket
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]*domain.User),
		events:  make(map[string]*domain.Event),
		tickets: make(map[string]*domain.Ticket),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) addUser(name, email string) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := domain.NewUser(name, email, "hash", "salt", time.Time{}, time.Time{})
	u.ID = m.nextID("user")
	m.users[u.ID] = u
	return cloneUser(u)
}

func (m *memStore) addEvent(e *domain.Event) *domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID("event")
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	m.events[e.ID] = cloneEvent(e)
	return e
}

func (m *memStore) user(id string) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneUser(m.users[id])
}

func (m *memStore) event(id string) *domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.events[id]; ok {
		return cloneEvent(e)
	}
	return nil
}

func (m *memStore) ticket(id string) *domain.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tickets[id]; ok {
		c := *t
		return &c
	}
	return nil
}

func (m *memStore) ticketCount(eventID, userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tickets {
		if t.EventID == eventID && t.UserID == userID {
			n++
		}
	}
	return n
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	c.RegisteredEvents = append([]string{}, u.RegisteredEvents...)
	return &c
}

func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	c.Attendees = append([]string{}, e.Attendees...)
	return &c
}

func appendUnique(list []string, id string) ([]string, bool) {
	for _, v := range list {
		if v == id {
			return list, false
		}
	}
	return append(list, id), true
}

type fakeUserRepo struct{ *memStore }

func (r fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = r.nextID("user")
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r fakeUserRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r fakeUserRepo) AddRegisteredEvent(ctx context.Context, userID, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	var added bool
	u.RegisteredEvents, added = appendUnique(u.RegisteredEvents, eventID)
	return added, nil
}

func (r fakeUserRepo) RemoveRegisteredEvent(ctx context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		kept := u.RegisteredEvents[:0]
		for _, id := range u.RegisteredEvents {
			if id != eventID {
				kept = append(kept, id)
			}
		}
		u.RegisteredEvents = kept
	}
	return nil
}

type fakeEventRepo struct{ *memStore }

// errTypeCheck mirrors the events.type CHECK constraint.
var errTypeCheck = errors.New(`new row for relation "events" violates check constraint "events_type_check"`)

func checkEventType(e *domain.Event) error {
	if e.Type != domain.EventTypePublic && e.Type != domain.EventTypePrivate {
		return errTypeCheck
	}
	return nil
}

func (r fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if err := checkEventType(e); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = r.nextID("event")
	r.events[e.ID] = cloneEvent(e)
	return nil
}

func (r fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.events[id]; ok {
		return cloneEvent(e), nil
	}
	return nil, domain.ErrEventNotFound
}

func (r fakeEventRepo) ListVisible(ctx context.Context, userID string, f domain.EventFilter) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contains := func(s, sub string) bool {
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	}
	out := []*domain.Event{}
	for _, e := range r.events {
		if e.Type != domain.EventTypePublic && e.OrganizerID != userID {
			continue
		}
		if f.Search != "" && !contains(e.Title, f.Search) && !contains(e.Description, f.Search) {
			continue
		}
		if f.Location != "" && !contains(e.Location, f.Location) {
			continue
		}
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.FromDate != nil && e.Date.Before(*f.FromDate) {
			continue
		}
		if f.ToDate != nil && e.Date.After(*f.ToDate) {
			continue
		}
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	if err := checkEventType(e); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[e.ID]
	if !ok {
		return domain.ErrEventNotFound
	}
	c := cloneEvent(e)
	c.OrganizerID = stored.OrganizerID
	c.Attendees = stored.Attendees
	r.events[e.ID] = c
	return nil
}

func (r fakeEventRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(r.events, id)
	for tid, t := range r.tickets {
		if t.EventID == id {
			delete(r.tickets, tid)
		}
	}
	return nil
}

func (r fakeEventRepo) AddAttendee(ctx context.Context, eventID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return false, domain.ErrEventNotFound
	}
	var added bool
	e.Attendees, added = appendUnique(e.Attendees, userID)
	return added, nil
}

type fakeTicketRepo struct{ *memStore }

func (r fakeTicketRepo) Create(ctx context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tickets {
		if existing.EventID == t.EventID && existing.UserID == t.UserID {
			return domain.ErrAlreadyRegistered
		}
	}
	t.ID = r.nextID("ticket")
	c := *t
	r.tickets[t.ID] = &c
	return nil
}

func (r fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tickets[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, domain.ErrTicketNotFound
}

func (r fakeTicketRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.EventID == eventID && t.UserID == userID {
			c := *t
			return &c, nil
		}
	}
	return nil, domain.ErrTicketNotFound
}

func (r fakeTicketRepo) MarkVerified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return domain.ErrTicketNotFound
	}
	t.Verified = true
	return nil
}

func (r fakeTicketRepo) ListRegisteredEventsByUserID(ctx context.Context, userID string) ([]*domain.RegisteredEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.RegisteredEvent{}
	for _, t := range r.tickets {
		if t.UserID != userID {
			continue
		}
		e := r.events[t.EventID]
		out = append(out, &domain.RegisteredEvent{
			TicketID: t.ID,
			EventID:  e.ID,
			Title:    e.Title,
			Date:     e.Date,
			Location: e.Location,
			Tier:     t.Tier,
			Price:    t.Price,
			Verified: t.Verified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// fakeTransactor runs fn directly; memStore operations are individually atomic.
type fakeTransactor struct {
	calls atomic.Int32
	err   error
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls.Add(1)
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.EventNotification
}

func (f *fakeNotifier) Notify(n domain.EventNotification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

func (f *fakeNotifier) notifications() []domain.EventNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.EventNotification(nil), f.sent...)
}

var errBoom = errors.New("boom")
