package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"eventticketing/internal/domain"
)

const eventColumns = `e.id, e.title, e.description, e.date, e.location, e.type, e.organizer_id, e.attendees,
		e.ticket_price, e.ticket_tier_regular, e.ticket_tier_vip, e.created_at, e.updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, date, location, type, organizer_id,
			ticket_price, ticket_tier_regular, ticket_tier_vip, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		e.Title, e.Description, e.Date, e.Location, string(e.Type), e.OrganizerID,
		e.TicketPrice, e.TicketTiers.Regular, e.TicketTiers.VIP, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return err
	}
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		WHERE e.id = $1
	`
	e, err := scanEvent(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListVisible(ctx context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, error) {
	where := []string{`(e.type = 'public' OR (e.type = 'private' AND e.organizer_id = $1))`}
	args := []any{userID}
	n := 2
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(e.title ILIKE $%d OR e.description ILIKE $%d)", n, n))
		args = append(args, likePattern(filter.Search))
		n++
	}
	if filter.Location != "" {
		where = append(where, fmt.Sprintf("e.location ILIKE $%d", n))
		args = append(args, likePattern(filter.Location))
		n++
	}
	if filter.Type != "" {
		where = append(where, fmt.Sprintf("e.type = $%d", n))
		args = append(args, string(filter.Type))
		n++
	}
	if filter.FromDate != nil {
		where = append(where, fmt.Sprintf("e.date >= $%d", n))
		args = append(args, *filter.FromDate)
		n++
	}
	if filter.ToDate != nil {
		where = append(where, fmt.Sprintf("e.date <= $%d", n))
		args = append(args, *filter.ToDate)
		n++
	}
	query := `
		SELECT ` + eventColumns + `, u.name, u.email
		FROM events e
		INNER JOIN users u ON u.id = e.organizer_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY e.date ASC, e.created_at ASC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		org := &domain.EventOrganizer{}
		e, err := scanEvent(rows, &org.Name, &org.Email)
		if err != nil {
			return nil, err
		}
		org.ID = e.OrganizerID
		e.Organizer = org
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, date = $3, location = $4, type = $5,
			ticket_price = $6, ticket_tier_regular = $7, ticket_tier_vip = $8, updated_at = $9
		WHERE id = $10
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query,
		e.Title, e.Description, e.Date, e.Location, string(e.Type),
		e.TicketPrice, e.TicketTiers.Regular, e.TicketTiers.VIP, e.UpdatedAt, e.ID,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrEventNotFound
		}
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrEventNotFound
		}
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *eventRepository) AddAttendee(ctx context.Context, eventID, userID string) (bool, error) {
	query := `
		UPDATE events
		SET attendees = array_append(attendees, $2::uuid), updated_at = NOW()
		WHERE id = $1 AND NOT ($2::uuid = ANY(attendees))
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// scanEvent scans eventColumns followed by any extra destinations.
func scanEvent(row rowScanner, extra ...any) (*domain.Event, error) {
	e := &domain.Event{}
	var eventType string
	var attendees pq.StringArray
	dest := []any{
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &eventType, &e.OrganizerID, &attendees,
		&e.TicketPrice, &e.TicketTiers.Regular, &e.TicketTiers.VIP, &e.CreatedAt, &e.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	e.Type = domain.EventType(eventType)
	e.Attendees = []string(attendees)
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	return e, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns s into a case-insensitive substring pattern with LIKE metacharacters escaped.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
