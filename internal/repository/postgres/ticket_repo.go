package postgres

import (
	"context"
	"database/sql"

	"eventticketing/internal/domain"
)

const ticketColumns = `id, event_id, user_id, tier, price, verified, created_at, updated_at`

type ticketRepository struct {
	DB *sql.DB
}

func NewTicketRepository(db *sql.DB) domain.TicketRepository {
	return &ticketRepository{
		DB: db,
	}
}

func (r *ticketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	query := `
		INSERT INTO tickets (event_id, user_id, tier, price, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		t.EventID, t.UserID, string(t.Tier), t.Price, t.Verified, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return scanTicket(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
}

func (r *ticketRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 AND user_id = $2`
	return scanTicket(conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, userID))
}

func (r *ticketRepository) MarkVerified(ctx context.Context, id string) error {
	query := `UPDATE tickets SET verified = TRUE, updated_at = NOW() WHERE id = $1`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *ticketRepository) ListRegisteredEventsByUserID(ctx context.Context, userID string) ([]*domain.RegisteredEvent, error) {
	query := `
		SELECT t.id, t.event_id, e.title, e.date, e.location, t.tier, t.price, t.verified
		FROM tickets t
		INNER JOIN events e ON e.id = t.event_id
		WHERE t.user_id = $1
		ORDER BY e.date ASC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RegisteredEvent
	for rows.Next() {
		re := &domain.RegisteredEvent{}
		var tier string
		if err := rows.Scan(&re.TicketID, &re.EventID, &re.Title, &re.Date, &re.Location, &tier, &re.Price, &re.Verified); err != nil {
			return nil, err
		}
		re.Tier = domain.Tier(tier)
		out = append(out, re)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.RegisteredEvent{}
	}
	return out, nil
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	t := &domain.Ticket{}
	var tier string
	err := row.Scan(&t.ID, &t.EventID, &t.UserID, &tier, &t.Price, &t.Verified, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}
	t.Tier = domain.Tier(tier)
	return t, nil
}
