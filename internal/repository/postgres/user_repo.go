package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"eventticketing/internal/domain"
)

const userColumns = `id, name, email, password_hash, salt, registered_events, created_at, updated_at`

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, salt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.Salt, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	if u.RegisteredEvents == nil {
		u.RegisteredEvents = []string{}
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(conn(ctx, r.DB).QueryRowContext(ctx, query, email))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ANY($1::uuid[])
		ORDER BY created_at
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) AddRegisteredEvent(ctx context.Context, userID, eventID string) (bool, error) {
	query := `
		UPDATE users
		SET registered_events = array_append(registered_events, $2::uuid), updated_at = NOW()
		WHERE id = $1 AND NOT ($2::uuid = ANY(registered_events))
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, userID, eventID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *userRepository) RemoveRegisteredEvent(ctx context.Context, eventID string) error {
	query := `
		UPDATE users
		SET registered_events = array_remove(registered_events, $1::uuid), updated_at = NOW()
		WHERE $1::uuid = ANY(registered_events)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, eventID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var registered pq.StringArray
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Salt, &registered, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	u.RegisteredEvents = []string(registered)
	if u.RegisteredEvents == nil {
		u.RegisteredEvents = []string{}
	}
	return u, nil
}
