package domain

import (
	"context"
	"time"
)

// User represents a registered user. RegisteredEvents is a read-side cache of the events the
// user holds a ticket for; tickets are the source of truth.
// swagger:model User
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Salt             string    `json:"-"`
	RegisteredEvents []string  `json:"registered_events"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(name, email, passwordHash, salt string, createdAt, updatedAt time.Time) *User {
	return &User{
		Name:             name,
		Email:            email,
		PasswordHash:     passwordHash,
		Salt:             salt,
		RegisteredEvents: []string{},
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}
}

// HasRegisteredEvent reports whether eventID is already in the user's registered list.
func (u *User) HasRegisteredEvent(eventID string) bool {
	for _, id := range u.RegisteredEvents {
		if id == eventID {
			return true
		}
	}
	return false
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// Caller is the identity a verified token was issued to.
type Caller struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// TokenVerifier verifies a token and returns the caller it was issued to.
type TokenVerifier interface {
	Verify(token string) (*Caller, error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*User, error)
	// AddRegisteredEvent appends eventID to the user's list unless it is already there.
	AddRegisteredEvent(ctx context.Context, userID, eventID string) (added bool, err error)
	// RemoveRegisteredEvent strips eventID from every user's list.
	RemoveRegisteredEvent(ctx context.Context, eventID string) error
}

// AuthService defines sign-up and login.
type AuthService interface {
	SignUp(ctx context.Context, name, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (token string, err error)
}
