package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct {
	salt string
}

func (f *fakePasswordHasher) GenerateSalt() (string, error) { return f.salt, nil }
func (f *fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash-" + salt + "-" + password, nil
}
func (f *fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash-"+salt+"-"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	err        error
	lastExpiry time.Duration
}

func (f *fakeTokenIssuer) Issue(userID, email string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastExpiry = expiry
	return "token-" + userID, nil
}

func TestAuthService_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		store := newMemStore()
		svc := NewAuthService(fakeUserRepo{store}, &fakePasswordHasher{salt: "s"}, &fakeTokenIssuer{}, time.Hour, clock.NewFixed(testNow))

		user, err := svc.SignUp(ctx, " Alice ", "Alice@Example.com", "password8")
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "hash-s-password8", user.PasswordHash)
		assert.Equal(t, "s", user.Salt)
		assert.Equal(t, testNow, user.CreatedAt)
		assert.Empty(t, user.RegisteredEvents)
	})

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{name: "invalid email", userName: "Alice", email: "not-an-email", password: "password8"},
		{name: "short password", userName: "Alice", email: "alice@example.com", password: "short"},
		{name: "missing name", userName: " ", email: "alice@example.com", password: "password8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(fakeUserRepo{newMemStore()}, &fakePasswordHasher{salt: "s"}, &fakeTokenIssuer{}, time.Hour, clock.NewFixed(testNow))
			_, err := svc.SignUp(ctx, tt.userName, tt.email, tt.password)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		store := newMemStore()
		svc := NewAuthService(fakeUserRepo{store}, &fakePasswordHasher{salt: "s"}, &fakeTokenIssuer{}, time.Hour, clock.NewFixed(testNow))
		_, err := svc.SignUp(ctx, "Alice", "alice@example.com", "password8")
		require.NoError(t, err)
		_, err = svc.SignUp(ctx, "Alice Again", "ALICE@example.com", "password9")
		require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	issuer := &fakeTokenIssuer{}
	svc := NewAuthService(fakeUserRepo{store}, &fakePasswordHasher{salt: "s"}, issuer, 2*time.Hour, clock.NewFixed(testNow))
	user, err := svc.SignUp(ctx, "Login User", "login@example.com", "password8")
	require.NoError(t, err)

	token, err := svc.Login(ctx, " LOGIN@example.com ", "password8")
	require.NoError(t, err)
	assert.Equal(t, "token-"+user.ID, token)
	assert.Equal(t, 2*time.Hour, issuer.lastExpiry)

	_, err = svc.Login(ctx, "login@example.com", "wrong-password")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password8")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	issuer.err = errBoom
	_, err = svc.Login(ctx, "login@example.com", "password8")
	require.ErrorIs(t, err, errBoom)
}
