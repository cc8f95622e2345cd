package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistrationService struct {
	err      error
	lastTier string
	calls    int
}

func (f *fakeRegistrationService) Register(ctx context.Context, eventID, userID string, tier string) (*domain.Registration, error) {
	f.calls++
	f.lastTier = tier
	if f.err != nil {
		return nil, f.err
	}
	t, _ := domain.ParseTier(tier)
	price := 10.0
	if t == domain.TierVIP {
		price = 25
	}
	return &domain.Registration{
		TicketID:         testTicketID,
		Tier:             t,
		Price:            price,
		VerificationLink: "http://localhost:8080/api/v1/event/verify/" + testTicketID,
	}, nil
}

type fakeVerificationService struct {
	err         error
	lastTicket  string
	lastCaller  string
	regs        []*domain.RegisteredEvent
	verifyCalls int
}

func (f *fakeVerificationService) Verify(ctx context.Context, ticketID, organizerID string) (*domain.VerificationResult, error) {
	f.verifyCalls++
	f.lastTicket, f.lastCaller = ticketID, organizerID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.VerificationResult{TicketID: ticketID, EventID: testEventID, EventTitle: "Go Meetup", UserID: "u-2", UserName: "Ann"}, nil
}

func (f *fakeVerificationService) ListRegistrations(ctx context.Context, userID string) ([]*domain.RegisteredEvent, error) {
	f.lastCaller = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.regs, nil
}

func TestTicketController_RegisterEvent(t *testing.T) {
	pv := map[string]string{"eventID": testEventID}

	t.Run("vip registration", func(t *testing.T) {
		reg := &fakeRegistrationService{}
		c := NewTicketController(testLogger, reg, &fakeVerificationService{})
		rr := httptest.NewRecorder()
		c.RegisterEvent(rr, newRequest(http.MethodPost, "/api/v1/event/registerEvent/"+testEventID, `{"tier":"vip"}`, true, pv))

		require.Equal(t, http.StatusCreated, rr.Code)
		var got map[string]any
		decodeData(t, rr, &got)
		assert.Equal(t, "vip", got["tier"])
		assert.Equal(t, 25.0, got["price"])
		assert.Equal(t, testTicketID, got["ticket_id"])
		assert.Equal(t, "http://localhost:8080/api/v1/event/verify/"+testTicketID, got["verification_link"])
	})

	t.Run("body may be omitted", func(t *testing.T) {
		reg := &fakeRegistrationService{}
		c := NewTicketController(testLogger, reg, &fakeVerificationService{})
		rr := httptest.NewRecorder()
		c.RegisterEvent(rr, newRequest(http.MethodPost, "/api/v1/event/registerEvent/"+testEventID, "", true, pv))

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "", reg.lastTier)
	})

	tests := []struct {
		name       string
		eventID    string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
		wantCalls  int
	}{
		{name: "unknown tier", eventID: testEventID, body: `{"tier":"gold"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "malformed event id", eventID: "abc", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "already registered", eventID: testEventID, body: `{}`, svcErr: domain.ErrAlreadyRegistered, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeConflict, wantCalls: 1},
		{name: "event not found", eventID: testEventID, body: `{}`, svcErr: domain.ErrEventNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &fakeRegistrationService{err: tt.svcErr}
			c := NewTicketController(testLogger, reg, &fakeVerificationService{})
			rr := httptest.NewRecorder()
			c.RegisterEvent(rr, newRequest(http.MethodPost, "/api/v1/event/registerEvent/"+tt.eventID, tt.body, true, map[string]string{"eventID": tt.eventID}))

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCode, decode(t, rr).Error.Code)
			assert.Equal(t, tt.wantCalls, reg.calls)
		})
	}

	t.Run("unauthenticated", func(t *testing.T) {
		c := NewTicketController(testLogger, &fakeRegistrationService{}, &fakeVerificationService{})
		rr := httptest.NewRecorder()
		c.RegisterEvent(rr, newRequest(http.MethodPost, "/api/v1/event/registerEvent/"+testEventID, "", false, pv))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestTicketController_VerifyTicket(t *testing.T) {
	pv := map[string]string{"ticketID": testTicketID}

	t.Run("verified", func(t *testing.T) {
		ver := &fakeVerificationService{}
		c := NewTicketController(testLogger, &fakeRegistrationService{}, ver)
		rr := httptest.NewRecorder()
		c.VerifyTicket(rr, newRequest(http.MethodPatch, "/api/v1/event/verify/"+testTicketID, "", true, pv))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, testTicketID, ver.lastTicket)
		assert.Equal(t, testUserID, ver.lastCaller)
		var got map[string]any
		decodeData(t, rr, &got)
		assert.Equal(t, "Go Meetup", got["event"])
		assert.Equal(t, "Ann", got["user"])
	})

	t.Run("not organizer", func(t *testing.T) {
		c := NewTicketController(testLogger, &fakeRegistrationService{}, &fakeVerificationService{err: domain.ErrForbidden})
		rr := httptest.NewRecorder()
		c.VerifyTicket(rr, newRequest(http.MethodPatch, "/api/v1/event/verify/"+testTicketID, "", true, pv))
		require.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, helpers.ErrCodeForbidden, decode(t, rr).Error.Code)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		c := NewTicketController(testLogger, &fakeRegistrationService{}, &fakeVerificationService{err: domain.ErrTicketNotFound})
		rr := httptest.NewRecorder()
		c.VerifyTicket(rr, newRequest(http.MethodPatch, "/api/v1/event/verify/"+testTicketID, "", true, pv))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		ver := &fakeVerificationService{}
		c := NewTicketController(testLogger, &fakeRegistrationService{}, ver)
		rr := httptest.NewRecorder()
		c.VerifyTicket(rr, newRequest(http.MethodPatch, "/api/v1/event/verify/xyz", "", true, map[string]string{"ticketID": "xyz"}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, ver.verifyCalls)
	})
}

func TestTicketController_GetRegisteredEvents(t *testing.T) {
	ver := &fakeVerificationService{regs: []*domain.RegisteredEvent{{
		TicketID: testTicketID,
		EventID:  testEventID,
		Title:    "Go Meetup",
		Date:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Location: "Berlin",
		Tier:     domain.TierVIP,
		Price:    25,
	}}}
	c := NewTicketController(testLogger, &fakeRegistrationService{}, ver)
	rr := httptest.NewRecorder()
	c.GetRegisteredEvents(rr, newRequest(http.MethodGet, "/api/v1/event/getRegisteredEvents", "", true, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, testUserID, ver.lastCaller)
	var regs []domain.RegisteredEvent
	decodeData(t, rr, &regs)
	require.Len(t, regs, 1)
	assert.Equal(t, domain.TierVIP, regs[0].Tier)
	assert.Equal(t, 25.0, regs[0].Price)

	rr = httptest.NewRecorder()
	NewTicketController(testLogger, &fakeRegistrationService{}, &fakeVerificationService{err: domain.ErrUserNotFound}).
		GetRegisteredEvents(rr, newRequest(http.MethodGet, "/api/v1/event/getRegisteredEvents", "", true, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
