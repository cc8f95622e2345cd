package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testUserID   = "11111111-1111-1111-1111-111111111111"
	testEventID  = "22222222-2222-2222-2222-222222222222"
	testTicketID = "33333333-3333-3333-3333-333333333333"
)

// newRequest builds a request, optionally authenticated as testUserID, with the given path values.
func newRequest(method, target, body string, authed bool, pathValues map[string]string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if authed {
		req = req.WithContext(middleware.WithCaller(context.Background(), &domain.Caller{UserID: testUserID, Email: "ann@example.com"}))
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	return req
}

type envelope struct {
	Data  json.RawMessage   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	env := decode(t, rr)
	require.Nil(t, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, dest))
}
