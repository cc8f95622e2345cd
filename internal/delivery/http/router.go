package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	_ "eventticketing/docs"
	"eventticketing/internal/delivery/http/controllers"
	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Auth   *controllers.AuthController
	Events *controllers.EventController
	Ticket *controllers.TicketController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, verifier domain.TokenVerifier, db Pinger, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /api/v1/auth/register", c.Auth.SignUp)
	mux.HandleFunc("POST /api/v1/auth/login", c.Auth.Login)

	// Events
	mux.HandleFunc("POST /api/v1/event", auth(c.Events.CreateEvent))
	mux.HandleFunc("GET /api/v1/event", auth(c.Events.ListEvents))
	mux.HandleFunc("GET /api/v1/event/search", auth(c.Events.SearchEvents))
	mux.HandleFunc("PUT /api/v1/event/{eventID}", auth(c.Events.UpdateEvent))
	mux.HandleFunc("DELETE /api/v1/event/{eventID}", auth(c.Events.DeleteEvent))

	// Tickets
	mux.HandleFunc("POST /api/v1/event/registerEvent/{eventID}", auth(c.Ticket.RegisterEvent))
	mux.HandleFunc("PATCH /api/v1/event/verify/{ticketID}", auth(c.Ticket.VerifyTicket))
	mux.HandleFunc("GET /api/v1/event/getRegisteredEvents", auth(c.Ticket.GetRegisteredEvents))

	mux.HandleFunc("GET /health", healthHandler(db, logger))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// WithMiddleware wraps the router in the shared middleware chain: CORS, then access logging.
func WithMiddleware(next http.Handler, allowedOrigins []string, logger *slog.Logger) http.Handler {
	return middleware.CORS(allowedOrigins, middleware.LoggingMiddleware(logger, next))
}

// healthHandler godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.status: ok"
// @Failure 503 {object} helpers.APIResponse "error.code: internal_error"
// @Router /health [get]
func healthHandler(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				logger.WarnContext(r.Context(), "health check failed", "err", err)
				helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeInternalError, "database unavailable")
				return
			}
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
