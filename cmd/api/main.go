// @title Event Ticketing API
// @version 1.0
// @description Organizers publish events, attendees register for tickets, organizers verify tickets at the door.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"eventticketing/config"
	"eventticketing/internal/adapters/auth"
	"eventticketing/internal/adapters/email"
	"eventticketing/internal/clock"
	httpdelivery "eventticketing/internal/delivery/http"
	"eventticketing/internal/delivery/http/controllers"
	"eventticketing/internal/domain"
	"eventticketing/internal/notify"
	"eventticketing/internal/repository/postgres"
	"eventticketing/internal/services"
	"eventticketing/migrations"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := db.PingContext(startupCtx); err != nil {
		return err
	}
	if err := migrations.Apply(startupCtx, db); err != nil {
		return err
	}
	logger.Info("database ready")

	clk := clock.NewSystem()
	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	tx := postgres.NewTransactor(db)

	mailer, err := email.NewMailer(cfg.MailerConfig(), logger)
	if err != nil {
		return err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	emailSvc := services.NewEmailService(mailer, renderer, logger)
	dispatcher := notify.NewDispatcher(userRepo, emailSvc, logger, notify.Config{
		Concurrency: cfg.NotifyConcurrency,
		Timeout:     cfg.NotifyTimeout,
	})

	notifier, stopNotifier, err := notificationTransport(cfg, dispatcher, logger)
	if err != nil {
		return err
	}
	defer stopNotifier()

	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, clk)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	authSvc := services.NewAuthService(userRepo, hasher, issuer, cfg.JWTExpiry, clk)
	eventSvc := services.NewEventService(eventRepo, userRepo, tx, notifier, clk, cfg.ContextTimeout)
	registrationSvc := services.NewRegistrationService(eventRepo, userRepo, ticketRepo, tx, clk, cfg.BaseURL, cfg.ContextTimeout)
	verificationSvc := services.NewVerificationService(eventRepo, userRepo, ticketRepo, tx, cfg.ContextTimeout)

	router := httpdelivery.NewRouter(httpdelivery.Controllers{
		Auth:   controllers.NewAuthController(logger, authSvc),
		Events: controllers.NewEventController(logger, eventSvc),
		Ticket: controllers.NewTicketController(logger, registrationSvc, verificationSvc),
	}, verifier, db, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpdelivery.WithMiddleware(router, cfg.CORSAllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", server.Addr, "env", cfg.Environment)
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown", "err", err)
	}
	// Pending notifications still need the database, so drain them before db.Close runs.
	stopNotifier()
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Warn("notifications still in flight at shutdown", "err", err)
	}
	logger.Info("server stopped")
	return serveErr
}

// notificationTransport returns the Notifier handed to the event service. With the rabbitmq
// transport, notifications are published to the queue and a consumer feeds them back into the
// dispatcher. The returned stop func halts the consumer and closes the broker; it is safe to call
// more than once.
func notificationTransport(cfg *config.Config, dispatcher *notify.Dispatcher, logger *slog.Logger) (domain.Notifier, func(), error) {
	if cfg.NotifyTransport != "rabbitmq" {
		return dispatcher, func() {}, nil
	}

	broker, err := notify.DialBroker(cfg.BrokerConfig())
	if err != nil {
		return nil, nil, err
	}
	deliveries, err := broker.Deliveries()
	if err != nil {
		broker.Close()
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		notify.NewConsumer(dispatcher, logger).Run(ctx, deliveries)
	}()
	logger.Info("notifications routed through rabbitmq", "exchange", cfg.RabbitMQExchange, "queue", cfg.RabbitMQQueue)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
			if err := broker.Close(); err != nil {
				logger.Warn("rabbitmq close", "err", err)
			}
		})
	}
	return broker.Publisher(logger), stop, nil
}
