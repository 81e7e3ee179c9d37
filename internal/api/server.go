package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fleetops/trailer-swap-api/internal/clients"
	"github.com/fleetops/trailer-swap-api/internal/config"
	"github.com/fleetops/trailer-swap-api/internal/database"
	"github.com/fleetops/trailer-swap-api/internal/handlers"
	"github.com/fleetops/trailer-swap-api/internal/mileage"
	"github.com/fleetops/trailer-swap-api/internal/outbox"
	"github.com/fleetops/trailer-swap-api/internal/repository"
	"github.com/fleetops/trailer-swap-api/internal/service"
	"github.com/fleetops/trailer-swap-api/pkg/kafka"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
	"github.com/fleetops/trailer-swap-api/pkg/middleware"
)

// Server owns the HTTP surface and the background machinery behind it:
// the outbox and dead-letter processors, the Kafka producer and consumer,
// and the rate limiter.
type Server struct {
	config     *config.Config
	logger     logger.Logger
	router     *mux.Router
	httpServer *http.Server
	db         *database.Database

	moveRepo       *repository.MoveRepository
	trailerRepo    *repository.TrailerRepository
	driverRepo     *repository.DriverRepository
	locationRepo   *repository.LocationRepository
	mileageRepo    *repository.MileageRepository
	outboxRepo     *repository.OutboxRepository
	deadLetterRepo *repository.DeadLetterRepository

	moveService    *service.MoveService
	trailerService *service.TrailerService
	resolver       *mileage.Resolver
	distanceClient *clients.DistanceClient

	rateLimiter  *middleware.RateLimiter
	producer     *kafka.Producer
	consumer     *kafka.Consumer
	outboxProc   *outbox.Processor
	deadLetterPr *outbox.DeadLetterProcessor
}

// NewServer wires the full application
func NewServer(cfg *config.Config, log logger.Logger) (*Server, error) {
	db, err := database.New(cfg, log)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &Server{
		config: cfg,
		logger: log,
		router: mux.NewRouter(),
		db:     db,
	}

	s.moveRepo = repository.NewMoveRepository(db, log)
	s.trailerRepo = repository.NewTrailerRepository(db, log)
	s.driverRepo = repository.NewDriverRepository(db, log)
	s.locationRepo = repository.NewLocationRepository(db, log)
	s.mileageRepo = repository.NewMileageRepository(db, log)
	s.outboxRepo = repository.NewOutboxRepository(db, log)
	s.deadLetterRepo = repository.NewDeadLetterRepository(db, log)

	s.distanceClient = clients.NewDistanceClient(cfg.Distance.BaseURL, cfg.Distance.Timeout, log)
	s.resolver = mileage.NewResolver(s.mileageRepo, s.distanceClient, s.locationRepo, log)

	s.moveService = service.NewMoveService(
		s.moveRepo, s.trailerRepo, s.driverRepo, s.outboxRepo,
		s.resolver, cfg.Payment, log)
	s.trailerService = service.NewTrailerService(s.trailerRepo, log)

	s.rateLimiter = middleware.NewRateLimiter(&middleware.RateLimiterConfig{
		GlobalMaxTokens:   200,
		GlobalRefillRate:  100,
		IPMaxTokens:       20,
		IPRefillRate:      10,
		TrustForwardedFor: cfg.Env != "production",
	}, log)

	s.setupMessaging()
	s.routes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.rateLimiter.Middleware(s.router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMessaging wires the outbox pipeline. When the broker is unreachable
// the server still comes up: events are logged instead of published, and
// the outbox keeps them queued for when Kafka returns.
func (s *Server) setupMessaging() {
	var handler outbox.MessageHandler

	producer, err := kafka.NewProducer(s.config.Kafka.Brokers, s.logger)

	if err != nil {
		s.logger.Warn("Kafka producer unavailable, logging events instead", "error", err)
		handler = outbox.NewLoggingMessageHandler(s.logger)
	} else {
		s.producer = producer
		handler = outbox.NewKafkaMessageHandler(producer, s.config.Kafka.MovesTopic, s.logger)

		consumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
			Brokers:       s.config.Kafka.Brokers,
			Topics:        []string{s.config.Kafka.MovesTopic},
			ConsumerGroup: s.config.Kafka.ConsumerGroup,
		}, s.logger)

		if err != nil {
			s.logger.Warn("Kafka consumer unavailable", "error", err)
		} else {
			consumer.RegisterHandler(s.config.Kafka.MovesTopic, handlers.NewMoveEventsHandler(s.logger))
			s.consumer = consumer
		}
	}

	s.outboxProc = outbox.NewProcessor(
		s.outboxRepo, s.deadLetterRepo, handler, outbox.DefaultProcessorConfig(), s.logger)
	s.deadLetterPr = outbox.NewDeadLetterProcessor(
		s.deadLetterRepo, handler, outbox.DefaultDeadLetterProcessorConfig(), s.logger)
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	v1.HandleFunc("/trailers", s.registerTrailerHandler).Methods(http.MethodPost)
	v1.HandleFunc("/trailers", s.listTrailersHandler).Methods(http.MethodGet)
	v1.HandleFunc("/trailers/{number}", s.getTrailerHandler).Methods(http.MethodGet)
	v1.HandleFunc("/trailers/{number}/status", s.setTrailerStatusHandler).Methods(http.MethodPut)

	v1.HandleFunc("/moves", s.createMoveHandler).Methods(http.MethodPost)
	v1.HandleFunc("/moves", s.listMovesHandler).Methods(http.MethodGet)
	v1.HandleFunc("/moves/{id}", s.getMoveHandler).Methods(http.MethodGet)
	v1.HandleFunc("/moves/{id}/assign", s.assignMoveHandler).Methods(http.MethodPost)
	v1.HandleFunc("/moves/{id}/dispatch", s.dispatchMoveHandler).Methods(http.MethodPost)
	v1.HandleFunc("/moves/{id}/deliver", s.deliverMoveHandler).Methods(http.MethodPost)
	v1.HandleFunc("/moves/{id}/miles", s.setMoveMilesHandler).Methods(http.MethodPut)
	v1.HandleFunc("/moves/{id}/pod", s.attachPODHandler).Methods(http.MethodPost)
	v1.HandleFunc("/moves/{id}/payment", s.computePaymentHandler).Methods(http.MethodPost)
	v1.HandleFunc("/moves/{id}/complete", s.completeMoveHandler).Methods(http.MethodPost)
	v1.HandleFunc("/moves/{id}/cancel", s.cancelMoveHandler).Methods(http.MethodPost)
	v1.HandleFunc("/moves/{id}/paid", s.markMovePaidHandler).Methods(http.MethodPost)

	v1.HandleFunc("/drivers", s.addDriverHandler).Methods(http.MethodPost)
	v1.HandleFunc("/drivers", s.listDriversHandler).Methods(http.MethodGet)
	v1.HandleFunc("/drivers/{id}", s.getDriverHandler).Methods(http.MethodGet)
	v1.HandleFunc("/drivers/{id}/active", s.setDriverActiveHandler).Methods(http.MethodPut)

	v1.HandleFunc("/locations", s.addLocationHandler).Methods(http.MethodPost)
	v1.HandleFunc("/locations", s.listLocationsHandler).Methods(http.MethodGet)
	v1.HandleFunc("/locations/{title}", s.getLocationHandler).Methods(http.MethodGet)

	v1.HandleFunc("/mileage/resolve", s.resolveMileageHandler).Methods(http.MethodPost)
	v1.HandleFunc("/mileage", s.overrideMileageHandler).Methods(http.MethodPut)

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/dead-letters", s.listDeadLettersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/dead-letters/{id}", s.getDeadLetterHandler).Methods(http.MethodGet)
	admin.HandleFunc("/dead-letters/{id}/retry", s.retryDeadLetterHandler).Methods(http.MethodPost)
	admin.HandleFunc("/dead-letters/{id}/discard", s.discardDeadLetterHandler).Methods(http.MethodPost)
}

// Start launches the background processors and serves HTTP. Blocks until
// the listener fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.outboxProc.Start(ctx)
	s.deadLetterPr.Start(ctx)

	if s.consumer != nil {
		if err := s.consumer.Start(); err != nil {
			s.logger.Error("Failed to start Kafka consumer", "error", err)
		}
	}

	s.logger.Info("Server listening", "port", s.config.Port, "env", s.config.Env)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown drains in-flight requests and stops the background machinery
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Server shutting down")

	err := s.httpServer.Shutdown(ctx)

	s.outboxProc.Stop()
	s.deadLetterPr.Stop()
	s.rateLimiter.Stop()

	if s.consumer != nil {
		if cErr := s.consumer.Stop(); cErr != nil {
			s.logger.Error("Failed to stop Kafka consumer", "error", cErr)
		}
	}

	if s.producer != nil {
		if pErr := s.producer.Close(); pErr != nil {
			s.logger.Error("Failed to close Kafka producer", "error", pErr)
		}
	}

	if dbErr := s.db.Close(); dbErr != nil {
		s.logger.Error("Failed to close database", "error", dbErr)
	}

	return err
}
