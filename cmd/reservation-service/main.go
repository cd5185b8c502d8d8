package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/api"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/application"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/config"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/infrastructure/cache"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/infrastructure/db"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/infrastructure/memory"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/infrastructure/messaging"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/infrastructure/observability"
	outboxinfra "github.com/RodolfoDevApp/clubhouse-reservations-go/internal/infrastructure/outbox"
)

// stores agrupa los puertos de persistencia de un backend.
type stores struct {
	uow          domain.UnitOfWork
	users        domain.UserDirectory
	areas        domain.AreaRepository
	schedules    domain.ScheduleRepository
	reservations domain.ReservationRepository
	invoices     domain.InvoiceService
	audit        domain.AuditLogger
	outbox       domain.OutboxRepository
	close        func() error
}

func main() {
	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// .env es opcional; el entorno real manda en producción.
	if err := godotenv.Overload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		bootLog.Fatal().Err(err).Msg("failed to read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := observability.NewLogger(observability.LoggingConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info().Str("port", cfg.HttpPort).Str("backend", cfg.Backend).Msg("starting reservation service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	policy, err := policyFrom(cfg.Policy)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid booking policy")
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	// Repos
	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer st.close()

	// Event buses
	var (
		publisher outboxinfra.Publisher
		notifier  domain.Notifier = memory.NewNotifier()
	)
	if cfg.RabbitUri != "" {
		buses := messaging.NewEventBuses(cfg.RabbitUri)
		publisher = buses.Producer
		notifier = messaging.NewBusNotifier(buses.Notifications)
	} else {
		logger.Warn().Msg("RABBITMQ_URI not set; events stay local and notifications are only recorded in memory")
	}

	// Service
	opts := []application.ReservationServiceOption{
		application.WithPolicy(policy),
		application.WithLogger(logger),
		application.WithMetrics(metrics),
	}
	if client := cache.NewRedisClient(ctx, cache.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); client != nil {
		defer client.Close()
		opts = append(opts, application.WithAvailabilityCache(cache.NewRedisAvailabilityCache(client, cfg.Redis.TTL, logger)))
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("availability cache enabled")
	}

	outboxWriter := application.NewOutboxWriter(st.outbox, domain.SystemClock{})
	svc := application.NewReservationService(application.ReservationServiceDeps{
		UnitOfWork:   st.uow,
		Users:        st.users,
		Areas:        st.areas,
		Schedules:    st.schedules,
		Reservations: st.reservations,
		Invoices:     st.invoices,
		Outbox:       outboxWriter,
	}, opts...)

	// Outbox dispatcher + scheduler
	dispatcher := outboxinfra.NewDispatcher(
		st.outbox,
		publisher,
		cfg.OutboxMaxRetry,
		cfg.OutboxBatchSize,
		outboxinfra.WithHandlers(
			application.NewAuditHandler(st.audit),
			application.NewNotificationHandler(notifier),
		),
		outboxinfra.WithMetrics(metrics),
		outboxinfra.WithLogger(logger),
	)
	schedulerDone := outboxinfra.NewScheduler(dispatcher, cfg.OutboxIntervalSec, logger).Start(ctx)

	// HTTP API
	mux := http.NewServeMux()
	api.NewServer(svc, policy.Location, reg, logger).RegisterRoutes(mux)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.HttpPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Msgf("HTTP listening on :%s", cfg.HttpPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Esperar señal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down reservation service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
	<-schedulerDone
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.Backend == "memory" {
		s := memory.NewStore()
		return stores{
			uow:          s,
			users:        s,
			areas:        s,
			schedules:    s,
			reservations: s.Reservations(),
			invoices:     s,
			audit:        s,
			outbox:       s.Outbox(),
			close:        func() error { return nil },
		}, nil
	}

	dbConn, err := sql.Open("pgx", cfg.PgDsn)
	if err != nil {
		return stores{}, err
	}
	if err := dbConn.PingContext(ctx); err != nil {
		dbConn.Close()
		return stores{}, err
	}
	return stores{
		uow:          db.NewPgUnitOfWork(dbConn),
		users:        db.NewPgUserDirectory(dbConn),
		areas:        db.NewPgAreaRepository(dbConn),
		schedules:    db.NewPgScheduleRepository(dbConn),
		reservations: db.NewPgReservationRepository(dbConn),
		invoices:     db.NewPgInvoiceService(dbConn),
		audit:        db.NewPgAuditLogger(dbConn),
		outbox:       db.NewPgOutboxRepository(dbConn),
		close:        dbConn.Close,
	}, nil
}

func policyFrom(c config.PolicyConfig) (application.Policy, error) {
	loc, err := time.LoadLocation(c.ClubTimezone)
	if err != nil {
		return application.Policy{}, err
	}
	roles := make([]domain.Role, 0, len(c.AllowedRoles))
	for _, raw := range c.AllowedRoles {
		role, err := domain.ParseRole(raw)
		if err != nil {
			return application.Policy{}, err
		}
		roles = append(roles, role)
	}
	return application.Policy{
		MinAdvanceHours:    c.MinAdvanceHours,
		MaxAdvanceDays:     c.MaxAdvanceDays,
		MaxDurationHours:   c.MaxDurationHours,
		CancelBeforeHours:  c.CancelBeforeHours,
		DefaultSlotMinutes: c.DefaultSlotMinutes,
		MinSlotMinutes:     c.MinSlotMinutes,
		MaxSlotMinutes:     c.MaxSlotMinutes,
		MaxRangeDays:       c.MaxRangeDays,
		AllowedRoles:       roles,
		Location:           loc,
	}, nil
}
