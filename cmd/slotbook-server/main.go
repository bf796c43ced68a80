package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/uptrace/bun"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"slotbook/internal/config"
	"slotbook/internal/identity"
	"slotbook/internal/notify"
	"slotbook/internal/ratelimit"
	"slotbook/internal/service/booking"
	"slotbook/internal/store/postgres"
	grpcTransport "slotbook/internal/transport/grpc"
	"slotbook/internal/transport/httpapi"
)

const serviceName = "slotbook-server"

type gateway interface {
	notify.Gateway
	Close() error
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("grpc_addr", cfg.GRPCAddr()),
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("log_level", cfg.LogLevel),
		slog.String("clinic_timezone", cfg.ClinicTZ.String()),
		slog.Duration("slot_length", cfg.SlotLength),
	)

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	notifier, err := newGateway(cfg, log)
	if err != nil {
		log.Error("notification gateway setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			log.Warn("notification gateway close failed", slog.Any("err", err))
		}
	}()

	verifier, err := identity.NewVerifier([]byte(cfg.JWTSecret), cfg.JWTIssuer)
	if err != nil {
		log.Error("token verifier setup failed", slog.Any("err", err))
		os.Exit(1)
	}

	svc := booking.NewService(
		postgres.NewSlotRepo(db),
		postgres.NewBookingRepo(db, cfg.DBLockTimeout),
		identity.ContextRoles{},
		notifier,
		booking.WithLogger(log),
		booking.WithLocation(cfg.ClinicTZ),
		booking.WithSlotLength(cfg.SlotLength),
		booking.WithNotifyTimeout(cfg.NotifyTimeout),
	)

	limiter := ratelimit.NewKeyed(cfg.RateLimitRPS, cfg.RateLimitBurst)

	grpcServer, healthServer := grpcTransport.NewServer(svc, grpcTransport.ServerConfig{
		RequestTimeout: cfg.GRPCRequestTimeout,
		Verifier:       verifier,
		Limiter:        limiter,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(svc, httpapi.RouterConfig{
			Verifier: verifier,
			Limiter:  limiter,
			DB:       dbPinger(db),
			Logger:   log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info("servers started", slog.String("grpc_addr", cfg.GRPCAddr()), slog.String("http_addr", cfg.HTTPAddr))

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped with error", slog.Any("err", err))
			exitCode = 1
		}
	}

	healthServer.SetServingStatus(grpcTransport.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	shutdown(log, grpcServer, httpServer, cfg.ShutdownTimeout)
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func newGateway(cfg config.Config, log *slog.Logger) (gateway, error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("no kafka brokers configured; notifications are logged only")
		return logGateway{notify.NewLogGateway(log)}, nil
	}
	log.Info("publishing notifications to kafka",
		slog.String("topic", cfg.KafkaTopic),
		slog.Int("brokers", len(cfg.KafkaBrokers)),
	)
	g, err := notify.NewKafkaGateway(notify.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		Source:  serviceName,
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

type logGateway struct {
	*notify.LogGateway
}

func (logGateway) Close() error { return nil }

func dbPinger(db *bun.DB) httpapi.PingFunc {
	return func(ctx context.Context) error {
		return postgres.Ping(ctx, db)
	}
}

func shutdown(log *slog.Logger, g *grpc.Server, h *http.Server, timeout time.Duration) {
	log.Info("shutting down servers", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := h.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
	}

	done := make(chan struct{})
	go func() {
		g.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		g.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
