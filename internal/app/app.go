package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/metinatakli/table-reservation-system/internal/booking"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/metinatakli/table-reservation-system/internal/lock"
	"github.com/metinatakli/table-reservation-system/internal/mailer"
	"github.com/metinatakli/table-reservation-system/internal/notification"
	"github.com/metinatakli/table-reservation-system/internal/payment"
	"github.com/metinatakli/table-reservation-system/internal/repository"
	"github.com/metinatakli/table-reservation-system/internal/scheduler"
	appvalidator "github.com/metinatakli/table-reservation-system/internal/validator"
	"github.com/metinatakli/table-reservation-system/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const serviceName = "table-reservation-api"

var (
	version = vcs.Version()
)

type Application struct {
	config    Config
	logger    *slog.Logger
	db        *pgxpool.Pool
	redis     redis.UniversalClient
	validator *validator.Validate
	bookings  *booking.Service
	limiter   *rateLimiter
}

type Config struct {
	Port             int
	Env              string
	OtelCollectorUrl string
	DB               DBConfig
	Redis            RedisConfig
	SMTP             SMTPConfig
	Stripe           StripeConfig
	AMQP             AMQPConfig
	Auth             AuthConfig
	Booking          BookingConfig
	RateLimit        RateLimitConfig
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type AMQPConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

type BookingConfig struct {
	HoldWindow         time.Duration
	DiningDuration     time.Duration
	GatewayTimeout     time.Duration
	LockTTL            time.Duration
	SweepInterval      time.Duration
	CancellationCutoff time.Duration
	Timezone           string
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	db *pgxpool.Pool,
	redis redis.UniversalClient,
	validator *validator.Validate,
	bookings *booking.Service,
) *Application {
	return &Application{
		config:    cfg,
		logger:    logger,
		db:        db,
		redis:     redis,
		validator: validator,
		bookings:  bookings,
		limiter:   newRateLimiter(cfg.RateLimit),
	}
}

func Run() error {
	// a missing .env is fine, the environment and flags still apply
	_ = godotenv.Load()

	cfg := parseFlags()

	stripe.Key = cfg.Stripe.SecretKey

	logger := slog.New(NewMultiHandler(
		slog.NewTextHandler(os.Stdout, nil),
		otelslog.NewHandler(serviceName),
	))

	shutdownTelemetry, err := InitTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var gateway domain.PaymentGateway = payment.NewStripeGateway(cfg.Stripe.Currency)
	if cfg.Stripe.SecretKey == "" {
		logger.Warn("stripe secret key not set, using the in-memory payment gateway")
		gateway = payment.NewMockGateway()
	}

	notifiers := notification.Fanout{
		notification.NewMailNotifier(mailer.NewSMTPMailer(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
			cfg.SMTP.Sender,
		)),
	}

	if cfg.AMQP.URL != "" {
		publisher, err := notification.NewAMQPPublisher(cfg.AMQP.URL)
		if err != nil {
			return err
		}
		defer publisher.Close()

		notifiers = append(notifiers, publisher)
	} else {
		logger.Info("AMQP URL not set, reservation events will not be published")
	}

	bookingCfg, err := cfg.Booking.serviceConfig()
	if err != nil {
		return err
	}

	bookings := booking.NewService(
		bookingCfg,
		logger,
		booking.Repositories{
			Reservations: repository.NewPostgresReservationRepository(db),
			TableTypes:   repository.NewPostgresTableTypeRepository(db),
			Coupons:      repository.NewPostgresCouponRepository(db),
			Wallets:      repository.NewPostgresWalletRepository(db),
		},
		gateway,
		lock.NewRedisLocker(redisClient, logger),
		notifiers,
		domain.CutoffPolicy{Cutoff: cfg.Booking.CancellationCutoff},
	)

	app := NewApp(cfg, logger, db, redisClient, appvalidator.NewValidator(), bookings)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	go scheduler.New(bookings, cfg.Booking.SweepInterval, logger).Start(ctx)

	return app.serve()
}

func parseFlags() Config {
	var cfg Config

	flag.IntVar(&cfg.Port, "port", envInt("PORT", 3000), "server port")
	flag.StringVar(&cfg.Env, "env", envString("ENV", "dev"), "Environment (dev|staging|prod)")
	flag.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", envString("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")

	flag.StringVar(&cfg.DB.DSN, "db-dsn", envString("DB_DSN", ""), "PostgreSQL DSN")
	flag.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.Redis.URL, "redis-url", envString("REDIS_URL", ""), "Redis URL")
	flag.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.SMTP.Host, "smtp-host", envString("SMTP_HOST", "sandbox.smtp.mailtrap.io"), "SMTP host")
	flag.IntVar(&cfg.SMTP.Port, "smtp-port", envInt("SMTP_PORT", 2525), "SMTP port")
	flag.StringVar(&cfg.SMTP.Username, "smtp-username", envString("SMTP_USERNAME", ""), "SMTP username")
	flag.StringVar(&cfg.SMTP.Password, "smtp-password", envString("SMTP_PASSWORD", ""), "SMTP password")
	flag.StringVar(&cfg.SMTP.Sender, "smtp-sender", envString("SMTP_SENDER", "TableNow <no-reply@tablenow.example.com>"), "SMTP sender")

	flag.StringVar(&cfg.Stripe.SecretKey, "stripe-key", envString("STRIPE_SECRET_KEY", ""), "Stripe secret key")
	flag.StringVar(&cfg.Stripe.WebhookSecret, "stripe-webhook-secret", envString("STRIPE_WEBHOOK_SECRET", ""), "Stripe webhook secret")
	flag.StringVar(&cfg.Stripe.Currency, "stripe-currency", envString("STRIPE_CURRENCY", string(stripe.CurrencyUSD)), "Charge currency")

	flag.StringVar(&cfg.AMQP.URL, "amqp-url", envString("RABBITMQ_URL", ""), "RabbitMQ URL for reservation events")

	flag.StringVar(&cfg.Auth.JWTSecret, "jwt-secret", envString("JWT_SECRET", ""), "HS256 secret of access tokens")
	flag.StringVar(&cfg.Auth.Issuer, "jwt-issuer", envString("JWT_ISSUER", ""), "Expected access token issuer")

	flag.DurationVar(&cfg.Booking.HoldWindow, "booking-hold-window", 15*time.Minute, "How long an unpaid reservation holds its table")
	flag.DurationVar(&cfg.Booking.DiningDuration, "booking-dining-duration", 2*time.Hour, "Time after the start when a reservation is completed")
	flag.DurationVar(&cfg.Booking.GatewayTimeout, "booking-gateway-timeout", 10*time.Second, "Timeout of payment verification calls")
	flag.DurationVar(&cfg.Booking.LockTTL, "booking-lock-ttl", 30*time.Second, "Lifetime of per-reservation confirmation locks")
	flag.DurationVar(&cfg.Booking.SweepInterval, "booking-sweep-interval", time.Minute, "Interval of the expiry and completion sweep")
	flag.DurationVar(&cfg.Booking.CancellationCutoff, "booking-cancellation-cutoff", 2*time.Hour, "Confirmed reservations cannot be cancelled closer to their start")
	flag.StringVar(&cfg.Booking.Timezone, "booking-timezone", envString("BOOKING_TIMEZONE", "UTC"), "Timezone of reservation dates and time slots")

	flag.BoolVar(&cfg.RateLimit.Enabled, "limiter-enabled", true, "Rate limit payment endpoints")
	flag.Float64Var(&cfg.RateLimit.RPS, "limiter-rps", 2, "Payment requests per second per user")
	flag.IntVar(&cfg.RateLimit.Burst, "limiter-burst", 4, "Payment request burst per user")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	return cfg
}

func (c BookingConfig) serviceConfig() (booking.Config, error) {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return booking.Config{}, fmt.Errorf("invalid booking timezone %q: %w", c.Timezone, err)
	}

	return booking.Config{
		HoldWindow:     c.HoldWindow,
		DiningDuration: c.DiningDuration,
		GatewayTimeout: c.GatewayTimeout,
		LockTTL:        c.LockTTL,
		Location:       location,
	}, nil
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := redisotel.InstrumentTracing(rdb)
	if err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) serve() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: app.config.Booking.GatewayTimeout + 10*time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		shutdownError <- srv.Shutdown(ctx)
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "version", version)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
