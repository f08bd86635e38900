package integration_test

import (
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/table-reservation-system/internal/app"
	"github.com/metinatakli/table-reservation-system/internal/booking"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/metinatakli/table-reservation-system/internal/lock"
	"github.com/metinatakli/table-reservation-system/internal/mailer"
	"github.com/metinatakli/table-reservation-system/internal/notification"
	"github.com/metinatakli/table-reservation-system/internal/payment"
	"github.com/metinatakli/table-reservation-system/internal/repository"
	appvalidator "github.com/metinatakli/table-reservation-system/internal/validator"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App      *app.Application
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Bookings *booking.Service
	Gateway  *payment.MockGateway
	Mailer   *mailer.MockMailer
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	mockMailer := mailer.NewMockMailer()
	gateway := payment.NewMockGateway()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	bookingCfg := booking.DefaultConfig()
	bookingCfg.HoldWindow = cfg.Booking.HoldWindow
	bookingCfg.DiningDuration = cfg.Booking.DiningDuration

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
		notification.NewMailNotifier(mockMailer),
		domain.CutoffPolicy{Cutoff: cfg.Booking.CancellationCutoff},
	)

	application := app.NewApp(cfg, logger, db, redisClient, appvalidator.NewValidator(), bookings)

	return &TestApp{
		App:      application,
		DB:       db,
		Redis:    redisClient,
		Bookings: bookings,
		Gateway:  gateway,
		Mailer:   mockMailer,
	}, nil
}
