package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Config struct {
	// HoldWindow is how long an unpaid reservation keeps its table.
	HoldWindow time.Duration
	// DiningDuration is how long after its start a confirmed reservation is completed.
	DiningDuration time.Duration
	GatewayTimeout time.Duration
	LockTTL        time.Duration
	Location       *time.Location
}

func DefaultConfig() Config {
	return Config{
		HoldWindow:     15 * time.Minute,
		DiningDuration: 2 * time.Hour,
		GatewayTimeout: 10 * time.Second,
		LockTTL:        30 * time.Second,
		Location:       time.UTC,
	}
}

type Repositories struct {
	Reservations domain.ReservationRepository
	TableTypes   domain.TableTypeRepository
	Coupons      domain.CouponRepository
	Wallets      domain.WalletRepository
}

type Service struct {
	cfg          Config
	logger       *slog.Logger
	reservations domain.ReservationRepository
	tableTypes   domain.TableTypeRepository
	coupons      domain.CouponRepository
	wallets      domain.WalletRepository
	gateway      domain.PaymentGateway
	locker       domain.Locker
	notifier     domain.Notifier
	policy       domain.CancellationPolicy
	now          func() time.Time

	confirmations metric.Int64Counter
}

func NewService(
	cfg Config,
	logger *slog.Logger,
	repos Repositories,
	gateway domain.PaymentGateway,
	locker domain.Locker,
	notifier domain.Notifier,
	policy domain.CancellationPolicy,
	opts ...func(*Service),
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	s := &Service{
		cfg:          cfg,
		logger:       logger,
		reservations: repos.Reservations,
		tableTypes:   repos.TableTypes,
		coupons:      repos.Coupons,
		wallets:      repos.Wallets,
		gateway:      gateway,
		locker:       locker,
		notifier:     notifier,
		policy:       policy,
		now:          time.Now,
	}

	meter := otel.Meter("github.com/metinatakli/table-reservation-system/internal/booking")

	confirmations, err := meter.Int64Counter(
		"reservation.confirmations",
		metric.WithDescription("Reservation confirmation attempts by payment method and outcome"),
	)
	if err != nil {
		logger.Warn("failed to create confirmations counter", "error", err)
	}
	s.confirmations = confirmations

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) func(*Service) {
	return func(s *Service) {
		s.now = now
	}
}

type CreateReservationInput struct {
	UserID          int
	BranchID        int
	TableTypeID     int
	UserName        string
	UserEmail       string
	UserPhone       string
	ReservationDate time.Time
	TimeSlot        string
	PartySize       int
	CouponCode      string
}

func (s *Service) Create(ctx context.Context, input CreateReservationInput) (*domain.Reservation, error) {
	if input.PartySize < 1 {
		return nil, fmt.Errorf("%w: party size must be positive", domain.ErrValidation)
	}

	startsAt, err := domain.StartTime(input.ReservationDate, input.TimeSlot, s.cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := s.now()
	if !startsAt.After(now) {
		return nil, fmt.Errorf("%w: reservation time is in the past", domain.ErrValidation)
	}

	tableType, err := s.tableTypes.GetById(ctx, input.BranchID, input.TableTypeID)
	if err != nil {
		return nil, fmt.Errorf("get table type: %w", err)
	}

	if input.PartySize > tableType.Capacity {
		return nil, fmt.Errorf("%w: %s seats at most %d", domain.ErrPartyTooLarge, tableType.Name, tableType.Capacity)
	}

	pricing, err := s.price(ctx, tableType.Price, input.CouponCode)
	if err != nil {
		return nil, err
	}

	reservation := &domain.Reservation{
		ID:              uuid.New(),
		UserID:          input.UserID,
		BranchID:        input.BranchID,
		TableTypeID:     input.TableTypeID,
		UserName:        input.UserName,
		UserEmail:       input.UserEmail,
		UserPhone:       input.UserPhone,
		ReservationDate: time.Date(startsAt.Year(), startsAt.Month(), startsAt.Day(), 0, 0, 0, 0, time.UTC),
		TimeSlot:        input.TimeSlot,
		StartsAt:        startsAt,
		PartySize:       input.PartySize,
		BasePrice:       pricing.BasePrice,
		DiscountApplied: pricing.Discount,
		FinalAmount:     pricing.FinalAmount,
		Status:          domain.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if input.CouponCode != "" {
		code := input.CouponCode
		reservation.CouponCode = &code
	}

	err = s.reservations.Create(ctx, reservation)
	if err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.logger.Info("reservation created",
		"reservation_id", reservation.ID,
		"user_id", reservation.UserID,
		"branch_id", reservation.BranchID,
		"final_amount", reservation.FinalAmount.StringFixed(2),
	)

	return reservation, nil
}

// Quote prices a table type with an optional coupon without booking anything.
func (s *Service) Quote(ctx context.Context, branchID, tableTypeID int, couponCode string) (*domain.Pricing, error) {
	tableType, err := s.tableTypes.GetById(ctx, branchID, tableTypeID)
	if err != nil {
		return nil, fmt.Errorf("get table type: %w", err)
	}

	pricing, err := s.price(ctx, tableType.Price, couponCode)
	if err != nil {
		return nil, err
	}

	return &pricing, nil
}

func (s *Service) price(ctx context.Context, basePrice decimal.Decimal, couponCode string) (domain.Pricing, error) {
	if couponCode == "" {
		return domain.ComputeFinalAmount(basePrice, nil)
	}

	coupon, err := s.coupons.FindActiveByCode(ctx, couponCode)
	if err != nil {
		return domain.Pricing{}, fmt.Errorf("find coupon: %w", err)
	}

	if coupon == nil {
		return domain.Pricing{}, fmt.Errorf("%w: coupon %s does not exist", domain.ErrCouponNotApplicable, couponCode)
	}

	err = coupon.Applicable(basePrice, s.now())
	if err != nil {
		return domain.Pricing{}, err
	}

	return domain.ComputeFinalAmount(basePrice, coupon)
}

// GetForUser returns the reservation only when userID owns it.
func (s *Service) GetForUser(ctx context.Context, id uuid.UUID, userID int) (*domain.Reservation, error) {
	reservation, err := s.reservations.GetById(ctx, id)
	if err != nil {
		return nil, err
	}

	if reservation.UserID != userID {
		return nil, domain.ErrRecordNotFound
	}

	return reservation, nil
}

func (s *Service) ListForUser(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.ReservationSummary, *domain.Metadata, error) {

	return s.reservations.ListByUser(ctx, userID, pagination)
}

func (s *Service) Wallet(ctx context.Context, userID int) (*domain.Wallet, error) {
	return s.wallets.GetByUserId(ctx, userID)
}

// transition applies event through a compare-and-swap on the persisted status.
func (s *Service) transition(
	ctx context.Context,
	reservation *domain.Reservation,
	event domain.ReservationEvent) error {

	return s.transitionFrom(ctx, reservation, event, domain.SourceStatuses(event))
}

// transitionFrom is transition guarded by expected instead of every status event accepts.
// Callers that decided on the loaded status pass it alone, so a concurrent change fails the swap.
func (s *Service) transitionFrom(
	ctx context.Context,
	reservation *domain.Reservation,
	event domain.ReservationEvent,
	expected []domain.ReservationStatus) error {

	next, err := reservation.Status.Next(event)
	if err != nil {
		return err
	}

	swapped, err := s.reservations.CompareAndSwapStatus(ctx, reservation.ID, expected, next)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}

	if !swapped {
		current, err := s.reservations.GetById(ctx, reservation.ID)
		if err != nil {
			return err
		}

		_, err = current.Status.Next(event)
		if err != nil {
			return err
		}

		return domain.ErrEditConflict
	}

	reservation.Status = next
	reservation.UpdatedAt = s.now()

	return nil
}

// expireIfStale expires an unpaid reservation whose hold window has passed, ahead of the sweeper.
// A reservation awaiting the gateway is left to the confirmation that verifies its charge.
func (s *Service) expireIfStale(ctx context.Context, reservation *domain.Reservation) error {
	if reservation.AwaitingGateway() || !reservation.HoldExpired(s.now(), s.cfg.HoldWindow) {
		return nil
	}

	return s.expire(ctx, reservation)
}

// expire always returns ErrReservationExpired unless persisting the expiry fails.
func (s *Service) expire(ctx context.Context, reservation *domain.Reservation) error {
	err := s.transition(ctx, reservation, domain.EventExpire)
	if err != nil && !errors.Is(err, domain.ErrInvalidTransition) && !errors.Is(err, domain.ErrEditConflict) {
		return err
	}

	if err == nil {
		s.logger.Info("reservation expired", "reservation_id", reservation.ID)
		s.emit(ctx, domain.EventReservationExpired, reservation)
	}

	return domain.ErrReservationExpired
}

func (s *Service) lock(ctx context.Context, id uuid.UUID) (func(), error) {
	release, err := s.locker.Acquire(ctx, reservationLockKey(id), s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockNotAcquired) {
			return nil, domain.ErrConcurrentConfirmation
		}

		return nil, fmt.Errorf("acquire reservation lock: %w", err)
	}

	return release, nil
}

func reservationLockKey(id uuid.UUID) string {
	return fmt.Sprintf("reservation_lock:%s", id)
}

// emit publishes in the background; notification failures never reach the caller.
func (s *Service) emit(ctx context.Context, eventType domain.EventType, reservation *domain.Reservation) {
	if s.notifier == nil {
		return
	}

	event := domain.NewEvent(eventType, reservation, s.now())

	go func(ctx context.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic while emitting event", "event", eventType, "panic", rec)
			}
		}()

		err := s.notifier.Emit(ctx, event)
		if err != nil {
			s.logger.Error("failed to emit event",
				"event", eventType,
				"reservation_id", event.ReservationID,
				"error", err,
			)
		}
	}(context.WithoutCancel(ctx))
}

func (s *Service) recordConfirmation(ctx context.Context, method domain.PaymentMethod, err error) {
	if s.confirmations == nil {
		return
	}

	outcome := "confirmed"
	if err != nil {
		outcome = string(domain.Classify(err))
	}

	s.confirmations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", string(method)),
		attribute.String("outcome", outcome),
	))
}
