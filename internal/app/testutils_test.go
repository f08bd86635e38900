package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/metinatakli/table-reservation-system/api"
	"github.com/metinatakli/table-reservation-system/internal/booking"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/metinatakli/table-reservation-system/internal/mocks"
	"github.com/metinatakli/table-reservation-system/internal/validator"
	"github.com/shopspring/decimal"
)

const (
	testJWTSecret     = "test-secret"
	testWebhookSecret = "whsec_test"
	testUserID        = 7
)

// testNow is the fixed clock of the booking service in handler tests.
var testNow = time.Date(2095, 6, 1, 12, 0, 0, 0, time.UTC)

type testDeps struct {
	reservations *mocks.MockReservationRepo
	tableTypes   *mocks.MockTableTypeRepo
	coupons      *mocks.MockCouponRepo
	wallets      *mocks.MockWalletRepo
	gateway      *mocks.MockPaymentGateway
	locker       *mocks.MockLocker
	redis        *mocks.MockRedisClient
}

func newTestDeps() *testDeps {
	return &testDeps{
		reservations: new(mocks.MockReservationRepo),
		tableTypes:   new(mocks.MockTableTypeRepo),
		coupons:      new(mocks.MockCouponRepo),
		wallets:      new(mocks.MockWalletRepo),
		gateway:      new(mocks.MockPaymentGateway),
		locker:       new(mocks.MockLocker),
		redis:        new(mocks.MockRedisClient),
	}
}

func (d *testDeps) assertExpectations(t *testing.T) {
	d.reservations.AssertExpectations(t)
	d.tableTypes.AssertExpectations(t)
	d.coupons.AssertExpectations(t)
	d.wallets.AssertExpectations(t)
	d.gateway.AssertExpectations(t)
	d.locker.AssertExpectations(t)
	d.redis.AssertExpectations(t)
}

func newTestApplication(deps *testDeps, opts ...func(*Application)) *Application {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	bookings := booking.NewService(
		booking.DefaultConfig(),
		logger,
		booking.Repositories{
			Reservations: deps.reservations,
			TableTypes:   deps.tableTypes,
			Coupons:      deps.coupons,
			Wallets:      deps.wallets,
		},
		deps.gateway,
		deps.locker,
		nil,
		domain.CutoffPolicy{Cutoff: 2 * time.Hour},
		booking.WithClock(func() time.Time { return testNow }),
	)

	cfg := Config{
		Env:    "test",
		Auth:   AuthConfig{JWTSecret: testJWTSecret},
		Stripe: StripeConfig{WebhookSecret: testWebhookSecret, Currency: "usd"},
	}

	app := NewApp(cfg, logger, nil, deps.redis, validator.NewValidator(), bookings)

	for _, opt := range opts {
		opt(app)
	}

	return app
}

func signToken(t *testing.T, userID int, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatal(err)
	}

	return token
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	var reader io.Reader = http.NoBody

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

// executeAuthenticatedRequest runs the request through the full router as testUserID.
func executeAuthenticatedRequest(t *testing.T, app *Application, method, url string, body any) *httptest.ResponseRecorder {
	w, r := executeRequest(t, method, url, body)
	r.Header.Set("Authorization", "Bearer "+signToken(t, testUserID, time.Now().Add(time.Hour)))

	app.Routes().ServeHTTP(w, r)

	return w
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp api.ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		if len(validationResp.ValidationErrors) == 0 {
			if tt.wantErrMessage != "" && validationResp.Message != tt.wantErrMessage {
				t.Errorf("Error message = %v, want %v", validationResp.Message, tt.wantErrMessage)
			}
			return
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", tt.wantErrMessage)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
		}
	}
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()

	var resp api.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}

	return resp
}

// newTestReservation returns a pending reservation of testUserID created one minute before testNow.
func newTestReservation(status domain.ReservationStatus) *domain.Reservation {
	startsAt := time.Date(2095, 6, 10, 19, 0, 0, 0, time.UTC)

	return &domain.Reservation{
		ID:              uuid.MustParse("6f1c2d3e-4b5a-4c6d-8e7f-9a0b1c2d3e4f"),
		UserID:          testUserID,
		BranchID:        1,
		TableTypeID:     2,
		UserName:        "Ada Lovelace",
		UserEmail:       "ada@example.com",
		UserPhone:       "+905551112233",
		ReservationDate: time.Date(2095, 6, 10, 0, 0, 0, 0, time.UTC),
		TimeSlot:        "19:00",
		StartsAt:        startsAt,
		PartySize:       4,
		BasePrice:       decimal.RequireFromString("200.00"),
		DiscountApplied: decimal.Zero,
		FinalAmount:     decimal.RequireFromString("200.00"),
		Status:          status,
		CreatedAt:       testNow.Add(-time.Minute),
		UpdatedAt:       testNow.Add(-time.Minute),
	}
}

func ptr[T any](v T) *T {
	return &v
}
