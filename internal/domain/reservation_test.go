package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldExpired(t *testing.T) {
	created := time.Date(2095, 6, 1, 12, 0, 0, 0, time.UTC)
	hold := 15 * time.Minute

	r := &Reservation{Status: StatusPending, CreatedAt: created}
	assert.False(t, r.HoldExpired(created.Add(14*time.Minute), hold))
	assert.True(t, r.HoldExpired(created.Add(15*time.Minute), hold))

	r.Status = StatusPaymentPending
	assert.True(t, r.HoldExpired(created.Add(time.Hour), hold))

	r.Status = StatusPaymentFailed
	assert.False(t, r.HoldExpired(created.Add(time.Hour), hold), "failed payments keep their table until cancelled")

	r.Status = StatusConfirmed
	assert.False(t, r.HoldExpired(created.Add(time.Hour), hold))
}

func TestAwaitingGateway(t *testing.T) {
	intent := "pi_1"

	r := &Reservation{Status: StatusPaymentPending}
	assert.False(t, r.AwaitingGateway(), "no charge was prepared")

	r.PaymentIntentID = &intent
	assert.True(t, r.AwaitingGateway())

	r.Status = StatusPaymentFailed
	assert.False(t, r.AwaitingGateway())
}

func TestStartTime(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	date := time.Date(2095, 6, 10, 0, 0, 0, 0, time.UTC)

	got, err := StartTime(date, "19:30", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2095, 6, 10, 16, 30, 0, 0, time.UTC)))

	_, err = StartTime(date, "19:15", loc)
	assert.Error(t, err)

	_, err = StartTime(date, "23:00", loc)
	assert.Error(t, err)
}

func TestCutoffPolicy(t *testing.T) {
	policy := CutoffPolicy{Cutoff: 2 * time.Hour}
	startsAt := time.Date(2095, 6, 10, 19, 0, 0, 0, time.UTC)

	confirmed := &Reservation{Status: StatusConfirmed, StartsAt: startsAt}
	assert.NoError(t, policy.Allow(confirmed, startsAt.Add(-3*time.Hour)))
	assert.NoError(t, policy.Allow(confirmed, startsAt.Add(-2*time.Hour)))
	assert.ErrorIs(t, policy.Allow(confirmed, startsAt.Add(-time.Hour)), ErrCancellationNotAllowed)

	pending := &Reservation{Status: StatusPending, StartsAt: startsAt}
	assert.NoError(t, policy.Allow(pending, startsAt.Add(-time.Minute)))
}

func TestNewMetadata(t *testing.T) {
	m := NewMetadata(7, 2, 3)
	assert.Equal(t, 3, m.LastPage)
	assert.Equal(t, 1, m.FirstPage)

	assert.Equal(t, 0, NewMetadata(0, 1, 10).LastPage)

	p := Pagination{Page: 3, PageSize: 20}
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 20, p.Limit())
}
