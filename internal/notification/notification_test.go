package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/metinatakli/table-reservation-system/internal/mailer"
	"github.com/metinatakli/table-reservation-system/internal/mocks"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newEvent(eventType domain.EventType) domain.Event {
	wallet := domain.PaymentMethodStoredBalance

	return domain.Event{
		Type:          eventType,
		ReservationID: uuid.MustParse("5d3a1b2c-8e7f-4a6b-9c0d-1e2f3a4b5c6d"),
		UserID:        1,
		UserName:      "Grace Hopper",
		UserEmail:     "grace@example.com",
		BranchID:      1,
		StartsAt:      time.Date(2095, 6, 10, 19, 0, 0, 0, time.UTC),
		PartySize:     4,
		Amount:        decimal.RequireFromString("170"),
		PaymentMethod: &wallet,
		OccurredAt:    time.Date(2095, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMailNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("sends the cancellation email with the refund", func(t *testing.T) {
		m := mailer.NewMockMailer()

		err := NewMailNotifier(m).Emit(ctx, newEvent(domain.EventReservationCancelled))
		require.NoError(t, err)

		emails := m.GetSentEmails()
		require.Len(t, emails, 1)
		assert.Equal(t, "grace@example.com", emails[0].Recipient)
		assert.Equal(t, "reservation_cancelled.tmpl", emails[0].TemplateFile)
		assert.Equal(t, reservationEmail{
			Name:          "Grace Hopper",
			ReservationID: "5d3a1b2c-8e7f-4a6b-9c0d-1e2f3a4b5c6d",
			PartySize:     4,
			Date:          "Friday, Jun 10, 2095",
			TimeSlot:      "19:00",
			Amount:        "170.00",
			Refunded:      true,
		}, emails[0].Data)
	})

	t.Run("only refunds wallet payments", func(t *testing.T) {
		m := mailer.NewMockMailer()
		event := newEvent(domain.EventReservationCancelled)
		event.PaymentMethod = nil

		require.NoError(t, NewMailNotifier(m).Emit(ctx, event))

		emails := m.GetSentEmails()
		require.Len(t, emails, 1)
		assert.False(t, emails[0].Data.(reservationEmail).Refunded)
	})

	t.Run("skips events without a template", func(t *testing.T) {
		m := mailer.NewMockMailer()

		require.NoError(t, NewMailNotifier(m).Emit(ctx, newEvent(domain.EventReservationCompleted)))
		assert.Empty(t, m.GetSentEmails())
	})

	t.Run("returns mail failures", func(t *testing.T) {
		m := mailer.NewMockMailer()
		m.FailWith(errors.New("smtp down"))

		err := NewMailNotifier(m).Emit(ctx, newEvent(domain.EventReservationConfirmed))
		assert.EqualError(t, err, "smtp down")
	})
}

func TestFanout(t *testing.T) {
	ctx := context.Background()
	event := newEvent(domain.EventReservationConfirmed)

	first := new(mocks.MockNotifier)
	second := new(mocks.MockNotifier)
	third := new(mocks.MockNotifier)

	errFirst := errors.New("broker down")
	errThird := errors.New("smtp down")

	first.On("Emit", ctx, event).Return(errFirst).Once()
	second.On("Emit", ctx, event).Return(nil).Once()
	third.On("Emit", ctx, event).Return(errThird).Once()

	err := Fanout{first, second, third}.Emit(ctx, event)

	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errThird)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
	third.AssertExpectations(t)

	assert.NoError(t, Fanout{}.Emit(ctx, event))
}

type fakeChannel struct {
	mock.Mock
}

func (c *fakeChannel) PublishWithContext(
	ctx context.Context,
	exchange, key string,
	mandatory, immediate bool,
	msg amqp.Publishing) error {

	args := c.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (c *fakeChannel) Close() error {
	c.Called()
	return nil
}

func TestAMQPPublisher(t *testing.T) {
	ctx := context.Background()
	event := newEvent(domain.EventReservationConfirmed)

	t.Run("publishes the event routed by its type", func(t *testing.T) {
		ch := new(fakeChannel)
		publisher := &AMQPPublisher{openChannel: func() (amqpChannel, error) { return ch, nil }}

		var published amqp.Publishing
		ch.On("PublishWithContext", ctx, ExchangeName, "reservation.confirmed", false, false, mock.AnythingOfType("amqp091.Publishing")).
			Run(func(args mock.Arguments) { published = args.Get(5).(amqp.Publishing) }).
			Return(nil).Once()
		ch.On("Close").Once()

		require.NoError(t, publisher.Emit(ctx, event))
		ch.AssertExpectations(t)

		assert.Equal(t, "application/json", published.ContentType)
		assert.Equal(t, amqp.Persistent, published.DeliveryMode)
		assert.Equal(t, "reservation.confirmed:"+event.ReservationID.String(), published.MessageId)

		var got domain.Event
		require.NoError(t, json.Unmarshal(published.Body, &got))
		assert.Equal(t, event.ReservationID, got.ReservationID)
		assert.Equal(t, domain.EventReservationConfirmed, got.Type)
		assert.True(t, got.Amount.Equal(event.Amount))
	})

	t.Run("wraps publish failures", func(t *testing.T) {
		ch := new(fakeChannel)
		publisher := &AMQPPublisher{openChannel: func() (amqpChannel, error) { return ch, nil }}

		ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(amqp.ErrClosed).Once()
		ch.On("Close").Once()

		err := publisher.Emit(ctx, event)

		assert.ErrorIs(t, err, amqp.ErrClosed)
		assert.ErrorContains(t, err, "publish reservation.confirmed")
		ch.AssertExpectations(t)
	})

	t.Run("reports channel failures", func(t *testing.T) {
		publisher := &AMQPPublisher{openChannel: func() (amqpChannel, error) { return nil, amqp.ErrClosed }}

		err := publisher.Emit(ctx, event)

		assert.ErrorIs(t, err, amqp.ErrClosed)
	})

	t.Run("closing without a connection is a no-op", func(t *testing.T) {
		assert.NoError(t, (&AMQPPublisher{}).Close())
	})
}
