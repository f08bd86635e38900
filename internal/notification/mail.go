package notification

import (
	"context"

	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/metinatakli/table-reservation-system/internal/mailer"
)

var templates = map[domain.EventType]string{
	domain.EventReservationConfirmed: "reservation_confirmed.tmpl",
	domain.EventReservationCancelled: "reservation_cancelled.tmpl",
	domain.EventReservationExpired:   "reservation_expired.tmpl",
}

type reservationEmail struct {
	Name          string
	ReservationID string
	PartySize     int
	Date          string
	TimeSlot      string
	Amount        string
	Refunded      bool
}

// MailNotifier emails the guest about confirmations, cancellations and expiries.
type MailNotifier struct {
	mailer mailer.Mailer
}

func NewMailNotifier(m mailer.Mailer) *MailNotifier {
	return &MailNotifier{mailer: m}
}

func (n *MailNotifier) Emit(ctx context.Context, event domain.Event) error {
	templateFile, ok := templates[event.Type]
	if !ok || event.UserEmail == "" {
		return nil
	}

	data := reservationEmail{
		Name:          event.UserName,
		ReservationID: event.ReservationID.String(),
		PartySize:     event.PartySize,
		Date:          event.StartsAt.Format("Monday, Jan 2, 2006"),
		TimeSlot:      event.StartsAt.Format("15:04"),
		Amount:        event.Amount.StringFixed(2),
		Refunded: event.Type == domain.EventReservationCancelled &&
			event.PaymentMethod != nil &&
			*event.PaymentMethod == domain.PaymentMethodStoredBalance,
	}

	return n.mailer.Send(event.UserEmail, templateFile, data)
}
