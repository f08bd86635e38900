package notification

import (
	"context"
	"errors"

	"github.com/metinatakli/table-reservation-system/internal/domain"
)

// Fanout delivers every event to all notifiers, even when some of them fail.
type Fanout []domain.Notifier

func (f Fanout) Emit(ctx context.Context, event domain.Event) error {
	var errs []error

	for _, notifier := range f {
		err := notifier.Emit(ctx, event)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
