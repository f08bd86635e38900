package mocks

import (
	"context"
	"time"

	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockLocker struct {
	mock.Mock
	domain.Locker
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
	domain.Notifier
}

func (m *MockNotifier) Emit(ctx context.Context, event domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
