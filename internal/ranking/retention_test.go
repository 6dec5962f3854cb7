package ranking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRetentionWorker_Cutoff(t *testing.T) {
	svc := newTestService(t, &mockStore{}, nil, nil)
	w := NewRetentionWorker(&mockStore{}, svc, time.Hour, 30*24*time.Hour, zerolog.Nop())

	// 2024-03-10 14:00 UTC is 23:00 JST; thirty days earlier is 2024-02-09 JST.
	assert.Equal(t, time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), w.Cutoff())
}

func TestRetentionWorker_RunDeletesImmediately(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(t, store, nil, nil)
	w := NewRetentionWorker(store, svc, time.Hour, 30*24*time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	store.On("DeleteDailyBefore", mock.Anything, time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC)).
		Return(int64(12), nil).
		Run(func(mock.Arguments) { cancel() }).
		Once()

	err := w.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	store.AssertExpectations(t)
}

func TestRetentionWorker_FailureKeepsRunning(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(t, store, nil, nil)
	w := NewRetentionWorker(store, svc, time.Hour, 24*time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	store.On("DeleteDailyBefore", mock.Anything, mock.Anything).
		Return(int64(0), errors.New("db unavailable")).
		Run(func(mock.Arguments) { cancel() })

	assert.ErrorIs(t, w.Run(ctx), context.Canceled)
}

func TestRetentionWorker_Disabled(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(t, store, nil, nil)
	w := NewRetentionWorker(store, svc, time.Hour, 0, zerolog.Nop())

	assert.NoError(t, w.Run(context.Background()))
	store.AssertNotCalled(t, "DeleteDailyBefore", mock.Anything, mock.Anything)
}
