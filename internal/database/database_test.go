package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectionError() error {
	return &pgconn.PgError{Code: pgerrcode.ConnectionFailure}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "обрыв соединения",
			err:  connectionError(),
			want: true,
		},
		{
			name: "сериализационный конфликт",
			err:  &pgconn.PgError{Code: pgerrcode.SerializationFailure},
			want: true,
		},
		{
			name: "взаимная блокировка",
			err:  &pgconn.PgError{Code: pgerrcode.DeadlockDetected},
			want: true,
		},
		{
			name: "обернутый обрыв соединения",
			err:  fmt.Errorf("ошибка сохранения черновика: %w", connectionError()),
			want: true,
		},
		{
			name: "нарушение уникальности",
			err:  &pgconn.PgError{Code: pgerrcode.UniqueViolation},
			want: false,
		},
		{
			name: "бизнес-ошибка",
			err:  ErrStatusConflict,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestWithRetryExhausted(t *testing.T) {
	// Повторяемый сбой базы: после исчерпания попыток наружу уходит
	// ErrUnavailable, а не сырая ошибка драйвера.
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return fmt.Errorf("ошибка сохранения черновика: %w", connectionError())
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, retryAttempts, calls)
}

func TestWithRetryRecovers(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return connectionError()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetryBusinessErrorNotRetried(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return ErrStatusConflict
	})

	assert.ErrorIs(t, err, ErrStatusConflict)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, calls)
}

func TestWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := withRetry(ctx, func() error {
		calls++
		cancel()
		return connectionError()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetrySuccess(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestErrUnavailableKeepsCause(t *testing.T) {
	err := withRetry(context.Background(), func() error {
		return connectionError()
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), pgerrcode.ConnectionFailure)
}

func TestErrUnavailableCauseNotTransient(t *testing.T) {
	// Обертка ErrUnavailable строковая: исходная ошибка драйвера не
	// должна распознаваться как повторяемая во внешних циклах.
	err := withRetry(context.Background(), func() error {
		return connectionError()
	})

	require.Error(t, err)
	assert.False(t, isTransient(err))
}
