package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweepStorage struct {
	reservations int64
	cards        int64
	drafts       int64
	calls        []string
}

func (f *fakeSweepStorage) DeleteExpiredReservations(ctx context.Context) (int64, error) {
	f.calls = append(f.calls, "reservations")
	return f.reservations, nil
}

func (f *fakeSweepStorage) ExpireGiftCards(ctx context.Context) (int64, error) {
	f.calls = append(f.calls, "cards")
	return f.cards, nil
}

func (f *fakeSweepStorage) DeleteExpiredDrafts(ctx context.Context) (int64, error) {
	f.calls = append(f.calls, "drafts")
	return f.drafts, nil
}

func TestSweep(t *testing.T) {
	storage := &fakeSweepStorage{reservations: 3, cards: 1, drafts: 2}
	queue := &fakeJobQueue{}
	service := NewSweepService(storage, queue, time.Minute)

	require.NoError(t, service.Start(context.Background()))

	// Все три очистки выполнены, следующий прогон запланирован.
	assert.Equal(t, []string{"reservations", "cards", "drafts"}, storage.calls)
	assert.Equal(t, 1, queue.scheduled)
}
