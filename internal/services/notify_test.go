package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/database"
)

// fakeJobQueue исполняет Enqueue синхронно и только записывает
// отложенные задания и паузы, не исполняя их.
type fakeJobQueue struct {
	scheduled int
	paused    time.Duration
}

func (f *fakeJobQueue) Enqueue(job Job) error {
	job(context.Background())
	return nil
}

func (f *fakeJobQueue) ScheduleJob(job Job, delay time.Duration) {
	f.scheduled++
}

func (f *fakeJobQueue) PauseAndResume(delay time.Duration) {
	f.paused = delay
}

type fakeNotifyStorage struct {
	pending []database.NotificationDB
	sent    []int64
}

func (f *fakeNotifyStorage) FindPendingNotifications(ctx context.Context, limit int) ([]database.NotificationDB, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeNotifyStorage) MarkNotificationSent(ctx context.Context, id int64) error {
	f.sent = append(f.sent, id)
	return nil
}

func TestNotifyDrain(t *testing.T) {
	t.Run("Доставленные уведомления помечаются отправленными", func(t *testing.T) {
		var received []notificationPayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/notifications", r.URL.Path)
			var payload notificationPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			received = append(received, payload)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		storage := &fakeNotifyStorage{pending: []database.NotificationDB{
			{ID: 1, OrderID: "order-1", Status: "completed", Recipient: "anya@example.com"},
			{ID: 2, OrderID: "order-1", Status: "proof_sent", Recipient: "anya@example.com"},
		}}
		queue := &fakeJobQueue{}
		service := NewNotifyService(storage, queue, server.URL, time.Second)

		require.NoError(t, service.Start(context.Background()))

		assert.Equal(t, []int64{1, 2}, storage.sent)
		require.Len(t, received, 2)
		assert.Equal(t, "completed", received[0].Status)
		// Следующий прогон запланирован.
		assert.Equal(t, 1, queue.scheduled)
	})

	t.Run("Отказ диспетчера оставляет уведомление в очереди", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		storage := &fakeNotifyStorage{pending: []database.NotificationDB{
			{ID: 1, OrderID: "order-1", Status: "completed", Recipient: "anya@example.com"},
		}}
		queue := &fakeJobQueue{}
		service := NewNotifyService(storage, queue, server.URL, time.Second)

		require.NoError(t, service.Start(context.Background()))

		assert.Empty(t, storage.sent)
		assert.Equal(t, 1, queue.scheduled)
	})

	t.Run("429 приостанавливает очередь на Retry-After", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		storage := &fakeNotifyStorage{pending: []database.NotificationDB{
			{ID: 1, OrderID: "order-1", Status: "completed", Recipient: "anya@example.com"},
			{ID: 2, OrderID: "order-2", Status: "completed", Recipient: "boris@example.com"},
		}}
		queue := &fakeJobQueue{}
		service := NewNotifyService(storage, queue, server.URL, time.Second)

		require.NoError(t, service.Start(context.Background()))

		// Прогон остановился на первом уведомлении, ничего не помечено.
		assert.Empty(t, storage.sent)
		assert.Equal(t, 30*time.Second, queue.paused)
	})
}
