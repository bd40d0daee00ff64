package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/timmyblive/customheroes-storybook-sub000/internal/database"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/logger"
	"go.uber.org/zap"
)

// NotifyService доставляет уведомления о смене статуса заказа во
// внешний диспетчер рассылок. Записи создаются в транзакции перехода
// (outbox), доставка — как минимум один раз: получатель обязан
// переносить дубликаты.
type NotifyService struct {
	storage          notifyStorage
	jobQueueService  notifyJobQueueService
	externalEndpoint string
	drainInterval    time.Duration
}

type notifyStorage interface {
	FindPendingNotifications(ctx context.Context, limit int) ([]database.NotificationDB, error)

	MarkNotificationSent(ctx context.Context, id int64) error
}

type notifyJobQueueService interface {
	Enqueue(job Job) error

	ScheduleJob(job Job, delay time.Duration)

	PauseAndResume(delay time.Duration)
}

// NewNotifyService создает новый экземпляр NotifyService.
func NewNotifyService(storage notifyStorage, jobQueueService notifyJobQueueService, externalEndpoint string, drainInterval time.Duration) *NotifyService {
	return &NotifyService{
		storage:          storage,
		jobQueueService:  jobQueueService,
		externalEndpoint: externalEndpoint,
		drainInterval:    drainInterval,
	}
}

const notifyBatchSize = 20

type notificationPayload struct {
	OrderID   string `json:"order"`
	Status    string `json:"status"`
	Recipient string `json:"recipient"`
}

// Start запускает периодический прогон исходящих уведомлений.
func (ns *NotifyService) Start(ctx context.Context) error {
	if err := ns.jobQueueService.Enqueue(ns.drainJob); err != nil {
		return err
	}
	return nil
}

// drainJob отправляет накопленные уведомления и планирует следующий
// прогон. Неотправленные записи остаются в outbox до следующей попытки.
func (ns *NotifyService) drainJob(ctx context.Context) {
	pending, err := ns.storage.FindPendingNotifications(ctx, notifyBatchSize)
	if err != nil {
		logger.Log.Error("failed to fetch pending notifications", zap.Error(err))
	}

	for _, item := range pending {
		retryAfter, err := ns.deliver(ctx, item)
		if err != nil {
			logger.Log.Error("failed to deliver notification",
				zap.Int64("id", item.ID),
				zap.String("orderID", item.OrderID),
				zap.Error(err),
			)
			continue
		}

		if retryAfter > 0 {
			logger.Log.Info("notification dispatcher throttled",
				zap.Int("retryAfter", retryAfter),
			)
			ns.jobQueueService.PauseAndResume(time.Second * time.Duration(retryAfter))
			break
		}

		if err := ns.storage.MarkNotificationSent(ctx, item.ID); err != nil {
			// Пометка не прошла: уведомление уйдет повторно, получатель
			// увидит дубликат. Это допустимо при доставке как минимум
			// один раз.
			logger.Log.Error("failed to mark notification", zap.Int64("id", item.ID), zap.Error(err))
		}
	}

	ns.jobQueueService.ScheduleJob(ns.drainJob, ns.drainInterval)
}

// deliver отправляет одно уведомление диспетчеру рассылок.
func (ns *NotifyService) deliver(ctx context.Context, item database.NotificationDB) (retryAfter int, err error) {
	body, err := json.Marshal(notificationPayload{
		OrderID:   item.OrderID,
		Status:    item.Status,
		Recipient: item.Recipient,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/notifications", ns.externalEndpoint), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send data by using POST method: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		retryAfter, err := strconv.Atoi(res.Header.Get("Retry-After"))
		if err != nil {
			retryAfter = defaultRetryAfterDuration
		}
		return retryAfter, nil
	}

	if res.StatusCode >= http.StatusBadRequest {
		return 0, fmt.Errorf("dispatcher returned status %d", res.StatusCode)
	}

	return 0, nil
}

const defaultRetryAfterDuration = 60
