package services

import (
	"context"
	"time"

	"github.com/timmyblive/customheroes-storybook-sub000/internal/logger"
	"go.uber.org/zap"
)

// SweepService — фоновая очистка: просроченные резервы, карты с
// истекшим сроком действия и брошенные черновики. Остаток карт очистка
// не трогает.
type SweepService struct {
	storage         sweepStorage
	jobQueueService sweepJobQueueService
	interval        time.Duration
}

type sweepStorage interface {
	DeleteExpiredReservations(ctx context.Context) (int64, error)

	ExpireGiftCards(ctx context.Context) (int64, error)

	DeleteExpiredDrafts(ctx context.Context) (int64, error)
}

type sweepJobQueueService interface {
	Enqueue(job Job) error

	ScheduleJob(job Job, delay time.Duration)
}

// NewSweepService создает новый экземпляр SweepService.
func NewSweepService(storage sweepStorage, jobQueueService sweepJobQueueService, interval time.Duration) *SweepService {
	return &SweepService{
		storage:         storage,
		jobQueueService: jobQueueService,
		interval:        interval,
	}
}

// Start запускает периодическую очистку.
func (s *SweepService) Start(ctx context.Context) error {
	return s.jobQueueService.Enqueue(s.sweepJob)
}

func (s *SweepService) sweepJob(ctx context.Context) {
	if released, err := s.storage.DeleteExpiredReservations(ctx); err != nil {
		logger.Log.Error("failed to release expired reservations", zap.Error(err))
	} else if released > 0 {
		logger.Log.Info("released expired reservations", zap.Int64("count", released))
	}

	if expired, err := s.storage.ExpireGiftCards(ctx); err != nil {
		logger.Log.Error("failed to expire gift cards", zap.Error(err))
	} else if expired > 0 {
		logger.Log.Info("expired gift cards", zap.Int64("count", expired))
	}

	if dropped, err := s.storage.DeleteExpiredDrafts(ctx); err != nil {
		logger.Log.Error("failed to drop expired drafts", zap.Error(err))
	} else if dropped > 0 {
		logger.Log.Info("dropped expired drafts", zap.Int64("count", dropped))
	}

	s.jobQueueService.ScheduleJob(s.sweepJob, s.interval)
}
