package services

import (
	"context"
	"errors"

	"github.com/timmyblive/customheroes-storybook-sub000/internal/database"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/logger"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
	"go.uber.org/zap"
)

var (
	ErrRevisionLimitExceeded = errors.New("лимит правок макета исчерпан")
)

// ProofService управляет макетом внутри заказа: загрузка, отправка
// клиенту, утверждение и цикл правок с ограничением их числа.
type ProofService struct {
	storage       proofStorage
	revisionLimit int
}

// Интерфейс хранилища для работы с макетами
type proofStorage interface {
	FindOrder(ctx context.Context, orderID string) (*database.OrderDB, error)
	FindProof(ctx context.Context, orderID string) (*database.ProofDB, error)
	UpdateProofArtifact(ctx context.Context, orderID, artifactURL, status string) error
	SendProofFlow(ctx context.Context, orderID, artifactURL string, isRevision bool, revisionNumber int, resend bool, recipient string) (*database.ProofSendRecordDB, error)
	ApproveProofFlow(ctx context.Context, orderID, recipient string) error
	RequestRevisionFlow(ctx context.Context, orderID, notes, recipient string) error
	UpdateSendDelivery(ctx context.Context, recordID, status string) error
}

// NewProofService создает новый экземпляр ProofService.
// revisionLimit — политика тарифа: максимум циклов правок на заказ.
func NewProofService(storage proofStorage, revisionLimit int) *ProofService {
	return &ProofService{storage: storage, revisionLimit: revisionLimit}
}

func (p *ProofService) findOrderWithProof(ctx context.Context, orderID string) (*database.OrderDB, *database.ProofDB, error) {
	order, err := p.storage.FindOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}

	proof, err := p.storage.FindProof(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if proof == nil {
		return nil, nil, ErrOrderNotFound
	}

	return order, proof, nil
}

// UploadProof прикрепляет новый артефакт макета. Допустимо только пока
// заказ находится в proof_generation; счетчик правок не меняется.
func (p *ProofService) UploadProof(ctx context.Context, orderID, artifactURL string) error {
	if artifactURL == "" {
		return ErrMissingPrerequisite
	}

	order, _, err := p.findOrderWithProof(ctx, orderID)
	if err != nil {
		return err
	}

	if order.Status.OrderStatus != models.StatusProofGeneration {
		return ErrInvalidTransition
	}

	return p.attachArtifact(ctx, orderID, artifactURL)
}

// UpdateProof заменяет артефакт макета до отправки клиенту: у уже
// загруженного или вернувшегося на правки макета. Статус заказа не
// меняется, после правок макет снова считается загруженным.
func (p *ProofService) UpdateProof(ctx context.Context, orderID, artifactURL string) error {
	if artifactURL == "" {
		return ErrMissingPrerequisite
	}

	order, proof, err := p.findOrderWithProof(ctx, orderID)
	if err != nil {
		return err
	}

	if order.Status.OrderStatus != models.StatusProofGeneration {
		return ErrInvalidTransition
	}
	if proof.Status != string(models.ProofStatusUploaded) &&
		proof.Status != string(models.ProofStatusRevisionRequested) {
		return ErrInvalidTransition
	}

	return p.attachArtifact(ctx, orderID, artifactURL)
}

// attachArtifact записывает артефакт. Хранилище само отсекает макет,
// успевший уйти клиенту между проверкой статуса и записью.
func (p *ProofService) attachArtifact(ctx context.Context, orderID, artifactURL string) error {
	err := p.storage.UpdateProofArtifact(ctx, orderID, artifactURL, string(models.ProofStatusUploaded))
	if err != nil {
		if errors.Is(err, database.ErrStatusConflict) {
			return ErrConflict
		}
		if errors.Is(err, database.ErrProofNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	return nil
}

// SendProof отправляет макет клиенту: добавляет неизменяемую запись в
// историю отправок и переводит заказ в proof_sent. Повторная отправка
// (isResend) шлет тот же артефакт и только дополняет историю.
func (p *ProofService) SendProof(ctx context.Context, orderID string, isResend bool) error {
	order, proof, err := p.findOrderWithProof(ctx, orderID)
	if err != nil {
		return err
	}

	if proof.ArtifactURL == "" {
		return ErrMissingPrerequisite
	}

	if isResend {
		if order.Status.OrderStatus != models.StatusProofSent {
			return ErrInvalidTransition
		}
	} else if order.Status.OrderStatus != models.StatusProofGeneration {
		return ErrInvalidTransition
	}

	isRevision := !isResend && proof.RevisionCount > 0

	record, err := p.storage.SendProofFlow(ctx, orderID, proof.ArtifactURL,
		isRevision, proof.RevisionCount, isResend, order.CustomerEmail)
	if err != nil {
		if errors.Is(err, database.ErrStatusConflict) {
			return ErrConflict
		}
		return err
	}

	logger.Log.Info("proof sent",
		zap.String("orderID", orderID),
		zap.String("recordID", record.ID),
		zap.Bool("resend", isResend),
		zap.Int("revision", record.RevisionNumber),
	)

	return nil
}

// Approve утверждает макет от имени клиента. Повторное утверждение —
// успешная пустая операция, второго уведомления не возникает.
func (p *ProofService) Approve(ctx context.Context, orderID string) error {
	order, proof, err := p.findOrderWithProof(ctx, orderID)
	if err != nil {
		return err
	}

	if proof.Status == string(models.ProofStatusApproved) {
		return nil
	}
	if proof.Status != string(models.ProofStatusSent) {
		return ErrInvalidTransition
	}

	if err := p.storage.ApproveProofFlow(ctx, orderID, order.CustomerEmail); err != nil {
		if errors.Is(err, database.ErrStatusConflict) {
			// Гонка с повторным утверждением: если макет уже утвержден,
			// считаем вызов идемпотентным успехом.
			_, fresh, readErr := p.findOrderWithProof(ctx, orderID)
			if readErr == nil && fresh.Status == string(models.ProofStatusApproved) {
				return nil
			}
			return ErrConflict
		}
		return err
	}

	return nil
}

// RequestRevision фиксирует запрос правок от клиента. При исчерпании
// лимита возвращает ErrRevisionLimitExceeded, не меняя счетчика.
func (p *ProofService) RequestRevision(ctx context.Context, orderID, notes string) error {
	order, proof, err := p.findOrderWithProof(ctx, orderID)
	if err != nil {
		return err
	}

	if proof.Status != string(models.ProofStatusSent) {
		return ErrInvalidTransition
	}

	if proof.RevisionCount >= p.revisionLimit {
		return ErrRevisionLimitExceeded
	}

	if err := p.storage.RequestRevisionFlow(ctx, orderID, notes, order.CustomerEmail); err != nil {
		if errors.Is(err, database.ErrStatusConflict) {
			return ErrConflict
		}
		return err
	}

	return nil
}

// MarkSendDelivery обновляет статус доставки письма с макетом
// по обратному вызову диспетчера уведомлений.
func (p *ProofService) MarkSendDelivery(ctx context.Context, recordID string, status models.DeliveryStatus) error {
	switch status {
	case models.DeliverySent, models.DeliveryFailed, models.DeliveryDelivered, models.DeliveryOpened:
	default:
		return ErrMissingPrerequisite
	}

	if err := p.storage.UpdateSendDelivery(ctx, recordID, string(status)); err != nil {
		if errors.Is(err, database.ErrProofNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	return nil
}
