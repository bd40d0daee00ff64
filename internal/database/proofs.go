package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
)

var (
	ErrProofNotFound = errors.New("макет не найден")
)

// SQL-запросы для работы с макетами и историей отправок
const (
	InsertProofQuery = `
		INSERT INTO
			proofs (order_id)
		VALUES ($1)
	`
	SelectProofQuery = `
		SELECT
			order_id,
			artifact_url,
			status,
			revision_count,
			customer_notes,
			approved_at,
			updated_at
		FROM
			proofs
		WHERE
			order_id = $1
	`
	// Фильтр по статусу делает проверку и запись атомарными: после
	// отправки или утверждения артефакт подменить нельзя.
	UpdateProofArtifactQuery = `
		UPDATE
			proofs
		SET
			artifact_url = $2,
			status = $3,
			updated_at = now()
		WHERE
			order_id = $1
			AND status IN ('pending', 'uploaded', 'revision_requested')
	`
	UpdateProofSentQuery = `
		UPDATE
			proofs
		SET
			status = 'sent',
			updated_at = now()
		WHERE
			order_id = $1
	`
	UpdateProofApprovedQuery = `
		UPDATE
			proofs
		SET
			status = 'approved',
			approved_at = now(),
			updated_at = now()
		WHERE
			order_id = $1
	`
	// revision_count только увеличивается, сбросов не бывает.
	UpdateProofRevisionQuery = `
		UPDATE
			proofs
		SET
			status = 'revision_requested',
			revision_count = revision_count + 1,
			customer_notes = $2,
			updated_at = now()
		WHERE
			order_id = $1
	`
	InsertSendRecordQuery = `
		INSERT INTO
			proof_send_history (id, order_id, artifact_url, is_revision, revision_number)
		VALUES ($1, $2, $3, $4, $5)
	`
	SelectSendHistoryQuery = `
		SELECT
			id,
			order_id,
			artifact_url,
			is_revision,
			revision_number,
			delivery_status,
			sent_at
		FROM
			proof_send_history
		WHERE
			order_id = $1
		ORDER BY
			sent_at
	`
	UpdateSendDeliveryQuery = `
		UPDATE
			proof_send_history
		SET
			delivery_status = $2
		WHERE
			id = $1
	`
)

// ProofDB — строка таблицы proofs, связанная 1:1 с заказом.
type ProofDB struct {
	OrderID       string
	ArtifactURL   string
	Status        string
	RevisionCount int
	CustomerNotes string
	ApprovedAt    *time.Time
	UpdatedAt     time.Time
}

// ProofSendRecordDB — неизменяемая запись об отправке макета.
type ProofSendRecordDB struct {
	ID             string
	OrderID        string
	ArtifactURL    string
	IsRevision     bool
	RevisionNumber int
	DeliveryStatus string
	SentAt         time.Time
}

// FindProof ищет макет заказа. Возвращает nil без ошибки, если макета нет.
func (d *Database) FindProof(ctx context.Context, orderID string) (*ProofDB, error) {
	var proof *ProofDB

	err := d.queryRow(ctx, SelectProofQuery, func(row pgx.Row) error {
		item := &ProofDB{}
		err := row.Scan(&item.OrderID, &item.ArtifactURL, &item.Status, &item.RevisionCount,
			&item.CustomerNotes, &item.ApprovedAt, &item.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("ошибка поиска макета: %w", err)
		}
		proof = item
		return nil
	}, orderID)
	if err != nil {
		return nil, err
	}

	return proof, nil
}

// UpdateProofArtifact прикрепляет артефакт макета и выставляет статус.
// Макет, уже ушедший клиенту или утвержденный, не трогается:
// проигранная гонка возвращает ErrStatusConflict.
func (d *Database) UpdateProofArtifact(ctx context.Context, orderID, artifactURL, status string) error {
	tag, err := d.exec(ctx, UpdateProofArtifactQuery, orderID, artifactURL, status)
	if err != nil {
		return fmt.Errorf("ошибка обновления артефакта макета: %w", err)
	}
	if tag.RowsAffected() == 0 {
		proof, err := d.FindProof(ctx, orderID)
		if err != nil {
			return err
		}
		if proof == nil {
			return ErrProofNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

// SendProofFlow фиксирует отправку макета: запись в истории отправок,
// статус макета и переход заказа в proof_sent коммитятся одной
// транзакцией. Повторная отправка уже отправленного макета добавляет
// только запись в историю.
func (d *Database) SendProofFlow(ctx context.Context, orderID, artifactURL string, isRevision bool, revisionNumber int, resend bool, recipient string) (*ProofSendRecordDB, error) {
	record := &ProofSendRecordDB{
		ID:             uuid.NewString(),
		OrderID:        orderID,
		ArtifactURL:    artifactURL,
		IsRevision:     isRevision,
		RevisionNumber: revisionNumber,
	}

	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if !resend {
			err := updateStatusTx(ctx, tx, orderID,
				OrderStatusDB{models.StatusProofGeneration}, OrderStatusDB{models.StatusProofSent},
				string(models.ActorStaff), recipient, nil)
			if err != nil {
				return err
			}

			if _, err := tx.Exec(ctx, UpdateProofSentQuery, orderID); err != nil {
				return fmt.Errorf("ошибка обновления статуса макета: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, InsertSendRecordQuery,
			record.ID, record.OrderID, record.ArtifactURL, record.IsRevision, record.RevisionNumber); err != nil {
			return fmt.Errorf("ошибка записи истории отправок: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// ApproveProofFlow утверждает макет: переход заказа и отметка макета
// коммитятся вместе.
func (d *Database) ApproveProofFlow(ctx context.Context, orderID, recipient string) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		err := updateStatusTx(ctx, tx, orderID,
			OrderStatusDB{models.StatusProofSent}, OrderStatusDB{models.StatusProofApproved},
			string(models.ActorCustomer), recipient, nil)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, UpdateProofApprovedQuery, orderID); err != nil {
			return fmt.Errorf("ошибка утверждения макета: %w", err)
		}

		return nil
	})
}

// RequestRevisionFlow фиксирует запрос правок: инкремент счетчика,
// заметки клиента и переход заказа коммитятся вместе.
func (d *Database) RequestRevisionFlow(ctx context.Context, orderID, notes, recipient string) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		err := updateStatusTx(ctx, tx, orderID,
			OrderStatusDB{models.StatusProofSent}, OrderStatusDB{models.StatusProofRevision},
			string(models.ActorCustomer), recipient, nil)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, UpdateProofRevisionQuery, orderID, notes); err != nil {
			return fmt.Errorf("ошибка записи запроса правок: %w", err)
		}

		return nil
	})
}

// FindSendHistory возвращает историю отправок макета в порядке отправки.
func (d *Database) FindSendHistory(ctx context.Context, orderID string) ([]ProofSendRecordDB, error) {
	var result []ProofSendRecordDB

	err := d.queryRows(ctx, SelectSendHistoryQuery, func(rows pgx.Rows) error {
		result = result[:0]
		for rows.Next() {
			var item ProofSendRecordDB
			if err := rows.Scan(&item.ID, &item.OrderID, &item.ArtifactURL, &item.IsRevision,
				&item.RevisionNumber, &item.DeliveryStatus, &item.SentAt); err != nil {
				return fmt.Errorf("ошибка обработки строки истории отправок: %w", err)
			}
			result = append(result, item)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("ошибка итерации по строкам: %w", err)
		}
		return nil
	}, orderID)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateSendDelivery обновляет статус доставки письма с макетом.
func (d *Database) UpdateSendDelivery(ctx context.Context, recordID, status string) error {
	tag, err := d.exec(ctx, UpdateSendDeliveryQuery, recordID, status)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса доставки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProofNotFound
	}
	return nil
}
