package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SQL-запросы для исходящих уведомлений
const (
	SelectPendingNotificationsQuery = `
		SELECT
			id,
			order_id,
			status,
			recipient,
			created_at
		FROM
			notifications
		WHERE
			sent_at IS NULL
		ORDER BY
			id
		LIMIT $1
	`
	MarkNotificationSentQuery = `
		UPDATE
			notifications
		SET
			sent_at = now()
		WHERE
			id = $1
	`
)

// NotificationDB — запись исходящего уведомления о смене статуса.
// Вставляется в транзакции перехода, доставляется диспетчером
// как минимум один раз.
type NotificationDB struct {
	ID        int64
	OrderID   string
	Status    string
	Recipient string
	CreatedAt time.Time
}

// FindPendingNotifications возвращает неотправленные уведомления.
func (d *Database) FindPendingNotifications(ctx context.Context, limit int) ([]NotificationDB, error) {
	var result []NotificationDB

	err := d.queryRows(ctx, SelectPendingNotificationsQuery, func(rows pgx.Rows) error {
		result = result[:0]
		for rows.Next() {
			var item NotificationDB
			if err := rows.Scan(&item.ID, &item.OrderID, &item.Status, &item.Recipient, &item.CreatedAt); err != nil {
				return fmt.Errorf("ошибка обработки строки уведомления: %w", err)
			}
			result = append(result, item)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("ошибка итерации по строкам: %w", err)
		}
		return nil
	}, limit)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// MarkNotificationSent помечает уведомление доставленным.
func (d *Database) MarkNotificationSent(ctx context.Context, id int64) error {
	if _, err := d.exec(ctx, MarkNotificationSentQuery, id); err != nil {
		return fmt.Errorf("ошибка пометки уведомления: %w", err)
	}
	return nil
}
