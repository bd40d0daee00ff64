package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
)

const (
	// Захват черновика: проходит ровно один раз, повторный вебхук
	// получает ноль затронутых строк и уже созданный заказ.
	ClaimDraftQuery = `
		UPDATE
			order_drafts
		SET
			order_id = $2
		WHERE
			token = $1
			AND order_id IS NULL
	`
	SelectDraftOrderIDQuery = `
		SELECT
			COALESCE(order_id::text, '')
		FROM
			order_drafts
		WHERE
			token = $1
	`
)

// FinalizeCheckoutFlow завершает оформление после подтверждения оплаты:
// погашение подарочной карты и создание заказа коммитятся одной
// транзакцией. Возвращает ID заказа и признак того, что заказ создан
// этим вызовом (false — черновик уже был финализирован ранее).
func (d *Database) FinalizeCheckoutFlow(ctx context.Context, draft DraftDB, paymentRef string, requireReservation bool) (string, bool, error) {
	orderID := uuid.NewString()
	created := false

	err := d.inTx(ctx, func(tx pgx.Tx) error {
		created = false

		tag, err := tx.Exec(ctx, ClaimDraftQuery, draft.Token, orderID)
		if err != nil {
			return fmt.Errorf("ошибка захвата черновика: %w", err)
		}

		if tag.RowsAffected() == 0 {
			var existing string
			if err := tx.QueryRow(ctx, SelectDraftOrderIDQuery, draft.Token).Scan(&existing); err != nil {
				return fmt.Errorf("ошибка чтения финализированного черновика: %w", err)
			}
			orderID = existing
			return nil
		}

		if draft.GiftCardAmount > 0 {
			if err := redeemInTx(ctx, tx, draft.GiftCardCode, draft.GiftCardAmount, draft.Token, requireReservation); err != nil {
				return err
			}
		}

		err = createOrderTx(ctx, tx, OrderDB{
			ID:             orderID,
			CustomerName:   draft.CustomerName,
			CustomerEmail:  draft.CustomerEmail,
			PackageTier:    draft.PackageTier,
			PageCount:      draft.PageCount,
			Addons:         draft.Addons,
			TotalAmount:    draft.TotalAmount,
			Currency:       draft.Currency,
			Status:         OrderStatusDB{models.StatusPending},
			GiftCardCode:   draft.GiftCardCode,
			GiftCardAmount: draft.GiftCardAmount,
			PaymentRef:     paymentRef,
			AddressLine:    draft.AddressLine,
			City:           draft.City,
			PostalCode:     draft.PostalCode,
			Country:        draft.Country,
		})
		if err != nil {
			return err
		}

		created = true
		return nil
	})
	if err != nil {
		return "", false, err
	}

	return orderID, created, nil
}
