package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SQL-запросы для работы с черновиками заказов
const (
	// Финализированный черновик (с проставленным order_id) больше
	// не обновляется.
	UpsertDraftQuery = `
		INSERT INTO
			order_drafts (token, customer_name, customer_email, package_tier,
				page_count, addons, total_amount, currency, gift_card_code,
				gift_card_amount, address_line, city, postal_code, country, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (token) DO UPDATE
		SET
			customer_name = EXCLUDED.customer_name,
			customer_email = EXCLUDED.customer_email,
			package_tier = EXCLUDED.package_tier,
			page_count = EXCLUDED.page_count,
			addons = EXCLUDED.addons,
			total_amount = EXCLUDED.total_amount,
			currency = EXCLUDED.currency,
			gift_card_code = EXCLUDED.gift_card_code,
			gift_card_amount = EXCLUDED.gift_card_amount,
			address_line = EXCLUDED.address_line,
			city = EXCLUDED.city,
			postal_code = EXCLUDED.postal_code,
			country = EXCLUDED.country,
			expires_at = EXCLUDED.expires_at
		WHERE
			order_drafts.order_id IS NULL
	`
	SelectDraftQuery = `
		SELECT
			token,
			customer_name,
			customer_email,
			package_tier,
			page_count,
			addons,
			total_amount,
			currency,
			gift_card_code,
			gift_card_amount,
			address_line,
			city,
			postal_code,
			country,
			COALESCE(order_id::text, ''),
			created_at,
			expires_at
		FROM
			order_drafts
		WHERE
			token = $1
	`
	DeleteExpiredDraftsQuery = `
		DELETE FROM
			order_drafts
		WHERE
			expires_at <= now()
			AND order_id IS NULL
	`
)

// DraftDB — серверный черновик заказа, привязанный к токену сессии.
type DraftDB struct {
	Token          string
	CustomerName   string
	CustomerEmail  string
	PackageTier    string
	PageCount      int
	Addons         []string
	TotalAmount    int64
	Currency       string
	GiftCardCode   string
	GiftCardAmount int64
	AddressLine    string
	City           string
	PostalCode     string
	Country        string
	OrderID        string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// UpsertDraft создает или обновляет черновик по токену.
func (d *Database) UpsertDraft(ctx context.Context, draft DraftDB) error {
	_, err := d.exec(ctx, UpsertDraftQuery,
		draft.Token, draft.CustomerName, draft.CustomerEmail, draft.PackageTier,
		draft.PageCount, draft.Addons, draft.TotalAmount, draft.Currency,
		draft.GiftCardCode, draft.GiftCardAmount, draft.AddressLine, draft.City,
		draft.PostalCode, draft.Country, draft.ExpiresAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения черновика: %w", err)
	}
	return nil
}

// FindDraft ищет черновик по токену. Возвращает nil без ошибки, если черновика нет.
func (d *Database) FindDraft(ctx context.Context, token string) (*DraftDB, error) {
	var draft *DraftDB

	err := d.queryRow(ctx, SelectDraftQuery, func(row pgx.Row) error {
		item := &DraftDB{}
		err := row.Scan(&item.Token, &item.CustomerName, &item.CustomerEmail, &item.PackageTier,
			&item.PageCount, &item.Addons, &item.TotalAmount, &item.Currency,
			&item.GiftCardCode, &item.GiftCardAmount, &item.AddressLine, &item.City,
			&item.PostalCode, &item.Country, &item.OrderID, &item.CreatedAt, &item.ExpiresAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("ошибка поиска черновика: %w", err)
		}
		draft = item
		return nil
	}, token)
	if err != nil {
		return nil, err
	}

	return draft, nil
}

// DeleteExpiredDrafts вычищает просроченные нефинализированные черновики.
func (d *Database) DeleteExpiredDrafts(ctx context.Context) (int64, error) {
	tag, err := d.exec(ctx, DeleteExpiredDraftsQuery)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления просроченных черновиков: %w", err)
	}
	return tag.RowsAffected(), nil
}
