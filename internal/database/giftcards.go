package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Ошибки операций с подарочными картами.
var (
	ErrDuplicateCard    = errors.New("карта с таким кодом уже существует")
	ErrCardNotFound     = errors.New("подарочная карта не найдена")
	ErrCardExpired      = errors.New("срок действия карты истек")
	ErrCardRedeemed     = errors.New("карта уже полностью использована")
	ErrCardInsufficient = errors.New("недостаточно средств на карте")
	ErrNoReservation    = errors.New("резерв не найден")
)

// SQL-запросы для работы с картами и резервами.
const (
	InsertGiftCardQuery = `
		INSERT INTO
			gift_cards (id, code, initial_amount, remaining_amount, currency,
				recipient_name, recipient_email, sender_name, message, expires_at)
		VALUES ($1, $2, $3, $3, $4, $5, $6, $7, $8, $9)
	`
	SelectGiftCardQuery = `
		SELECT
			id,
			code,
			initial_amount,
			remaining_amount,
			currency,
			status,
			recipient_name,
			recipient_email,
			sender_name,
			message,
			expires_at,
			last_used_at,
			created_at
		FROM
			gift_cards
		WHERE
			code = $1
	`
	// Блокировка строки карты сериализует все операции, меняющие баланс.
	SelectGiftCardForUpdateQuery = SelectGiftCardQuery + `
		FOR UPDATE
	`
	SelectActiveReservationSumQuery = `
		SELECT
			COALESCE(SUM(amount), 0)
		FROM
			reservations
		WHERE
			card_id = $1
			AND expires_at > now()
	`
	SelectOwnerReservationSumQuery = `
		SELECT
			COALESCE(SUM(amount), 0)
		FROM
			reservations
		WHERE
			card_id = $1
			AND owner_id = $2
			AND expires_at > now()
	`
	InsertReservationQuery = `
		INSERT INTO
			reservations (id, card_id, amount, owner_id, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	DeleteCardReservationsQuery = `
		DELETE FROM
			reservations
		WHERE
			card_id = $1
			AND ($2 = '' OR owner_id = $2)
	`
	UpdateCardBalanceQuery = `
		UPDATE
			gift_cards
		SET
			remaining_amount = $2,
			status = $3,
			last_used_at = now()
		WHERE
			id = $1
	`
	DeleteExpiredReservationsQuery = `
		DELETE FROM
			reservations
		WHERE
			expires_at <= now()
	`
	ExpireGiftCardsQuery = `
		UPDATE
			gift_cards
		SET
			status = 'expired'
		WHERE
			status = 'active'
			AND expires_at IS NOT NULL
			AND expires_at <= now()
	`
)

// GiftCardDB — строка таблицы gift_cards.
type GiftCardDB struct {
	ID              string
	Code            string
	InitialAmount   int64
	RemainingAmount int64
	Currency        string
	Status          string
	RecipientName   string
	RecipientEmail  string
	SenderName      string
	Message         string
	ExpiresAt       *time.Time
	LastUsedAt      *time.Time
	CreatedAt       time.Time
}

// ReservationDB — строка таблицы reservations.
// Существование строки означает активный резерв: при снятии или
// погашении строка удаляется, просроченные вычищает фоновая очистка.
type ReservationDB struct {
	ID        string
	CardID    string
	Amount    int64
	OwnerID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// CreateGiftCard создает новую подарочную карту.
func (d *Database) CreateGiftCard(ctx context.Context, card GiftCardDB) error {
	_, err := d.exec(ctx, InsertGiftCardQuery,
		card.ID, card.Code, card.InitialAmount, card.Currency,
		card.RecipientName, card.RecipientEmail, card.SenderName, card.Message, card.ExpiresAt)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateCard
		}
		return fmt.Errorf("ошибка создания подарочной карты: %w", err)
	}

	return nil
}

func scanGiftCard(row pgx.Row) (*GiftCardDB, error) {
	card := &GiftCardDB{}
	err := row.Scan(&card.ID, &card.Code, &card.InitialAmount, &card.RemainingAmount,
		&card.Currency, &card.Status, &card.RecipientName, &card.RecipientEmail,
		&card.SenderName, &card.Message, &card.ExpiresAt, &card.LastUsedAt, &card.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения подарочной карты: %w", err)
	}
	return card, nil
}

// FindGiftCard ищет карту по коду. Возвращает nil без ошибки, если карты нет.
func (d *Database) FindGiftCard(ctx context.Context, code string) (*GiftCardDB, error) {
	var card *GiftCardDB

	err := d.queryRow(ctx, SelectGiftCardQuery, func(row pgx.Row) error {
		var scanErr error
		card, scanErr = scanGiftCard(row)
		return scanErr
	}, code)
	if err != nil {
		return nil, err
	}

	return card, nil
}

// ActiveReservationSum возвращает сумму активных резервов карты.
func (d *Database) ActiveReservationSum(ctx context.Context, cardID string) (int64, error) {
	var sum int64

	err := d.queryRow(ctx, SelectActiveReservationSumQuery, func(row pgx.Row) error {
		if err := row.Scan(&sum); err != nil {
			return fmt.Errorf("ошибка подсчета резервов: %w", err)
		}
		return nil
	}, cardID)
	if err != nil {
		return 0, err
	}

	return sum, nil
}

// lockCard читает строку карты под блокировкой и проверяет её пригодность.
// Срок действия проверяется по expires_at, а не по колонке status:
// карта могла истечь до прохода фоновой очистки.
func lockCard(ctx context.Context, tx pgx.Tx, code string) (*GiftCardDB, error) {
	card, err := scanGiftCard(tx.QueryRow(ctx, SelectGiftCardForUpdateQuery, code))
	if err != nil {
		return nil, err
	}
	if card == nil || card.Status == "cancelled" {
		return nil, ErrCardNotFound
	}
	if card.Status == "expired" || (card.ExpiresAt != nil && card.ExpiresAt.Before(time.Now())) {
		return nil, ErrCardExpired
	}
	if card.Status == "redeemed" || card.RemainingAmount == 0 {
		return nil, ErrCardRedeemed
	}
	return card, nil
}

// ReserveAmount создает резерв под блокировкой строки карты.
// Из двух конкурентных резервов на последний остаток пройдет ровно один.
func (d *Database) ReserveAmount(ctx context.Context, code string, amount int64, ownerID string, ttl time.Duration) (*ReservationDB, error) {
	res := &ReservationDB{
		ID:        uuid.NewString(),
		Amount:    amount,
		OwnerID:   ownerID,
		ExpiresAt: time.Now().Add(ttl),
	}

	err := d.inTx(ctx, func(tx pgx.Tx) error {
		card, err := lockCard(ctx, tx, code)
		if err != nil {
			return err
		}

		var reserved int64
		if err := tx.QueryRow(ctx, SelectActiveReservationSumQuery, card.ID).Scan(&reserved); err != nil {
			return fmt.Errorf("ошибка подсчета резервов: %w", err)
		}

		if amount > card.RemainingAmount-reserved {
			return ErrCardInsufficient
		}

		res.CardID = card.ID
		if _, err := tx.Exec(ctx, InsertReservationQuery,
			res.ID, res.CardID, res.Amount, res.OwnerID, res.ExpiresAt); err != nil {
			return fmt.Errorf("ошибка создания резерва: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// ReleaseReservations снимает активные резервы карты, при непустом
// ownerID — только резервы этого владельца. Отсутствие резервов не ошибка.
func (d *Database) ReleaseReservations(ctx context.Context, code, ownerID string) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		card, err := scanGiftCard(tx.QueryRow(ctx, SelectGiftCardForUpdateQuery, code))
		if err != nil {
			return err
		}
		if card == nil {
			return ErrCardNotFound
		}

		if _, err := tx.Exec(ctx, DeleteCardReservationsQuery, card.ID, ownerID); err != nil {
			return fmt.Errorf("ошибка снятия резервов: %w", err)
		}

		return nil
	})
}

// redeemInTx выполняет необратимое списание внутри уже открытой
// транзакции. Резерв владельца конвертируется в списание; при его
// отсутствии и requireReservation == false списание идет напрямую
// из доступного остатка.
func redeemInTx(ctx context.Context, tx pgx.Tx, code string, amount int64, ownerID string, requireReservation bool) error {
	card, err := lockCard(ctx, tx, code)
	if err != nil {
		return err
	}

	var owned int64
	if err := tx.QueryRow(ctx, SelectOwnerReservationSumQuery, card.ID, ownerID).Scan(&owned); err != nil {
		return fmt.Errorf("ошибка подсчета резервов владельца: %w", err)
	}

	if owned == 0 && requireReservation {
		return ErrNoReservation
	}

	if _, err := tx.Exec(ctx, DeleteCardReservationsQuery, card.ID, ownerID); err != nil {
		return fmt.Errorf("ошибка снятия резервов: %w", err)
	}

	var reservedByOthers int64
	if err := tx.QueryRow(ctx, SelectActiveReservationSumQuery, card.ID).Scan(&reservedByOthers); err != nil {
		return fmt.Errorf("ошибка подсчета резервов: %w", err)
	}

	if amount > card.RemainingAmount-reservedByOthers {
		return ErrCardInsufficient
	}

	remaining := card.RemainingAmount - amount
	status := card.Status
	if remaining == 0 {
		status = "redeemed"
	}

	if _, err := tx.Exec(ctx, UpdateCardBalanceQuery, card.ID, remaining, status); err != nil {
		return fmt.Errorf("ошибка списания с карты: %w", err)
	}

	return nil
}

// RedeemAmount — самостоятельное погашение вне потока оформления заказа.
func (d *Database) RedeemAmount(ctx context.Context, code string, amount int64, ownerID string, requireReservation bool) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		return redeemInTx(ctx, tx, code, amount, ownerID, requireReservation)
	})
}

// DeleteExpiredReservations вычищает просроченные резервы.
func (d *Database) DeleteExpiredReservations(ctx context.Context) (int64, error) {
	tag, err := d.exec(ctx, DeleteExpiredReservationsQuery)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления просроченных резервов: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExpireGiftCards помечает карты с истекшим сроком действия,
// не трогая остаток.
func (d *Database) ExpireGiftCards(ctx context.Context) (int64, error) {
	tag, err := d.exec(ctx, ExpireGiftCardsQuery)
	if err != nil {
		return 0, fmt.Errorf("ошибка пометки истекших карт: %w", err)
	}
	return tag.RowsAffected(), nil
}
