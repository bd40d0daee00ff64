package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
)

// Определение пользовательских ошибок
var (
	ErrDuplicateOrder = errors.New("заказ уже существует")
	ErrOrderNotFound  = errors.New("заказ не найден")
	ErrStatusConflict = errors.New("статус заказа изменился") // Проигранная гонка за переход
)

// SQL-запросы для работы с заказами
const (
	InsertOrderQuery = `
		INSERT INTO
			orders (id, customer_name, customer_email, package_tier, page_count,
				addons, total_amount, currency, status, gift_card_code,
				gift_card_amount, payment_ref, address_line, city, postal_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	SelectOrderQuery = `
		SELECT
			id,
			customer_name,
			customer_email,
			package_tier,
			page_count,
			addons,
			total_amount,
			currency,
			status,
			gift_card_code,
			gift_card_amount,
			payment_ref,
			carrier,
			tracking_number,
			address_line,
			city,
			postal_code,
			country,
			shipped_at,
			created_at,
			updated_at
		FROM
			orders
		WHERE
			id = $1
	`
	SelectOrdersQuery = `
		SELECT
			id,
			customer_name,
			customer_email,
			package_tier,
			page_count,
			addons,
			total_amount,
			currency,
			status,
			gift_card_code,
			gift_card_amount,
			payment_ref,
			carrier,
			tracking_number,
			address_line,
			city,
			postal_code,
			country,
			shipped_at,
			created_at,
			updated_at
		FROM
			orders
		WHERE
			$1 = '' OR status = $1
		ORDER BY
			created_at
	`
	// Сравнение с прежним статусом делает обновление атомарным:
	// конкурентный переход обнаруживается по нулю затронутых строк.
	UpdateOrderStatusQuery = `
		UPDATE
			orders
		SET
			status = $3,
			updated_at = now()
		WHERE
			id = $1
			AND status = $2
	`
	UpdateOrderShippingQuery = `
		UPDATE
			orders
		SET
			carrier = $2,
			tracking_number = $3,
			shipped_at = now()
		WHERE
			id = $1
	`
	InsertStatusHistoryQuery = `
		INSERT INTO
			order_status_history (order_id, status, actor)
		VALUES ($1, $2, $3)
	`
	SelectStatusHistoryQuery = `
		SELECT
			status,
			actor,
			created_at
		FROM
			order_status_history
		WHERE
			order_id = $1
		ORDER BY
			id
	`
	// Уникальность пары (order_id, status) дает идемпотентность
	// уведомлений: повтор перехода не создает второй записи.
	InsertNotificationQuery = `
		INSERT INTO
			notifications (order_id, status, recipient)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, status) DO NOTHING
	`
)

// Структура для хранения информации о заказе
type OrderDB struct {
	ID             string
	CustomerName   string
	CustomerEmail  string
	PackageTier    string
	PageCount      int
	Addons         []string
	TotalAmount    int64
	Currency       string
	Status         OrderStatusDB
	GiftCardCode   string
	GiftCardAmount int64
	PaymentRef     string
	Carrier        string
	TrackingNumber string
	AddressLine    string
	City           string
	PostalCode     string
	Country        string
	ShippedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StatusHistoryItemDB — запись истории статусов.
type StatusHistoryItemDB struct {
	Status    OrderStatusDB
	Actor     string
	CreatedAt time.Time
}

// ShippingDB — данные доставки, прикрепляемые при переходе в shipped.
type ShippingDB struct {
	Carrier        string
	TrackingNumber string
}

// Определение статуса заказа с возможностью преобразования в/из базы данных
type OrderStatusDB struct {
	models.OrderStatus
}

// Реализация интерфейса sql.Scanner для чтения статуса заказа из базы данных
func (s *OrderStatusDB) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("статус заказа должен быть строкой, а не %T", value)
	}

	*s = OrderStatusDB{models.OrderStatus(strVal)}
	return nil
}

// Реализация интерфейса driver.Valuer для записи статуса заказа в базу данных
func (s OrderStatusDB) Value() (driver.Value, error) {
	return string(s.OrderStatus), nil
}

func scanOrder(row pgx.Row) (*OrderDB, error) {
	order := &OrderDB{}
	err := row.Scan(&order.ID, &order.CustomerName, &order.CustomerEmail,
		&order.PackageTier, &order.PageCount, &order.Addons, &order.TotalAmount,
		&order.Currency, &order.Status, &order.GiftCardCode, &order.GiftCardAmount,
		&order.PaymentRef, &order.Carrier, &order.TrackingNumber, &order.AddressLine,
		&order.City, &order.PostalCode, &order.Country, &order.ShippedAt,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения заказа: %w", err)
	}
	return order, nil
}

// createOrderTx вставляет заказ вместе с пустым макетом, первой записью
// истории и уведомлением о создании. Вызывается только из потока
// финализации оформления.
func createOrderTx(ctx context.Context, tx pgx.Tx, order OrderDB) error {
	_, err := tx.Exec(ctx, InsertOrderQuery,
		order.ID, order.CustomerName, order.CustomerEmail, order.PackageTier,
		order.PageCount, order.Addons, order.TotalAmount, order.Currency,
		order.Status, order.GiftCardCode, order.GiftCardAmount, order.PaymentRef,
		order.AddressLine, order.City, order.PostalCode, order.Country)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("ошибка создания заказа: %w", err)
	}

	if _, err := tx.Exec(ctx, InsertProofQuery, order.ID); err != nil {
		return fmt.Errorf("ошибка создания макета: %w", err)
	}

	if _, err := tx.Exec(ctx, InsertStatusHistoryQuery, order.ID, order.Status, string(models.ActorSystem)); err != nil {
		return fmt.Errorf("ошибка записи истории статусов: %w", err)
	}

	if _, err := tx.Exec(ctx, InsertNotificationQuery, order.ID, order.Status, order.CustomerEmail); err != nil {
		return fmt.Errorf("ошибка постановки уведомления: %w", err)
	}

	return nil
}

// FindOrder ищет заказ по его ID. Возвращает nil без ошибки, если заказа нет.
func (d *Database) FindOrder(ctx context.Context, orderID string) (*OrderDB, error) {
	var order *OrderDB

	err := d.queryRow(ctx, SelectOrderQuery, func(row pgx.Row) error {
		var scanErr error
		order, scanErr = scanOrder(row)
		return scanErr
	}, orderID)
	if err != nil {
		return nil, err
	}

	return order, nil
}

// FindOrders возвращает заказы, при непустом статусе — только с ним.
func (d *Database) FindOrders(ctx context.Context, status string) ([]OrderDB, error) {
	var result []OrderDB

	err := d.queryRows(ctx, SelectOrdersQuery, func(rows pgx.Rows) error {
		result = result[:0]
		for rows.Next() {
			item, err := scanOrder(rows)
			if err != nil {
				return err
			}
			result = append(result, *item)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("ошибка итерации по строкам: %w", err)
		}
		return nil
	}, status)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// updateStatusTx атомарно переводит заказ в новый статус: смена статуса,
// прикрепление доставки, запись истории и уведомление фиксируются вместе.
func updateStatusTx(ctx context.Context, tx pgx.Tx, orderID string, from, to OrderStatusDB, actor, recipient string, shipping *ShippingDB) error {
	tag, err := tx.Exec(ctx, UpdateOrderStatusQuery, orderID, from, to)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса заказа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	if shipping != nil {
		if _, err := tx.Exec(ctx, UpdateOrderShippingQuery, orderID, shipping.Carrier, shipping.TrackingNumber); err != nil {
			return fmt.Errorf("ошибка прикрепления доставки: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, InsertStatusHistoryQuery, orderID, to, actor); err != nil {
		return fmt.Errorf("ошибка записи истории статусов: %w", err)
	}

	if _, err := tx.Exec(ctx, InsertNotificationQuery, orderID, to, recipient); err != nil {
		return fmt.Errorf("ошибка постановки уведомления: %w", err)
	}

	return nil
}

// UpdateOrderStatus выполняет переход статуса в отдельной транзакции.
func (d *Database) UpdateOrderStatus(ctx context.Context, orderID string, from, to OrderStatusDB, actor, recipient string, shipping *ShippingDB) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		return updateStatusTx(ctx, tx, orderID, from, to, actor, recipient, shipping)
	})
}

// FindStatusHistory возвращает историю статусов заказа в порядке записи.
func (d *Database) FindStatusHistory(ctx context.Context, orderID string) ([]StatusHistoryItemDB, error) {
	var result []StatusHistoryItemDB

	err := d.queryRows(ctx, SelectStatusHistoryQuery, func(rows pgx.Rows) error {
		result = result[:0]
		for rows.Next() {
			var item StatusHistoryItemDB
			if err := rows.Scan(&item.Status, &item.Actor, &item.CreatedAt); err != nil {
				return fmt.Errorf("ошибка обработки строки истории: %w", err)
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
