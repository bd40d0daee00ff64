package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnavailable возвращается после исчерпания повторных попыток
// при недоступности базы данных.
var ErrUnavailable = errors.New("хранилище недоступно")

type Database struct {
	db  *pgxpool.Pool
	dsn string
}

//go:embed migrations/*
var migrationsFS embed.FS // Встраивание файлов миграций

// checkConnection проверяет доступность базы данных с использованием пула подключений.
func checkConnection(ctx context.Context, db *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}

	return nil
}

// New создает новый экземпляр Database, устанавливает соединение и проверяет его.
func New(ctx context.Context, dsn string) (*Database, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании пула подключений: %w", err)
	}

	if err := checkConnection(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db, dsn: dsn}, nil
}

// RunMigrations выполняет миграции базы данных из встроенных файлов.
func (d *Database) RunMigrations() error {
	driver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("не удалось создать источник миграций: %w", err)
	}

	migrations, err := migrate.NewWithSourceInstance("iofs", driver, d.dsn)
	if err != nil {
		return fmt.Errorf("не удалось инициализировать миграции: %w", err)
	}

	err = migrations.Up()
	if err != nil {
		if err == migrate.ErrNoChange {
			log.Println("Новых миграций не найдено")
			return nil
		}
		return fmt.Errorf("ошибка при выполнении миграций: %w", err)
	}

	log.Println("Миграции успешно применены")
	return nil
}

// Close закрывает пул подключений к базе данных.
func (d *Database) Close() {
	if d.db != nil {
		d.db.Close()
	}
}

const (
	retryAttempts = 3
	retryBackoff  = 200 * time.Millisecond
)

// isTransient распознает инфраструктурные сбои, которые имеет смысл
// повторить: обрывы соединения и сериализационные конфликты.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected
	}
	return false
}

// withRetry выполняет fn с ограниченным числом повторов и растущей
// паузой. Бизнес-ошибки не повторяются, после исчерпания попыток
// наружу уходит ErrUnavailable.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err = fn(); err == nil || !isTransient(err) {
			return err
		}
		if attempt == retryAttempts-1 {
			break
		}

		select {
		case <-time.After(retryBackoff * time.Duration(attempt+1)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
}

// inTx выполняет fn в транзакции с откатом при ошибке.
func (d *Database) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return withRetry(ctx, func() error {
		tx, err := d.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("не удалось открыть транзакцию: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := fn(tx); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
}

// exec выполняет одиночный оператор вне транзакции с теми же
// повторами, что и inTx.
func (d *Database) exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag

	err := withRetry(ctx, func() error {
		var execErr error
		tag, execErr = d.db.Exec(ctx, sql, args...)
		return execErr
	})

	return tag, err
}

// queryRow выполняет одиночный SELECT с повторами. У pgx ошибка
// соединения всплывает только в Scan, поэтому повторяется весь цикл
// запрос-чтение.
func (d *Database) queryRow(ctx context.Context, sql string, scan func(row pgx.Row) error, args ...interface{}) error {
	return withRetry(ctx, func() error {
		return scan(d.db.QueryRow(ctx, sql, args...))
	})
}

// queryRows выполняет SELECT нескольких строк с повторами. collect
// обязан начинать накопление заново при каждом вызове.
func (d *Database) queryRows(ctx context.Context, sql string, collect func(rows pgx.Rows) error, args ...interface{}) error {
	return withRetry(ctx, func() error {
		rows, err := d.db.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		return collect(rows)
	})
}
