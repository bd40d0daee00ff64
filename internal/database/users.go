package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateUser = errors.New("пользователь уже существует")
)

const (
	InsertUserQuery = `
        INSERT INTO
            users (login, hash)
        VALUES ($1, $2)
    `
	SelectUserQuery = `
        SELECT
            id,
            login,
            hash
        FROM
            users
        WHERE
            login = $1
    `
)

type UserDB struct {
	models.User
}

// CreateUser создает нового пользователя в базе данных
func (d *Database) CreateUser(ctx context.Context, user UserDB) error {
	if _, err := d.exec(ctx, InsertUserQuery, user.Login, user.Hash); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateUser
		}
		return fmt.Errorf("ошибка при создании пользователя: %w", err)
	}
	return nil
}

// FindUser находит пользователя в базе данных по логину
func (d *Database) FindUser(ctx context.Context, login string) (*UserDB, error) {
	var user *UserDB

	err := d.queryRow(ctx, SelectUserQuery, func(row pgx.Row) error {
		item := &UserDB{}
		if err := row.Scan(&item.ID, &item.Login, &item.Hash); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("ошибка при получении пользователя: %w", err)
		}
		user = item
		return nil
	}, login)
	if err != nil {
		return nil, err
	}
	return user, nil
}
