package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmyblive/customheroes-storybook-sub000/internal/database"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Определение пользовательских ошибок
var (
	ErrUserIsAlreadyRegistered = errors.New("пользователь уже зарегистрирован")
	ErrUserIsNotExist          = errors.New("пользователь не существует")
	ErrPasswordIsIncorrect     = errors.New("пароль неверен")
)

// AuthService представляет сервис для аутентификации сотрудников
type AuthService struct {
	storage AuthStorage
}

// AuthStorage определяет интерфейс для взаимодействия с хранилищем учетных записей
type AuthStorage interface {
	CreateUser(ctx context.Context, user database.UserDB) error           // Создание новой учетной записи
	FindUser(ctx context.Context, login string) (*database.UserDB, error) // Поиск учетной записи по логину
}

// NewAuthService создает новый экземпляр AuthService с заданным хранилищем
func NewAuthService(storage AuthStorage) *AuthService {
	return &AuthService{storage: storage}
}

// Register регистрирует новую учетную запись сотрудника
func (auth *AuthService) Register(ctx context.Context, user models.UnknownUser) error {
	// Проверка валидности входных данных
	if err := validateUser(user); err != nil {
		return err
	}

	// Хэширование пароля
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ошибка при хэшировании пароля: %w", err)
	}

	// Создание учетной записи в хранилище
	err = auth.storage.CreateUser(ctx, database.UserDB{
		User: models.User{
			Login: *user.Login,
			Hash:  string(hashedPassword),
		},
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateUser) {
			return ErrUserIsAlreadyRegistered
		}
		return fmt.Errorf("ошибка при создании учетной записи: %w", err)
	}

	return nil
}

// Login выполняет аутентификацию сотрудника
func (auth *AuthService) Login(ctx context.Context, user models.UnknownUser) error {
	// Проверка валидности входных данных
	if err := validateUser(user); err != nil {
		return err
	}

	// Поиск учетной записи по логину
	u, err := auth.storage.FindUser(ctx, *user.Login)
	if err != nil {
		return fmt.Errorf("ошибка при поиске учетной записи: %w", err)
	}

	if u == nil {
		return ErrUserIsNotExist
	}

	// Сравнение пароля
	if err := bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(*user.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordIsIncorrect
		}
		return fmt.Errorf("ошибка при сравнении паролей: %w", err)
	}

	return nil
}

// GetUser возвращает информацию об учетной записи по логину
func (auth *AuthService) GetUser(ctx context.Context, login string) (*models.User, error) {
	user, err := auth.storage.FindUser(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("ошибка при поиске учетной записи: %w", err)
	}

	if user == nil {
		return nil, ErrUserIsNotExist
	}

	return &user.User, nil
}

// validateUser проверяет валидность входных данных
func validateUser(user models.UnknownUser) error {
	if user.Login == nil || *user.Login == "" {
		return errors.New("логин не может быть пустым")
	}
	if user.Password == nil || *user.Password == "" {
		return errors.New("пароль не может быть пустым")
	}
	return nil
}
