package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/timmyblive/customheroes-storybook-sub000/internal/middlewares"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/services"
)

// IsUnknownUserDataValid проверяет, что запрос содержит логин и пароль.
func IsUnknownUserDataValid(data models.UnknownUser) bool {
	return data.Login != nil && *data.Login != "" && data.Password != nil && *data.Password != ""
}

// Register обрабатывает запрос на регистрацию учетной записи сотрудника
// и возвращает JWT токен при успешной регистрации.
func Register(w http.ResponseWriter, r *http.Request) {
	// Извлекаем данные учетной записи из тела запроса.
	data := middlewares.GetParsedJSONData[models.UnknownUser](w, r)

	// Получаем сервисы аутентификации и JWT из контекста запроса.
	authService := middlewares.GetServiceFromContext[models.AuthService](w, r, middlewares.AuthServiceKey)
	jwtService := middlewares.GetServiceFromContext[models.JWTService](w, r, middlewares.JwtServiceKey)

	if ok := IsUnknownUserDataValid(data); !ok {
		http.Error(w, "Запрос не содержит логин или пароль", http.StatusBadRequest)
		return
	}

	// Пытаемся зарегистрировать учетную запись.
	if err := (*authService).Register(r.Context(), data); err != nil {
		if errors.Is(err, services.ErrUserIsAlreadyRegistered) {
			http.Error(w, fmt.Sprintf("Логин %s уже занят", *data.Login), http.StatusConflict)
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при регистрации: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	// Генерируем JWT токен для зарегистрированной учетной записи.
	token, err := (*jwtService).GenerateJWT(*data.Login)
	if err != nil {
		http.Error(w, fmt.Sprintf("Ошибка при генерации JWT токена: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	// Устанавливаем токен в заголовок ответа.
	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", token))
}

// Login обрабатывает запрос на вход сотрудника и возвращает JWT токен
// при успешной авторизации.
func Login(w http.ResponseWriter, r *http.Request) {
	// Извлекаем данные учетной записи из тела запроса.
	data := middlewares.GetParsedJSONData[models.UnknownUser](w, r)

	// Получаем сервисы аутентификации и JWT из контекста запроса.
	authService := middlewares.GetServiceFromContext[models.AuthService](w, r, middlewares.AuthServiceKey)
	jwtService := middlewares.GetServiceFromContext[models.JWTService](w, r, middlewares.JwtServiceKey)

	if ok := IsUnknownUserDataValid(data); !ok {
		http.Error(w, "Запрос не содержит логин или пароль", http.StatusBadRequest)
		return
	}

	// Пытаемся аутентифицировать сотрудника.
	if err := (*authService).Login(r.Context(), data); err != nil {
		if errors.Is(err, services.ErrUserIsNotExist) {
			http.Error(w, fmt.Sprintf("Сотрудник с логином %s не существует", *data.Login), http.StatusUnauthorized)
			return
		}

		if errors.Is(err, services.ErrPasswordIsIncorrect) {
			http.Error(w, "Неверный пароль", http.StatusUnauthorized)
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при входе: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	// Генерируем JWT токен для успешной аутентификации.
	token, err := (*jwtService).GenerateJWT(*data.Login)
	if err != nil {
		http.Error(w, fmt.Sprintf("Ошибка при генерации JWT токена: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	// Устанавливаем токен в заголовок ответа.
	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", token))
}
