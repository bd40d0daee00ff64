package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/timmyblive/customheroes-storybook-sub000/internal/database"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/middlewares"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/services"
)

// writeLedgerError переводит ошибки леджера карт в HTTP-статусы.
// notFoundStatus задает статус для ненайденной карты: 422 для ввода
// кода клиентом, 404 для административных запросов.
func writeLedgerError(w http.ResponseWriter, err error, notFoundStatus int) bool {
	switch {
	case errors.Is(err, services.ErrCardNotFound), errors.Is(err, services.ErrInvalidCode):
		http.Error(w, "Подарочная карта не найдена или код введен неверно", notFoundStatus)
	case errors.Is(err, services.ErrCardExpired):
		http.Error(w, "Срок действия подарочной карты истек", http.StatusGone)
	case errors.Is(err, services.ErrCardAlreadyRedeemed):
		http.Error(w, "Подарочная карта уже полностью использована", http.StatusGone)
	case errors.Is(err, services.ErrInsufficientBalance):
		http.Error(w, "На подарочной карте недостаточно средств", http.StatusPaymentRequired)
	case errors.Is(err, services.ErrReservationNotFound):
		http.Error(w, "Резерв по карте не найден", http.StatusNotFound)
	case errors.Is(err, database.ErrUnavailable):
		http.Error(w, "Сервис временно недоступен, повторите запрос", http.StatusServiceUnavailable)
	default:
		return false
	}
	return true
}

// CheckGiftCard возвращает доступный остаток карты за вычетом
// активных резервов.
func CheckGiftCard(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[models.CheckCardRequest](w, r)

	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)

	if data.Code == nil || *data.Code == "" {
		http.Error(w, "Код карты не указан", http.StatusBadRequest)
		return
	}

	balance, err := (*ledgerService).Check(r.Context(), *data.Code)
	if err != nil {
		if handled := writeLedgerError(w, err, http.StatusUnprocessableEntity); handled {
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при проверке карты: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, balance)
}

// CancelReservations снимает резервы карты. Повторный вызов без
// активных резервов завершается успешно.
func CancelReservations(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[models.CancelReservationsRequest](w, r)

	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)

	if data.Code == nil || *data.Code == "" {
		http.Error(w, "Код карты не указан", http.StatusBadRequest)
		return
	}

	var ownerID string
	if data.OwnerID != nil {
		ownerID = *data.OwnerID
	}

	if err := (*ledgerService).CancelReservations(r.Context(), *data.Code, ownerID); err != nil {
		if handled := writeLedgerError(w, err, http.StatusUnprocessableEntity); handled {
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при снятии резервов: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// CreateGiftCard создает подарочную карту (административная операция).
func CreateGiftCard(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[models.NewGiftCard](w, r)

	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)

	card, err := (*ledgerService).CreateCard(r.Context(), data)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAmount) || errors.Is(err, services.ErrInvalidCode) {
			http.Error(w, "Номинал или код карты недопустимы", http.StatusBadRequest)
			return
		}

		if errors.Is(err, services.ErrDuplicateCard) {
			http.Error(w, "Карта с таким кодом уже существует", http.StatusConflict)
			return
		}

		if errors.Is(err, database.ErrUnavailable) {
			http.Error(w, "Сервис временно недоступен, повторите запрос", http.StatusServiceUnavailable)
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при создании карты: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	middlewares.EncodeJSONResponse(w, card)
}
