package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/middlewares"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/services"
)

// StartCheckout обрабатывает запрос на оформление заказа: создает или
// обновляет черновик, резервирует подарочную карту и возвращает URL
// оплаты либо идентификатор сразу созданного заказа.
func StartCheckout(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[models.CheckoutRequest](w, r)

	checkoutService := middlewares.GetServiceFromContext[models.CheckoutService](w, r, middlewares.CheckoutServiceKey)

	resp, err := (*checkoutService).StartCheckout(r.Context(), data)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCheckout) {
			http.Error(w, "Заявка на оформление неполна или противоречива", http.StatusBadRequest)
			return
		}

		if handled := writeLedgerError(w, err, http.StatusUnprocessableEntity); handled {
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при оформлении заказа: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, resp)
}

// GetDraft возвращает черновик заказа по токену сессии. Клиент хранит
// только токен и восстанавливает состав заказа с сервера.
func GetDraft(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	checkoutService := middlewares.GetServiceFromContext[models.CheckoutService](w, r, middlewares.CheckoutServiceKey)

	draft, err := (*checkoutService).GetDraft(r.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrDraftNotFound) {
			http.Error(w, "Черновик заказа не найден", http.StatusNotFound)
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при чтении черновика: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, draft)
}

// ConfirmPayment обрабатывает вебхук платежной системы. Запрос обязан
// нести подпись общим секретом; повторная доставка вебхука возвращает
// уже созданный заказ.
func ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	data := middlewares.GetParsedJSONData[models.PaymentCallback](w, r)

	checkoutService := middlewares.GetServiceFromContext[models.CheckoutService](w, r, middlewares.CheckoutServiceKey)

	if data.PaymentRef == nil || data.Signature == nil {
		http.Error(w, "В запросе отсутствует payment_ref или подпись", http.StatusBadRequest)
		return
	}

	if !(*checkoutService).VerifySignature(token, *data.PaymentRef, *data.Signature) {
		http.Error(w, "Подпись запроса недействительна", http.StatusUnauthorized)
		return
	}

	// Неуспешная оплата: снимаем резервы черновика, заказ не создается.
	if data.Status != nil && *data.Status == "failed" {
		if err := (*checkoutService).FailPayment(r.Context(), token); err != nil {
			if errors.Is(err, services.ErrDraftNotFound) {
				http.Error(w, "Черновик заказа не найден", http.StatusNotFound)
				return
			}

			http.Error(w, fmt.Sprintf("Произошла ошибка при отмене оформления: %s", err.Error()), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		return
	}

	orderID, err := (*checkoutService).ConfirmPayment(r.Context(), token, *data.PaymentRef)
	if err != nil {
		if errors.Is(err, services.ErrDraftNotFound) {
			http.Error(w, "Черновик заказа не найден", http.StatusNotFound)
			return
		}

		if handled := writeLedgerError(w, err, http.StatusUnprocessableEntity); handled {
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при подтверждении оплаты: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, models.CheckoutResponse{DraftToken: token, OrderID: orderID})
}
