package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/database"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/middlewares"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/services"
)

// writeOrderError переводит ошибки жизненного цикла заказа в HTTP-статусы.
func writeOrderError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		http.Error(w, "Заказ не найден", http.StatusNotFound)
	case errors.Is(err, services.ErrInvalidTransition):
		http.Error(w, "Переход в этот статус из текущего невозможен", http.StatusConflict)
	case errors.Is(err, services.ErrConflict):
		http.Error(w, "Заказ изменился, повторите запрос после перечитывания", http.StatusConflict)
	case errors.Is(err, services.ErrMissingPrerequisite):
		http.Error(w, "Не хватает данных для перехода в этот статус", http.StatusBadRequest)
	case errors.Is(err, services.ErrForbiddenActor):
		http.Error(w, "Переход недоступен этому участнику", http.StatusForbidden)
	case errors.Is(err, database.ErrUnavailable):
		http.Error(w, "Сервис временно недоступен, повторите запрос", http.StatusServiceUnavailable)
	default:
		return false
	}
	return true
}

// GetOrders возвращает список заказов, при наличии параметра status —
// отфильтрованный по статусу.
func GetOrders(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	status := models.OrderStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		http.Error(w, "Неизвестный статус заказа", http.StatusBadRequest)
		return
	}

	orders, err := (*orderService).ListOrders(r.Context(), status)
	if err != nil {
		http.Error(w, fmt.Sprintf("Произошла ошибка при получении заказов: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	middlewares.EncodeJSONResponse(w, orders)
}

// GetOrder возвращает заказ с макетом и историей статусов.
func GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	order, err := (*orderService).GetOrder(r.Context(), orderID)
	if err != nil {
		if handled := writeOrderError(w, err); handled {
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при получении заказа: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, order)
}

// UpdateOrderStatus выполняет административный переход статуса заказа.
// Для перехода в shipped обязательны перевозчик и трек-номер.
func UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	data := middlewares.GetParsedJSONData[models.StatusUpdateRequest](w, r)

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	if data.Status == nil || *data.Status == "" {
		http.Error(w, "Целевой статус не указан", http.StatusBadRequest)
		return
	}

	target := models.OrderStatus(*data.Status)
	if !target.Valid() {
		http.Error(w, "Неизвестный статус заказа", http.StatusBadRequest)
		return
	}

	var shipping *models.ShippingInfo
	if data.Carrier != nil || data.TrackingNumber != nil {
		shipping = &models.ShippingInfo{}
		if data.Carrier != nil {
			shipping.Carrier = *data.Carrier
		}
		if data.TrackingNumber != nil {
			shipping.TrackingNumber = *data.TrackingNumber
		}
	}

	if err := (*orderService).Transition(r.Context(), orderID, target, models.ActorStaff, shipping); err != nil {
		if handled := writeOrderError(w, err); handled {
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при смене статуса: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ApproveProof фиксирует утверждение макета клиентом.
// Повторное утверждение уже утвержденного макета завершается успешно.
func ApproveProof(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	proofService := middlewares.GetServiceFromContext[models.ProofService](w, r, middlewares.ProofServiceKey)

	if err := (*proofService).Approve(r.Context(), orderID); err != nil {
		if handled := writeOrderError(w, err); handled {
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при утверждении макета: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// RequestRevision фиксирует запрос правок макета клиентом.
func RequestRevision(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	data := middlewares.GetParsedJSONData[models.RevisionRequest](w, r)

	proofService := middlewares.GetServiceFromContext[models.ProofService](w, r, middlewares.ProofServiceKey)

	var notes string
	if data.Notes != nil {
		notes = *data.Notes
	}

	if err := (*proofService).RequestRevision(r.Context(), orderID, notes); err != nil {
		if errors.Is(err, services.ErrRevisionLimitExceeded) {
			http.Error(w, "Лимит правок макета исчерпан", http.StatusConflict)
			return
		}

		if handled := writeOrderError(w, err); handled {
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при запросе правок: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
