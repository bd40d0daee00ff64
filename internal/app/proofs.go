package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/middlewares"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
)

// UploadProof прикрепляет готовый макет к заказу.
// Допустимо только пока заказ находится в подготовке макета.
func UploadProof(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	data := middlewares.GetParsedJSONData[models.ProofArtifactRequest](w, r)

	proofService := middlewares.GetServiceFromContext[models.ProofService](w, r, middlewares.ProofServiceKey)

	if data.ArtifactURL == nil || *data.ArtifactURL == "" {
		http.Error(w, "Ссылка на макет не указана", http.StatusBadRequest)
		return
	}

	if err := (*proofService).UploadProof(r.Context(), orderID, *data.ArtifactURL); err != nil {
		if handled := writeOrderError(w, err); handled {
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при загрузке макета: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// UpdateProof заменяет уже загруженный макет до отправки клиенту.
func UpdateProof(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	data := middlewares.GetParsedJSONData[models.ProofArtifactRequest](w, r)

	proofService := middlewares.GetServiceFromContext[models.ProofService](w, r, middlewares.ProofServiceKey)

	if data.ArtifactURL == nil || *data.ArtifactURL == "" {
		http.Error(w, "Ссылка на макет не указана", http.StatusBadRequest)
		return
	}

	if err := (*proofService).UpdateProof(r.Context(), orderID, *data.ArtifactURL); err != nil {
		if handled := writeOrderError(w, err); handled {
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при замене макета: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// SendProof отправляет макет клиенту на согласование. Повторная
// отправка (resend) не меняет статус заказа и не считается правкой.
func SendProof(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	data := middlewares.GetParsedJSONData[models.SendProofRequest](w, r)

	proofService := middlewares.GetServiceFromContext[models.ProofService](w, r, middlewares.ProofServiceKey)

	isResend := data.Resend != nil && *data.Resend

	if err := (*proofService).SendProof(r.Context(), orderID, isResend); err != nil {
		if handled := writeOrderError(w, err); handled {
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при отправке макета: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// MarkProofDelivery принимает обратный вызов диспетчера рассылок о
// статусе доставки письма с макетом.
func MarkProofDelivery(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	data := middlewares.GetParsedJSONData[models.DeliveryCallback](w, r)

	proofService := middlewares.GetServiceFromContext[models.ProofService](w, r, middlewares.ProofServiceKey)

	if data.Status == nil || *data.Status == "" {
		http.Error(w, "Статус доставки не указан", http.StatusBadRequest)
		return
	}

	if err := (*proofService).MarkSendDelivery(r.Context(), recordID, models.DeliveryStatus(*data.Status)); err != nil {
		if handled := writeOrderError(w, err); handled {
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при обновлении статуса доставки: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
