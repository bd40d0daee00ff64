package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// parsedJSONDataFieldType определяет тип ключа для разобранного тела запроса.
type parsedJSONDataFieldType string

// parsedJSONDataField — ключ, под которым разобранное тело лежит в контексте запроса.
const parsedJSONDataField parsedJSONDataFieldType = "parsedJSONDataField"

// ModelParameter ограничивает модели тела запроса: одиночное значение или срез значений.
type ModelParameter interface {
	interface{} | []interface{}
}

// JSONMiddleware разбирает JSON-тело запроса в модель Model и кладет её в контекст.
// Обработчику остается забрать уже готовую структуру через GetParsedJSONData.
func JSONMiddleware[Model ModelParameter](next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Принимаем только application/json.
		if r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "Тип контента не является application/json", http.StatusUnsupportedMediaType)
			return
		}

		var parsedData Model
		var buf bytes.Buffer

		if _, err := buf.ReadFrom(r.Body); err != nil {
			http.Error(w, fmt.Sprintf("Ошибка чтения из тела запроса: %s", err.Error()), http.StatusBadRequest)
			return
		}

		if err := json.Unmarshal(buf.Bytes(), &parsedData); err != nil {
			http.Error(w, fmt.Sprintf("Ошибка при разборе данных JSON: %s", err.Error()), http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), parsedJSONDataField, parsedData)))
	})
}

// GetParsedJSONData достает разобранное тело запроса из контекста.
// При отсутствии данных пишет HTTP 500 и возвращает нулевое значение модели.
func GetParsedJSONData[Model ModelParameter](w http.ResponseWriter, r *http.Request) Model {
	data, ok := r.Context().Value(parsedJSONDataField).(Model)

	if !ok {
		http.Error(w, "Не удалось извлечь данные из контекста", http.StatusInternalServerError)
		var empty Model
		return empty
	}

	return data
}

// EncodeJSONResponse сериализует data в JSON и пишет в ответ.
func EncodeJSONResponse[Model any](w http.ResponseWriter, data Model) {
	w.Header().Set("Content-Type", "application/json")

	resp, err := json.Marshal(data)
	if err != nil {
		http.Error(w, fmt.Sprintf("Ошибка при кодировании JSON-ответа: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	if _, err := w.Write(resp); err != nil {
		http.Error(w, fmt.Sprintf("Ошибка при отправке ответа: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
