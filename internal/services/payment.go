package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	errPaymentRejected = errors.New("платежная система отклонила запрос")
)

// PaymentService — клиент внешней платежной системы. Ядро не проводит
// платежи само: оно создает сессию оплаты на остаток после подарочной
// карты и проверяет подпись обратного вызова.
type PaymentService struct {
	endpoint string
	secret   string
	client   *http.Client
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(endpoint, secret string) *PaymentService {
	return &PaymentService{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{},
	}
}

type paymentSessionRequest struct {
	Token    string `json:"token"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type paymentSessionResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// CreateSession регистрирует сессию оплаты и возвращает URL,
// на который нужно перенаправить клиента.
func (p *PaymentService) CreateSession(ctx context.Context, token string, amount int64, currency string) (string, error) {
	body, err := json.Marshal(paymentSessionRequest{
		Token:    token,
		Amount:   amount,
		Currency: currency,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/sessions", p.endpoint), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send data by using POST method: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: статус %d", errPaymentRejected, res.StatusCode)
	}

	var parsed paymentSessionResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return parsed.RedirectURL, nil
}

// sign вычисляет подпись обратного вызова общим секретом.
func (p *PaymentService) sign(token, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write([]byte(token))
	mac.Write([]byte(paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature проверяет подпись вебхука платежной системы.
func (p *PaymentService) VerifySignature(token, paymentRef, signature string) bool {
	expected := p.sign(token, paymentRef)
	return hmac.Equal([]byte(expected), []byte(signature))
}
