package models

import "github.com/timmyblive/customheroes-storybook-sub000/internal/utils"

// CheckoutRequest — заявка на оформление заказа.
// Токен черновика передается повторно, если клиент меняет состав
// заказа: старые резервы карты при этом снимаются.
type CheckoutRequest struct {
	DraftToken     *string       `json:"draft_token"`
	CustomerName   *string       `json:"customer_name"`
	CustomerEmail  *string       `json:"customer_email"`
	PackageTier    *string       `json:"package_tier"`
	PageCount      *int          `json:"page_count"`
	Addons         []string      `json:"addons"`
	TotalAmount    *int64        `json:"total_amount"`
	Currency       *string       `json:"currency"`
	GiftCardCode   *string       `json:"gift_card_code"`
	GiftCardAmount *int64        `json:"gift_card_amount"`
	Shipping       *ShippingInfo `json:"shipping"`
}

// CheckoutResponse — результат старта оформления.
// RedirectURL пуст, если карта покрыла заказ целиком и оплата
// внешнему процессингу не требуется.
type CheckoutResponse struct {
	DraftToken  string `json:"draft_token"`
	RedirectURL string `json:"redirect_url,omitempty"`
	OrderID     string `json:"order_id,omitempty"`
}

// Draft — серверный черновик заказа, привязанный к токену сессии.
// Клиент хранит только токен, авторитетные данные живут в базе.
type Draft struct {
	Token          string            `json:"token"`
	CustomerName   string            `json:"customer_name"`
	CustomerEmail  string            `json:"customer_email"`
	PackageTier    string            `json:"package_tier"`
	PageCount      int               `json:"page_count"`
	Addons         []string          `json:"addons,omitempty"`
	TotalAmount    int64             `json:"total_amount"`
	Currency       string            `json:"currency"`
	GiftCardCode   string            `json:"gift_card_code,omitempty"`
	GiftCardAmount int64             `json:"gift_card_amount,omitempty"`
	OrderID        string            `json:"order_id,omitempty"`
	CreatedAt      utils.RFC3339Date `json:"created_at"`
	ExpiresAt      utils.RFC3339Date `json:"expires_at"`
}

// PaymentCallback — обратный вызов платежной системы.
// Подпись считается общим секретом по токену черновика и payment_ref.
type PaymentCallback struct {
	PaymentRef *string `json:"payment_ref"`
	Status     *string `json:"status"`
	Signature  *string `json:"signature"`
}

// CancelReservationsRequest — запрос на снятие резервов карты.
type CancelReservationsRequest struct {
	Code    *string `json:"code"`
	OwnerID *string `json:"owner_id"`
}

// CheckCardRequest — запрос проверки остатка карты.
type CheckCardRequest struct {
	Code *string `json:"code"`
}
