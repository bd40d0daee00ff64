package models

import "github.com/timmyblive/customheroes-storybook-sub000/internal/utils"

// GiftCardStatus описывает состояние подарочной карты.
// Поле не является авторитетным для истекших карт: срок действия
// проверяется по expires_at при каждом обращении, колонка
// выравнивается фоновой очисткой.
type GiftCardStatus string

const (
	GiftCardActive    GiftCardStatus = "active"
	GiftCardRedeemed  GiftCardStatus = "redeemed"
	GiftCardExpired   GiftCardStatus = "expired"
	GiftCardCancelled GiftCardStatus = "cancelled"
)

// GiftCard — подарочная карта с фиксированным номиналом.
// Инвариант: 0 <= remaining <= initial; remaining == 0 <=> redeemed.
type GiftCard struct {
	ID              string             `json:"id"`
	Code            string             `json:"code"`
	InitialAmount   int64              `json:"initial_amount"`
	RemainingAmount int64              `json:"remaining_amount"`
	Currency        string             `json:"currency"`
	Status          GiftCardStatus     `json:"status"`
	RecipientName   string             `json:"recipient_name,omitempty"`
	RecipientEmail  string             `json:"recipient_email,omitempty"`
	SenderName      string             `json:"sender_name,omitempty"`
	Message         string             `json:"message,omitempty"`
	ExpiresAt       *utils.RFC3339Date `json:"expires_at,omitempty"`
	LastUsedAt      *utils.RFC3339Date `json:"last_used_at,omitempty"`
	CreatedAt       utils.RFC3339Date  `json:"created_at"`
}

// CardBalance — ответ на проверку карты: доступный остаток
// за вычетом активных резервов.
type CardBalance struct {
	Code      string         `json:"code"`
	Available int64          `json:"available"`
	Remaining int64          `json:"remaining"`
	Currency  string         `json:"currency"`
	Status    GiftCardStatus `json:"status"`
}

// Reservation — временный резерв части остатка карты на период
// оформления заказа, до подтверждения оплаты.
type Reservation struct {
	ID        string            `json:"id"`
	Code      string            `json:"code"`
	Amount    int64             `json:"amount"`
	OwnerID   string            `json:"owner_id"`
	CreatedAt utils.RFC3339Date `json:"created_at"`
	ExpiresAt utils.RFC3339Date `json:"expires_at"`
}

// NewGiftCard — параметры административного создания карты.
type NewGiftCard struct {
	Code           *string `json:"code"`
	InitialAmount  *int64  `json:"initial_amount"`
	Currency       *string `json:"currency"`
	RecipientName  *string `json:"recipient_name"`
	RecipientEmail *string `json:"recipient_email"`
	SenderName     *string `json:"sender_name"`
	Message        *string `json:"message"`
	ValidDays      *int    `json:"valid_days"`
}
