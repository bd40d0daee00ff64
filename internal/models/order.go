package models

import (
	"github.com/timmyblive/customheroes-storybook-sub000/internal/utils"
)

// OrderStatus описывает текущее состояние заказа в жизненном цикле.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"          // Оплата подтверждена, заказ создан
	StatusCompleted       OrderStatus = "completed"        // Заказ принят в работу
	StatusProofGeneration OrderStatus = "proof_generation" // Макет книги готовится
	StatusProofSent       OrderStatus = "proof_sent"       // Макет отправлен клиенту на согласование
	StatusProofApproved   OrderStatus = "proof_approved"   // Клиент утвердил макет
	StatusProofRevision   OrderStatus = "proof_revision"   // Клиент запросил правки макета
	StatusPrinting        OrderStatus = "printing"         // Книга в печати
	StatusShipped         OrderStatus = "shipped"          // Заказ передан в доставку
	StatusDelivered       OrderStatus = "delivered"        // Заказ доставлен, терминальный статус
	StatusCancelled       OrderStatus = "cancelled"        // Заказ отменен, терминальный статус
)

// Actor определяет инициатора перехода статуса.
type Actor string

const (
	ActorStaff    Actor = "staff"
	ActorCustomer Actor = "customer"
	ActorSystem   Actor = "system"
)

// transitions задает граф допустимых переходов статусов.
// Единственное обратное ребро — proof_revision -> proof_generation (цикл правок).
// Отмена возможна из любого нетерминального статуса.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:         {StatusCompleted, StatusCancelled},
	StatusCompleted:       {StatusProofGeneration, StatusCancelled},
	StatusProofGeneration: {StatusProofSent, StatusCancelled},
	StatusProofSent:       {StatusProofApproved, StatusProofRevision, StatusCancelled},
	StatusProofApproved:   {StatusPrinting, StatusCancelled},
	StatusProofRevision:   {StatusProofGeneration, StatusCancelled},
	StatusPrinting:        {StatusShipped, StatusCancelled},
	StatusShipped:         {StatusDelivered, StatusCancelled},
	StatusDelivered:       {},
	StatusCancelled:       {},
}

// Valid сообщает, известен ли статус графу переходов.
func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal сообщает, является ли статус терминальным.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition проверяет наличие ребра from -> to в графе переходов.
// Все точки мутации статуса обязаны сверяться именно с этой таблицей.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ShippingInfo содержит данные доставки заказа.
// Перевозчик и трек-номер обязательны при переходе в shipped.
type ShippingInfo struct {
	Carrier        string             `json:"carrier"`
	TrackingNumber string             `json:"tracking_number"`
	AddressLine    string             `json:"address_line,omitempty"`
	City           string             `json:"city,omitempty"`
	PostalCode     string             `json:"postal_code,omitempty"`
	Country        string             `json:"country,omitempty"`
	ShippedAt      *utils.RFC3339Date `json:"shipped_at,omitempty"`
}

// StatusRecord — запись истории статусов заказа (только добавление).
type StatusRecord struct {
	Status    OrderStatus       `json:"status"`
	Actor     Actor             `json:"actor"`
	CreatedAt utils.RFC3339Date `json:"created_at"`
}

// StatusUpdateRequest — административный запрос смены статуса заказа.
// Перевозчик и трек-номер передаются вместе с переходом в shipped.
type StatusUpdateRequest struct {
	Status         *string `json:"status"`
	Carrier        *string `json:"carrier"`
	TrackingNumber *string `json:"tracking_number"`
}

// Order — заказ персонализированной книги.
type Order struct {
	ID             string            `json:"id"`
	CustomerName   string            `json:"customer_name"`
	CustomerEmail  string            `json:"customer_email"`
	PackageTier    string            `json:"package_tier"`
	PageCount      int               `json:"page_count"`
	Addons         []string          `json:"addons,omitempty"`
	TotalAmount    int64             `json:"total_amount"`
	Currency       string            `json:"currency"`
	Status         OrderStatus       `json:"status"`
	GiftCardCode   string            `json:"gift_card_code,omitempty"`
	GiftCardAmount int64             `json:"gift_card_amount,omitempty"`
	PaymentRef     string            `json:"payment_ref,omitempty"`
	Proof          *Proof            `json:"proof,omitempty"`
	Shipping       *ShippingInfo     `json:"shipping,omitempty"`
	History        []StatusRecord    `json:"history,omitempty"`
	CreatedAt      utils.RFC3339Date `json:"created_at"`
	UpdatedAt      utils.RFC3339Date `json:"updated_at"`
}
