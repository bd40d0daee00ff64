package models

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

//go:generate mockgen -destination=mocks/mock_auth.go . AuthService
type AuthService interface {
	Register(ctx context.Context, user UnknownUser) error

	Login(ctx context.Context, user UnknownUser) error

	GetUser(ctx context.Context, login string) (*User, error)
}

//go:generate mockgen -destination=mocks/mock_jwt.go . JWTService
type JWTService interface {
	GenerateJWT(subject string) (string, error)

	ValidateToken(token string) (*jwt.Token, error)
}

//go:generate mockgen -destination=mocks/mock_ledger.go . LedgerService
type LedgerService interface {
	Check(ctx context.Context, code string) (*CardBalance, error)

	Reserve(ctx context.Context, code string, amount int64, ownerID string) (*Reservation, error)

	CancelReservations(ctx context.Context, code, ownerID string) error

	Redeem(ctx context.Context, code string, amount int64, ownerID string, requireReservation bool) error

	CreateCard(ctx context.Context, card NewGiftCard) (*GiftCard, error)
}

//go:generate mockgen -destination=mocks/mock_order.go . OrderService
type OrderService interface {
	Transition(ctx context.Context, orderID string, target OrderStatus, actor Actor, shipping *ShippingInfo) error

	GetOrder(ctx context.Context, orderID string) (*Order, error)

	ListOrders(ctx context.Context, status OrderStatus) ([]Order, error)
}

//go:generate mockgen -destination=mocks/mock_proof.go . ProofService
type ProofService interface {
	UploadProof(ctx context.Context, orderID, artifactURL string) error

	UpdateProof(ctx context.Context, orderID, artifactURL string) error

	SendProof(ctx context.Context, orderID string, isResend bool) error

	Approve(ctx context.Context, orderID string) error

	RequestRevision(ctx context.Context, orderID, notes string) error

	MarkSendDelivery(ctx context.Context, recordID string, status DeliveryStatus) error
}

//go:generate mockgen -destination=mocks/mock_checkout.go . CheckoutService
type CheckoutService interface {
	StartCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error)

	GetDraft(ctx context.Context, token string) (*Draft, error)

	ConfirmPayment(ctx context.Context, token, paymentRef string) (string, error)

	FailPayment(ctx context.Context, token string) error

	VerifySignature(token, paymentRef, signature string) bool
}
