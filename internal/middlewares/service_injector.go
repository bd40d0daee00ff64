package middlewares

import (
	"context"
	"fmt"
	"net/http"

	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
)

type key int

const (
	AuthServiceKey key = iota
	JwtServiceKey
	LedgerServiceKey
	OrderServiceKey
	ProofServiceKey
	CheckoutServiceKey
)

func ServiceInjectorMiddleware(
	authService models.AuthService,
	jwtService models.JWTService,
	ledgerService models.LedgerService,
	orderService models.OrderService,
	proofService models.ProofService,
	checkoutService models.CheckoutService,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), AuthServiceKey, authService)
			ctx = context.WithValue(ctx, JwtServiceKey, jwtService)
			ctx = context.WithValue(ctx, LedgerServiceKey, ledgerService)
			ctx = context.WithValue(ctx, OrderServiceKey, orderService)
			ctx = context.WithValue(ctx, ProofServiceKey, proofService)
			ctx = context.WithValue(ctx, CheckoutServiceKey, checkoutService)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetServiceFromContext[Service interface{}](w http.ResponseWriter, r *http.Request, serviceKey key) *Service {
	foundService, ok := r.Context().Value(serviceKey).(Service)

	if !ok {
		http.Error(w, fmt.Sprintf("Service wasn't found in context by key %v", serviceKey), http.StatusInternalServerError)
		return nil
	}

	return &foundService
}
