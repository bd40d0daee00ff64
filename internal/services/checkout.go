package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/database"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/logger"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/utils"
	"go.uber.org/zap"
)

var (
	ErrDraftNotFound   = errors.New("черновик заказа не найден")
	ErrInvalidCheckout = errors.New("недействительные параметры оформления")
)

// CheckoutService — оркестратор оформления: серверный черновик,
// резерв подарочной карты, передача во внешнюю оплату и финализация
// заказа по подтверждению платежа.
type CheckoutService struct {
	storage  checkoutStorage
	ledger   checkoutLedger
	orders   checkoutOrders
	payment  checkoutPayment
	draftTTL time.Duration
}

// Интерфейс хранилища для работы с черновиками и финализацией
type checkoutStorage interface {
	UpsertDraft(ctx context.Context, draft database.DraftDB) error
	FindDraft(ctx context.Context, token string) (*database.DraftDB, error)
	FinalizeCheckoutFlow(ctx context.Context, draft database.DraftDB, paymentRef string, requireReservation bool) (string, bool, error)
}

type checkoutLedger interface {
	Reserve(ctx context.Context, code string, amount int64, ownerID string) (*models.Reservation, error)

	CancelReservations(ctx context.Context, code, ownerID string) error
}

type checkoutOrders interface {
	Transition(ctx context.Context, orderID string, target models.OrderStatus, actor models.Actor, shipping *models.ShippingInfo) error
}

type checkoutPayment interface {
	CreateSession(ctx context.Context, token string, amount int64, currency string) (string, error)

	VerifySignature(token, paymentRef, signature string) bool
}

// NewCheckoutService создает новый экземпляр CheckoutService.
func NewCheckoutService(storage checkoutStorage, ledger checkoutLedger, orders checkoutOrders, payment checkoutPayment, draftTTL time.Duration) *CheckoutService {
	return &CheckoutService{
		storage:  storage,
		ledger:   ledger,
		orders:   orders,
		payment:  payment,
		draftTTL: draftTTL,
	}
}

func validateCheckout(req models.CheckoutRequest) error {
	if req.CustomerName == nil || *req.CustomerName == "" ||
		req.CustomerEmail == nil || *req.CustomerEmail == "" ||
		req.PackageTier == nil || *req.PackageTier == "" {
		return ErrInvalidCheckout
	}
	if req.TotalAmount == nil || *req.TotalAmount <= 0 {
		return ErrInvalidCheckout
	}
	if req.GiftCardAmount != nil && *req.GiftCardAmount < 0 {
		return ErrInvalidCheckout
	}
	return nil
}

// StartCheckout создает или обновляет черновик заказа. При изменении
// состава заказа прежние резервы карты снимаются, чтобы устаревшие
// удержания не блокировали остаток для других покупателей. Если карта
// покрывает заказ целиком, внешняя оплата не нужна и заказ
// финализируется сразу.
func (c *CheckoutService) StartCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	token := uuid.NewString()
	if req.DraftToken != nil && *req.DraftToken != "" {
		token = *req.DraftToken

		existing, err := c.storage.FindDraft(ctx, token)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.OrderID != "" {
				return nil, ErrInvalidCheckout
			}
			if existing.GiftCardCode != "" {
				if err := c.ledger.CancelReservations(ctx, existing.GiftCardCode, token); err != nil {
					return nil, err
				}
			}
		}
	}

	var code string
	var giftAmount int64
	if req.GiftCardCode != nil && *req.GiftCardCode != "" &&
		req.GiftCardAmount != nil && *req.GiftCardAmount > 0 {
		code = NormalizeCode(*req.GiftCardCode)
		giftAmount = *req.GiftCardAmount
		if giftAmount > *req.TotalAmount {
			giftAmount = *req.TotalAmount
		}

		if _, err := c.ledger.Reserve(ctx, code, giftAmount, token); err != nil {
			return nil, err
		}
	}

	currency := "USD"
	if req.Currency != nil && *req.Currency != "" {
		currency = *req.Currency
	}

	draft := database.DraftDB{
		Token:          token,
		CustomerName:   *req.CustomerName,
		CustomerEmail:  *req.CustomerEmail,
		PackageTier:    *req.PackageTier,
		Addons:         req.Addons,
		TotalAmount:    *req.TotalAmount,
		Currency:       currency,
		GiftCardCode:   code,
		GiftCardAmount: giftAmount,
		ExpiresAt:      time.Now().Add(c.draftTTL),
	}
	if req.PageCount != nil {
		draft.PageCount = *req.PageCount
	}
	if req.Shipping != nil {
		draft.AddressLine = req.Shipping.AddressLine
		draft.City = req.Shipping.City
		draft.PostalCode = req.Shipping.PostalCode
		draft.Country = req.Shipping.Country
	}

	if err := c.storage.UpsertDraft(ctx, draft); err != nil {
		if code != "" {
			if cancelErr := c.ledger.CancelReservations(ctx, code, token); cancelErr != nil {
				logger.Log.Error("failed to release reservations after draft error", zap.Error(cancelErr))
			}
		}
		return nil, err
	}

	resp := &models.CheckoutResponse{DraftToken: token}

	remainder := *req.TotalAmount - giftAmount
	if remainder > 0 {
		redirectURL, err := c.payment.CreateSession(ctx, token, remainder, currency)
		if err != nil {
			return nil, err
		}
		resp.RedirectURL = redirectURL
		return resp, nil
	}

	// Карта покрыла заказ целиком: платежная система не участвует.
	orderID, err := c.ConfirmPayment(ctx, token, "gift-card")
	if err != nil {
		return nil, err
	}
	resp.OrderID = orderID

	return resp, nil
}

// ConfirmPayment завершает оформление по подтверждению оплаты:
// погашение карты и создание заказа коммитятся одной транзакцией.
// Повторный вебхук по тому же черновику возвращает уже созданный заказ.
// Резерв, просроченный до прихода вебхука, не валит оплаченный заказ:
// списание уходит напрямую из доступного остатка.
func (c *CheckoutService) ConfirmPayment(ctx context.Context, token, paymentRef string) (string, error) {
	draft, err := c.storage.FindDraft(ctx, token)
	if err != nil {
		return "", err
	}
	if draft == nil {
		return "", ErrDraftNotFound
	}

	orderID, created, err := c.storage.FinalizeCheckoutFlow(ctx, *draft, paymentRef, false)
	if err != nil {
		return "", mapCardError(err)
	}

	if created {
		logger.Log.Info("order created",
			zap.String("orderID", orderID),
			zap.String("draftToken", token),
		)
	}

	// Перевод в completed идемпотентен: для уже переведенного заказа
	// ребро pending -> completed отсутствует и ошибка игнорируется.
	err = c.orders.Transition(ctx, orderID, models.StatusCompleted, models.ActorSystem, nil)
	if err != nil && !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrConflict) {
		logger.Log.Error("failed to complete order", zap.String("orderID", orderID), zap.Error(err))
	}

	return orderID, nil
}

// GetDraft возвращает черновик по токену, чтобы клиент мог
// восстановить сессию оформления. Просроченный черновик, еще не
// вычищенный фоновой очисткой, равносилен отсутствующему.
func (c *CheckoutService) GetDraft(ctx context.Context, token string) (*models.Draft, error) {
	draft, err := c.storage.FindDraft(ctx, token)
	if err != nil {
		return nil, err
	}
	if draft == nil || (draft.OrderID == "" && draft.ExpiresAt.Before(time.Now())) {
		return nil, ErrDraftNotFound
	}

	return &models.Draft{
		Token:          draft.Token,
		CustomerName:   draft.CustomerName,
		CustomerEmail:  draft.CustomerEmail,
		PackageTier:    draft.PackageTier,
		PageCount:      draft.PageCount,
		Addons:         draft.Addons,
		TotalAmount:    draft.TotalAmount,
		Currency:       draft.Currency,
		GiftCardCode:   draft.GiftCardCode,
		GiftCardAmount: draft.GiftCardAmount,
		OrderID:        draft.OrderID,
		CreatedAt:      utils.RFC3339Date{Time: draft.CreatedAt},
		ExpiresAt:      utils.RFC3339Date{Time: draft.ExpiresAt},
	}, nil
}

// FailPayment снимает резервы черновика после неуспешной оплаты.
func (c *CheckoutService) FailPayment(ctx context.Context, token string) error {
	draft, err := c.storage.FindDraft(ctx, token)
	if err != nil {
		return err
	}
	if draft == nil {
		return ErrDraftNotFound
	}

	if draft.GiftCardCode != "" {
		return c.ledger.CancelReservations(ctx, draft.GiftCardCode, token)
	}
	return nil
}

// VerifySignature проверяет подпись вебхука платежной системы.
func (c *CheckoutService) VerifySignature(token, paymentRef, signature string) bool {
	return c.payment.VerifySignature(token, paymentRef, signature)
}
