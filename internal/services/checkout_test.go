package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/database"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
)

// fakeCheckoutStorage хранит черновики в памяти. FinalizeCheckoutFlow
// повторяет идемпотентность транзакции: повторный вызов по черновику
// с заказом возвращает существующий идентификатор.
type fakeCheckoutStorage struct {
	drafts     map[string]*database.DraftDB
	upsertErr  error
	ledger     *fakeLedgerStorage
	orderSeq   int
	finalizeCt int
}

func newFakeCheckoutStorage(ledger *fakeLedgerStorage) *fakeCheckoutStorage {
	return &fakeCheckoutStorage{drafts: make(map[string]*database.DraftDB), ledger: ledger}
}

func (f *fakeCheckoutStorage) UpsertDraft(ctx context.Context, draft database.DraftDB) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.drafts[draft.Token]; ok {
		draft.OrderID = existing.OrderID
	}
	f.drafts[draft.Token] = &draft
	return nil
}

func (f *fakeCheckoutStorage) FindDraft(ctx context.Context, token string) (*database.DraftDB, error) {
	draft, ok := f.drafts[token]
	if !ok {
		return nil, nil
	}
	copied := *draft
	return &copied, nil
}

func (f *fakeCheckoutStorage) FinalizeCheckoutFlow(ctx context.Context, draft database.DraftDB, paymentRef string, requireReservation bool) (string, bool, error) {
	f.finalizeCt++

	stored := f.drafts[draft.Token]
	if stored != nil && stored.OrderID != "" {
		return stored.OrderID, false, nil
	}

	if draft.GiftCardCode != "" && draft.GiftCardAmount > 0 {
		err := f.ledger.RedeemAmount(ctx, draft.GiftCardCode, draft.GiftCardAmount, draft.Token, requireReservation)
		if err != nil {
			return "", false, err
		}
	}

	f.orderSeq++
	orderID := "order-" + strconv.Itoa(f.orderSeq)
	if stored != nil {
		stored.OrderID = orderID
	}
	return orderID, true, nil
}

// fakeOrderTransitions фиксирует переходы, инициированные оформлением.
type fakeOrderTransitions struct {
	calls []models.OrderStatus
	err   error
}

func (f *fakeOrderTransitions) Transition(ctx context.Context, orderID string, target models.OrderStatus, actor models.Actor, shipping *models.ShippingInfo) error {
	f.calls = append(f.calls, target)
	return f.err
}

// fakePayment подменяет платежный шлюз.
type fakePayment struct {
	sessions   int
	lastAmount int64
	validSig   string
	sessionErr error
}

func (f *fakePayment) CreateSession(ctx context.Context, token string, amount int64, currency string) (string, error) {
	if f.sessionErr != nil {
		return "", f.sessionErr
	}
	f.sessions++
	f.lastAmount = amount
	return "https://pay.example.com/s/" + token, nil
}

func (f *fakePayment) VerifySignature(token, paymentRef, signature string) bool {
	return signature == f.validSig
}

type checkoutFixture struct {
	service *CheckoutService
	storage *fakeCheckoutStorage
	cards   *fakeLedgerStorage
	orders  *fakeOrderTransitions
	payment *fakePayment
}

func newCheckoutFixture() *checkoutFixture {
	cards := newFakeLedgerStorage()
	storage := newFakeCheckoutStorage(cards)
	orders := &fakeOrderTransitions{}
	payment := &fakePayment{validSig: "good-signature"}
	ledger := NewLedgerService(cards, 30*time.Minute)

	return &checkoutFixture{
		service: NewCheckoutService(storage, ledger, orders, payment, 24*time.Hour),
		storage: storage,
		cards:   cards,
		orders:  orders,
		payment: payment,
	}
}

func checkoutRequest(total int64, cardCode string, cardAmount int64) models.CheckoutRequest {
	name := "Аня"
	email := "anya@example.com"
	tier := "premium"
	req := models.CheckoutRequest{
		CustomerName:  &name,
		CustomerEmail: &email,
		PackageTier:   &tier,
		TotalAmount:   &total,
	}
	if cardCode != "" {
		req.GiftCardCode = &cardCode
		req.GiftCardAmount = &cardAmount
	}
	return req
}

func TestStartCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("Частичная оплата картой создает платежную сессию", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cards.addCard("WELCOME23", 3000, string(models.GiftCardActive), nil)

		resp, err := f.service.StartCheckout(ctx, checkoutRequest(4999, "WELCOME23", 3000))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.DraftToken)
		assert.Contains(t, resp.RedirectURL, resp.DraftToken)
		assert.Empty(t, resp.OrderID)

		// В процессинг уходит только остаток сверх карты.
		assert.Equal(t, int64(1999), f.payment.lastAmount)
		// Резерв создан на сумму карты.
		reserved, _ := f.cards.ActiveReservationSum(ctx, "card-WELCOME23")
		assert.Equal(t, int64(3000), reserved)
	})

	t.Run("Полное покрытие картой финализирует заказ без оплаты", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cards.addCard("WELCOME23", 5000, string(models.GiftCardActive), nil)

		resp, err := f.service.StartCheckout(ctx, checkoutRequest(4999, "WELCOME23", 4999))
		require.NoError(t, err)
		assert.Empty(t, resp.RedirectURL)
		assert.NotEmpty(t, resp.OrderID)
		assert.Zero(t, f.payment.sessions)

		// Карта погашена на сумму заказа, заказ переведен в работу.
		assert.Equal(t, int64(1), f.cards.cards["WELCOME23"].RemainingAmount)
		assert.Equal(t, []models.OrderStatus{models.StatusCompleted}, f.orders.calls)
	})

	t.Run("Сумма карты сверх заказа ограничивается итогом", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cards.addCard("WELCOME23", 10000, string(models.GiftCardActive), nil)

		resp, err := f.service.StartCheckout(ctx, checkoutRequest(4999, "WELCOME23", 9000))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.OrderID)
		assert.Equal(t, int64(10000-4999), f.cards.cards["WELCOME23"].RemainingAmount)
	})

	t.Run("Повторное оформление снимает прежний резерв", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cards.addCard("WELCOME23", 5000, string(models.GiftCardActive), nil)

		resp, err := f.service.StartCheckout(ctx, checkoutRequest(9999, "WELCOME23", 3000))
		require.NoError(t, err)

		// Клиент передумал и уменьшил сумму карты в том же черновике.
		req := checkoutRequest(9999, "WELCOME23", 1000)
		req.DraftToken = &resp.DraftToken
		_, err = f.service.StartCheckout(ctx, req)
		require.NoError(t, err)

		reserved, _ := f.cards.ActiveReservationSum(ctx, "card-WELCOME23")
		assert.Equal(t, int64(1000), reserved)
	})

	t.Run("Финализированный черновик не переоформляется", func(t *testing.T) {
		f := newCheckoutFixture()
		f.storage.drafts["draft-done"] = &database.DraftDB{Token: "draft-done", OrderID: "order-9"}

		req := checkoutRequest(4999, "", 0)
		token := "draft-done"
		req.DraftToken = &token
		_, err := f.service.StartCheckout(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidCheckout)
	})

	t.Run("Ошибка сохранения черновика снимает свежий резерв", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cards.addCard("WELCOME23", 5000, string(models.GiftCardActive), nil)
		f.storage.upsertErr = errors.New("диск переполнен")

		_, err := f.service.StartCheckout(ctx, checkoutRequest(4999, "WELCOME23", 3000))
		require.Error(t, err)
		assert.Empty(t, f.cards.reservations)
	})

	t.Run("Недостаток средств на карте", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cards.addCard("WELCOME23", 1000, string(models.GiftCardActive), nil)

		_, err := f.service.StartCheckout(ctx, checkoutRequest(4999, "WELCOME23", 3000))
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("Неполная заявка", func(t *testing.T) {
		f := newCheckoutFixture()

		total := int64(4999)
		_, err := f.service.StartCheckout(ctx, models.CheckoutRequest{TotalAmount: &total})
		assert.ErrorIs(t, err, ErrInvalidCheckout)

		_, err = f.service.StartCheckout(ctx, checkoutRequest(0, "", 0))
		assert.ErrorIs(t, err, ErrInvalidCheckout)
	})
}

func TestGetDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("Возвращает сохраненный черновик по токену", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cards.addCard("WELCOME23", 5000, string(models.GiftCardActive), nil)

		resp, err := f.service.StartCheckout(ctx, checkoutRequest(4999, "WELCOME23", 3000))
		require.NoError(t, err)

		draft, err := f.service.GetDraft(ctx, resp.DraftToken)
		require.NoError(t, err)
		assert.Equal(t, resp.DraftToken, draft.Token)
		assert.Equal(t, "Аня", draft.CustomerName)
		assert.Equal(t, int64(4999), draft.TotalAmount)
		assert.Equal(t, "WELCOME23", draft.GiftCardCode)
		assert.Empty(t, draft.OrderID)
	})

	t.Run("Финализированный черновик несет идентификатор заказа", func(t *testing.T) {
		f := newCheckoutFixture()

		resp, err := f.service.StartCheckout(ctx, checkoutRequest(4999, "", 0))
		require.NoError(t, err)

		orderID, err := f.service.ConfirmPayment(ctx, resp.DraftToken, "pay-1")
		require.NoError(t, err)

		draft, err := f.service.GetDraft(ctx, resp.DraftToken)
		require.NoError(t, err)
		assert.Equal(t, orderID, draft.OrderID)
	})

	t.Run("Просроченный черновик равносилен отсутствующему", func(t *testing.T) {
		f := newCheckoutFixture()
		f.storage.drafts["stale"] = &database.DraftDB{
			Token:     "stale",
			ExpiresAt: time.Now().Add(-time.Minute),
		}

		_, err := f.service.GetDraft(ctx, "stale")
		assert.ErrorIs(t, err, ErrDraftNotFound)
	})

	t.Run("Неизвестный токен", func(t *testing.T) {
		f := newCheckoutFixture()

		_, err := f.service.GetDraft(ctx, "missing")
		assert.ErrorIs(t, err, ErrDraftNotFound)
	})
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Вебхук финализирует черновик и погашает карту", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cards.addCard("WELCOME23", 5000, string(models.GiftCardActive), nil)

		resp, err := f.service.StartCheckout(ctx, checkoutRequest(4999, "WELCOME23", 3000))
		require.NoError(t, err)

		orderID, err := f.service.ConfirmPayment(ctx, resp.DraftToken, "pay-1")
		require.NoError(t, err)
		assert.NotEmpty(t, orderID)
		assert.Equal(t, int64(2000), f.cards.cards["WELCOME23"].RemainingAmount)
		assert.Equal(t, []models.OrderStatus{models.StatusCompleted}, f.orders.calls)
	})

	t.Run("Повторный вебхук возвращает тот же заказ без второго списания", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cards.addCard("WELCOME23", 5000, string(models.GiftCardActive), nil)

		resp, err := f.service.StartCheckout(ctx, checkoutRequest(4999, "WELCOME23", 3000))
		require.NoError(t, err)

		first, err := f.service.ConfirmPayment(ctx, resp.DraftToken, "pay-1")
		require.NoError(t, err)
		second, err := f.service.ConfirmPayment(ctx, resp.DraftToken, "pay-1")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int64(2000), f.cards.cards["WELCOME23"].RemainingAmount)
	})

	t.Run("Просроченный резерв не валит оплаченный заказ", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cards.addCard("WELCOME23", 5000, string(models.GiftCardActive), nil)

		resp, err := f.service.StartCheckout(ctx, checkoutRequest(4999, "WELCOME23", 3000))
		require.NoError(t, err)

		// Фоновая очистка успела удалить резерв до прихода вебхука.
		f.cards.reservations = nil

		_, err = f.service.ConfirmPayment(ctx, resp.DraftToken, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2000), f.cards.cards["WELCOME23"].RemainingAmount)
	})

	t.Run("Неизвестный черновик", func(t *testing.T) {
		f := newCheckoutFixture()

		_, err := f.service.ConfirmPayment(ctx, "missing", "pay-1")
		assert.ErrorIs(t, err, ErrDraftNotFound)
	})
}

func TestFailPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Неуспешная оплата снимает резерв черновика", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cards.addCard("WELCOME23", 5000, string(models.GiftCardActive), nil)

		resp, err := f.service.StartCheckout(ctx, checkoutRequest(4999, "WELCOME23", 3000))
		require.NoError(t, err)

		require.NoError(t, f.service.FailPayment(ctx, resp.DraftToken))
		assert.Empty(t, f.cards.reservations)
		// Баланс карты не пострадал.
		assert.Equal(t, int64(5000), f.cards.cards["WELCOME23"].RemainingAmount)
	})

	t.Run("Черновик без карты", func(t *testing.T) {
		f := newCheckoutFixture()

		resp, err := f.service.StartCheckout(ctx, checkoutRequest(4999, "", 0))
		require.NoError(t, err)

		assert.NoError(t, f.service.FailPayment(ctx, resp.DraftToken))
	})

	t.Run("Неизвестный черновик", func(t *testing.T) {
		f := newCheckoutFixture()

		assert.ErrorIs(t, f.service.FailPayment(ctx, "missing"), ErrDraftNotFound)
	})
}

func TestVerifySignaturePassthrough(t *testing.T) {
	f := newCheckoutFixture()

	assert.True(t, f.service.VerifySignature("draft", "pay-1", "good-signature"))
	assert.False(t, f.service.VerifySignature("draft", "pay-1", "forged"))
}
