package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/database"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/utils"
)

// Ошибки операций леджера подарочных карт.
var (
	ErrCardNotFound        = errors.New("подарочная карта не найдена")
	ErrCardExpired         = errors.New("срок действия карты истек")
	ErrCardAlreadyRedeemed = errors.New("карта уже полностью использована")
	ErrInsufficientBalance = errors.New("недостаточно средств на карте")
	ErrReservationNotFound = errors.New("резерв не найден")
	ErrInvalidCode         = errors.New("недопустимый код карты")
	ErrInvalidAmount       = errors.New("недопустимая сумма")
	ErrDuplicateCard       = errors.New("карта с таким кодом уже существует")
)

// codeCharset — алфавит генерации кодов карт. Визуально похожие
// символы (O/0, I/1) исключены, чтобы код легко диктовался.
// Проверка введенного кода шире: любой заглавный буквенно-цифровой.
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	generatedCodeLength = 12
	minCodeLength       = 6
	maxCodeLength       = 32
)

// LedgerService управляет балансом подарочных карт: проверка,
// резервирование, снятие резервов и необратимое погашение.
type LedgerService struct {
	storage        ledgerStorage
	reservationTTL time.Duration
}

// ledgerStorage определяет интерфейс для работы с хранилищем карт
type ledgerStorage interface {
	CreateGiftCard(ctx context.Context, card database.GiftCardDB) error
	FindGiftCard(ctx context.Context, code string) (*database.GiftCardDB, error)
	ActiveReservationSum(ctx context.Context, cardID string) (int64, error)
	ReserveAmount(ctx context.Context, code string, amount int64, ownerID string, ttl time.Duration) (*database.ReservationDB, error)
	ReleaseReservations(ctx context.Context, code, ownerID string) error
	RedeemAmount(ctx context.Context, code string, amount int64, ownerID string, requireReservation bool) error
}

// NewLedgerService создает новый экземпляр LedgerService.
func NewLedgerService(storage ledgerStorage, reservationTTL time.Duration) *LedgerService {
	return &LedgerService{storage: storage, reservationTTL: reservationTTL}
}

// NormalizeCode приводит введенный пользователем код к каноническому
// виду: верхний регистр, без пробелов и дефисов.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, " ", "")
	return strings.ReplaceAll(code, "-", "")
}

// VerifyCode проверяет длину и набор символов кода карты.
func (l *LedgerService) VerifyCode(code string) bool {
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// generateCode собирает случайный код карты из допустимого алфавита.
func generateCode() (string, error) {
	var sb strings.Builder
	for i := 0; i < generatedCodeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", fmt.Errorf("ошибка генерации кода: %w", err)
		}
		sb.WriteByte(codeCharset[n.Int64()])
	}
	return sb.String(), nil
}

// mapCardError переводит ошибки хранилища в ошибки уровня сервиса.
func mapCardError(err error) error {
	switch {
	case errors.Is(err, database.ErrCardNotFound):
		return ErrCardNotFound
	case errors.Is(err, database.ErrCardExpired):
		return ErrCardExpired
	case errors.Is(err, database.ErrCardRedeemed):
		return ErrCardAlreadyRedeemed
	case errors.Is(err, database.ErrCardInsufficient):
		return ErrInsufficientBalance
	case errors.Is(err, database.ErrNoReservation):
		return ErrReservationNotFound
	case errors.Is(err, database.ErrDuplicateCard):
		return ErrDuplicateCard
	default:
		return err
	}
}

// Check возвращает доступный остаток карты за вычетом активных
// резервов. Срок действия проверяется лениво по expires_at, даже если
// фоновая очистка еще не пометила карту истекшей.
func (l *LedgerService) Check(ctx context.Context, code string) (*models.CardBalance, error) {
	code = NormalizeCode(code)
	if !l.VerifyCode(code) {
		return nil, ErrInvalidCode
	}

	card, err := l.storage.FindGiftCard(ctx, code)
	if err != nil {
		return nil, err
	}
	if card == nil || card.Status == string(models.GiftCardCancelled) {
		return nil, ErrCardNotFound
	}

	status := models.GiftCardStatus(card.Status)
	if card.ExpiresAt != nil && card.ExpiresAt.Before(time.Now()) {
		status = models.GiftCardExpired
	}
	if status == models.GiftCardExpired {
		return nil, ErrCardExpired
	}

	reserved, err := l.storage.ActiveReservationSum(ctx, card.ID)
	if err != nil {
		return nil, err
	}

	available := card.RemainingAmount - reserved
	if available < 0 {
		available = 0
	}

	return &models.CardBalance{
		Code:      card.Code,
		Available: available,
		Remaining: card.RemainingAmount,
		Currency:  card.Currency,
		Status:    status,
	}, nil
}

// Reserve создает временный резерв под оформление заказа.
func (l *LedgerService) Reserve(ctx context.Context, code string, amount int64, ownerID string) (*models.Reservation, error) {
	code = NormalizeCode(code)
	if !l.VerifyCode(code) {
		return nil, ErrInvalidCode
	}
	if amount <= 0 || ownerID == "" {
		return nil, ErrInvalidAmount
	}

	res, err := l.storage.ReserveAmount(ctx, code, amount, ownerID, l.reservationTTL)
	if err != nil {
		return nil, mapCardError(err)
	}

	return &models.Reservation{
		ID:        res.ID,
		Code:      code,
		Amount:    res.Amount,
		OwnerID:   res.OwnerID,
		CreatedAt: utils.RFC3339Date{Time: res.CreatedAt},
		ExpiresAt: utils.RFC3339Date{Time: res.ExpiresAt},
	}, nil
}

// CancelReservations снимает активные резервы карты, при непустом
// ownerID — только резервы владельца. Повторный вызов без активных
// резервов — успешная пустая операция.
func (l *LedgerService) CancelReservations(ctx context.Context, code, ownerID string) error {
	code = NormalizeCode(code)
	if !l.VerifyCode(code) {
		return ErrInvalidCode
	}

	if err := l.storage.ReleaseReservations(ctx, code, ownerID); err != nil {
		return mapCardError(err)
	}
	return nil
}

// Redeem необратимо списывает сумму с карты. Вызывается ровно один раз
// на заказ внутри транзакции финализации оплаты; самостоятельный вызов
// существует для административных сценариев.
func (l *LedgerService) Redeem(ctx context.Context, code string, amount int64, ownerID string, requireReservation bool) error {
	code = NormalizeCode(code)
	if !l.VerifyCode(code) {
		return ErrInvalidCode
	}
	if amount <= 0 || ownerID == "" {
		return ErrInvalidAmount
	}

	if err := l.storage.RedeemAmount(ctx, code, amount, ownerID, requireReservation); err != nil {
		return mapCardError(err)
	}
	return nil
}

// CreateCard создает подарочную карту. Код генерируется, если не задан.
func (l *LedgerService) CreateCard(ctx context.Context, params models.NewGiftCard) (*models.GiftCard, error) {
	if params.InitialAmount == nil || *params.InitialAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	var code string
	if params.Code != nil && *params.Code != "" {
		code = NormalizeCode(*params.Code)
		if !l.VerifyCode(code) {
			return nil, ErrInvalidCode
		}
	} else {
		generated, err := generateCode()
		if err != nil {
			return nil, err
		}
		code = generated
	}

	currency := "USD"
	if params.Currency != nil && *params.Currency != "" {
		currency = *params.Currency
	}

	card := database.GiftCardDB{
		ID:            uuid.NewString(),
		Code:          code,
		InitialAmount: *params.InitialAmount,
		Currency:      currency,
	}

	if params.RecipientName != nil {
		card.RecipientName = *params.RecipientName
	}
	if params.RecipientEmail != nil {
		card.RecipientEmail = *params.RecipientEmail
	}
	if params.SenderName != nil {
		card.SenderName = *params.SenderName
	}
	if params.Message != nil {
		card.Message = *params.Message
	}
	if params.ValidDays != nil && *params.ValidDays > 0 {
		expiresAt := time.Now().AddDate(0, 0, *params.ValidDays)
		card.ExpiresAt = &expiresAt
	}

	if err := l.storage.CreateGiftCard(ctx, card); err != nil {
		return nil, mapCardError(err)
	}

	result := &models.GiftCard{
		ID:              card.ID,
		Code:            card.Code,
		InitialAmount:   card.InitialAmount,
		RemainingAmount: card.InitialAmount,
		Currency:        card.Currency,
		Status:          models.GiftCardActive,
		RecipientName:   card.RecipientName,
		RecipientEmail:  card.RecipientEmail,
		SenderName:      card.SenderName,
		Message:         card.Message,
		CreatedAt:       utils.RFC3339Date{Time: time.Now()},
	}
	if card.ExpiresAt != nil {
		result.ExpiresAt = &utils.RFC3339Date{Time: *card.ExpiresAt}
	}

	return result, nil
}
