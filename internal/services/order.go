package services

import (
	"context"
	"errors"

	"github.com/timmyblive/customheroes-storybook-sub000/internal/database"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/utils"
)

// Ошибки переходов статусов заказа.
var (
	ErrOrderNotFound       = errors.New("заказ не найден")
	ErrInvalidTransition   = errors.New("недопустимый переход статуса")
	ErrMissingPrerequisite = errors.New("не хватает данных для перехода")
	ErrForbiddenActor      = errors.New("переход недоступен этому участнику")
	ErrConflict            = errors.New("заказ изменился, повторите после перечитывания")
)

// OrderService управляет жизненным циклом заказа.
// Каждая мутация статуса сверяется с единой таблицей переходов.
type OrderService struct {
	storage orderStorage
}

// Интерфейс хранилища для работы с заказами
type orderStorage interface {
	FindOrder(ctx context.Context, orderID string) (*database.OrderDB, error)
	FindOrders(ctx context.Context, status string) ([]database.OrderDB, error)
	UpdateOrderStatus(ctx context.Context, orderID string, from, to database.OrderStatusDB, actor, recipient string, shipping *database.ShippingDB) error
	FindStatusHistory(ctx context.Context, orderID string) ([]database.StatusHistoryItemDB, error)
	FindProof(ctx context.Context, orderID string) (*database.ProofDB, error)
	FindSendHistory(ctx context.Context, orderID string) ([]database.ProofSendRecordDB, error)
}

// NewOrderService создает новый экземпляр OrderService.
func NewOrderService(storage orderStorage) *OrderService {
	return &OrderService{storage: storage}
}

// allowedActors возвращает участников, которым доступен переход в target.
// Решения по макету принимает только клиент, отправка в доставку —
// только сотрудник.
func allowedActors(target models.OrderStatus) []models.Actor {
	switch target {
	case models.StatusProofApproved, models.StatusProofRevision:
		return []models.Actor{models.ActorCustomer}
	case models.StatusShipped:
		return []models.Actor{models.ActorStaff}
	default:
		return []models.Actor{models.ActorStaff, models.ActorSystem}
	}
}

func actorAllowed(target models.OrderStatus, actor models.Actor) bool {
	for _, allowed := range allowedActors(target) {
		if allowed == actor {
			return true
		}
	}
	return false
}

// Transition переводит заказ в статус target от имени actor.
// Переход атомарен: новый статус, история, уведомление и данные
// доставки фиксируются одной транзакцией либо не фиксируются вовсе.
// Проигравший гонку вызов получает ErrConflict и обязан перечитать
// актуальный статус перед повтором.
func (o *OrderService) Transition(ctx context.Context, orderID string, target models.OrderStatus, actor models.Actor, shipping *models.ShippingInfo) error {
	if !target.Valid() {
		return ErrInvalidTransition
	}

	order, err := o.storage.FindOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}

	if !models.CanTransition(order.Status.OrderStatus, target) {
		return ErrInvalidTransition
	}

	if !actorAllowed(target, actor) {
		return ErrForbiddenActor
	}

	var shippingDB *database.ShippingDB
	if target == models.StatusShipped {
		if shipping == nil || shipping.Carrier == "" || shipping.TrackingNumber == "" {
			return ErrMissingPrerequisite
		}
		shippingDB = &database.ShippingDB{
			Carrier:        shipping.Carrier,
			TrackingNumber: shipping.TrackingNumber,
		}
	}

	err = o.storage.UpdateOrderStatus(ctx, orderID,
		order.Status, database.OrderStatusDB{OrderStatus: target},
		string(actor), order.CustomerEmail, shippingDB)
	if err != nil {
		if errors.Is(err, database.ErrStatusConflict) {
			return o.resolveConflict(ctx, orderID, target)
		}
		return err
	}

	return nil
}

// resolveConflict различает проигранную гонку и нелегальное ребро:
// ErrConflict возвращается, только если переход всё ещё возможен
// с актуального статуса.
func (o *OrderService) resolveConflict(ctx context.Context, orderID string, target models.OrderStatus) error {
	order, err := o.storage.FindOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}

	if models.CanTransition(order.Status.OrderStatus, target) {
		return ErrConflict
	}
	return ErrInvalidTransition
}

// GetOrder возвращает заказ вместе с макетом, историей статусов
// и историей отправок.
func (o *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := o.storage.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	result := convertOrder(order)

	proof, err := o.storage.FindProof(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if proof != nil {
		sendHistory, err := o.storage.FindSendHistory(ctx, orderID)
		if err != nil {
			return nil, err
		}
		result.Proof = convertProof(proof, sendHistory)
	}

	history, err := o.storage.FindStatusHistory(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for _, item := range history {
		result.History = append(result.History, models.StatusRecord{
			Status:    item.Status.OrderStatus,
			Actor:     models.Actor(item.Actor),
			CreatedAt: utils.RFC3339Date{Time: item.CreatedAt},
		})
	}

	return result, nil
}

// ListOrders возвращает заказы для консоли сотрудников,
// при непустом статусе — только с ним.
func (o *OrderService) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidTransition
	}

	orders, err := o.storage.FindOrders(ctx, string(status))
	if err != nil {
		return nil, err
	}

	result := make([]models.Order, len(orders))
	for i := range orders {
		result[i] = *convertOrder(&orders[i])
	}
	return result, nil
}

func convertOrder(order *database.OrderDB) *models.Order {
	result := &models.Order{
		ID:             order.ID,
		CustomerName:   order.CustomerName,
		CustomerEmail:  order.CustomerEmail,
		PackageTier:    order.PackageTier,
		PageCount:      order.PageCount,
		Addons:         order.Addons,
		TotalAmount:    order.TotalAmount,
		Currency:       order.Currency,
		Status:         order.Status.OrderStatus,
		GiftCardCode:   order.GiftCardCode,
		GiftCardAmount: order.GiftCardAmount,
		PaymentRef:     order.PaymentRef,
		CreatedAt:      utils.RFC3339Date{Time: order.CreatedAt},
		UpdatedAt:      utils.RFC3339Date{Time: order.UpdatedAt},
	}

	if order.Carrier != "" || order.AddressLine != "" {
		result.Shipping = &models.ShippingInfo{
			Carrier:        order.Carrier,
			TrackingNumber: order.TrackingNumber,
			AddressLine:    order.AddressLine,
			City:           order.City,
			PostalCode:     order.PostalCode,
			Country:        order.Country,
		}
		if order.ShippedAt != nil {
			result.Shipping.ShippedAt = &utils.RFC3339Date{Time: *order.ShippedAt}
		}
	}

	return result
}

func convertProof(proof *database.ProofDB, sendHistory []database.ProofSendRecordDB) *models.Proof {
	result := &models.Proof{
		OrderID:       proof.OrderID,
		ArtifactURL:   proof.ArtifactURL,
		Status:        models.ProofStatus(proof.Status),
		RevisionCount: proof.RevisionCount,
		CustomerNotes: proof.CustomerNotes,
		UpdatedAt:     utils.RFC3339Date{Time: proof.UpdatedAt},
	}
	if proof.ApprovedAt != nil {
		result.ApprovedAt = &utils.RFC3339Date{Time: *proof.ApprovedAt}
	}

	for _, item := range sendHistory {
		result.SendHistory = append(result.SendHistory, models.ProofSendRecord{
			ID:             item.ID,
			OrderID:        item.OrderID,
			ArtifactURL:    item.ArtifactURL,
			IsRevision:     item.IsRevision,
			RevisionNumber: item.RevisionNumber,
			DeliveryStatus: models.DeliveryStatus(item.DeliveryStatus),
			SentAt:         utils.RFC3339Date{Time: item.SentAt},
		})
	}

	return result
}
