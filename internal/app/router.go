package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/logger"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/middlewares"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
)

type Config struct {
	// Endpoint адрес и порт, на которых сервер будет слушать входящие запросы.
	Endpoint string
}

type Router struct {
	config          Config
	authService     models.AuthService
	jwtService      models.JWTService
	ledgerService   models.LedgerService
	orderService    models.OrderService
	proofService    models.ProofService
	checkoutService models.CheckoutService
}

// New создает новый экземпляр Router с заданными зависимостями.
func New(
	config Config,
	authService models.AuthService,
	jwtService models.JWTService,
	ledgerService models.LedgerService,
	orderService models.OrderService,
	proofService models.ProofService,
	checkoutService models.CheckoutService,
) *Router {
	return &Router{
		config:          config,
		authService:     authService,
		jwtService:      jwtService,
		ledgerService:   ledgerService,
		orderService:    orderService,
		proofService:    proofService,
		checkoutService: checkoutService,
	}
}

// get возвращает настроенный роутер.
func (router *Router) get() chi.Router {
	r := chi.NewRouter()

	// Настройка промежуточного ПО (middleware) для роутера.
	r.Use(
		// Инжектор сервисов для предоставления сервисов в обработчиках.
		middlewares.ServiceInjectorMiddleware(
			router.authService,
			router.jwtService,
			router.ledgerService,
			router.orderService,
			router.proofService,
			router.checkoutService,
		),
		// Логгер для регистрации запросов.
		logger.RequestLogger,
		// Проверка аутентификации для административных маршрутов.
		// Публичные маршруты (оформление, проверка карты, согласование
		// макета клиентом) исключены из проверки.
		middlewares.AuthMiddleware().WithExcludedPaths(
			"/api/checkout",
			"/api/gift-cards/check",
			"/api/gift-cards/reservations/cancel",
			"/api/orders",
			"/api/proofs/deliveries",
			"/api/staff/register",
			"/api/staff/login",
		).Middleware,
	)

	// Публичные маршруты оформления заказа.
	r.With(middlewares.JSONMiddleware[models.CheckoutRequest]).Post("/api/checkout", StartCheckout)
	r.Get("/api/checkout/{token}", GetDraft)
	r.With(middlewares.JSONMiddleware[models.PaymentCallback]).Post("/api/checkout/{token}/confirm", ConfirmPayment)

	// Публичные маршруты подарочных карт.
	r.Route("/api/gift-cards", func(r chi.Router) {
		r.With(middlewares.JSONMiddleware[models.CheckCardRequest]).Post("/check", CheckGiftCard)
		r.With(middlewares.JSONMiddleware[models.CancelReservationsRequest]).Post("/reservations/cancel", CancelReservations)
	})

	// Публичные маршруты согласования макета клиентом.
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/{orderID}/approve", ApproveProof)
		r.With(middlewares.JSONMiddleware[models.RevisionRequest]).Post("/{orderID}/request-revision", RequestRevision)
	})

	// Обратный вызов диспетчера рассылок о доставке письма с макетом.
	r.With(middlewares.JSONMiddleware[models.DeliveryCallback]).Post("/api/proofs/deliveries/{recordID}", MarkProofDelivery)

	// Маршруты аутентификации сотрудников.
	r.Route("/api/staff", func(r chi.Router) {
		r.With(middlewares.JSONMiddleware[models.UnknownUser]).Post("/register", Register)
		r.With(middlewares.JSONMiddleware[models.UnknownUser]).Post("/login", Login)
	})

	// Административные маршруты (требуют JWT).
	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/orders", GetOrders)
		r.Get("/orders/{orderID}", GetOrder)
		r.With(middlewares.JSONMiddleware[models.StatusUpdateRequest]).Post("/orders/{orderID}/update-status", UpdateOrderStatus)
		r.With(middlewares.JSONMiddleware[models.ProofArtifactRequest]).Post("/orders/{orderID}/upload-proof", UploadProof)
		r.With(middlewares.JSONMiddleware[models.ProofArtifactRequest]).Post("/orders/{orderID}/update-proof", UpdateProof)
		r.With(middlewares.JSONMiddleware[models.SendProofRequest]).Post("/orders/{orderID}/send-proof", SendProof)
		r.With(middlewares.JSONMiddleware[models.NewGiftCard]).Post("/gift-cards", CreateGiftCard)
	})

	return r
}

// Run запускает HTTP сервер на заданном endpoint и начинает принимать запросы.
func (router *Router) Run() {
	log.Fatal(http.ListenAndServe(router.config.Endpoint, router.get()))
}
