package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/models"
	mock_models "github.com/timmyblive/customheroes-storybook-sub000/internal/models/mocks"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/services"
	"github.com/timmyblive/customheroes-storybook-sub000/internal/utils"
)

// Тестирование маршрута регистрации сотрудника
func TestRegisterRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authServiceMock := mock_models.NewMockAuthService(ctrl)
	jwtServiceMock := mock_models.NewMockJWTService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, authServiceMock, jwtServiceMock, nil, nil, nil, nil).get(),
	)
	defer testServer.Close()

	testCases := []struct {
		testName        string
		methodName      string
		targetURL       string
		body            func() io.Reader
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName:        "Должен вернуть ошибку валидации из-за отсутствия тела запроса",
			methodName:      "POST",
			targetURL:       "/api/staff/register",
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Ошибка при разборе данных JSON: unexpected end of JSON input\n",
		},
		{
			testName:   "Должен вернуть ошибку валидации из-за отсутствия логина",
			methodName: "POST",
			targetURL:  "/api/staff/register",
			body: func() io.Reader {
				Password := "123"
				data, _ := json.Marshal(models.UnknownUser{Password: &Password})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Запрос не содержит логин или пароль\n",
		},
		{
			testName:   "Должен вернуть ошибку, если логин уже занят",
			methodName: "POST",
			targetURL:  "/api/staff/register",
			test: func(t *testing.T) {
				Login := "staff"
				Password := "123"

				// Ожидаем вызов Register с возвратом ошибки о занятом логине
				authServiceMock.EXPECT().Register(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(services.ErrUserIsAlreadyRegistered)
			},
			body: func() io.Reader {
				Login := "staff"
				Password := "123"
				data, _ := json.Marshal(models.UnknownUser{Login: &Login, Password: &Password})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusConflict,
			expectedMessage: "Логин staff уже занят\n",
		},
		{
			testName:   "Должен зарегистрировать сотрудника и вернуть токен",
			methodName: "POST",
			targetURL:  "/api/staff/register",
			test: func(t *testing.T) {
				Login := "staff"
				Password := "123"

				authServiceMock.EXPECT().Register(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(nil)
				jwtServiceMock.EXPECT().GenerateJWT("staff").Return("token", nil)
			},
			body: func() io.Reader {
				Login := "staff"
				Password := "123"
				data, _ := json.Marshal(models.UnknownUser{Login: &Login, Password: &Password})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			var body io.Reader

			if tc.body != nil {
				body = tc.body()
			}

			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				tc.methodName,
				tc.targetURL,
				map[string]string{"Content-Type": "application/json"},
				body,
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

// Тестирование маршрута входа сотрудника
func TestLoginRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authServiceMock := mock_models.NewMockAuthService(ctrl)
	jwtServiceMock := mock_models.NewMockJWTService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, authServiceMock, jwtServiceMock, nil, nil, nil, nil).get(),
	)
	defer testServer.Close()

	testCases := []struct {
		testName        string
		methodName      string
		targetURL       string
		body            func() io.Reader
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
		testHeader      func(t *testing.T, header http.Header)
	}{
		{
			testName:   "Должен вернуть ошибку, если сотрудник не существует",
			methodName: "POST",
			targetURL:  "/api/staff/login",
			test: func(t *testing.T) {
				Login := "staff"
				Password := "123"

				authServiceMock.EXPECT().Login(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(services.ErrUserIsNotExist)
			},
			body: func() io.Reader {
				Login := "staff"
				Password := "123"
				data, _ := json.Marshal(models.UnknownUser{Login: &Login, Password: &Password})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Сотрудник с логином staff не существует\n",
		},
		{
			testName:   "Должен вернуть ошибку при неверном пароле",
			methodName: "POST",
			targetURL:  "/api/staff/login",
			test: func(t *testing.T) {
				Login := "staff"
				Password := "123"

				authServiceMock.EXPECT().Login(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(services.ErrPasswordIsIncorrect)
			},
			body: func() io.Reader {
				Login := "staff"
				Password := "123"
				data, _ := json.Marshal(models.UnknownUser{Login: &Login, Password: &Password})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Неверный пароль\n",
		},
		{
			testName:   "Должен вернуть заголовок авторизации",
			methodName: "POST",
			targetURL:  "/api/staff/login",
			test: func(t *testing.T) {
				Login := "staff"
				Password := "123"

				authServiceMock.EXPECT().Login(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(nil)
				jwtServiceMock.EXPECT().GenerateJWT("staff").Return("token", nil)
			},
			body: func() io.Reader {
				Login := "staff"
				Password := "123"
				data, _ := json.Marshal(models.UnknownUser{Login: &Login, Password: &Password})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: "",
			testHeader: func(t *testing.T, header http.Header) {
				assert.Equal(t, "Bearer token", header.Get("Authorization"))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			var body io.Reader

			if tc.body != nil {
				body = tc.body()
			}

			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				tc.methodName,
				tc.targetURL,
				map[string]string{"Content-Type": "application/json"},
				body,
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)

			if tc.testHeader != nil {
				tc.testHeader(t, res.Header)
			}
		})
	}
}

// Тестирование маршрута проверки подарочной карты
func TestCheckGiftCardRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledgerServiceMock := mock_models.NewMockLedgerService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, nil, nil, ledgerServiceMock, nil, nil, nil).get(),
	)
	defer testServer.Close()

	testCases := []struct {
		testName        string
		body            func() io.Reader
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName: "Должен вернуть ошибку, если код не указан",
			body: func() io.Reader {
				data, _ := json.Marshal(models.CheckCardRequest{})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Код карты не указан\n",
		},
		{
			testName: "Должен вернуть ошибку для несуществующей карты",
			test: func(t *testing.T) {
				ledgerServiceMock.EXPECT().Check(gomock.Any(), "NOSUCHCARD").Return(nil, services.ErrCardNotFound)
			},
			body: func() io.Reader {
				Code := "NOSUCHCARD"
				data, _ := json.Marshal(models.CheckCardRequest{Code: &Code})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusUnprocessableEntity,
			expectedMessage: "Подарочная карта не найдена или код введен неверно\n",
		},
		{
			testName: "Должен вернуть ошибку для истекшей карты",
			test: func(t *testing.T) {
				ledgerServiceMock.EXPECT().Check(gomock.Any(), "EXPIRED23").Return(nil, services.ErrCardExpired)
			},
			body: func() io.Reader {
				Code := "EXPIRED23"
				data, _ := json.Marshal(models.CheckCardRequest{Code: &Code})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusGone,
			expectedMessage: "Срок действия подарочной карты истек\n",
		},
		{
			testName: "Должен вернуть доступный остаток карты",
			test: func(t *testing.T) {
				ledgerServiceMock.EXPECT().Check(gomock.Any(), "WELCOME23").Return(&models.CardBalance{
					Code:      "WELCOME23",
					Available: 3000,
					Remaining: 5000,
					Currency:  "USD",
					Status:    models.GiftCardActive,
				}, nil)
			},
			body: func() io.Reader {
				Code := "WELCOME23"
				data, _ := json.Marshal(models.CheckCardRequest{Code: &Code})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: `{"code":"WELCOME23","available":3000,"remaining":5000,"currency":"USD","status":"active"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				"POST",
				"/api/gift-cards/check",
				map[string]string{"Content-Type": "application/json"},
				tc.body(),
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

// Тестирование маршрута оформления заказа
func TestStartCheckoutRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	checkoutServiceMock := mock_models.NewMockCheckoutService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, nil, nil, nil, nil, nil, checkoutServiceMock).get(),
	)
	defer testServer.Close()

	name := "Аня"
	email := "anya@example.com"
	tier := "premium"
	total := int64(4999)

	testCases := []struct {
		testName        string
		body            func() io.Reader
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName: "Должен вернуть ошибку для неполной заявки",
			test: func(t *testing.T) {
				checkoutServiceMock.EXPECT().StartCheckout(gomock.Any(), gomock.Any()).Return(nil, services.ErrInvalidCheckout)
			},
			body: func() io.Reader {
				data, _ := json.Marshal(models.CheckoutRequest{CustomerName: &name})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Заявка на оформление неполна или противоречива\n",
		},
		{
			testName: "Должен вернуть ошибку при нехватке средств на карте",
			test: func(t *testing.T) {
				checkoutServiceMock.EXPECT().StartCheckout(gomock.Any(), gomock.Any()).Return(nil, services.ErrInsufficientBalance)
			},
			body: func() io.Reader {
				data, _ := json.Marshal(models.CheckoutRequest{
					CustomerName:  &name,
					CustomerEmail: &email,
					PackageTier:   &tier,
					TotalAmount:   &total,
				})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusPaymentRequired,
			expectedMessage: "На подарочной карте недостаточно средств\n",
		},
		{
			testName: "Должен вернуть токен черновика и URL оплаты",
			test: func(t *testing.T) {
				checkoutServiceMock.EXPECT().StartCheckout(gomock.Any(), gomock.Any()).Return(&models.CheckoutResponse{
					DraftToken:  "draft-token",
					RedirectURL: "https://pay.example.com/s/42",
				}, nil)
			},
			body: func() io.Reader {
				data, _ := json.Marshal(models.CheckoutRequest{
					CustomerName:  &name,
					CustomerEmail: &email,
					PackageTier:   &tier,
					TotalAmount:   &total,
				})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: `{"draft_token":"draft-token","redirect_url":"https://pay.example.com/s/42"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				"POST",
				"/api/checkout",
				map[string]string{"Content-Type": "application/json"},
				tc.body(),
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

// Тестирование вебхука подтверждения оплаты
func TestConfirmPaymentRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	checkoutServiceMock := mock_models.NewMockCheckoutService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, nil, nil, nil, nil, nil, checkoutServiceMock).get(),
	)
	defer testServer.Close()

	paymentRef := "pay-1"
	signature := "signature"

	testCases := []struct {
		testName        string
		body            func() io.Reader
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName: "Должен отклонить вебхук с неверной подписью",
			test: func(t *testing.T) {
				checkoutServiceMock.EXPECT().VerifySignature("draft-token", "pay-1", "signature").Return(false)
			},
			body: func() io.Reader {
				data, _ := json.Marshal(models.PaymentCallback{PaymentRef: &paymentRef, Signature: &signature})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Подпись запроса недействительна\n",
		},
		{
			testName: "Должен создать заказ по подтверждению оплаты",
			test: func(t *testing.T) {
				checkoutServiceMock.EXPECT().VerifySignature("draft-token", "pay-1", "signature").Return(true)
				checkoutServiceMock.EXPECT().ConfirmPayment(gomock.Any(), "draft-token", "pay-1").Return("order-1", nil)
			},
			body: func() io.Reader {
				data, _ := json.Marshal(models.PaymentCallback{PaymentRef: &paymentRef, Signature: &signature})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: `{"draft_token":"draft-token","order_id":"order-1"}`,
		},
		{
			testName: "Должен снять резервы при неуспешной оплате",
			test: func(t *testing.T) {
				checkoutServiceMock.EXPECT().VerifySignature("draft-token", "pay-1", "signature").Return(true)
				checkoutServiceMock.EXPECT().FailPayment(gomock.Any(), "draft-token").Return(nil)
			},
			body: func() io.Reader {
				status := "failed"
				data, _ := json.Marshal(models.PaymentCallback{PaymentRef: &paymentRef, Status: &status, Signature: &signature})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				"POST",
				"/api/checkout/draft-token/confirm",
				map[string]string{"Content-Type": "application/json"},
				tc.body(),
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

// Тестирование административного списка заказов
func TestGetOrdersRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authServiceMock := mock_models.NewMockAuthService(ctrl)
	jwtServiceMock := mock_models.NewMockJWTService(ctrl)
	orderServiceMock := mock_models.NewMockOrderService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, authServiceMock, jwtServiceMock, nil, orderServiceMock, nil, nil).get(),
	)
	defer testServer.Close()

	testCases := []struct {
		testName        string
		targetURL       string
		headers         map[string]string
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName:        "Должен требовать авторизацию",
			targetURL:       "/api/admin/orders",
			headers:         map[string]string{},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Требуется заголовок Authorization\n",
		},
		{
			testName:  "Должен вернуть список заказов",
			targetURL: "/api/admin/orders",
			headers:   map[string]string{"Authorization": "Bearer token"},
			test: func(t *testing.T) {
				jwtToken := jwt.NewWithClaims(
					jwt.SigningMethodHS256,
					jwt.MapClaims{
						"sub": "staff",
					})
				user := models.User{ID: "user-id", Login: "staff", Hash: "hash"}

				jwtServiceMock.EXPECT().ValidateToken("token").Return(jwtToken, nil)
				authServiceMock.EXPECT().GetUser(gomock.Any(), "staff").Return(&user, nil)
				orderServiceMock.EXPECT().ListOrders(gomock.Any(), models.OrderStatus("")).Return([]models.Order{
					{
						ID:            "order-1",
						CustomerName:  "Аня",
						CustomerEmail: "anya@example.com",
						PackageTier:   "premium",
						PageCount:     24,
						TotalAmount:   4999,
						Currency:      "USD",
						Status:        models.StatusPending,
						CreatedAt:     utils.RFC3339Date{Time: time.Date(2009, 11, 17, 0, 0, 0, 0, time.UTC)},
						UpdatedAt:     utils.RFC3339Date{Time: time.Date(2009, 11, 17, 0, 0, 0, 0, time.UTC)},
					},
				}, nil)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: `[{"id":"order-1","customer_name":"Аня","customer_email":"anya@example.com","package_tier":"premium","page_count":24,"total_amount":4999,"currency":"USD","status":"pending","created_at":"2009-11-17T00:00:00Z","updated_at":"2009-11-17T00:00:00Z"}]`,
		},
		{
			testName:  "Должен вернуть 204 при пустом списке",
			targetURL: "/api/admin/orders?status=printing",
			headers:   map[string]string{"Authorization": "Bearer token"},
			test: func(t *testing.T) {
				jwtToken := jwt.NewWithClaims(
					jwt.SigningMethodHS256,
					jwt.MapClaims{
						"sub": "staff",
					})
				user := models.User{ID: "user-id", Login: "staff", Hash: "hash"}

				jwtServiceMock.EXPECT().ValidateToken("token").Return(jwtToken, nil)
				authServiceMock.EXPECT().GetUser(gomock.Any(), "staff").Return(&user, nil)
				orderServiceMock.EXPECT().ListOrders(gomock.Any(), models.StatusPrinting).Return(nil, nil)
			},
			expectedCode:    http.StatusNoContent,
			expectedMessage: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				"GET",
				tc.targetURL,
				tc.headers,
				nil,
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

// Тестирование административной смены статуса заказа
func TestUpdateOrderStatusRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authServiceMock := mock_models.NewMockAuthService(ctrl)
	jwtServiceMock := mock_models.NewMockJWTService(ctrl)
	orderServiceMock := mock_models.NewMockOrderService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, authServiceMock, jwtServiceMock, nil, orderServiceMock, nil, nil).get(),
	)
	defer testServer.Close()

	expectAuthorized := func(t *testing.T) {
		jwtToken := jwt.NewWithClaims(
			jwt.SigningMethodHS256,
			jwt.MapClaims{
				"sub": "staff",
			})
		user := models.User{ID: "user-id", Login: "staff", Hash: "hash"}

		jwtServiceMock.EXPECT().ValidateToken("token").Return(jwtToken, nil)
		authServiceMock.EXPECT().GetUser(gomock.Any(), "staff").Return(&user, nil)
	}

	testCases := []struct {
		testName        string
		body            func() io.Reader
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName: "Должен вернуть ошибку для неизвестного статуса",
			test:     expectAuthorized,
			body: func() io.Reader {
				status := "teleported"
				data, _ := json.Marshal(models.StatusUpdateRequest{Status: &status})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Неизвестный статус заказа\n",
		},
		{
			testName: "Должен вернуть конфликт для недопустимого перехода",
			test: func(t *testing.T) {
				expectAuthorized(t)
				orderServiceMock.EXPECT().Transition(gomock.Any(), "order-1", models.StatusShipped, models.ActorStaff, gomock.Nil()).Return(services.ErrInvalidTransition)
			},
			body: func() io.Reader {
				status := "shipped"
				data, _ := json.Marshal(models.StatusUpdateRequest{Status: &status})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusConflict,
			expectedMessage: "Переход в этот статус из текущего невозможен\n",
		},
		{
			testName: "Должен передать данные доставки при переходе в shipped",
			test: func(t *testing.T) {
				expectAuthorized(t)
				orderServiceMock.EXPECT().Transition(gomock.Any(), "order-1", models.StatusShipped, models.ActorStaff, &models.ShippingInfo{
					Carrier:        "UPS",
					TrackingNumber: "1Z999",
				}).Return(nil)
			},
			body: func() io.Reader {
				status := "shipped"
				carrier := "UPS"
				tracking := "1Z999"
				data, _ := json.Marshal(models.StatusUpdateRequest{Status: &status, Carrier: &carrier, TrackingNumber: &tracking})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				"POST",
				"/api/admin/orders/order-1/update-status",
				map[string]string{"Content-Type": "application/json", "Authorization": "Bearer token"},
				tc.body(),
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

// Тестирование клиентского согласования макета
func TestProofDecisionRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	proofServiceMock := mock_models.NewMockProofService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, nil, nil, nil, nil, proofServiceMock, nil).get(),
	)
	defer testServer.Close()

	testCases := []struct {
		testName        string
		targetURL       string
		body            func() io.Reader
		headers         map[string]string
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
	}{
		{
			testName:  "Должен утвердить макет",
			targetURL: "/api/orders/order-1/approve",
			headers:   map[string]string{},
			test: func(t *testing.T) {
				proofServiceMock.EXPECT().Approve(gomock.Any(), "order-1").Return(nil)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: "",
		},
		{
			testName:  "Должен вернуть 404 для несуществующего заказа",
			targetURL: "/api/orders/missing/approve",
			headers:   map[string]string{},
			test: func(t *testing.T) {
				proofServiceMock.EXPECT().Approve(gomock.Any(), "missing").Return(services.ErrOrderNotFound)
			},
			expectedCode:    http.StatusNotFound,
			expectedMessage: "Заказ не найден\n",
		},
		{
			testName:  "Должен зафиксировать запрос правок",
			targetURL: "/api/orders/order-1/request-revision",
			headers:   map[string]string{"Content-Type": "application/json"},
			body: func() io.Reader {
				notes := "сделайте обложку синей"
				data, _ := json.Marshal(models.RevisionRequest{Notes: &notes})
				return bytes.NewBuffer(data)
			},
			test: func(t *testing.T) {
				proofServiceMock.EXPECT().RequestRevision(gomock.Any(), "order-1", "сделайте обложку синей").Return(nil)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: "",
		},
		{
			testName:  "Должен вернуть конфликт при исчерпанном лимите правок",
			targetURL: "/api/orders/order-1/request-revision",
			headers:   map[string]string{"Content-Type": "application/json"},
			body: func() io.Reader {
				notes := "еще правки"
				data, _ := json.Marshal(models.RevisionRequest{Notes: &notes})
				return bytes.NewBuffer(data)
			},
			test: func(t *testing.T) {
				proofServiceMock.EXPECT().RequestRevision(gomock.Any(), "order-1", "еще правки").Return(services.ErrRevisionLimitExceeded)
			},
			expectedCode:    http.StatusConflict,
			expectedMessage: "Лимит правок макета исчерпан\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			var body io.Reader

			if tc.body != nil {
				body = tc.body()
			}

			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				"POST",
				tc.targetURL,
				tc.headers,
				body,
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

func TestMarkProofDeliveryRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	proofServiceMock := mock_models.NewMockProofService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, nil, nil, nil, nil, proofServiceMock, nil).get(),
	)
	defer testServer.Close()

	t.Run("Должен обновить статус доставки письма", func(t *testing.T) {
		proofServiceMock.EXPECT().
			MarkSendDelivery(gomock.Any(), "record-1", models.DeliveryDelivered).
			Return(nil)

		status := "delivered"
		data, _ := json.Marshal(models.DeliveryCallback{Status: &status})

		res, _ := utils.TestRequest(
			t,
			testServer,
			"POST",
			"/api/proofs/deliveries/record-1",
			map[string]string{"Content-Type": "application/json"},
			bytes.NewBuffer(data),
		)
		res.Body.Close()

		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("Должен вернуть 400 без статуса", func(t *testing.T) {
		res, mes := utils.TestRequest(
			t,
			testServer,
			"POST",
			"/api/proofs/deliveries/record-1",
			map[string]string{"Content-Type": "application/json"},
			bytes.NewBufferString("{}"),
		)
		res.Body.Close()

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Equal(t, "Статус доставки не указан\n", mes)
	})
}

func TestGetDraftRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	checkoutServiceMock := mock_models.NewMockCheckoutService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, nil, nil, nil, nil, nil, checkoutServiceMock).get(),
	)
	defer testServer.Close()

	t.Run("Должен вернуть черновик по токену", func(t *testing.T) {
		checkoutServiceMock.EXPECT().
			GetDraft(gomock.Any(), "draft-1").
			Return(&models.Draft{Token: "draft-1", CustomerName: "Аня", TotalAmount: 4999, Currency: "USD"}, nil)

		res, mes := utils.TestRequest(
			t,
			testServer,
			"GET",
			"/api/checkout/draft-1",
			nil,
			nil,
		)
		res.Body.Close()

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, mes, `"token":"draft-1"`)
		assert.Contains(t, mes, `"total_amount":4999`)
	})

	t.Run("Должен вернуть 404 для неизвестного токена", func(t *testing.T) {
		checkoutServiceMock.EXPECT().
			GetDraft(gomock.Any(), "missing").
			Return(nil, services.ErrDraftNotFound)

		res, mes := utils.TestRequest(
			t,
			testServer,
			"GET",
			"/api/checkout/missing",
			nil,
			nil,
		)
		res.Body.Close()

		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Equal(t, "Черновик заказа не найден\n", mes)
	})
}
