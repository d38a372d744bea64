package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/backoffice/internal/models"
	"github.com/Skotchmaster/backoffice/internal/testutil"
	"github.com/Skotchmaster/backoffice/internal/transport"
)

type orderBody struct {
	UserID string           `json:"user_id"`
	Items  []map[string]int `json:"items"`
}

func line(productID uint, qty int) map[string]int {
	return map[string]int{"product_id": int(productID), "quantity": qty}
}

func orderPath(id uint) string {
	return "/api/v1/orders/" + strconv.FormatUint(uint64(id), 10)
}

func TestCreateOrder_SucceedsAndReservesStock(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "caixa@example.com")
	customer := testutil.SeedUser(t, env.DB, "cliente@example.com")
	p1 := testutil.SeedProduct(t, env.DB, "Caneca", "10.00", 5)
	p2 := testutil.SeedProduct(t, env.DB, "Camiseta", "20.50", 2)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/orders", orderBody{
		UserID: customer.ID.String(),
		Items:  []map[string]int{line(p1.ID, 2), line(p2.ID, 1)},
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	order := decodeBody[models.Order](t, rec)
	assert.Equal(t, customer.ID, order.UserID)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("40.50")), order.Total.String())
	require.Len(t, order.Items, 2)
	require.NotNil(t, order.Items[0].Product)

	assert.Equal(t, 3, testutil.Stock(t, env.DB, p1.ID))
	assert.Equal(t, 1, testutil.Stock(t, env.DB, p2.ID))

	rec = env.doJSONRequest(http.MethodGet, orderPath(order.ID), nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.ID, decodeBody[models.Order](t, rec).ID)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/orders", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Len(t, decodeBody[[]models.Order](t, rec), 1)
}

func TestCreateOrder_BusinessErrors(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "caixa@example.com")
	customer := testutil.SeedUser(t, env.DB, "cliente@example.com")
	p := testutil.SeedProduct(t, env.DB, "Caneca", "10.00", 1)

	tests := []struct {
		name string
		body orderBody
		want string
	}{
		{
			name: "insufficient stock",
			body: orderBody{UserID: customer.ID.String(), Items: []map[string]int{line(p.ID, 2)}},
			want: "Estoque insuficiente para o produto ID " + strconv.Itoa(int(p.ID)) + ". Disponível: 1, solicitado: 2.",
		},
		{
			name: "unknown product",
			body: orderBody{UserID: customer.ID.String(), Items: []map[string]int{line(999, 1)}},
			want: "Produto não encontrado: 999",
		},
		{
			name: "unknown customer",
			body: orderBody{UserID: "00000000-0000-0000-0000-000000000001", Items: []map[string]int{line(p.ID, 1)}},
			want: "Cliente não encontrado: 00000000-0000-0000-0000-000000000001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSONRequest(http.MethodPost, "/api/v1/orders", tt.body, token)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, decodeBody[transport.ErrorResponse](t, rec).Error)
		})
	}

	assert.Equal(t, 1, testutil.Stock(t, env.DB, p.ID))
}

func TestCreateOrder_ValidationFailure(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "caixa@example.com")

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/orders", orderBody{
		UserID: "not-a-uuid",
		Items:  []map[string]int{{"product_id": 1, "quantity": 0}},
	}, token)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeBody[transport.ValidationErrorResponse](t, rec)
	assert.Equal(t, "Dados inválidos", body.Message)
	assert.Contains(t, body.Errors, "user_id")
	assert.Contains(t, body.Errors, "items.0.quantity")

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/orders", `{"user_id":`, token)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateOrder_IdempotencyKeyReplays(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "caixa@example.com")
	customer := testutil.SeedUser(t, env.DB, "cliente@example.com")
	p := testutil.SeedProduct(t, env.DB, "Caneca", "10.00", 5)
	body := orderBody{UserID: customer.ID.String(), Items: []map[string]int{line(p.ID, 2)}}

	first := env.doJSONRequest(http.MethodPost, "/api/v1/orders", body, token, "Idempotency-Key", "abc-1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := env.doJSONRequest(http.MethodPost, "/api/v1/orders", body, token, "Idempotency-Key", "abc-1")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, decodeBody[models.Order](t, first).ID, decodeBody[models.Order](t, second).ID)
	assert.Equal(t, 3, testutil.Stock(t, env.DB, p.ID))

	failing := orderBody{UserID: customer.ID.String(), Items: []map[string]int{line(p.ID, 50)}}
	rec := env.doJSONRequest(http.MethodPost, "/api/v1/orders", failing, token, "Idempotency-Key", "abc-2")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// a failed attempt frees the key for a retry
	rec = env.doJSONRequest(http.MethodPost, "/api/v1/orders", body, token, "Idempotency-Key", "abc-2")
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestUpdateOrder_RestoresAndReprices(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "caixa@example.com")
	customer := testutil.SeedUser(t, env.DB, "cliente@example.com")
	p1 := testutil.SeedProduct(t, env.DB, "Caneca", "10.00", 5)
	p2 := testutil.SeedProduct(t, env.DB, "Camiseta", "30.00", 3)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/orders", orderBody{
		UserID: customer.ID.String(), Items: []map[string]int{line(p1.ID, 5)},
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decodeBody[models.Order](t, rec)

	rec = env.doJSONRequest(http.MethodPut, orderPath(order.ID), orderBody{
		UserID: customer.ID.String(), Items: []map[string]int{line(p1.ID, 1), line(p2.ID, 2)},
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeBody[models.Order](t, rec)
	assert.True(t, updated.Total.Equal(decimal.RequireFromString("70.00")), updated.Total.String())
	assert.Equal(t, 4, testutil.Stock(t, env.DB, p1.ID))
	assert.Equal(t, 1, testutil.Stock(t, env.DB, p2.ID))

	rec = env.doJSONRequest(http.MethodPut, orderPath(order.ID), orderBody{
		UserID: customer.ID.String(), Items: []map[string]int{line(p2.ID, 10)},
	}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 4, testutil.Stock(t, env.DB, p1.ID), "failed update leaves stock untouched")
	assert.Equal(t, 1, testutil.Stock(t, env.DB, p2.ID))

	rec = env.doJSONRequest(http.MethodPut, orderPath(9999), orderBody{
		UserID: customer.ID.String(), Items: []map[string]int{line(p1.ID, 1)},
	}, token)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Pedido não encontrado: 9999", decodeBody[transport.ErrorResponse](t, rec).Error)
}

func TestDeleteOrder_RestoresStock(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "caixa@example.com")
	customer := testutil.SeedUser(t, env.DB, "cliente@example.com")
	p := testutil.SeedProduct(t, env.DB, "Caneca", "10.00", 5)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/orders", orderBody{
		UserID: customer.ID.String(), Items: []map[string]int{line(p.ID, 3)},
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decodeBody[models.Order](t, rec)

	rec = env.doJSONRequest(http.MethodDelete, orderPath(order.ID), nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pedido deletado com sucesso.", decodeBody[transport.MessageResponse](t, rec).Message)
	assert.Equal(t, 5, testutil.Stock(t, env.DB, p.ID))

	rec = env.doJSONRequest(http.MethodDelete, orderPath(order.ID), nil, token)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Pedido não encontrado: "+strconv.Itoa(int(order.ID)), decodeBody[transport.ErrorResponse](t, rec).Error)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/orders/abc", nil, token)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Pedido não encontrado: abc", decodeBody[transport.ErrorResponse](t, rec).Error)
}

func TestCreateOrder_IdempotencyKeyBoundToBody(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "caixa@example.com")
	customer := testutil.SeedUser(t, env.DB, "cliente@example.com")
	other := testutil.SeedUser(t, env.DB, "outro@example.com")
	p := testutil.SeedProduct(t, env.DB, "Caneca", "10.00", 5)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/orders", orderBody{
		UserID: customer.ID.String(), Items: []map[string]int{line(p.ID, 1)},
	}, token, "Idempotency-Key", "key-1")
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, body := range []orderBody{
		{UserID: customer.ID.String(), Items: []map[string]int{line(p.ID, 2)}},
		{UserID: other.ID.String(), Items: []map[string]int{line(p.ID, 1)}},
	} {
		rec = env.doJSONRequest(http.MethodPost, "/api/v1/orders", body, token, "Idempotency-Key", "key-1")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		assert.Equal(t, "Chave de idempotência já usada com outro pedido.", decodeBody[transport.ErrorResponse](t, rec).Error)
		assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))
	}

	assert.Equal(t, 4, testutil.Stock(t, env.DB, p.ID))
}

type acceptAll struct{}

func (acceptAll) Validate(any) error { return nil }

func TestCreateOrder_BadCustomerWithoutStrictValidator(t *testing.T) {
	e := echo.New()
	e.Validator = acceptAll{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders",
		strings.NewReader(`{"user_id":"abc","items":[{"product_id":1,"quantity":1}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := &OrderHTTP{}
	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeBody[transport.ValidationErrorResponse](t, rec)
	assert.Equal(t, "Dados inválidos", body.Message)
	assert.Contains(t, body.Errors, "user_id")
}
