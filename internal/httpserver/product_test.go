package httpserver

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/backoffice/internal/events"
	"github.com/Skotchmaster/backoffice/internal/models"
	"github.com/Skotchmaster/backoffice/internal/testutil"
	"github.com/Skotchmaster/backoffice/internal/transport"
)

func productPath(id uint) string {
	return "/api/v1/products/" + strconv.FormatUint(uint64(id), 10)
}

func TestProducts_CRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "estoque@example.com")

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/products",
		`{"name":"Caneca","description":"Porcelana","price":19.9,"stock":7}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[models.Product](t, rec)
	assert.Equal(t, "Caneca", created.Name)
	assert.Equal(t, 7, created.Stock)

	rec = env.doJSONRequest(http.MethodPut, productPath(created.ID),
		`{"name":"Caneca Grande","description":"Porcelana","price":24.5,"stock":3}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[models.Product](t, rec)
	assert.Equal(t, "Caneca Grande", updated.Name)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("24.50")))
	assert.Equal(t, 3, testutil.Stock(t, env.DB, created.ID))

	rec = env.doJSONRequest(http.MethodGet, productPath(created.ID), nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/products?page=1&size=10", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Len(t, decodeBody[[]models.Product](t, rec), 1)

	rec = env.doJSONRequest(http.MethodDelete, productPath(created.ID), nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Produto deletado com sucesso.", decodeBody[transport.MessageResponse](t, rec).Message)

	rec = env.doJSONRequest(http.MethodGet, productPath(created.ID), nil, token)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var types []string
	for _, m := range env.Events.Messages() {
		if m.Topic == events.TopicProducts {
			types = append(types, m.Event.(events.ProductEvent).Type)
		}
	}
	assert.Equal(t, []string{"product_created", "product_updated", "product_deleted"}, types)
}

func TestProducts_Validation(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "estoque@example.com")

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/products", `{"name":"","price":-1,"stock":-2}`, token)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeBody[transport.ValidationErrorResponse](t, rec)
	assert.Equal(t, "Dados inválidos", body.Message)
	assert.Contains(t, body.Errors, "name")
	assert.Contains(t, body.Errors, "price")
	assert.Contains(t, body.Errors, "stock")

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/products", `{"name":"Sem preço"}`, token)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProducts_DeleteInUseConflicts(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "estoque@example.com")
	customer := testutil.SeedUser(t, env.DB, "cliente@example.com")
	p := testutil.SeedProduct(t, env.DB, "Caneca", "10.00", 5)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/orders", orderBody{
		UserID: customer.ID.String(), Items: []map[string]int{line(p.ID, 1)},
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.doJSONRequest(http.MethodDelete, productPath(p.ID), nil, token)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestProducts_SearchRequiresQuery(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "estoque@example.com")
	testutil.SeedProduct(t, env.DB, "Caneca Azul", "10.00", 5)
	testutil.SeedProduct(t, env.DB, "Camiseta", "20.00", 5)

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/products/search", nil, token)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/products/search?q=caneca", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decodeBody[[]models.Product](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "Caneca Azul", found[0].Name)
}
