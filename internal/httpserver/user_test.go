package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/backoffice/internal/models"
	"github.com/Skotchmaster/backoffice/internal/testutil"
	"github.com/Skotchmaster/backoffice/internal/transport"
)

func TestUsers_ManageAccounts(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin@example.com")
	bia := testutil.SeedUser(t, env.DB, "bia@example.com")

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/users", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.User](t, rec), 2)
	assert.Equal(t, "2", rec.Header().Get("X-Total-Count"))

	path := "/api/v1/users/" + bia.ID.String()
	rec = env.doJSONRequest(http.MethodGet, path, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bia@example.com", decodeBody[models.User](t, rec).Email)

	rec = env.doJSONRequest(http.MethodPut, path,
		map[string]string{"name": "Bia", "email": "admin@example.com", "password": "secret123"}, token)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.doJSONRequest(http.MethodPut, path,
		map[string]string{"name": "Beatriz", "email": "bia@example.com", "password": "novasenha"}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	updated := decodeBody[transport.UserWithToken](t, rec)
	assert.Equal(t, "Beatriz", updated.User.Name)
	assert.NotEmpty(t, updated.Token)

	rec = env.doJSONRequest(http.MethodDelete, path, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Usuário deletado com sucesso.", decodeBody[transport.MessageResponse](t, rec).Message)

	rec = env.doJSONRequest(http.MethodGet, path, nil, token)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/users/not-a-uuid", nil, token)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsers_RegisterValidationAndDuplicate(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedUser(t, env.DB, "ana@example.com")

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/users",
		map[string]string{"name": "Ana", "email": "ana@example.com", "password": "secret123"}, "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/users",
		map[string]string{"name": "", "email": "x", "password": "123"}, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decodeBody[transport.ValidationErrorResponse](t, rec).Errors
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}
