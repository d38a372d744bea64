package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/backoffice/internal/events"
	"github.com/Skotchmaster/backoffice/internal/idempotency"
	"github.com/Skotchmaster/backoffice/internal/repo"
	"github.com/Skotchmaster/backoffice/internal/service"
	"github.com/Skotchmaster/backoffice/internal/testutil"
	authmw "github.com/Skotchmaster/backoffice/pkg/middleware/auth"
)

var testSecret = []byte("http-test-secret")

type testEnv struct {
	E      *echo.Echo
	DB     *gorm.DB
	Events *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	r := &repo.GormRepo{DB: db}
	rec := &events.Recorder{}
	auth := &service.AuthService{Repo: r, JWTSecret: testSecret, TokenTTL: time.Hour}

	e := echo.New()
	Register(e, &Deps{
		Orders:      &OrderHTTP{Svc: &service.OrderService{Repo: r, Events: rec}, Idem: idempotency.NewMemoryStore(time.Hour)},
		Products:    &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Events: rec}},
		Users:       &UserHTTP{Svc: &service.UserService{Repo: r, Auth: auth, Events: rec}},
		Auth:        &AuthHTTP{Svc: auth},
		RequireAuth: authmw.RequireBearer(testSecret, r),
		Ready:       func(ctx context.Context) error { return repo.Ping(ctx, db) },
	})

	return &testEnv{E: e, DB: db, Events: rec}
}

func (env *testEnv) doJSONRequest(method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

// login seeds a customer and returns its bearer token.
func (env *testEnv) login(t *testing.T, email string) string {
	t.Helper()

	testutil.SeedUser(t, env.DB, email)
	rec := env.doJSONRequest(http.MethodPost, "/api/v1/login", map[string]string{"email": email, "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
