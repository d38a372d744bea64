package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/backoffice/internal/service"
	"github.com/Skotchmaster/backoffice/internal/transport"
	authmw "github.com/Skotchmaster/backoffice/pkg/middleware/auth"
	"github.com/Skotchmaster/backoffice/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := decode(c, &req); err != nil {
		l.Warn("login_error", "status", 422, "reason", "invalid body", "error", err)
		return validationFailed(c, err)
	}

	token, err := h.Svc.Login(ctx, req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":  "Credenciais inválidas",
			"errors": map[string][]string{"email": {"As credenciais informadas não são válidas."}},
		})
	}
	if err != nil {
		return httpError(l, "login_error", err, messages{})
	}
	return c.JSON(http.StatusOK, transport.TokenResponse{Token: token})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	subject, _ := c.Get(authmw.UserIDKey).(string)
	user, err := h.Svc.Me(ctx, subject)
	if err != nil {
		return httpError(l, "me_error", err, messages{})
	}
	token, _ := c.Get(authmw.TokenKey).(string)
	return c.JSON(http.StatusOK, transport.UserWithToken{User: user, Token: token})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	jti, _ := c.Get(authmw.JTIKey).(string)
	if err := h.Svc.Logout(ctx, jti); err != nil {
		return httpError(l, "logout_error", err, messages{})
	}

	l.Info("logout_success")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Desconectado com sucesso"})
}
