package httpserver

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/backoffice/internal/domain"
	"github.com/Skotchmaster/backoffice/internal/service"
	"github.com/Skotchmaster/backoffice/internal/transport"
	"github.com/Skotchmaster/backoffice/pkg/logging"
)

type UserHTTP struct {
	Svc *service.UserService
}

func userMessages(c echo.Context) messages {
	return messages{
		notFound: fmt.Sprintf("Usuário não encontrado: %s", c.Param("id")),
		conflict: "O e-mail informado já está em uso ou o usuário possui pedidos.",
	}
}

func userID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: user id %q", domain.ErrNotFound, c.Param("id"))
	}
	return id, nil
}

func (h *UserHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list_users")

	offset, limit := pageParams(c)
	users, total, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		return httpError(l, "list_users_error", err, userMessages(c))
	}
	return list(c, users, total)
}

func (h *UserHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_user")

	id, err := userID(c)
	if err != nil {
		return httpError(l, "get_user_error", err, userMessages(c))
	}
	user, err := h.Svc.Get(ctx, id)
	if err != nil {
		return httpError(l, "get_user_error", err, userMessages(c))
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.create_user")

	var req transport.UserRequest
	if err := decode(c, &req); err != nil {
		l.Warn("create_user_error", "status", 422, "reason", "invalid body", "error", err)
		return validationFailed(c, err)
	}

	user, token, err := h.Svc.Create(ctx, req.Input())
	if err != nil {
		return httpError(l, "create_user_error", err, userMessages(c))
	}

	l.Info("create_user_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, transport.UserWithToken{User: user, Token: token})
}

// UpdateUser answers 201 with a fresh token, mirroring registration.
func (h *UserHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_user")

	id, err := userID(c)
	if err != nil {
		return httpError(l, "update_user_error", err, userMessages(c))
	}

	var req transport.UserRequest
	if err := decode(c, &req); err != nil {
		l.Warn("update_user_error", "status", 422, "reason", "invalid body", "error", err)
		return validationFailed(c, err)
	}

	user, token, err := h.Svc.Update(ctx, id, req.Input())
	if err != nil {
		return httpError(l, "update_user_error", err, userMessages(c))
	}

	l.Info("update_user_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, transport.UserWithToken{User: user, Token: token})
}

func (h *UserHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete_user")

	id, err := userID(c)
	if err != nil {
		return httpError(l, "delete_user_error", err, userMessages(c))
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return httpError(l, "delete_user_error", err, userMessages(c))
	}

	l.Info("delete_user_success", "user_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Usuário deletado com sucesso."})
}
