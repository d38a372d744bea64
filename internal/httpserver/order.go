package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/backoffice/internal/idempotency"
	"github.com/Skotchmaster/backoffice/internal/service"
	"github.com/Skotchmaster/backoffice/internal/transport"
	"github.com/Skotchmaster/backoffice/pkg/logging"
)

type OrderHTTP struct {
	Svc  *service.OrderService
	Idem idempotency.Store
}

// bindOrder decodes the body and parses the customer id without trusting that
// a validator ran.
func bindOrder(c echo.Context, req *transport.OrderRequest) (uuid.UUID, error) {
	if err := decode(c, req); err != nil {
		return uuid.Nil, err
	}
	return req.Customer()
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	offset, limit := pageParams(c)
	orders, total, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		return orderFailure(c, l, "list_orders_error", err)
	}

	l.Info("list_orders_success", "count", len(orders))
	return list(c, orders, total)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := parseID(c)
	if err != nil {
		return badOrderID(c, l, "get_order_error", err)
	}

	order, err := h.Svc.Get(ctx, id)
	if err != nil {
		return orderFailure(c, l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.OrderRequest
	customer, err := bindOrder(c, &req)
	if err != nil {
		l.Warn("create_order_error", "status", 422, "reason", "invalid body", "error", err)
		return validationFailed(c, err)
	}

	key := c.Request().Header.Get(headerIdempotencyKey)
	fingerprint := req.Fingerprint(customer)
	claimed := false
	if key != "" && h.Idem != nil {
		orderID, ok, err := h.Idem.Claim(ctx, key, fingerprint)
		if err != nil {
			return orderFailure(c, l, "create_order_error", err)
		}
		if !ok {
			order, err := h.Svc.Get(ctx, orderID)
			if err != nil {
				return orderFailure(c, l, "create_order_error", err)
			}
			l.Info("create_order_replayed", "order_id", order.ID)
			c.Response().Header().Set(headerReplayed, "true")
			return c.JSON(http.StatusOK, order)
		}
		claimed = true
	}

	order, err := h.Svc.Create(ctx, customer, req.Lines())
	if err != nil {
		if claimed {
			if rErr := h.Idem.Release(ctx, key); rErr != nil {
				l.Warn("idempotency_release_failed", "error", rErr)
			}
		}
		return orderFailure(c, l, "create_order_error", err)
	}

	if claimed {
		if err := h.Idem.Complete(ctx, key, fingerprint, order.ID); err != nil {
			l.Warn("idempotency_complete_failed", "order_id", order.ID, "error", err)
		}
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) UpdateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_order")

	id, err := parseID(c)
	if err != nil {
		return badOrderID(c, l, "update_order_error", err)
	}

	var req transport.OrderRequest
	customer, err := bindOrder(c, &req)
	if err != nil {
		l.Warn("update_order_error", "status", 422, "reason", "invalid body", "error", err)
		return validationFailed(c, err)
	}

	order, err := h.Svc.Update(ctx, id, customer, req.Lines())
	if err != nil {
		return orderFailure(c, l, "update_order_error", err)
	}

	l.Info("update_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	id, err := parseID(c)
	if err != nil {
		return badOrderID(c, l, "delete_order_error", err)
	}

	if _, err := h.Svc.Delete(ctx, id); err != nil {
		return orderFailure(c, l, "delete_order_error", err)
	}

	l.Info("delete_order_success", "order_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Pedido deletado com sucesso."})
}
