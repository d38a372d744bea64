package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/backoffice/internal/service"
	"github.com/Skotchmaster/backoffice/internal/transport"
	"github.com/Skotchmaster/backoffice/pkg/logging"
	"github.com/Skotchmaster/backoffice/pkg/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func productMessages(c echo.Context) messages {
	return messages{
		notFound: fmt.Sprintf("Produto não encontrado: %s", c.Param("id")),
		conflict: "Produto possui pedidos e não pode ser removido.",
	}
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_products")

	offset, limit := pageParams(c)
	items, total, err := h.Svc.GetProducts(ctx, offset, limit)
	if err != nil {
		return httpError(l, "list_products_error", err, productMessages(c))
	}
	return list(c, items, total)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, err := parseID(c)
	if err != nil {
		return httpError(l, "get_product_error", err, productMessages(c))
	}
	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return httpError(l, "get_product_error", err, productMessages(c))
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_product")

	var req transport.ProductRequest
	if err := decode(c, &req); err != nil {
		l.Warn("create_product_error", "status", 422, "reason", "invalid body", "error", err)
		return validationFailed(c, err)
	}

	product := req.Model(0)
	created, err := h.Svc.CreateProduct(ctx, &product)
	if err != nil {
		return httpError(l, "create_product_error", err, productMessages(c))
	}

	l.Info("create_product_success", "product_id", created.ID)
	return c.JSON(http.StatusCreated, created)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update_product")

	id, err := parseID(c)
	if err != nil {
		return httpError(l, "update_product_error", err, productMessages(c))
	}

	var req transport.ProductRequest
	if err := decode(c, &req); err != nil {
		l.Warn("update_product_error", "status", 422, "reason", "invalid body", "error", err)
		return validationFailed(c, err)
	}

	updated, err := h.Svc.UpdateProduct(ctx, req.Model(id))
	if err != nil {
		return httpError(l, "update_product_error", err, productMessages(c))
	}

	l.Info("update_product_success", "product_id", updated.ID)
	return c.JSON(http.StatusOK, updated)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_product")

	id, err := parseID(c)
	if err != nil {
		return httpError(l, "delete_product_error", err, productMessages(c))
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return httpError(l, "delete_product_error", err, productMessages(c))
	}

	l.Info("delete_product_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Produto deletado com sucesso."})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search_products")

	q := c.QueryParam("q")
	if q == "" {
		l.Warn("search_products_error", "status", 422, "reason", "empty query")
		return c.JSON(http.StatusUnprocessableEntity, transport.ValidationErrorResponse{
			Message: transport.InvalidDataMessage,
			Errors:  map[string][]string{"q": {"O campo q é obrigatório."}},
		})
	}

	offset, limit := pageParams(c)
	if limit < 0 {
		offset, limit = 0, util.DefaultPageSize
	}
	items, total, err := h.Svc.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		return httpError(l, "search_products_error", err, productMessages(c))
	}

	l.Info("search_products_success", "query", q, "hits", len(items))
	return list(c, items, total)
}
