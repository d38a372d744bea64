package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/backoffice/internal/domain"
	"github.com/Skotchmaster/backoffice/internal/idempotency"
	"github.com/Skotchmaster/backoffice/internal/transport"
	"github.com/Skotchmaster/backoffice/pkg/util"
)

const (
	headerTotalCount     = "X-Total-Count"
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"

	internalOrderError = "Erro interno ao processar o pedido."
)

func decode(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, transport.ValidationErrorResponse{
		Message: transport.InvalidDataMessage,
		Errors:  transport.FormatValidationError(err),
	})
}

// pageParams pages only when the client asks for it; otherwise the whole
// collection is returned, limit -1 meaning no limit.
func pageParams(c echo.Context) (offset, limit int) {
	page, size := c.QueryParam("page"), c.QueryParam("size")
	if page == "" && size == "" {
		return 0, -1
	}
	return util.Calculate(util.ParseIntDefault(page, 1), util.ParseIntDefault(size, util.DefaultPageSize))
}

func list[T any](c echo.Context, items []T, total int64) error {
	if items == nil {
		items = []T{}
	}
	c.Response().Header().Set(headerTotalCount, strconv.FormatInt(total, 10))
	return c.JSON(http.StatusOK, items)
}

func parseID(c echo.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: id %q", domain.ErrNotFound, raw)
	}
	return uint(id), nil
}

// orderFailure writes the {"error": ...} body used by every order route.
func orderFailure(c echo.Context, l *slog.Logger, event string, err error) error {
	var notFound *domain.OrderNotFoundError

	status, msg := http.StatusInternalServerError, internalOrderError
	if m, ok := domain.BusinessMessage(err); ok {
		status, msg = http.StatusBadRequest, m
	} else if errors.As(err, &notFound) {
		status, msg = http.StatusNotFound, notFound.Error()
	} else if errors.Is(err, idempotency.ErrInProgress) {
		status, msg = http.StatusConflict, "Pedido com esta chave de idempotência em processamento."
	} else if errors.Is(err, idempotency.ErrKeyMismatch) {
		status, msg = http.StatusUnprocessableEntity, "Chave de idempotência já usada com outro pedido."
	} else if errors.Is(err, domain.ErrConflict) {
		status, msg = http.StatusConflict, "Conflito ao processar o pedido, tente novamente."
	} else if errors.Is(err, domain.ErrValidation) {
		status, msg = http.StatusBadRequest, transport.InvalidDataMessage
	}

	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "reason", "unexpected failure", "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return c.JSON(status, transport.ErrorResponse{Error: msg})
}

func badOrderID(c echo.Context, l *slog.Logger, event string, err error) error {
	msg := fmt.Sprintf("Pedido não encontrado: %s", c.Param("id"))
	l.Warn(event, "status", 404, "reason", "bad id", "error", err)
	return c.JSON(http.StatusNotFound, transport.ErrorResponse{Error: msg})
}

const unauthenticated = "Não autenticado."

// messages carries the per-resource wording for 404 and 409 answers.
type messages struct {
	notFound string
	conflict string
}

// httpError maps service failures of the non-order routes onto echo errors.
func httpError(l *slog.Logger, event string, err error, m messages) error {
	var status int
	var msg string
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, m.notFound
	case errors.Is(err, domain.ErrConflict):
		status, msg = http.StatusConflict, m.conflict
	case errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusBadRequest, transport.InvalidDataMessage
	case errors.Is(err, domain.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, unauthenticated
	default:
		l.Error(event, "status", 500, "reason", "unexpected failure", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Erro interno.")
	}
	l.Warn(event, "status", status, "reason", msg, "error", err)
	return echo.NewHTTPError(status, msg)
}
