package middleware

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/backoffice/pkg/logging"
	"github.com/Skotchmaster/backoffice/pkg/tokens"
)

const (
	tokenContextKey = "bearer"

	UserIDKey = "user_id"
	TokenKey  = "token"
	JTIKey    = "jti"
)

// TokenChecker reports whether a token id is still issued (not logged out, not expired).
type TokenChecker interface {
	TokenActive(ctx context.Context, jti string) (bool, error)
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Não autenticado."})
}

func RequireBearer(secret []byte, checker TokenChecker) echo.MiddlewareFunc {
	parse := echojwt.WithConfig(echojwt.Config{
		SigningKey:    secret,
		SigningMethod: echojwt.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(tokens.AccessClaims) },
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 401, "reason", "invalid bearer token", "error", err)
			return unauthenticated(c)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return parse(func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx)

			tkn, ok := c.Get(tokenContextKey).(*jwt.Token)
			if !ok {
				return unauthenticated(c)
			}
			claims, ok := tkn.Claims.(*tokens.AccessClaims)
			if !ok || claims.Subject == "" || claims.ID == "" {
				l.Warn("auth_failed", "status", 401, "reason", "claims incomplete")
				return unauthenticated(c)
			}

			active, err := checker.TokenActive(ctx, claims.ID)
			if err != nil {
				l.Error("auth_failed", "status", 500, "reason", "cannot check token", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "cannot check token")
			}
			if !active {
				l.Warn("auth_failed", "status", 401, "reason", "token revoked or expired")
				return unauthenticated(c)
			}

			c.Set(UserIDKey, claims.Subject)
			c.Set(JTIKey, claims.ID)
			c.Set(TokenKey, tkn.Raw)

			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l.With("user_id", claims.Subject))))
			return next(c)
		})
	}
}
