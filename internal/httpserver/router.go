package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/backoffice/internal/transport"
)

type Deps struct {
	Orders   *OrderHTTP
	Products *CatalogHTTP
	Users    *UserHTTP
	Auth     *AuthHTTP

	RequireAuth echo.MiddlewareFunc
	Ready       func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = transport.NewValidator()
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api/v1")
	api.POST("/users", d.Users.CreateUser)
	api.POST("/login", d.Auth.Login)

	auth := api.Group("", d.RequireAuth)

	auth.GET("/me", d.Auth.Me)
	auth.POST("/logout", d.Auth.Logout)

	auth.GET("/users", d.Users.ListUsers)
	auth.GET("/users/:id", d.Users.GetUser)
	auth.PUT("/users/:id", d.Users.UpdateUser)
	auth.DELETE("/users/:id", d.Users.DeleteUser)

	auth.GET("/products", d.Products.ListProducts)
	auth.POST("/products", d.Products.CreateProduct)
	auth.GET("/products/search", d.Products.SearchProducts)
	auth.GET("/products/:id", d.Products.GetProduct)
	auth.PUT("/products/:id", d.Products.UpdateProduct)
	auth.DELETE("/products/:id", d.Products.DeleteProduct)

	auth.GET("/orders", d.Orders.ListOrders)
	auth.POST("/orders", d.Orders.CreateOrder)
	auth.GET("/orders/:id", d.Orders.GetOrder)
	auth.PUT("/orders/:id", d.Orders.UpdateOrder)
	auth.DELETE("/orders/:id", d.Orders.DeleteOrder)
}
