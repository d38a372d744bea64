package transport

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/backoffice/internal/idempotency"
	"github.com/Skotchmaster/backoffice/internal/models"
	"github.com/Skotchmaster/backoffice/internal/pricing"
	"github.com/Skotchmaster/backoffice/internal/service"
)

type OrderItemRequest struct {
	ProductID uint `json:"product_id" validate:"required,gt=0"`
	Quantity  int  `json:"quantity"   validate:"required,gt=0"`
}

type OrderRequest struct {
	UserID string             `json:"user_id" validate:"required,uuid"`
	Items  []OrderItemRequest `json:"items"   validate:"required,min=1,dive"`
}

var ErrInvalidCustomer = errors.New("user_id is not a valid uuid")

// Customer parses user_id; FormatValidationError reports a failure under user_id.
func (r OrderRequest) Customer() (uuid.UUID, error) {
	id, err := uuid.Parse(r.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidCustomer, err)
	}
	return id, nil
}

// Fingerprint identifies the body for Idempotency-Key reuse checks.
func (r OrderRequest) Fingerprint(customer uuid.UUID) string {
	parts := make([]string, 0, len(r.Items)+1)
	parts = append(parts, customer.String())
	for _, it := range r.Items {
		parts = append(parts, strconv.FormatUint(uint64(it.ProductID), 10)+"x"+strconv.Itoa(it.Quantity))
	}
	return idempotency.Fingerprint(parts...)
}

func (r OrderRequest) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, pricing.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

type ProductRequest struct {
	Name        string           `json:"name"        validate:"required,min=1,max=255"`
	Description string           `json:"description" validate:"max=5000"`
	Price       *decimal.Decimal `json:"price"       validate:"required,gte=0"`
	Stock       *int             `json:"stock"       validate:"required,gte=0"`
}

func (r ProductRequest) Model(id uint) models.Product {
	return models.Product{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price.Round(2),
		Stock:       *r.Stock,
	}
}

type UserRequest struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

func (r UserRequest) Input() service.UserInput {
	return service.UserInput{Name: r.Name, Email: r.Email, Password: r.Password}
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserWithToken struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}
