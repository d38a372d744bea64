package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrNotFound     = errors.New("not found")    // 404
	ErrConflict     = errors.New("conflict")     // 409
	ErrUnauthorized = errors.New("unauthorized") // 401
)

type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Produto não encontrado: %d", e.ProductID)
}

type InsufficientStockError struct {
	ProductID uint
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Estoque insuficiente para o produto ID %d. Disponível: %d, solicitado: %d.", e.ProductID, e.Available, e.Requested)
}

type OrderNotFoundError struct {
	OrderID uint
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("Pedido não encontrado: %d", e.OrderID)
}

func (e *OrderNotFoundError) Is(target error) bool { return target == ErrNotFound }

type CustomerNotFoundError struct {
	UserID uuid.UUID
}

func (e *CustomerNotFoundError) Error() string {
	return fmt.Sprintf("Cliente não encontrado: %s", e.UserID)
}

// BusinessMessage returns the client-facing message of an order rule violation.
func BusinessMessage(err error) (string, bool) {
	var (
		productErr  *ProductNotFoundError
		stockErr    *InsufficientStockError
		customerErr *CustomerNotFoundError
	)
	switch {
	case errors.As(err, &stockErr):
		return stockErr.Error(), true
	case errors.As(err, &productErr):
		return productErr.Error(), true
	case errors.As(err, &customerErr):
		return customerErr.Error(), true
	}
	return "", false
}
