// Package inventory is the only writer of products.stock. Every function runs
// on the caller's transaction handle and never commits on its own.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/backoffice/internal/domain"
	"github.com/Skotchmaster/backoffice/internal/models"
)

// Reserve takes quantity units out of stock with a single conditional update,
// so two concurrent reservations can never drive stock below zero.
func Reserve(ctx context.Context, tx *gorm.DB, productID uint, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be > 0", domain.ErrValidation)
	}

	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("reserve stock of product %d: %w", productID, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	available, err := current(ctx, tx, productID)
	if err != nil {
		return err
	}
	return &domain.InsufficientStockError{ProductID: productID, Available: available, Requested: quantity}
}

// Release puts quantity units back. There is no upper bound on stock.
func Release(ctx context.Context, tx *gorm.DB, productID uint, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be > 0", domain.ErrValidation)
	}

	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("release stock of product %d: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.ProductNotFoundError{ProductID: productID}
	}
	return nil
}

// Adjust sets stock to target when an operator corrects the catalog. The write
// is conditional on the value just read; a concurrent reservation in between
// makes it fail with ErrConflict instead of overwriting that reservation.
func Adjust(ctx context.Context, tx *gorm.DB, productID uint, target int) error {
	if target < 0 {
		return fmt.Errorf("%w: stock must be >= 0", domain.ErrValidation)
	}

	stock, err := current(ctx, tx, productID)
	if err != nil {
		return err
	}
	if stock == target {
		return nil
	}

	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock = ?", productID, stock).
		Update("stock", target)
	if res.Error != nil {
		return fmt.Errorf("adjust stock of product %d: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: stock of product %d changed concurrently", domain.ErrConflict, productID)
	}
	return nil
}

func current(ctx context.Context, tx *gorm.DB, productID uint) (int, error) {
	var p models.Product
	err := tx.WithContext(ctx).Select("id", "stock").Where("id = ?", productID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, &domain.ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return 0, fmt.Errorf("read stock of product %d: %w", productID, err)
	}
	return p.Stock, nil
}
