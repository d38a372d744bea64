// Package pricing turns requested order lines into priced items using a
// snapshot of the referenced products. It never touches the database.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/backoffice/internal/domain"
	"github.com/Skotchmaster/backoffice/internal/models"
)

type Line struct {
	ProductID uint
	Quantity  int
}

type Item struct {
	ProductID uint
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

type Result struct {
	Items []Item
	Total decimal.Decimal
}

// ProductIDs returns the distinct product ids of lines in first-seen order.
func ProductIDs(lines []Line) []uint {
	seen := make(map[uint]struct{}, len(lines))
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

// Price validates each line against known and prices it. A product listed more
// than once is checked against what the earlier lines left of its stock.
func Price(lines []Line, known map[uint]models.Product) (Result, error) {
	res := Result{Items: make([]Item, 0, len(lines)), Total: decimal.Zero}
	remaining := make(map[uint]int, len(known))

	for _, l := range lines {
		if l.Quantity <= 0 {
			return Result{}, fmt.Errorf("%w: quantity must be > 0", domain.ErrValidation)
		}

		p, ok := known[l.ProductID]
		if !ok {
			return Result{}, &domain.ProductNotFoundError{ProductID: l.ProductID}
		}

		available, seen := remaining[p.ID]
		if !seen {
			available = p.Stock
		}
		if available < l.Quantity {
			return Result{}, &domain.InsufficientStockError{
				ProductID: p.ID,
				Available: available,
				Requested: l.Quantity,
			}
		}
		remaining[p.ID] = available - l.Quantity

		subtotal := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		res.Items = append(res.Items, Item{
			ProductID: p.ID,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
			Subtotal:  subtotal,
		})
		res.Total = res.Total.Add(subtotal)
	}

	return res, nil
}
