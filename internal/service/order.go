package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/backoffice/internal/domain"
	"github.com/Skotchmaster/backoffice/internal/events"
	"github.com/Skotchmaster/backoffice/internal/inventory"
	"github.com/Skotchmaster/backoffice/internal/models"
	"github.com/Skotchmaster/backoffice/internal/pricing"
	"github.com/Skotchmaster/backoffice/internal/repo"
	"github.com/Skotchmaster/backoffice/pkg/logging"
)

const (
	defaultTxTimeout = 10 * time.Second
	publishTimeout   = 5 * time.Second
)

// OrderService runs every order mutation as one transaction: price the lines,
// move stock through the inventory package, persist, commit. Any failure rolls
// back all of it.
type OrderService struct {
	Repo      *repo.GormRepo
	Events    events.Publisher
	TxTimeout time.Duration
}

func (s *OrderService) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.TxTimeout
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *OrderService) List(ctx context.Context, offset, limit int) ([]models.Order, int64, error) {
	return s.Repo.ListOrders(ctx, offset, limit)
}

func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	return s.Repo.GetOrder(ctx, id)
}

func (s *OrderService) Create(ctx context.Context, userID uuid.UUID, lines []pricing.Line) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create")
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: items required", domain.ErrValidation)
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	var orderID uint
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := requireCustomer(ctx, tx, userID); err != nil {
			return err
		}

		priced, err := priceAndReserve(ctx, tx, lines)
		if err != nil {
			return err
		}

		order := models.Order{UserID: userID, Total: priced.Total}
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := tx.InsertOrderItems(ctx, itemsOf(order.ID, priced)); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		l.Warn("create_order_rolled_back", "user_id", userID, "error", err)
		return nil, err
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order %d: %w", orderID, err)
	}

	l.Info("order_created", "order_id", order.ID, "total", order.Total.String(), "items", len(order.Items))
	s.publish(ctx, "order_created", order)
	return order, nil
}

// Update returns the stock held by the current lines before pricing the new
// ones, so a line may reuse what it held before.
func (s *OrderService) Update(ctx context.Context, orderID uint, userID uuid.UUID, lines []pricing.Line) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.update", "order_id", orderID)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: items required", domain.ErrValidation)
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := lockOrder(ctx, tx, orderID); err != nil {
			return err
		}
		if err := releaseItems(ctx, tx, orderID); err != nil {
			return err
		}

		if err := requireCustomer(ctx, tx, userID); err != nil {
			return err
		}
		priced, err := priceAndReserve(ctx, tx, lines)
		if err != nil {
			return err
		}

		if err := tx.InsertOrderItems(ctx, itemsOf(orderID, priced)); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		if err := tx.UpdateOrderHeader(ctx, orderID, userID, priced.Total); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
	if err != nil {
		l.Warn("update_order_rolled_back", "error", err)
		return nil, err
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order %d: %w", orderID, err)
	}

	l.Info("order_updated", "total", order.Total.String(), "items", len(order.Items))
	s.publish(ctx, "order_updated", order)
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, orderID uint) (bool, error) {
	l := logging.FromContext(ctx).With("svc", "order.delete", "order_id", orderID)

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	var deleted models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := lockOrder(ctx, tx, orderID); err != nil {
			return err
		}
		current, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		deleted = *current

		if err := releaseItems(ctx, tx, orderID); err != nil {
			return err
		}
		if err := tx.DeleteOrder(ctx, orderID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
	if err != nil {
		l.Warn("delete_order_rolled_back", "error", err)
		return false, err
	}

	l.Info("order_deleted")
	s.publish(ctx, "order_deleted", &deleted)
	return true, nil
}

func requireCustomer(ctx context.Context, tx *repo.GormRepo, userID uuid.UUID) error {
	exists, err := tx.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if !exists {
		return &domain.CustomerNotFoundError{UserID: userID}
	}
	return nil
}

func lockOrder(ctx context.Context, tx *repo.GormRepo, orderID uint) error {
	found, err := tx.LockOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("lock order: %w", err)
	}
	if !found {
		return &domain.OrderNotFoundError{OrderID: orderID}
	}
	return nil
}

// releaseItems gives back the stock of every current line and removes the lines.
func releaseItems(ctx context.Context, tx *repo.GormRepo, orderID uint) error {
	items, err := tx.OrderItems(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	for _, it := range byProduct(items, func(it models.OrderItem) uint { return it.ProductID }) {
		if err := inventory.Release(ctx, tx.DB, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	if err := tx.DeleteOrderItems(ctx, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	return nil
}

func priceAndReserve(ctx context.Context, tx *repo.GormRepo, lines []pricing.Line) (pricing.Result, error) {
	products, err := tx.ProductsByIDs(ctx, pricing.ProductIDs(lines))
	if err != nil {
		return pricing.Result{}, fmt.Errorf("load products: %w", err)
	}

	priced, err := pricing.Price(lines, products)
	if err != nil {
		return pricing.Result{}, err
	}

	for _, it := range byProduct(priced.Items, func(it pricing.Item) uint { return it.ProductID }) {
		if err := inventory.Reserve(ctx, tx.DB, it.ProductID, it.Quantity); err != nil {
			return pricing.Result{}, err
		}
	}
	return priced, nil
}

// byProduct returns a copy sorted by product id. Stock rows are always locked
// in that order so two orders over the same products cannot deadlock.
func byProduct[T any](xs []T, id func(T) uint) []T {
	out := slices.Clone(xs)
	slices.SortStableFunc(out, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
	return out
}

func itemsOf(orderID uint, priced pricing.Result) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(priced.Items))
	for _, it := range priced.Items {
		items = append(items, models.OrderItem{
			OrderID:   orderID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return items
}

func (s *OrderService) publish(ctx context.Context, typ string, order *models.Order) {
	if s.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	key := strconv.FormatUint(uint64(order.ID), 10)
	if err := s.Events.Publish(pubCtx, events.TopicOrders, key, events.NewOrderEvent(typ, order)); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", events.TopicOrders, "type", typ, "order_id", order.ID, "error", err)
	}
}
