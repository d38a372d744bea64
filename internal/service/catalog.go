package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Skotchmaster/backoffice/internal/events"
	"github.com/Skotchmaster/backoffice/internal/inventory"
	"github.com/Skotchmaster/backoffice/internal/models"
	"github.com/Skotchmaster/backoffice/internal/repo"
	"github.com/Skotchmaster/backoffice/pkg/logging"
)

// Searcher is the full-text index kept next to the products table.
type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Search Searcher
	Events events.Publisher
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.Repo.GetProduct(ctx, id)
}

func (s *CatalogService) GetProducts(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	return s.Repo.ListProducts(ctx, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := s.Repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.afterWrite(ctx, "product_created", product)
	return product, nil
}

// UpdateProduct writes the descriptive fields and routes a stock change
// through inventory.Adjust, both in one transaction.
func (s *CatalogService) UpdateProduct(ctx context.Context, req models.Product) (*models.Product, error) {
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.UpdateProductDetails(ctx, &req); err != nil {
			return err
		}
		return inventory.Adjust(ctx, tx.DB, req.ID, req.Stock)
	})
	if err != nil {
		return nil, err
	}

	product, err := s.Repo.GetProduct(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "product_updated", product)
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		return tx.DeleteProduct(ctx, id)
	}); err != nil {
		return err
	}

	l := logging.FromContext(ctx)
	if s.Search != nil {
		if err := s.Search.DeleteProduct(ctx, id); err != nil {
			l.Warn("search_sync_failed", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, events.NewProductEvent("product_deleted", &models.Product{ID: id}))
	return nil
}

// SearchProducts asks the search cluster first and falls back to the database
// when it is not configured or not answering.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) ([]models.Product, int64, error) {
	if s.Search != nil {
		total, items, err := s.Search.Search(ctx, q, offset, limit)
		if err == nil {
			return items, total, nil
		}
		logging.FromContext(ctx).Warn("search_fallback", "reason", "search cluster failed", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

func (s *CatalogService) afterWrite(ctx context.Context, typ string, p *models.Product) {
	if s.Search != nil {
		if err := s.Search.IndexProduct(ctx, p); err != nil {
			logging.FromContext(ctx).Warn("search_sync_failed", "product_id", p.ID, "error", err)
		}
	}
	s.publish(ctx, events.NewProductEvent(typ, p))
}

func (s *CatalogService) publish(ctx context.Context, ev events.ProductEvent) {
	if s.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.Events.Publish(pubCtx, events.TopicProducts, strconv.FormatUint(uint64(ev.ProductID), 10), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", events.TopicProducts, "type", ev.Type, "error", err)
	}
}
