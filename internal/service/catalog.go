package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/shop_admin/internal/cache"
	"github.com/Skotchmaster/shop_admin/internal/logging"
	"github.com/Skotchmaster/shop_admin/internal/middleware/auth"
	"github.com/Skotchmaster/shop_admin/internal/models"
	"github.com/Skotchmaster/shop_admin/internal/mykafka"
	"github.com/Skotchmaster/shop_admin/internal/repo"
	"github.com/Skotchmaster/shop_admin/internal/storage"
	"github.com/Skotchmaster/shop_admin/internal/transport"
	"github.com/Skotchmaster/shop_admin/internal/util"
)

type ProductIndexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type FileRemover interface {
	RemoveAll(names []string) error
}

type CatalogService struct {
	Repo       *repo.GormRepo
	Events     EventPublisher
	Index      ProductIndexer
	Cache      *cache.Client
	CacheTTL   time.Duration
	Files      FileRemover
	SoftDelete bool
}

// categories

func (s *CatalogService) ListCategories(ctx context.Context, q string, page, limit int) ([]models.Category, int64, error) {
	items, total, err := s.Repo.ListCategories(ctx, q, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	return items, total, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	c, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return c, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CategoryRequest) (*models.Category, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	c := &models.Category{Name: strings.TrimSpace(*req.Name)}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.categoryEvent(ctx, "category_created", c)
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, req transport.CategoryRequest) (*models.Category, error) {
	patch := repo.CategoryPatch{Description: req.Description}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", ErrValidation)
		}
		patch.Name = &name
	}
	c, err := s.Repo.UpdateCategory(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, "category")
	}

	// cached product details embed the category
	if s.Cache != nil {
		ids, err := s.Repo.ProductIDsByCategory(ctx, id)
		if err != nil {
			logging.FromContext(ctx).Warn("category_products_lookup_failed", "category_id", id, "error", err)
		}
		s.forgetProducts(ctx, ids)
	}
	s.categoryEvent(ctx, "category_updated", c)
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) (*models.Category, error) {
	c, detached, err := s.Repo.DeleteCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}

	s.forgetProducts(ctx, detached)
	s.reindex(ctx, detached)
	s.categoryEvent(ctx, "category_deleted", c)
	return c, nil
}

func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID uint, page, limit int) ([]models.Product, int64, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, 0, err
	}
	return s.ListProducts(ctx, repo.ProductQuery{Page: page, Limit: limit, CategoryID: &categoryID})
}

// products

// ListProducts never returns soft deleted products.
func (s *CatalogService) ListProducts(ctx context.Context, q repo.ProductQuery) ([]models.Product, int64, error) {
	q.IncludeDeleted = false
	items, total, err := s.Repo.ListProducts(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return items, total, nil
}

// SearchProducts uses the search index when one is configured and falls
// back to a name filter on the database otherwise or when the index fails.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, page, limit int) ([]models.Product, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, fmt.Errorf("search query is required: %w", ErrValidation)
	}
	if s.Index != nil {
		offset, size := util.Calculate(page, limit)
		total, ids, err := s.Index.Search(ctx, query, offset, size)
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return nil, 0, fmt.Errorf("load search hits: %w", err)
			}
			return items, total, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.ListProducts(ctx, repo.ProductQuery{Page: page, Limit: limit, Query: query, JoinCategory: true})
}

type cachedProduct struct {
	models.Product
	Images []models.ProductImage `json:"images"`
}

// GetProduct also returns soft deleted products.
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	key := productKey(id)
	if b := s.Cache.Get(ctx, key); b != nil {
		var cp cachedProduct
		if err := json.Unmarshal(b, &cp); err == nil {
			cp.Product.Images = cp.Images
			return &cp.Product, nil
		}
	}

	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}

	if s.Cache != nil {
		if b, err := json.Marshal(cachedProduct{Product: *p, Images: p.Images}); err == nil {
			s.Cache.Set(ctx, key, b, s.cacheTTL())
		}
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in transport.ProductInput, imageURLs []string) (*models.Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if in.Price == nil {
		return nil, fmt.Errorf("price is required: %w", ErrValidation)
	}
	if err := s.validateProduct(ctx, in); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:       strings.TrimSpace(*in.Name),
		Price:      *in.Price,
		CategoryID: in.CategoryID,
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}

	if err := s.Repo.CreateProduct(ctx, p, imageURLs); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.productEvent(ctx, "product_created", p, nil)
	s.syncIndex(ctx, p)
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in transport.ProductInput, imageURLs []string) (*models.Product, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("name cannot be empty: %w", ErrValidation)
	}
	if err := s.validateProduct(ctx, in); err != nil {
		return nil, err
	}

	patch := repo.ProductPatch{
		Price:       in.Price,
		Description: in.Description,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		patch.Name = &name
	}

	p, removed, err := s.Repo.UpdateProduct(ctx, id, patch, imageURLs)
	if err != nil {
		return nil, notFound(err, "product")
	}

	s.Cache.Delete(ctx, productKey(id))
	s.removeImageFiles(ctx, removed)
	s.productEvent(ctx, "product_updated", p, nil)
	s.syncIndex(ctx, p)
	return p, nil
}

// DeleteProduct soft deletes unless the service runs in hard delete mode.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}

	hard := !s.SoftDelete
	removed, err := s.Repo.DeleteProduct(ctx, id, hard)
	if err != nil {
		return nil, notFound(err, "product")
	}

	s.Cache.Delete(ctx, productKey(id))
	s.removeImageFiles(ctx, removed)
	s.productEvent(ctx, "product_deleted", p, map[string]any{"hard": hard})
	s.unindex(ctx, id)

	if hard {
		return p, nil
	}
	return s.Repo.GetProduct(ctx, id)
}

func (s *CatalogService) RestoreProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.RestoreProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	s.Cache.Delete(ctx, productKey(id))
	s.productEvent(ctx, "product_restored", p, nil)
	s.syncIndex(ctx, p)
	return p, nil
}

func (s *CatalogService) validateProduct(ctx context.Context, in transport.ProductInput) error {
	if in.Price != nil && (*in.Price < 0 || math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0)) {
		return fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	if in.Stock != nil && *in.Stock < 0 {
		return fmt.Errorf("stock cannot be negative: %w", ErrValidation)
	}
	if in.CategoryID != nil {
		ok, err := s.Repo.CategoryExists(ctx, *in.CategoryID)
		if err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if !ok {
			return fmt.Errorf("category %d does not exist: %w", *in.CategoryID, ErrValidation)
		}
	}
	return nil
}

func (s *CatalogService) cacheTTL() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return 5 * time.Minute
}

func (s *CatalogService) removeImageFiles(ctx context.Context, imgs []models.ProductImage) {
	if s.Files == nil || len(imgs) == 0 {
		return
	}
	names := make([]string, 0, len(imgs))
	for _, img := range imgs {
		if n, ok := storage.NameFromURL(img.ImageURL); ok {
			names = append(names, n)
		}
	}
	if err := s.Files.RemoveAll(names); err != nil {
		logging.FromContext(ctx).Warn("remove_image_files_failed", "error", err)
	}
}

func (s *CatalogService) syncIndex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.Index.IndexProduct(ictx, p); err != nil {
		logging.FromContext(ctx).Error("index_product_failed", "product_id", p.ID, "error", err)
	}
}

// reindex pushes the current state of live products to the search index.
func (s *CatalogService) reindex(ctx context.Context, ids []uint) {
	if s.Index == nil || len(ids) == 0 {
		return
	}
	items, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		logging.FromContext(ctx).Error("reindex_products_failed", "ids", ids, "error", err)
		return
	}
	for i := range items {
		s.syncIndex(ctx, &items[i])
	}
}

func (s *CatalogService) forgetProducts(ctx context.Context, ids []uint) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	s.Cache.Delete(ctx, keys...)
}

func (s *CatalogService) unindex(ctx context.Context, id uint) {
	if s.Index == nil {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.Index.DeleteProduct(ictx, id); err != nil {
		logging.FromContext(ctx).Error("unindex_product_failed", "product_id", id, "error", err)
	}
}

func (s *CatalogService) productEvent(ctx context.Context, typ string, p *models.Product, extra map[string]any) {
	ev := map[string]any{
		"type":      typ,
		"productID": p.ID,
		"name":      p.Name,
	}
	if id, ok := auth.IdentityFrom(ctx); ok {
		ev["actorID"] = id.UserID
	}
	for k, v := range extra {
		ev[k] = v
	}
	publish(ctx, s.Events, mykafka.TopicProductEvents, strconv.FormatUint(uint64(p.ID), 10), ev)
}

func (s *CatalogService) categoryEvent(ctx context.Context, typ string, c *models.Category) {
	ev := map[string]any{
		"type":       typ,
		"categoryID": c.ID,
		"name":       c.Name,
	}
	if id, ok := auth.IdentityFrom(ctx); ok {
		ev["actorID"] = id.UserID
	}
	publish(ctx, s.Events, mykafka.TopicCategoryEvents, strconv.FormatUint(uint64(c.ID), 10), ev)
}

func productKey(id uint) string {
	return "product:" + strconv.FormatUint(uint64(id), 10)
}
