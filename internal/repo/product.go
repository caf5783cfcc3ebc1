package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shop_admin/internal/models"
	"github.com/Skotchmaster/shop_admin/internal/util"
)

// ProductQuery drives every product listing. HTTP list endpoints never set
// IncludeDeleted; fetch by id always sees deleted rows.
type ProductQuery struct {
	Page           int
	Limit          int
	Query          string
	CategoryID     *uint
	IncludeDeleted bool
	JoinCategory   bool
}

type ProductPatch struct {
	Name        *string
	Price       *float64
	Description *string
	Stock       *int
	CategoryID  *uint
}

func (q ProductQuery) base(db *gorm.DB) *gorm.DB {
	db = db.Model(&models.Product{})
	if q.IncludeDeleted {
		db = db.Unscoped()
	}
	return db
}

func (q ProductQuery) filter(db *gorm.DB) *gorm.DB {
	db = db.Scopes(nameLike("products.name", q.Query))
	if q.CategoryID != nil {
		db = db.Where("products.category_id = ?", *q.CategoryID)
	}
	return db
}

func (r *GormRepo) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	offset, limit := util.Calculate(q.Page, q.Limit)

	var total int64
	if err := q.base(r.DB.WithContext(ctx)).Scopes(q.filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]models.Product, 0, limit)
	find := q.base(r.DB.WithContext(ctx)).Scopes(q.filter).Preload("Images", orderImages)
	if q.JoinCategory {
		find = find.Joins("Category")
	}
	if err := find.
		Order("products.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).
		Unscoped().
		Preload("Images", orderImages).
		Preload("Category").
		First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductsByIDs keeps the order of ids and skips deleted or missing rows.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := r.DB.WithContext(ctx).
		Preload("Images", orderImages).
		Where("id IN ?", ids).
		Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// CreateProduct writes the product and its images in one transaction.
func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product, imageURLs []string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		imgs, err := insertImages(tx, p.ID, imageURLs)
		if err != nil {
			return err
		}
		p.Images = imgs
		return nil
	})
}

// UpdateProduct applies patch under a row lock. When imageURLs is non-empty
// the existing image set is replaced wholesale.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uint, patch ProductPatch, imageURLs []string) (*models.Product, []models.ProductImage, error) {
	var (
		p       models.Product
		removed []models.ProductImage
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error; err != nil {
			return err
		}

		if fields := patch.fields(); len(fields) > 0 {
			if err := tx.Model(&p).Updates(fields).Error; err != nil {
				return err
			}
		}

		if len(imageURLs) > 0 {
			if err := tx.Where("product_id = ?", id).Find(&removed).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
				return err
			}
			if _, err := insertImages(tx, id, imageURLs); err != nil {
				return err
			}
		}

		return tx.Preload("Images", orderImages).Preload("Category").First(&p, id).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &p, removed, nil
}

// DeleteProduct stamps deleted_at, or with hard removes the row and its images.
// The images that were removed are returned so their files can be cleaned up.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uint, hard bool) ([]models.ProductImage, error) {
	if !hard {
		res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, nil
	}

	var removed []models.ProductImage
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Find(&removed).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// RestoreProduct clears deleted_at. Restoring a live product is a no-op.
func (r *GormRepo) RestoreProduct(ctx context.Context, id uint) (*models.Product, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Unscoped().Select("id").First(&p, id).Error; err != nil {
			return err
		}
		return tx.Unscoped().Model(&models.Product{}).
			Where("id = ? AND deleted_at IS NOT NULL", id).
			UpdateColumn("deleted_at", nil).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetProduct(ctx, id)
}

func (p ProductPatch) fields() map[string]any {
	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Price != nil {
		fields["price"] = *p.Price
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Stock != nil {
		fields["stock"] = *p.Stock
	}
	if p.CategoryID != nil {
		fields["category_id"] = *p.CategoryID
	}
	return fields
}

func insertImages(tx *gorm.DB, productID uint, urls []string) ([]models.ProductImage, error) {
	if len(urls) == 0 {
		return []models.ProductImage{}, nil
	}
	imgs := make([]models.ProductImage, 0, len(urls))
	for _, u := range urls {
		imgs = append(imgs, models.ProductImage{ProductID: productID, ImageURL: u})
	}
	if err := tx.Create(&imgs).Error; err != nil {
		return nil, err
	}
	return imgs, nil
}

func orderImages(db *gorm.DB) *gorm.DB {
	return db.Order("product_images.id ASC")
}
