package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shop_admin/internal/models"
	"github.com/Skotchmaster/shop_admin/internal/util"
)

type CategoryPatch struct {
	Name        *string
	Description *string
}

func (r *GormRepo) ListCategories(ctx context.Context, q string, page, limit int) ([]models.Category, int64, error) {
	offset, limit := util.Calculate(page, limit)
	filter := nameLike("name", q)

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]models.Category, 0, limit)
	if err := r.DB.WithContext(ctx).
		Scopes(filter).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).First(&cat, id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) CategoryExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Create(cat).Error
}

func (r *GormRepo) UpdateCategory(ctx context.Context, id uint, patch CategoryPatch) (*models.Category, error) {
	var cat models.Category
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cat, id).Error; err != nil {
			return err
		}

		fields := map[string]any{}
		if patch.Name != nil {
			fields["name"] = *patch.Name
		}
		if patch.Description != nil {
			fields["description"] = *patch.Description
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&cat).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&cat, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// ProductIDsByCategory lists every product in the category, soft deleted ones included.
func (r *GormRepo) ProductIDsByCategory(ctx context.Context, categoryID uint) ([]uint, error) {
	return productIDsByCategory(r.DB.WithContext(ctx), categoryID)
}

func productIDsByCategory(tx *gorm.DB, categoryID uint) ([]uint, error) {
	var ids []uint
	err := tx.Unscoped().Model(&models.Product{}).
		Where("category_id = ?", categoryID).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteCategory removes the row for good and returns what was deleted
// together with the ids of the products it detached.
// Products keep existing with category_id cleared.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) (*models.Category, []uint, error) {
	var (
		cat      models.Category
		detached []uint
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cat, id).Error; err != nil {
			return err
		}
		ids, err := productIDsByCategory(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Unscoped().Model(&models.Product{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		detached = ids
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &cat, detached, nil
}
