package transport

import (
	"time"

	"github.com/Skotchmaster/shop_admin/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
	Name     string `json:"name"     form:"name"`
	Role     string `json:"role"     form:"role"     validate:"omitempty,oneof=customer seller"`
}

type LoginRequest struct {
	Email    string `json:"email"    form:"email"    validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type CategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// ProductInput carries the fields a client sent; nil means not sent.
type ProductInput struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Stock       *int     `json:"stock"`
	CategoryID  *uint    `json:"category_id"`
}

type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type CategoryPage struct {
	Categories []models.Category `json:"categories"`
	PageMeta
}

type ProductPage struct {
	Products []ProductView `json:"products"`
	PageMeta
}

type ProductView struct {
	ID          uint             `json:"id"`
	Name        string           `json:"name"`
	Price       float64          `json:"price"`
	Description string           `json:"description"`
	Stock       int              `json:"stock"`
	CategoryID  *uint            `json:"category_id"`
	Category    *models.Category `json:"category,omitempty"`
	Images      []string         `json:"images"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   *time.Time       `json:"deleted_at"`
}

func NewProductView(p *models.Product) ProductView {
	v := ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		Category:    p.Category,
		Images:      make([]string, 0, len(p.Images)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.DeletedAt.Valid {
		t := p.DeletedAt.Time
		v.DeletedAt = &t
	}
	for _, img := range p.Images {
		v.Images = append(v.Images, img.ImageURL)
	}
	return v
}

func NewProductViews(ps []models.Product) []ProductView {
	out := make([]ProductView, 0, len(ps))
	for i := range ps {
		out = append(out, NewProductView(&ps[i]))
	}
	return out
}
