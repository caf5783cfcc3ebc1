package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_admin/internal/middleware/auth"
	"github.com/Skotchmaster/shop_admin/internal/respond"
	"github.com/Skotchmaster/shop_admin/internal/storage"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	Gate           *auth.Gate
	Ready          func(ctx context.Context) error
	UploadDir      string
	SoftDelete     bool
}

// NewEcho returns an echo instance with the envelope error handler and the
// request validator installed.
func NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = respond.HTTPErrorHandler
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Service unavailable")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	if d.UploadDir != "" {
		e.Static(strings.TrimSuffix(storage.URLPrefix, "/"), d.UploadDir)
	}

	gate := func(p Permission) echo.MiddlewareFunc {
		return d.Gate.Require(RolesFor(p)...)
	}

	api := e.Group("/api")
	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.GET("/me", d.AuthHandler.Me, gate(AccountMe))

	products := api.Group("/products")
	products.GET("", d.CatalogHandler.ListProducts, gate(ProductList))
	products.GET("/search", d.CatalogHandler.SearchProducts, gate(ProductSearch))
	products.GET("/:id", d.CatalogHandler.GetProduct, gate(ProductGet))
	products.POST("", d.CatalogHandler.CreateProduct, gate(ProductCreate))
	products.PUT("/:id", d.CatalogHandler.UpdateProduct, gate(ProductUpdate))
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, gate(ProductDelete))
	if d.SoftDelete {
		products.POST("/:id", d.CatalogHandler.RestoreProduct, gate(ProductRestore))
	}

	categories := api.Group("/categories")
	categories.GET("", d.CatalogHandler.ListCategories, gate(CategoryList))
	categories.GET("/:id", d.CatalogHandler.GetCategory, gate(CategoryGet))
	categories.GET("/:id/products", d.CatalogHandler.ProductsByCategory, gate(CategoryProducts))
	categories.POST("", d.CatalogHandler.CreateCategory, gate(CategoryCreate))
	categories.PUT("/:id", d.CatalogHandler.UpdateCategory, gate(CategoryUpdate))
	categories.DELETE("/:id", d.CatalogHandler.DeleteCategory, gate(CategoryDelete))
}
