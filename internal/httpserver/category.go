package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_admin/internal/logging"
	"github.com/Skotchmaster/shop_admin/internal/respond"
	"github.com/Skotchmaster/shop_admin/internal/transport"
	"github.com/Skotchmaster/shop_admin/internal/util"
)

const categoryNotFound = "Category not found"

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "id must be a positive integer")
	}
	return uint(id), nil
}

func pageParams(c echo.Context) (int, int) {
	page := util.ParseIntDefault(c.QueryParam("page"), util.DefaultPage)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	return util.Normalize(page, limit)
}

func pageMeta(total int64, page, limit int) transport.PageMeta {
	return transport.PageMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: util.TotalPages(total, limit),
	}
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list")

	page, limit := pageParams(c)
	items, total, err := h.Svc.ListCategories(ctx, c.QueryParam("q"), page, limit)
	if err != nil {
		return mapError(l, "list_categories", err, categoryNotFound)
	}

	return respond.Success(c, http.StatusOK, "Categories fetched successfully", transport.CategoryPage{
		Categories: items,
		PageMeta:   pageMeta(total, page, limit),
	})
}

func (h *CatalogHTTP) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_category_failed", "status", 422, "reason", "bad id", "id", c.Param("id"))
		return err
	}

	cat, err := h.Svc.GetCategory(ctx, id)
	if err != nil {
		return mapError(l, "get_category", err, categoryNotFound)
	}
	return respond.Success(c, http.StatusOK, "Category fetched successfully", cat)
}

func (h *CatalogHTTP) ProductsByCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.products")

	id, err := parseID(c)
	if err != nil {
		l.Warn("products_by_category_failed", "status", 422, "reason", "bad id", "id", c.Param("id"))
		return err
	}

	page, limit := pageParams(c)
	items, total, err := h.Svc.ProductsByCategory(ctx, id, page, limit)
	if err != nil {
		return mapError(l, "products_by_category", err, categoryNotFound)
	}

	return respond.Success(c, http.StatusOK, "Products fetched successfully", transport.ProductPage{
		Products: transport.NewProductViews(items),
		PageMeta: pageMeta(total, page, limit),
	})
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create")

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(l, "create_category", "Invalid body", err)
	}

	cat, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		return mapError(l, "create_category", err, categoryNotFound)
	}

	l.Info("create_category_success", "category_id", cat.ID)
	return respond.Success(c, http.StatusCreated, "Category created successfully", cat)
}

func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.update")

	id, err := parseID(c)
	if err != nil {
		l.Warn("update_category_failed", "status", 422, "reason", "bad id", "id", c.Param("id"))
		return err
	}

	var req transport.CategoryRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return invalidInput(l, "update_category", "Invalid body", err)
	}

	cat, err := h.Svc.UpdateCategory(ctx, id, req)
	if err != nil {
		return mapError(l, "update_category", err, categoryNotFound)
	}

	l.Info("update_category_success", "category_id", cat.ID)
	return respond.Success(c, http.StatusOK, "Category updated successfully", cat)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete")

	id, err := parseID(c)
	if err != nil {
		l.Warn("delete_category_failed", "status", 422, "reason", "bad id", "id", c.Param("id"))
		return err
	}

	cat, err := h.Svc.DeleteCategory(ctx, id)
	if err != nil {
		return mapError(l, "delete_category", err, categoryNotFound)
	}

	l.Info("delete_category_success", "category_id", id)
	return respond.Success(c, http.StatusOK, "Category deleted successfully", cat)
}
