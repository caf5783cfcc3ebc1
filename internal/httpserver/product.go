package httpserver

import (
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_admin/internal/logging"
	"github.com/Skotchmaster/shop_admin/internal/repo"
	"github.com/Skotchmaster/shop_admin/internal/respond"
	"github.com/Skotchmaster/shop_admin/internal/service"
	"github.com/Skotchmaster/shop_admin/internal/storage"
	"github.com/Skotchmaster/shop_admin/internal/transport"
)

const (
	productNotFound = "Product not found"
	imagesField     = "images"
)

type CatalogHTTP struct {
	Svc   *service.CatalogService
	Files *storage.DiskStorage
}

var errBadForm = errors.New("invalid form")

// bindProductInput reads a JSON body or a (multipart) form. Only forms can carry images.
func bindProductInput(c echo.Context) (transport.ProductInput, []*multipart.FileHeader, error) {
	var in transport.ProductInput

	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		if err := (&echo.DefaultBinder{}).BindBody(c, &in); err != nil {
			return in, nil, errBadForm
		}
		return in, nil, nil
	}

	if _, err := c.FormParams(); err != nil {
		return in, nil, errBadForm
	}
	form := c.Request().PostForm

	if v, ok := formValue(form, "name"); ok {
		in.Name = &v
	}
	if v, ok := formValue(form, "description"); ok {
		in.Description = &v
	}
	if v, ok := formValue(form, "price"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, nil, errors.New("price must be a number")
		}
		in.Price = &f
	}
	if v, ok := formValue(form, "stock"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, nil, errors.New("stock must be an integer")
		}
		in.Stock = &n
	}
	if v, ok := formValue(form, "category_id"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return in, nil, errors.New("category_id must be a positive integer")
		}
		id := uint(n)
		in.CategoryID = &id
	}

	var files []*multipart.FileHeader
	if mf := c.Request().MultipartForm; mf != nil {
		files = mf.File[imagesField]
	}
	return in, files, nil
}

func formValue(form url.Values, key string) (string, bool) {
	v, ok := form[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return strings.TrimSpace(v[0]), true
}

// storeImages writes uploads to disk and returns their names and public URLs.
func (h *CatalogHTTP) storeImages(c echo.Context, files []*multipart.FileHeader) ([]string, []string, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}
	names, err := h.Files.SaveAll(files)
	if err != nil {
		return nil, nil, err
	}
	urls := make([]string, 0, len(names))
	for _, n := range names {
		urls = append(urls, h.Files.PublicURL(c.Scheme(), c.Request().Host, n))
	}
	return names, urls, nil
}

func (h *CatalogHTTP) discardImages(c echo.Context, names []string) {
	if len(names) == 0 {
		return
	}
	if err := h.Files.RemoveAll(names); err != nil {
		logging.FromContext(c.Request().Context()).Warn("discard_uploads_failed", "error", err)
	}
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	page, limit := pageParams(c)
	q := repo.ProductQuery{
		Page:         page,
		Limit:        limit,
		Query:        c.QueryParam("q"),
		JoinCategory: true,
	}
	if v := c.QueryParam("category_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return invalidInput(l, "list_products", "category_id must be a positive integer", err)
		}
		id := uint(n)
		q.CategoryID = &id
	}

	items, total, err := h.Svc.ListProducts(ctx, q)
	if err != nil {
		return mapError(l, "list_products", err, productNotFound)
	}

	return respond.Success(c, http.StatusOK, "Products fetched successfully", transport.ProductPage{
		Products: transport.NewProductViews(items),
		PageMeta: pageMeta(total, page, limit),
	})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page, limit := pageParams(c)
	items, total, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page, limit)
	if err != nil {
		return mapError(l, "search_products", err, productNotFound)
	}

	return respond.Success(c, http.StatusOK, "Products fetched successfully", transport.ProductPage{
		Products: transport.NewProductViews(items),
		PageMeta: pageMeta(total, page, limit),
	})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_product_failed", "status", 422, "reason", "bad id", "id", c.Param("id"))
		return err
	}

	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return mapError(l, "get_product", err, productNotFound)
	}
	return respond.Success(c, http.StatusOK, "Product fetched successfully", transport.NewProductView(p))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	in, files, err := bindProductInput(c)
	if err != nil {
		return invalidInput(l, "create_product", formMessage(err), err)
	}

	names, urls, err := h.storeImages(c, files)
	if err != nil {
		return mapError(l, "create_product", err, productNotFound)
	}

	p, err := h.Svc.CreateProduct(ctx, in, urls)
	if err != nil {
		h.discardImages(c, names)
		return mapError(l, "create_product", err, productNotFound)
	}

	l.Info("create_product_success", "product_id", p.ID, "images", len(urls))
	return respond.Success(c, http.StatusCreated, "Product created successfully", transport.NewProductView(p))
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := parseID(c)
	if err != nil {
		l.Warn("update_product_failed", "status", 422, "reason", "bad id", "id", c.Param("id"))
		return err
	}

	in, files, err := bindProductInput(c)
	if err != nil {
		return invalidInput(l, "update_product", formMessage(err), err)
	}

	names, urls, err := h.storeImages(c, files)
	if err != nil {
		return mapError(l, "update_product", err, productNotFound)
	}

	p, err := h.Svc.UpdateProduct(ctx, id, in, urls)
	if err != nil {
		h.discardImages(c, names)
		return mapError(l, "update_product", err, productNotFound)
	}

	l.Info("update_product_success", "product_id", p.ID, "images_replaced", len(urls) > 0)
	return respond.Success(c, http.StatusOK, "Product updated successfully", transport.NewProductView(p))
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c)
	if err != nil {
		l.Warn("delete_product_failed", "status", 422, "reason", "bad id", "id", c.Param("id"))
		return err
	}

	p, err := h.Svc.DeleteProduct(ctx, id)
	if err != nil {
		return mapError(l, "delete_product", err, productNotFound)
	}

	l.Info("delete_product_success", "product_id", id, "soft", h.Svc.SoftDelete)
	return respond.Success(c, http.StatusOK, "Product deleted successfully", transport.NewProductView(p))
}

func (h *CatalogHTTP) RestoreProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.restore")

	id, err := parseID(c)
	if err != nil {
		l.Warn("restore_product_failed", "status", 422, "reason", "bad id", "id", c.Param("id"))
		return err
	}

	p, err := h.Svc.RestoreProduct(ctx, id)
	if err != nil {
		return mapError(l, "restore_product", err, productNotFound)
	}

	l.Info("restore_product_success", "product_id", id)
	return respond.Success(c, http.StatusOK, "Product restored successfully", transport.NewProductView(p))
}

func formMessage(err error) string {
	if errors.Is(err, errBadForm) {
		return "Invalid body"
	}
	return clientMessage(err)
}
