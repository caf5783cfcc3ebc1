package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_admin/internal/models"
	"github.com/Skotchmaster/shop_admin/internal/mykafka"
	"github.com/Skotchmaster/shop_admin/internal/repo"
	"github.com/Skotchmaster/shop_admin/internal/testutil"
	"github.com/Skotchmaster/shop_admin/internal/transport"
)

func ptr[T any](v T) *T { return &v }

func newTestCatalog(t *testing.T, soft bool) (*CatalogService, *fakePublisher, *fakeIndex, *fakeFiles) {
	t.Helper()
	pub := &fakePublisher{}
	idx := newFakeIndex()
	files := &fakeFiles{}
	return &CatalogService{
		Repo:       repo.New(testutil.NewDB(t)),
		Events:     pub,
		Index:      idx,
		Files:      files,
		SoftDelete: soft,
	}, pub, idx, files
}

func TestCatalog_CreateProduct_Validation(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestCatalog(t, true)
	ctx := context.Background()

	tests := []struct {
		name string
		in   transport.ProductInput
	}{
		{name: "no name", in: transport.ProductInput{Price: ptr(1.0)}},
		{name: "blank name", in: transport.ProductInput{Name: ptr("  "), Price: ptr(1.0)}},
		{name: "no price", in: transport.ProductInput{Name: ptr("x")}},
		{name: "negative price", in: transport.ProductInput{Name: ptr("x"), Price: ptr(-1.0)}},
		{name: "negative stock", in: transport.ProductInput{Name: ptr("x"), Price: ptr(1.0), Stock: ptr(-2)}},
		{name: "unknown category", in: transport.ProductInput{Name: ptr("x"), Price: ptr(1.0), CategoryID: ptr(uint(77))}},
	}
	for _, tt := range tests {
		_, err := svc.CreateProduct(ctx, tt.in, nil)
		assert.ErrorIs(t, err, ErrValidation, tt.name)
	}
}

func TestCatalog_ProductLifecycle_Soft(t *testing.T) {
	t.Parallel()
	svc, pub, idx, files := newTestCatalog(t, true)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, transport.ProductInput{
		Name: ptr("Widget"), Price: ptr(9.99), Stock: ptr(5),
	}, nil)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Empty(t, p.Images)
	assert.Equal(t, "Widget", idx.indexed[p.ID])

	ev := pub.last()
	assert.Equal(t, mykafka.TopicProductEvents, ev.Topic)
	assert.Equal(t, "product_created", ev.Event["type"])

	updated, err := svc.UpdateProduct(ctx, p.ID, transport.ProductInput{}, []string{
		"http://h/uploads/1-a.png", "http://h/uploads/2-b.png",
	})
	require.NoError(t, err)
	require.Len(t, updated.Images, 2)

	_, err = svc.UpdateProduct(ctx, p.ID, transport.ProductInput{}, []string{"http://h/uploads/3-c.png"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1-a.png", "2-b.png"}, files.removed)

	deleted, err := svc.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, deleted.DeletedAt.Valid)
	assert.NotContains(t, idx.indexed, p.ID)
	assert.Equal(t, false, pub.last().Event["hard"])

	items, total, err := svc.ListProducts(ctx, repo.ProductQuery{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.DeletedAt.Valid)

	_, err = svc.UpdateProduct(ctx, p.ID, transport.ProductInput{Name: ptr("nope")}, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	restored, err := svc.RestoreProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, restored.DeletedAt.Valid)
	assert.Equal(t, "product_restored", pub.last().Event["type"])
	assert.Contains(t, idx.indexed, p.ID)

	_, total, err = svc.ListProducts(ctx, repo.ProductQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestCatalog_DeleteProduct_Hard(t *testing.T) {
	t.Parallel()
	svc, pub, _, files := newTestCatalog(t, false)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, transport.ProductInput{Name: ptr("Lamp"), Price: ptr(3.0)},
		[]string{"http://h/uploads/9-x.png"})
	require.NoError(t, err)

	_, err = svc.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, true, pub.last().Event["hard"])
	assert.Equal(t, []string{"9-x.png"}, files.removed)

	_, err = svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.DeleteProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_SearchProducts(t *testing.T) {
	t.Parallel()
	svc, _, idx, _ := newTestCatalog(t, true)
	ctx := context.Background()

	a, err := svc.CreateProduct(ctx, transport.ProductInput{Name: ptr("Red Kettle"), Price: ptr(1.0)}, nil)
	require.NoError(t, err)
	b, err := svc.CreateProduct(ctx, transport.ProductInput{Name: ptr("Toaster"), Price: ptr(1.0)}, nil)
	require.NoError(t, err)

	idx.hits, idx.total = []uint{b.ID, a.ID}, 2
	items, total, err := svc.SearchProducts(ctx, "toastr", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)

	idx.err = errBoom
	items, total, err = svc.SearchProducts(ctx, "kettle", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, a.ID, items[0].ID)

	_, _, err = svc.SearchProducts(ctx, " ", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalog_Categories(t *testing.T) {
	t.Parallel()
	svc, pub, _, _ := newTestCatalog(t, true)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, transport.CategoryRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	c, err := svc.CreateCategory(ctx, transport.CategoryRequest{Name: ptr("Shirts"), Description: ptr("tops")})
	require.NoError(t, err)
	assert.Equal(t, mykafka.TopicCategoryEvents, pub.last().Topic)

	_, err = svc.UpdateCategory(ctx, c.ID, transport.CategoryRequest{Name: ptr("")})
	assert.ErrorIs(t, err, ErrValidation)

	up, err := svc.UpdateCategory(ctx, c.ID, transport.CategoryRequest{Description: ptr("all tops")})
	require.NoError(t, err)
	assert.Equal(t, "Shirts", up.Name)
	assert.Equal(t, "all tops", up.Description)

	_, err = svc.CreateProduct(ctx, transport.ProductInput{Name: ptr("Tee"), Price: ptr(5.0), CategoryID: &c.ID}, nil)
	require.NoError(t, err)
	gone, err := svc.CreateProduct(ctx, transport.ProductInput{Name: ptr("Polo"), Price: ptr(5.0), CategoryID: &c.ID}, nil)
	require.NoError(t, err)
	_, err = svc.DeleteProduct(ctx, gone.ID)
	require.NoError(t, err)

	items, total, err := svc.ProductsByCategory(ctx, c.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Tee", items[0].Name)

	_, _, err = svc.ProductsByCategory(ctx, 999, 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	del, err := svc.DeleteCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shirts", del.Name)

	_, err = svc.GetCategory(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_PublishFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()
	svc, pub, _, _ := newTestCatalog(t, true)
	pub.err = errBoom

	p, err := svc.CreateProduct(context.Background(), transport.ProductInput{Name: ptr("x"), Price: ptr(0.0)}, nil)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)

	var n int64
	require.NoError(t, svc.Repo.DB.Model(&models.Product{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCatalog_NotFoundIsOneLine(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestCatalog(t, true)
	ctx := context.Background()

	_, err := svc.GetProduct(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "product not found: not found", err.Error())

	_, err = svc.DeleteCategory(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "category not found: not found", err.Error())
}
