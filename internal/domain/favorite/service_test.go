package favorite

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/listing"
	"github.com/your-org/storefront-api/internal/pkg/logger"
	"github.com/your-org/storefront-api/internal/pkg/testdb"
	"gorm.io/gorm"
)

func setupFavorites(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testdb.New(t, &product.Product{}, &product.Review{}, &Favorite{})
	return NewService(db), db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, status product.Status) *product.Product {
	t.Helper()
	p := &product.Product{Name: name, Price: decimal.NewFromInt(price), Category: product.CategoryBooks, Status: status}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestService_AddRemove(t *testing.T) {
	svc, db := setupFavorites(t)
	ctx := context.Background()
	p := seedProduct(t, db, "novel", 12, product.StatusAvailable)

	fav, err := svc.AddFavorite(ctx, 1, &AddFavoriteRequest{ProductID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, p.ID, fav.ProductID)
	require.NotNil(t, fav.Product)
	assert.Equal(t, "novel", fav.Product.Name)

	ok, err := svc.IsFavorite(ctx, 1, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.AddFavorite(ctx, 1, &AddFavoriteRequest{ProductID: p.ID})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	// another user may favorite the same product
	_, err = svc.AddFavorite(ctx, 2, &AddFavoriteRequest{ProductID: p.ID})
	require.NoError(t, err)

	_, err = svc.AddFavorite(ctx, 1, &AddFavoriteRequest{ProductID: 404})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	require.NoError(t, svc.RemoveFavorite(ctx, 1, p.ID))
	err = svc.RemoveFavorite(ctx, 1, p.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestService_ListFavorites(t *testing.T) {
	svc, db := setupFavorites(t)
	ctx := context.Background()

	for i, name := range []string{"Go in Action", "Rust Book", "Go Cookbook"} {
		p := seedProduct(t, db, name, int64(10+i), product.StatusAvailable)
		_, err := svc.AddFavorite(ctx, 1, &AddFavoriteRequest{ProductID: p.ID})
		require.NoError(t, err)
	}

	sorts, err := Schema.ParseSingle("price", "asc")
	require.NoError(t, err)

	page, err := svc.ListFavorites(ctx, 1, listing.Criteria{Search: "go", Sort: sorts, PageSize: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNextPage)
	require.Len(t, page.Items, 1)
	require.NotNil(t, page.Items[0].Product)
	assert.Equal(t, "Go in Action", page.Items[0].Product.Name)

	none, err := svc.ListFavorites(ctx, 2, listing.Criteria{})
	require.NoError(t, err)
	assert.Zero(t, none.TotalCount)
	assert.Empty(t, none.Items)
}

func TestService_SummaryAndProductDeletion(t *testing.T) {
	svc, db := setupFavorites(t)
	products := product.NewService(db, nil, logger.Discard())
	products.RegisterDeleteHook(svc)
	ctx := context.Background()

	a := seedProduct(t, db, "a", 1, product.StatusAvailable)
	b := seedProduct(t, db, "b", 1, product.StatusOutOfStock)
	c := seedProduct(t, db, "c", 1, product.StatusAvailable)
	for _, p := range []*product.Product{a, b, c} {
		_, err := svc.AddFavorite(ctx, 1, &AddFavoriteRequest{ProductID: p.ID})
		require.NoError(t, err)
	}

	summary, err := svc.GetSummary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Summary{TotalItems: 3, AvailableItems: 2, UnavailableItems: 1}, *summary)

	require.NoError(t, products.DeleteProduct(ctx, c.ID))

	page, err := svc.ListFavorites(ctx, 1, listing.Criteria{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalCount)

	var rows int64
	require.NoError(t, db.Model(&Favorite{}).Where("product_id = ?", c.ID).Count(&rows).Error)
	assert.Zero(t, rows)
}
