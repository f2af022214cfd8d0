package product

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/cache"
	"github.com/your-org/storefront-api/internal/pkg/listing"
	"github.com/your-org/storefront-api/internal/pkg/logger"
	"github.com/your-org/storefront-api/internal/pkg/testdb"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testdb.New(t, &Product{}, &Review{})
	return NewService(db, nil, logger.Discard()), db
}

func createProduct(t *testing.T, db *gorm.DB, p Product) *Product {
	t.Helper()
	if p.Category == "" {
		p.Category = CategoryBooks
	}
	if p.Status == "" {
		p.Status = StatusAvailable
	}
	if p.Name == "" {
		p.Name = "product"
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func ptr[T any](v T) *T { return &v }

func TestService_ListProducts_PriceRangeByRating(t *testing.T) {
	svc, db := setupService(t)
	createProduct(t, db, Product{Name: "cheap", Price: decimal.NewFromInt(40)})
	createProduct(t, db, Product{Name: "mid", Price: decimal.NewFromInt(60), Rating: ptr(3.0)})
	createProduct(t, db, Product{Name: "top", Price: decimal.NewFromInt(90), Rating: ptr(5.0)})

	page, err := svc.ListProducts(context.Background(), listing.Criteria{
		PriceFrom: ptr(50.0),
		PriceTo:   ptr(100.0),
		Sort:      []listing.Sort{{Field: listing.FieldRating, Direction: listing.Desc}},
	})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].Price.Equal(decimal.NewFromInt(90)))
	assert.True(t, page.Items[1].Price.Equal(decimal.NewFromInt(60)))
	assert.EqualValues(t, 2, page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNextPage)
}

func TestService_ListProducts_NoBounds(t *testing.T) {
	svc, db := setupService(t)
	for i := 0; i < 12; i++ {
		createProduct(t, db, Product{Price: decimal.NewFromInt(int64(i))})
	}
	deleted := createProduct(t, db, Product{Price: decimal.NewFromInt(99)})
	require.NoError(t, db.Delete(deleted).Error)

	page, err := svc.ListProducts(context.Background(), listing.Criteria{})
	require.NoError(t, err)

	assert.EqualValues(t, 12, page.TotalCount)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNextPage)
}

func TestService_ListProducts_CategoryStatusSearch(t *testing.T) {
	svc, db := setupService(t)
	createProduct(t, db, Product{Name: "Go Programming", Category: CategoryBooks})
	createProduct(t, db, Product{Name: "Go Kart", Category: CategoryToys})
	createProduct(t, db, Product{Name: "Old Go Book", Category: CategoryBooks, Status: StatusDiscontinued})

	page, err := svc.ListProducts(context.Background(), listing.Criteria{
		Search:   "go",
		Category: string(CategoryBooks),
		Status:   string(StatusAvailable),
	})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "Go Programming", page.Items[0].Name)
}

func TestService_GetProduct_Cached(t *testing.T) {
	db := testdb.New(t, &Product{}, &Review{})
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.New(client, "test:", time.Minute)
	svc := NewService(db, c, logger.Discard())
	ctx := context.Background()

	p := createProduct(t, db, Product{Name: "lamp", Price: decimal.RequireFromString("19.99")})

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "lamp", got.Name)
	assert.True(t, mr.Exists("test:product:1"))

	// served from cache even if the row changes underneath
	require.NoError(t, db.Model(&Product{}).Where("id = ?", p.ID).Update("name", "changed").Error)
	got, err = svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "lamp", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("19.99")))

	_, err = svc.UpdateProduct(ctx, p.ID, &UpdateProductRequest{Name: ptr("desk lamp")})
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:product:1"))

	got, err = svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "desk lamp", got.Name)
	assert.EqualValues(t, 1, c.Stats().Hits)
}

func TestService_GetProduct_NotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.GetProduct(context.Background(), 404)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestService_CreateUpdateValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &CreateProductRequest{
		Name:     " Kettle ",
		Price:    decimal.NewFromInt(25),
		Category: CategoryHome,
	})
	require.NoError(t, err)
	assert.Equal(t, "Kettle", p.Name)
	assert.Equal(t, StatusAvailable, p.Status)
	assert.Nil(t, p.Rating)

	_, err = svc.CreateProduct(ctx, &CreateProductRequest{Name: "x", Price: decimal.NewFromInt(1), Category: "weapons"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.CreateProduct(ctx, &CreateProductRequest{Name: "x", Price: decimal.NewFromInt(-1), Category: CategoryHome})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.UpdateProduct(ctx, p.ID, &UpdateProductRequest{Status: ptr(Status("gone"))})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.UpdateProduct(ctx, 999, &UpdateProductRequest{Name: ptr("x")})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	updated, err := svc.UpdateProduct(ctx, p.ID, &UpdateProductRequest{
		Price:  ptr(decimal.NewFromInt(30)),
		Status: ptr(StatusOutOfStock),
	})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, StatusOutOfStock, updated.Status)
}

type recordingHook struct {
	deleted []uint
}

func (h *recordingHook) OnProductDeleted(tx *gorm.DB, productID uint) error {
	h.deleted = append(h.deleted, productID)
	return nil
}

func TestService_DeleteProduct(t *testing.T) {
	svc, db := setupService(t)
	hook := &recordingHook{}
	svc.RegisterDeleteHook(hook)
	ctx := context.Background()

	p := createProduct(t, db, Product{Name: "doomed"})
	require.NoError(t, db.Create(&Review{ProductID: p.ID, UserID: 1, Rating: 4}).Error)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	assert.Equal(t, []uint{p.ID}, hook.deleted)

	var reviews int64
	require.NoError(t, db.Model(&Review{}).Where("product_id = ?", p.ID).Count(&reviews).Error)
	assert.Zero(t, reviews)

	_, err := svc.GetProduct(ctx, p.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	err = svc.DeleteProduct(ctx, p.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestService_Recommend(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	viewed := createProduct(t, db, Product{Name: "viewed", Category: CategoryBooks, Rating: ptr(5.0)})
	createProduct(t, db, Product{Name: "unrated", Category: CategoryBooks})
	createProduct(t, db, Product{Name: "good", Category: CategoryBooks, Rating: ptr(4.5), ReviewsCount: 2})
	createProduct(t, db, Product{Name: "good-popular", Category: CategoryBooks, Rating: ptr(4.5), ReviewsCount: 9})
	createProduct(t, db, Product{Name: "best", Category: CategoryBooks, Rating: ptr(4.9), ReviewsCount: 1})
	createProduct(t, db, Product{Name: "gone", Category: CategoryBooks, Rating: ptr(5.0), Status: StatusDiscontinued})
	createProduct(t, db, Product{Name: "toy", Category: CategoryToys, Rating: ptr(5.0)})
	createProduct(t, db, Product{Name: "meh", Category: CategoryBooks, Rating: ptr(2.0)})

	recs, err := svc.Recommend(ctx, viewed, 0)
	require.NoError(t, err)

	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"best", "good-popular", "good", "meh"}, names)
}

func TestService_ListCategories(t *testing.T) {
	svc, db := setupService(t)
	createProduct(t, db, Product{Category: CategoryBooks})
	createProduct(t, db, Product{Category: CategoryBooks, Status: StatusOutOfStock})
	createProduct(t, db, Product{Category: CategoryToys})

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, len(AllCategories))

	byName := make(map[Category]CategoryWithProductCount)
	for _, c := range categories {
		byName[c.Category] = c
	}
	assert.EqualValues(t, 2, byName[CategoryBooks].ProductCount)
	assert.EqualValues(t, 1, byName[CategoryBooks].AvailableCount)
	assert.EqualValues(t, 1, byName[CategoryToys].ProductCount)
	assert.EqualValues(t, 0, byName[CategoryBeauty].ProductCount)
}
