package cart

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

func setupCart(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testdb.New(t, &product.Product{}, &product.Review{}, &Cart{}, &CartItem{})
	return NewService(db, logger.Discard()), db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, status product.Status) *product.Product {
	t.Helper()
	p := &product.Product{
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Category: product.CategoryHome,
		Status:   status,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func storedTotal(t *testing.T, db *gorm.DB, userID uint) decimal.Decimal {
	t.Helper()
	var cart Cart
	require.NoError(t, db.Where("user_id = ?", userID).First(&cart).Error)
	return cart.TotalPrice
}

func TestService_GetCartCreatesEmptyCart(t *testing.T) {
	svc, _ := setupCart(t)

	cart, err := svc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), cart.UserID)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalPrice.IsZero())

	again, err := svc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestService_ItemLifecycleKeepsTotal(t *testing.T) {
	svc, db := setupCart(t)
	ctx := context.Background()
	kettle := seedProduct(t, db, "kettle", 10, product.StatusAvailable)
	mug := seedProduct(t, db, "mug", 5, product.StatusAvailable)

	cart, err := svc.AddItem(ctx, 1, &AddToCartRequest{ProductID: kettle.ID, Quantity: 2})
	require.NoError(t, err)
	cart, err = svc.AddItem(ctx, 1, &AddToCartRequest{ProductID: mug.ID, Quantity: 3})
	require.NoError(t, err)
	assert.True(t, cart.TotalPrice.Equal(decimal.NewFromInt(35)))
	assert.True(t, storedTotal(t, db, 1).Equal(decimal.NewFromInt(35)))
	assert.Equal(t, 5, cart.Totals.TotalQuantity)

	t.Run("adding again merges quantity", func(t *testing.T) {
		cart, err := svc.AddItem(ctx, 1, &AddToCartRequest{ProductID: kettle.ID, Quantity: 1})
		require.NoError(t, err)
		require.Len(t, cart.Items, 2)
		assert.Equal(t, 3, cart.Items[0].Quantity)
		assert.True(t, cart.TotalPrice.Equal(decimal.NewFromInt(45)))
	})

	t.Run("update quantity", func(t *testing.T) {
		current, err := svc.GetCart(ctx, 1)
		require.NoError(t, err)

		cart, err := svc.UpdateItem(ctx, 1, current.Items[1].ID, &UpdateCartItemRequest{Quantity: 1})
		require.NoError(t, err)
		assert.True(t, cart.TotalPrice.Equal(decimal.NewFromInt(35)))
		assert.True(t, storedTotal(t, db, 1).Equal(decimal.NewFromInt(35)))
	})

	t.Run("remove item", func(t *testing.T) {
		current, err := svc.GetCart(ctx, 1)
		require.NoError(t, err)

		cart, err := svc.RemoveItem(ctx, 1, current.Items[0].ID)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.True(t, cart.TotalPrice.Equal(decimal.NewFromInt(5)))
	})

	t.Run("clear", func(t *testing.T) {
		cart, err := svc.Clear(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.True(t, cart.TotalPrice.IsZero())
		assert.True(t, storedTotal(t, db, 1).IsZero())
	})
}

func TestService_AddItemErrors(t *testing.T) {
	svc, db := setupCart(t)
	ctx := context.Background()
	gone := seedProduct(t, db, "gone", 10, product.StatusDiscontinued)

	_, err := svc.AddItem(ctx, 1, &AddToCartRequest{ProductID: 999, Quantity: 1})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = svc.AddItem(ctx, 1, &AddToCartRequest{ProductID: gone.ID, Quantity: 1})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.AddItem(ctx, 1, &AddToCartRequest{ProductID: gone.ID, Quantity: 0})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestService_ItemsOfOtherUsersAreNotFound(t *testing.T) {
	svc, db := setupCart(t)
	ctx := context.Background()
	p := seedProduct(t, db, "p", 10, product.StatusAvailable)

	theirs, err := svc.AddItem(ctx, 2, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, 1, theirs.Items[0].ID, &UpdateCartItemRequest{Quantity: 5})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = svc.RemoveItem(ctx, 1, theirs.Items[0].ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	assert.True(t, storedTotal(t, db, 2).Equal(decimal.NewFromInt(10)))
}

func TestService_ListItems(t *testing.T) {
	svc, db := setupCart(t)
	ctx := context.Background()

	empty, err := svc.ListItems(ctx, 1, listing.Criteria{})
	require.NoError(t, err)
	assert.Zero(t, empty.TotalCount)
	assert.Equal(t, 1, empty.PageIndex)

	for i, name := range []string{"alpha lamp", "beta lamp", "gamma mug"} {
		p := seedProduct(t, db, name, int64(10*(i+1)), product.StatusAvailable)
		_, err := svc.AddItem(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: i + 1})
		require.NoError(t, err)
	}
	other := seedProduct(t, db, "other lamp", 99, product.StatusAvailable)
	_, err = svc.AddItem(ctx, 2, &AddToCartRequest{ProductID: other.ID, Quantity: 1})
	require.NoError(t, err)

	sorts, err := ItemSchema.ParseSingle("price", "desc")
	require.NoError(t, err)

	page, err := svc.ListItems(ctx, 1, listing.Criteria{Search: "lamp", Sort: sorts})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalCount)
	require.Len(t, page.Items, 2)
	require.NotNil(t, page.Items[0].Product)
	assert.Equal(t, "beta lamp", page.Items[0].Product.Name)
	assert.Equal(t, "alpha lamp", page.Items[1].Product.Name)

	page, err = svc.ListItems(ctx, 1, listing.Criteria{
		Sort: []listing.Sort{{Field: listing.FieldQuantity, Direction: listing.Desc}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Items[0].Quantity)
}

func TestService_ProductDeletionRecalculatesCarts(t *testing.T) {
	svc, db := setupCart(t)
	products := product.NewService(db, nil, logger.Discard())
	products.RegisterDeleteHook(svc)
	ctx := context.Background()

	keep := seedProduct(t, db, "keep", 10, product.StatusAvailable)
	drop := seedProduct(t, db, "drop", 7, product.StatusAvailable)

	for _, user := range []uint{1, 2} {
		_, err := svc.AddItem(ctx, user, &AddToCartRequest{ProductID: keep.ID, Quantity: 1})
		require.NoError(t, err)
		_, err = svc.AddItem(ctx, user, &AddToCartRequest{ProductID: drop.ID, Quantity: 2})
		require.NoError(t, err)
	}
	assert.True(t, storedTotal(t, db, 1).Equal(decimal.NewFromInt(24)))

	require.NoError(t, products.DeleteProduct(ctx, drop.ID))

	for _, user := range []uint{1, 2} {
		assert.True(t, storedTotal(t, db, user).Equal(decimal.NewFromInt(10)), "user %d", user)
	}

	var remaining int64
	require.NoError(t, db.Model(&CartItem{}).Where("product_id = ?", drop.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestService_PriceChangeRecalculatesCarts(t *testing.T) {
	svc, db := setupCart(t)
	products := product.NewService(db, nil, logger.Discard())
	products.RegisterRepriceHook(svc)
	ctx := context.Background()

	lamp := seedProduct(t, db, "lamp", 10, product.StatusAvailable)
	mug := seedProduct(t, db, "mug", 5, product.StatusAvailable)

	_, err := svc.AddItem(ctx, 1, &AddToCartRequest{ProductID: lamp.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 1, &AddToCartRequest{ProductID: mug.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 2, &AddToCartRequest{ProductID: mug.ID, Quantity: 1})
	require.NoError(t, err)

	price := decimal.NewFromInt(20)
	_, err = products.UpdateProduct(ctx, lamp.ID, &product.UpdateProductRequest{Price: &price})
	require.NoError(t, err)

	cart, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cart.TotalPrice.Equal(decimal.NewFromInt(55)), cart.TotalPrice.String())
	assert.True(t, cart.TotalPrice.Equal(cart.Totals.TotalPrice))
	assert.True(t, storedTotal(t, db, 2).Equal(decimal.NewFromInt(5)))

	t.Run("other fields leave totals alone", func(t *testing.T) {
		name := "desk lamp"
		_, err := products.UpdateProduct(ctx, lamp.ID, &product.UpdateProductRequest{Name: &name})
		require.NoError(t, err)
		assert.True(t, storedTotal(t, db, 1).Equal(decimal.NewFromInt(55)))
	})
}

func TestService_DeleteForUser(t *testing.T) {
	svc, db := setupCart(t)
	ctx := context.Background()
	p := seedProduct(t, db, "p", 10, product.StatusAvailable)
	_, err := svc.AddItem(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		after, err := svc.DeleteForUser(tx, 1)
		assert.Nil(t, after)
		return err
	}))

	var carts, items int64
	require.NoError(t, db.Model(&Cart{}).Count(&carts).Error)
	require.NoError(t, db.Model(&CartItem{}).Count(&items).Error)
	assert.Zero(t, carts)
	assert.Zero(t, items)

	assert.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.DeleteForUser(tx, 42)
		return err
	}))
}
