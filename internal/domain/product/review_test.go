package product

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/cache"
	"github.com/your-org/storefront-api/internal/pkg/listing"
	"github.com/your-org/storefront-api/internal/pkg/logger"
	"github.com/your-org/storefront-api/internal/pkg/testdb"
	"gorm.io/gorm"
)

func setupReviews(t *testing.T) (*ReviewService, *gorm.DB) {
	t.Helper()
	products, db := setupService(t)
	return NewReviewService(db, products), db
}

func reload(t *testing.T, db *gorm.DB, id uint) Product {
	t.Helper()
	var p Product
	require.NoError(t, db.First(&p, id).Error)
	return p
}

func TestAggregateRatings(t *testing.T) {
	rating, count := AggregateRatings([]int{3, 5})
	require.NotNil(t, rating)
	assert.Equal(t, 4.0, *rating)
	assert.Equal(t, 2, count)

	rating, count = AggregateRatings([]int{1, 2, 2})
	require.NotNil(t, rating)
	assert.Equal(t, 1.67, *rating)
	assert.Equal(t, 3, count)

	rating, count = AggregateRatings(nil)
	assert.Nil(t, rating)
	assert.Zero(t, count)
}

func TestRecomputeRating(t *testing.T) {
	_, db := setupReviews(t)
	p := createProduct(t, db, Product{Name: "P"})
	require.NoError(t, db.Create(&Review{ProductID: p.ID, UserID: 1, Rating: 3}).Error)
	require.NoError(t, db.Create(&Review{ProductID: p.ID, UserID: 2, Rating: 5}).Error)

	t.Run("mean of live reviews", func(t *testing.T) {
		require.NoError(t, RecomputeRating(db, p.ID))
		got := reload(t, db, p.ID)
		require.NotNil(t, got.Rating)
		assert.Equal(t, 4.0, *got.Rating)
		assert.Equal(t, 2, got.ReviewsCount)
	})

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, RecomputeRating(db, p.ID))
		first := reload(t, db, p.ID)
		require.NoError(t, RecomputeRating(db, p.ID))
		second := reload(t, db, p.ID)
		assert.Equal(t, first.Rating, second.Rating)
		assert.Equal(t, first.ReviewsCount, second.ReviewsCount)
	})

	t.Run("missing product is a no-op", func(t *testing.T) {
		assert.NoError(t, RecomputeRating(db, 9999))
	})
}

func TestReviewService_CreateDeleteRoundTrip(t *testing.T) {
	svc, db := setupReviews(t)
	ctx := context.Background()
	p := createProduct(t, db, Product{Name: "P"})

	review, err := svc.CreateReview(ctx, 1, p.ID, &CreateReviewRequest{Rating: 5, Comment: " great "})
	require.NoError(t, err)
	assert.Equal(t, "great", review.Comment)

	got := reload(t, db, p.ID)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 5.0, *got.Rating)
	assert.Equal(t, 1, got.ReviewsCount)

	require.NoError(t, svc.DeleteReview(ctx, review.ID, 1, false))

	got = reload(t, db, p.ID)
	assert.Nil(t, got.Rating)
	assert.Zero(t, got.ReviewsCount)
}

func TestReviewService_DuplicateReviewConflicts(t *testing.T) {
	svc, db := setupReviews(t)
	ctx := context.Background()
	p := createProduct(t, db, Product{Name: "P"})

	_, err := svc.CreateReview(ctx, 1, p.ID, &CreateReviewRequest{Rating: 4})
	require.NoError(t, err)

	_, err = svc.CreateReview(ctx, 1, p.ID, &CreateReviewRequest{Rating: 1})
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	var count int64
	require.NoError(t, db.Model(&Review{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	got := reload(t, db, p.ID)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.0, *got.Rating)
	assert.Equal(t, 1, got.ReviewsCount)
}

func TestReviewService_MissingProduct(t *testing.T) {
	svc, _ := setupReviews(t)

	_, err := svc.CreateReview(context.Background(), 1, 42, &CreateReviewRequest{Rating: 3})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = svc.ListReviews(context.Background(), 42, listing.Criteria{})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestReviewService_UpdateOwnership(t *testing.T) {
	svc, db := setupReviews(t)
	ctx := context.Background()
	p := createProduct(t, db, Product{Name: "P"})

	mine, err := svc.CreateReview(ctx, 1, p.ID, &CreateReviewRequest{Rating: 2})
	require.NoError(t, err)
	_, err = svc.CreateReview(ctx, 2, p.ID, &CreateReviewRequest{Rating: 4})
	require.NoError(t, err)

	_, err = svc.UpdateReview(ctx, mine.ID, 2, &UpdateReviewRequest{Rating: ptr(5)})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	updated, err := svc.UpdateReview(ctx, mine.ID, 1, &UpdateReviewRequest{Rating: ptr(5), Comment: ptr("changed my mind")})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, "changed my mind", updated.Comment)

	got := reload(t, db, p.ID)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.5, *got.Rating)

	_, err = svc.UpdateReview(ctx, mine.ID, 1, &UpdateReviewRequest{Rating: ptr(9)})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.UpdateReview(ctx, 999, 1, &UpdateReviewRequest{Rating: ptr(3)})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestReviewService_DeletePermissions(t *testing.T) {
	svc, db := setupReviews(t)
	ctx := context.Background()
	p := createProduct(t, db, Product{Name: "P"})

	review, err := svc.CreateReview(ctx, 1, p.ID, &CreateReviewRequest{Rating: 3})
	require.NoError(t, err)

	err = svc.DeleteReview(ctx, review.ID, 2, false)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	require.NoError(t, svc.DeleteReview(ctx, review.ID, 2, true))

	_, err = svc.GetReview(ctx, review.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestReviewService_ListAndSummary(t *testing.T) {
	svc, db := setupReviews(t)
	ctx := context.Background()
	p := createProduct(t, db, Product{Name: "P"})
	other := createProduct(t, db, Product{Name: "Other"})

	for user, rating := range map[uint]int{1: 5, 2: 4, 3: 4, 4: 1} {
		_, err := svc.CreateReview(ctx, user, p.ID, &CreateReviewRequest{Rating: rating, Comment: "fine kettle"})
		require.NoError(t, err)
	}
	_, err := svc.CreateReview(ctx, 1, other.ID, &CreateReviewRequest{Rating: 2})
	require.NoError(t, err)

	page, err := svc.ListReviews(ctx, p.ID, listing.Criteria{
		RatingFrom: ptr(4.0),
		Sort:       []listing.Sort{{Field: listing.FieldRating, Direction: listing.Asc}},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalCount)
	assert.Equal(t, 4, page.Items[0].Rating)
	assert.Equal(t, 5, page.Items[2].Rating)

	summary, err := svc.GetReviewSummary(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalReviews)
	require.NotNil(t, summary.AverageRating)
	assert.Equal(t, 3.5, *summary.AverageRating)
	assert.Equal(t, map[string]int{"1": 1, "2": 0, "3": 0, "4": 2, "5": 1}, summary.RatingBreakdown)
}

func TestReviewService_DeleteForUserEvictsAfterCommit(t *testing.T) {
	db := testdb.New(t, &Product{}, &Review{})
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	products := NewService(db, cache.New(client, "test:", time.Minute), logger.Discard())
	reviews := NewReviewService(db, products)
	ctx := context.Background()

	p := createProduct(t, db, Product{Name: "lamp"})
	_, err := reviews.CreateReview(ctx, 1, p.ID, &CreateReviewRequest{Rating: 5})
	require.NoError(t, err)
	_, err = reviews.CreateReview(ctx, 2, p.ID, &CreateReviewRequest{Rating: 1})
	require.NoError(t, err)

	_, err = products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists("test:product:1"))

	var after func(context.Context)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		after, err = reviews.DeleteForUser(tx, 2)
		if err != nil {
			return err
		}
		// still cached while the transaction is open
		assert.True(t, mr.Exists("test:product:1"))
		return nil
	}))
	require.NotNil(t, after)
	after(ctx)
	assert.False(t, mr.Exists("test:product:1"))

	got, err := products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 5.0, *got.Rating)
	assert.Equal(t, 1, got.ReviewsCount)

	t.Run("no reviews", func(t *testing.T) {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			after, err := reviews.DeleteForUser(tx, 42)
			assert.Nil(t, after)
			return err
		}))
	})
}
