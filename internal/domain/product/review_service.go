// internal/domain/product/review_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/listing"
	"gorm.io/gorm"
)

// ReviewService handles review business logic. Every mutation recomputes the
// product rating in the same transaction.
type ReviewService struct {
	db       *gorm.DB
	products *Service
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB, products *Service) *ReviewService {
	return &ReviewService{
		db:       db,
		products: products,
	}
}

// CreateReviewRequest represents the request to create a review
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=1000"`
}

// UpdateReviewRequest represents the request to update a review
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" binding:"omitempty,max=1000"`
}

// ReviewSummary provides review statistics
type ReviewSummary struct {
	ProductID       uint           `json:"product_id"`
	AverageRating   *float64       `json:"average_rating"`
	TotalReviews    int            `json:"total_reviews"`
	RatingBreakdown map[string]int `json:"rating_breakdown"`
}

// ListReviews returns a page of reviews for a product.
func (s *ReviewService) ListReviews(ctx context.Context, productID uint, c listing.Criteria) (listing.Page[Review], error) {
	db := s.db.WithContext(ctx)

	if err := ensureProduct(db, productID); err != nil {
		return listing.Page[Review]{}, err
	}

	query := db.Model(&Review{}).Where("reviews.product_id = ?", productID)
	page, err := listing.FindPage[Review](query, ReviewSchema, c)
	if err != nil {
		return listing.Page[Review]{}, fmt.Errorf("failed to list reviews: %w", err)
	}
	return page, nil
}

// GetReview retrieves a single review by ID
func (s *ReviewService) GetReview(ctx context.Context, reviewID uint) (*Review, error) {
	var review Review
	if err := s.db.WithContext(ctx).First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("review not found")
		}
		return nil, fmt.Errorf("failed to retrieve review: %w", err)
	}
	return &review, nil
}

// CreateReview creates a review. A user holds at most one review per product.
func (s *ReviewService) CreateReview(ctx context.Context, userID, productID uint, req *CreateReviewRequest) (*Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperror.Validation("rating must be between 1 and 5")
	}

	review := Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProduct(tx, productID); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&Review{}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if existing > 0 {
			return apperror.Conflict("you have already reviewed this product")
		}

		if err := tx.Create(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("you have already reviewed this product")
			}
			return fmt.Errorf("failed to create review: %w", err)
		}

		return RecomputeRating(tx, productID)
	})
	if err != nil {
		return nil, err
	}

	s.products.invalidate(ctx, productID)
	return &review, nil
}

// UpdateReview changes rating or comment of the caller's own review.
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID, userID uint, req *UpdateReviewRequest) (*Review, error) {
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, apperror.Validation("rating must be between 1 and 5")
	}

	var review Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&review, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("review not found")
			}
			return fmt.Errorf("failed to find review: %w", err)
		}

		if !review.CanBeEditedBy(userID) {
			return apperror.Forbidden("you can only edit your own reviews")
		}

		updates := make(map[string]interface{})
		if req.Rating != nil {
			updates["rating"] = *req.Rating
		}
		if req.Comment != nil {
			updates["comment"] = strings.TrimSpace(*req.Comment)
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&review).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}
		if err := tx.First(&review, reviewID).Error; err != nil {
			return fmt.Errorf("failed to reload review: %w", err)
		}

		return RecomputeRating(tx, review.ProductID)
	})
	if err != nil {
		return nil, err
	}

	s.products.invalidate(ctx, review.ProductID)
	return &review, nil
}

// DeleteReview removes a review. Owners and admins may delete.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, userID uint, isAdmin bool) error {
	var review Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&review, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("review not found")
			}
			return fmt.Errorf("failed to find review: %w", err)
		}

		if !review.CanBeDeletedBy(userID, isAdmin) {
			return apperror.Forbidden("you can only delete your own reviews")
		}

		if err := tx.Delete(&review).Error; err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}

		return RecomputeRating(tx, review.ProductID)
	})
	if err != nil {
		return err
	}

	s.products.invalidate(ctx, review.ProductID)
	return nil
}

// GetReviewSummary returns the rating distribution of a product.
func (s *ReviewService) GetReviewSummary(ctx context.Context, productID uint) (*ReviewSummary, error) {
	db := s.db.WithContext(ctx)

	if err := ensureProduct(db, productID); err != nil {
		return nil, err
	}

	var rows []struct {
		Rating int
		Count  int
	}
	if err := db.Model(&Review{}).
		Select("rating, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Group("rating").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to summarise reviews: %w", err)
	}

	summary := &ReviewSummary{
		ProductID:       productID,
		RatingBreakdown: make(map[string]int, 5),
	}
	for i := 1; i <= 5; i++ {
		summary.RatingBreakdown[strconv.Itoa(i)] = 0
	}

	var ratings []int
	for _, row := range rows {
		summary.RatingBreakdown[strconv.Itoa(row.Rating)] = row.Count
		for n := 0; n < row.Count; n++ {
			ratings = append(ratings, row.Rating)
		}
	}
	summary.AverageRating, summary.TotalReviews = AggregateRatings(ratings)

	return summary, nil
}

// DeleteForUser removes every review written by the user and recomputes the
// ratings of the affected products. It runs inside the caller's transaction;
// the returned func evicts the affected products from the cache and must
// only run after that transaction commits.
func (s *ReviewService) DeleteForUser(tx *gorm.DB, userID uint) (func(ctx context.Context), error) {
	var productIDs []uint
	if err := tx.Model(&Review{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("product_id", &productIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to find reviewed products: %w", err)
	}
	if len(productIDs) == 0 {
		return nil, nil
	}

	if err := tx.Where("user_id = ?", userID).Delete(&Review{}).Error; err != nil {
		return nil, fmt.Errorf("failed to delete reviews: %w", err)
	}

	for _, productID := range productIDs {
		if err := RecomputeRating(tx, productID); err != nil {
			return nil, err
		}
	}

	return func(ctx context.Context) {
		for _, productID := range productIDs {
			s.products.invalidate(ctx, productID)
		}
	}, nil
}

func ensureProduct(db *gorm.DB, productID uint) error {
	var count int64
	if err := db.Model(&Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to find product: %w", err)
	}
	if count == 0 {
		return apperror.NotFound("product not found")
	}
	return nil
}
