package product

import (
	"fmt"
	"math"

	"gorm.io/gorm"
)

// AggregateRatings returns the mean of ratings rounded to two decimals and
// the number of ratings. The mean is nil when there are none.
func AggregateRatings(ratings []int) (*float64, int) {
	if len(ratings) == 0 {
		return nil, 0
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := math.Round(float64(sum)/float64(len(ratings))*100) / 100
	return &mean, len(ratings)
}

// RecomputeRating rewrites rating and reviews_count of a product from its
// current reviews. It must run on the transaction that changed the reviews.
// A missing or deleted product makes the update a no-op.
func RecomputeRating(tx *gorm.DB, productID uint) error {
	var ratings []int
	if err := tx.Model(&Review{}).
		Where("product_id = ?", productID).
		Pluck("rating", &ratings).Error; err != nil {
		return fmt.Errorf("failed to load ratings: %w", err)
	}

	rating, count := AggregateRatings(ratings)

	if err := tx.Model(&Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"rating":        rating,
			"reviews_count": count,
		}).Error; err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}

	return nil
}
