// internal/domain/product/category_service.go
package product

import (
	"context"
	"fmt"
)

// CategoryWithProductCount represents category with product count
type CategoryWithProductCount struct {
	Category       Category `json:"category"`
	ProductCount   int64    `json:"product_count"`
	AvailableCount int64    `json:"available_count"`
}

// ListCategories returns every category with the number of live products
// in it, including empty ones.
func (s *Service) ListCategories(ctx context.Context) ([]CategoryWithProductCount, error) {
	var rows []struct {
		Category       Category
		ProductCount   int64
		AvailableCount int64
	}

	err := s.db.WithContext(ctx).Model(&Product{}).
		Select("category, COUNT(*) AS product_count, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS available_count", StatusAvailable).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count products per category: %w", err)
	}

	counts := make(map[Category]CategoryWithProductCount, len(rows))
	for _, row := range rows {
		counts[row.Category] = CategoryWithProductCount{
			Category:       row.Category,
			ProductCount:   row.ProductCount,
			AvailableCount: row.AvailableCount,
		}
	}

	result := make([]CategoryWithProductCount, 0, len(AllCategories))
	for _, category := range AllCategories {
		entry, ok := counts[category]
		if !ok {
			entry = CategoryWithProductCount{Category: category}
		}
		result = append(result, entry)
	}
	return result, nil
}
