// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/cache"
	"github.com/your-org/storefront-api/internal/pkg/listing"
	"gorm.io/gorm"
)

// DefaultRecommendationLimit is how many products are pushed after a detail view.
const DefaultRecommendationLimit = 4

// DeleteHook lets other aggregates clean up rows that reference a product.
// It runs inside the deleting transaction.
type DeleteHook interface {
	OnProductDeleted(tx *gorm.DB, productID uint) error
}

// RepriceHook lets aggregates priced from a product follow a price change.
// It runs inside the updating transaction.
type RepriceHook interface {
	OnProductRepriced(tx *gorm.DB, productID uint) error
}

// Service handles product business logic
type Service struct {
	db       *gorm.DB
	cache    *cache.Cache
	log      *logrus.Logger
	hooks    []DeleteHook
	repriced []RepriceHook
}

// NewService creates a new product service. cache may be nil.
func NewService(db *gorm.DB, c *cache.Cache, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		db:    db,
		cache: c,
		log:   log,
	}
}

// RegisterDeleteHook adds a hook run on every product deletion.
func (s *Service) RegisterDeleteHook(h DeleteHook) {
	s.hooks = append(s.hooks, h)
}

// RegisterRepriceHook adds a hook run on every price change.
func (s *Service) RegisterRepriceHook(h RepriceHook) {
	s.repriced = append(s.repriced, h)
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Category    Category        `json:"category" binding:"required"`
	Status      Status          `json:"status"`
}

// UpdateProductRequest represents product update data
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *Category        `json:"category"`
	Status      *Status          `json:"status"`
}

// ListProducts returns one page of products matching the criteria.
func (s *Service) ListProducts(ctx context.Context, c listing.Criteria) (listing.Page[Product], error) {
	page, err := listing.FindPage[Product](s.db.WithContext(ctx).Model(&Product{}), ProductSchema, c)
	if err != nil {
		return listing.Page[Product]{}, fmt.Errorf("failed to list products: %w", err)
	}
	return page, nil
}

// GetProduct retrieves a single product by ID, through the cache.
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product

	found, err := s.cache.Get(ctx, cacheKey(id), &product)
	if err != nil {
		s.log.WithError(err).WithField("product_id", id).Warn("product cache read failed")
	}
	if found {
		return &product, nil
	}

	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	if err := s.cache.Set(ctx, cacheKey(id), &product); err != nil {
		s.log.WithError(err).WithField("product_id", id).Warn("product cache write failed")
	}

	return &product, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(ctx context.Context, req *CreateProductRequest) (*Product, error) {
	if req.Status == "" {
		req.Status = StatusAvailable
	}
	if err := validateProduct(req.Name, req.Price, req.Category, req.Status); err != nil {
		return nil, err
	}

	product := Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Category:    req.Category,
		Status:      req.Status,
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return &product, nil
}

// UpdateProduct updates an existing product
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) (*Product, error) {
	db := s.db.WithContext(ctx)

	var product Product
	if err := db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	repriced := false
	if req.Price != nil {
		updates["price"] = *req.Price
		repriced = !product.Price.Equal(*req.Price)
		product.Price = *req.Price
	}
	if req.Category != nil {
		updates["category"] = *req.Category
		product.Category = *req.Category
	}
	if req.Status != nil {
		updates["status"] = *req.Status
		product.Status = *req.Status
	}

	if err := validateProduct(product.Name, product.Price, product.Category, product.Status); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}
			if !repriced {
				return nil
			}
			for _, hook := range s.repriced {
				if err := hook.OnProductRepriced(tx, id); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	s.invalidate(ctx, id)

	if err := db.First(&product, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	return &product, nil
}

// DeleteProduct soft deletes a product, removes its reviews and runs the
// registered delete hooks in the same transaction.
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&Product{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("product not found")
		}

		if err := tx.Where("product_id = ?", id).Delete(&Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete product reviews: %w", err)
		}

		for _, hook := range s.hooks {
			if err := hook.OnProductDeleted(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

// Recommend returns up to limit available products from the same category,
// best rated first.
func (s *Service) Recommend(ctx context.Context, p *Product, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	var products []Product
	err := s.db.WithContext(ctx).
		Where("category = ? AND status = ? AND id <> ?", p.Category, StatusAvailable, p.ID).
		Order("COALESCE(rating, 0) DESC, reviews_count DESC, id ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendations: %w", err)
	}
	return products, nil
}

func (s *Service) invalidate(ctx context.Context, id uint) {
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.log.WithError(err).WithField("product_id", id).Warn("product cache invalidation failed")
	}
}

func cacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

func validateProduct(name string, price decimal.Decimal, category Category, status Status) error {
	if strings.TrimSpace(name) == "" {
		return apperror.Validation("product name is required")
	}
	if price.IsNegative() {
		return apperror.Validation("price must not be negative")
	}
	if !category.Valid() {
		return apperror.Validation("unknown category %q", category)
	}
	if !status.Valid() {
		return apperror.Validation("unknown status %q", status)
	}
	return nil
}
