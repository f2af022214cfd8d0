package favorite

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/listing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const joinProducts = "JOIN products ON products.id = favorites.product_id AND products.deleted_at IS NULL"

// Schema filters favorites on the joined product; timestamps are those of
// the favorite itself.
var Schema = func() *listing.Schema {
	fields := product.ProductFields()
	fields[listing.FieldCreatedAt] = clause.Column{Table: "favorites", Name: "created_at"}
	fields[listing.FieldUpdatedAt] = clause.Column{Table: "favorites", Name: "updated_at"}
	return listing.MustSchema(clause.Column{Table: "favorites", Name: "id"}, fields,
		listing.FieldName, listing.FieldDescription)
}()

// Service handles favorite business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new favorite service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// AddFavoriteRequest represents add to favorites request
type AddFavoriteRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// ListFavorites returns a page of the user's favorites with their products.
func (s *Service) ListFavorites(ctx context.Context, userID uint, c listing.Criteria) (listing.Page[Favorite], error) {
	query := s.db.WithContext(ctx).Model(&Favorite{}).
		Joins(joinProducts).
		Where("favorites.user_id = ?", userID)

	page, err := listing.FindPage[Favorite](query, Schema, c, "Product")
	if err != nil {
		return listing.Page[Favorite]{}, fmt.Errorf("failed to list favorites: %w", err)
	}
	return page, nil
}

// AddFavorite marks a product as favorite.
func (s *Service) AddFavorite(ctx context.Context, userID uint, req *AddFavoriteRequest) (*Favorite, error) {
	var fav Favorite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p product.Product
		if err := tx.First(&p, req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("product not found")
			}
			return fmt.Errorf("failed to find product: %w", err)
		}

		var existing int64
		if err := tx.Model(&Favorite{}).
			Where("user_id = ? AND product_id = ?", userID, p.ID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check favorites: %w", err)
		}
		if existing > 0 {
			return apperror.Conflict("product is already in favorites")
		}

		fav = Favorite{UserID: userID, ProductID: p.ID}
		if err := tx.Create(&fav).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("product is already in favorites")
			}
			return fmt.Errorf("failed to add favorite: %w", err)
		}
		fav.Product = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &fav, nil
}

// RemoveFavorite unmarks a product.
func (s *Service) RemoveFavorite(ctx context.Context, userID, productID uint) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&Favorite{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove favorite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("favorite not found")
	}
	return nil
}

// IsFavorite reports whether the user marked the product.
func (s *Service) IsFavorite(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}

// GetSummary counts the user's favorites by product availability.
func (s *Service) GetSummary(ctx context.Context, userID uint) (*Summary, error) {
	var rows []struct {
		Status product.Status
		Count  int
	}
	if err := s.db.WithContext(ctx).Model(&Favorite{}).
		Select("products.status AS status, COUNT(*) AS count").
		Joins(joinProducts).
		Where("favorites.user_id = ?", userID).
		Group("products.status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to summarise favorites: %w", err)
	}

	summary := &Summary{}
	for _, row := range rows {
		summary.TotalItems += row.Count
		if row.Status == product.StatusAvailable {
			summary.AvailableItems += row.Count
		} else {
			summary.UnavailableItems += row.Count
		}
	}
	return summary, nil
}

// OnProductDeleted drops the product from every user's favorites.
func (s *Service) OnProductDeleted(tx *gorm.DB, productID uint) error {
	if err := tx.Where("product_id = ?", productID).Delete(&Favorite{}).Error; err != nil {
		return fmt.Errorf("failed to remove product from favorites: %w", err)
	}
	return nil
}

// DeleteForUser removes all favorites of a user.
func (s *Service) DeleteForUser(tx *gorm.DB, userID uint) (func(ctx context.Context), error) {
	if err := tx.Where("user_id = ?", userID).Delete(&Favorite{}).Error; err != nil {
		return nil, fmt.Errorf("failed to delete favorites: %w", err)
	}
	return nil, nil
}
