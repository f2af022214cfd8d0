package favorite

import (
	"time"

	"github.com/your-org/storefront-api/internal/domain/product"
)

// Favorite marks a product a user wants to keep an eye on.
type Favorite struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;uniqueIndex:idx_favorites_user_product" json:"user_id"`
	ProductID uint             `gorm:"not null;uniqueIndex:idx_favorites_user_product;index" json:"product_id"`
	Product   *product.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TableName overrides the table name
func (Favorite) TableName() string {
	return "favorites"
}

// Summary provides summary information
type Summary struct {
	TotalItems       int `json:"total_items"`
	AvailableItems   int `json:"available_items"`
	UnavailableItems int `json:"unavailable_items"`
}
