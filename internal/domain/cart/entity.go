// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-api/internal/domain/product"
)

// Cart is the single shopping cart of a user. TotalPrice is derived from the
// items and rewritten after every change to them.
type Cart struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;uniqueIndex" json:"user_id"`
	Items      []CartItem      `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CartItem is one product line in a cart.
type CartItem struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CartID    uint             `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID uint             `gorm:"not null;uniqueIndex:idx_cart_items_cart_product;index" json:"product_id"`
	Product   *product.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int              `gorm:"not null;default:1;check:quantity >= 1" json:"quantity"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TableName overrides the table name
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// CartTotals represents calculated cart totals
type CartTotals struct {
	ItemCount     int             `json:"item_count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	// MissingProducts counts items whose product could not be loaded and
	// was therefore priced at zero.
	MissingProducts int `json:"missing_products"`
}

// CartResponse is a cart together with its totals.
type CartResponse struct {
	*Cart
	Totals CartTotals `json:"totals"`
}
