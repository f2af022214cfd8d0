// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category is the fixed product taxonomy.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategoryHome        Category = "home"
	CategorySports      Category = "sports"
	CategoryBeauty      Category = "beauty"
	CategoryToys        Category = "toys"
	CategoryOther       Category = "other"
)

// AllCategories lists the categories in display order.
var AllCategories = []Category{
	CategoryElectronics, CategoryClothing, CategoryBooks, CategoryHome,
	CategorySports, CategoryBeauty, CategoryToys, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Status is the availability of a product.
type Status string

const (
	StatusAvailable    Status = "available"
	StatusOutOfStock   Status = "out_of_stock"
	StatusDiscontinued Status = "discontinued"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOutOfStock, StatusDiscontinued:
		return true
	}
	return false
}

// Product represents the product entity. Rating and ReviewsCount are derived
// from the product's reviews and are never written by clients.
type Product struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null;size:255" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Category     Category        `gorm:"not null;size:50;index" json:"category"`
	Status       Status          `gorm:"not null;size:50;default:available;index" json:"status"`
	Rating       *float64        `json:"rating"`
	ReviewsCount int             `gorm:"not null;default:0" json:"reviews_count"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Review is one user's rating of one product.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_reviews_product_user" json:"product_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reviews_product_user;index" json:"user_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string    `gorm:"size:1000" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides
func (Product) TableName() string { return "products" }
func (Review) TableName() string  { return "reviews" }

func (p *Product) IsAvailable() bool {
	return p.Status == StatusAvailable
}

func (r *Review) CanBeEditedBy(userID uint) bool {
	return r.UserID == userID
}

func (r *Review) CanBeDeletedBy(userID uint, isAdmin bool) bool {
	return isAdmin || r.UserID == userID
}
