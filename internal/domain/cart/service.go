// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/listing"
	"gorm.io/gorm"
)

// Service handles cart business logic
type Service struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewService creates a new cart service
func NewService(db *gorm.DB, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		db:  db,
		log: log,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// GetCart returns the user's cart, creating an empty one on first use.
func (s *Service) GetCart(ctx context.Context, userID uint) (*CartResponse, error) {
	var cart *Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = s.cartFor(tx, userID)
		if err != nil {
			return err
		}
		cart, err = loadCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return respond(cart), nil
}

// ListItems returns a page of the user's cart items with their products.
func (s *Service) ListItems(ctx context.Context, userID uint, c listing.Criteria) (listing.Page[CartItem], error) {
	db := s.db.WithContext(ctx)

	var cart Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Normalize(listing.DefaultPageSize, 0)
			return listing.NewPage[CartItem](nil, 0, c.PageIndex, c.PageSize), nil
		}
		return listing.Page[CartItem]{}, fmt.Errorf("failed to find cart: %w", err)
	}

	query := db.Model(&CartItem{}).
		Joins(joinProducts).
		Where("cart_items.cart_id = ?", cart.ID)

	page, err := listing.FindPage[CartItem](query, ItemSchema, c, "Product")
	if err != nil {
		return listing.Page[CartItem]{}, fmt.Errorf("failed to list cart items: %w", err)
	}
	return page, nil
}

// AddItem puts a product in the cart. Adding a product already in the cart
// increases its quantity.
func (s *Service) AddItem(ctx context.Context, userID uint, req *AddToCartRequest) (*CartResponse, error) {
	if req.Quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}

	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *Cart) error {
		var p product.Product
		if err := tx.First(&p, req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("product not found")
			}
			return fmt.Errorf("failed to find product: %w", err)
		}
		if !p.IsAvailable() {
			return apperror.Validation("product %d is not available", p.ID)
		}

		var item CartItem
		err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, p.ID).First(&item).Error
		switch {
		case err == nil:
			item.Quantity += req.Quantity
			if err := tx.Model(&item).Update("quantity", item.Quantity).Error; err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: req.Quantity}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to add cart item: %w", err)
			}
		default:
			return fmt.Errorf("failed to find cart item: %w", err)
		}
		return nil
	})
}

// UpdateItem sets the quantity of one cart item.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	if req.Quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}

	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *Cart) error {
		item, err := findItem(tx, cart.ID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Model(item).Update("quantity", req.Quantity).Error; err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		return nil
	})
}

// RemoveItem deletes one cart item.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uint) (*CartResponse, error) {
	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *Cart) error {
		item, err := findItem(tx, cart.ID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Delete(item).Error; err != nil {
			return fmt.Errorf("failed to remove cart item: %w", err)
		}
		return nil
	})
}

// Clear removes every item from the cart.
func (s *Service) Clear(ctx context.Context, userID uint) (*CartResponse, error) {
	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *Cart) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
}

// OnProductDeleted removes the product from every cart and recalculates the
// affected totals.
func (s *Service) OnProductDeleted(tx *gorm.DB, productID uint) error {
	cartIDs, err := cartsHolding(tx, productID)
	if err != nil {
		return err
	}
	if len(cartIDs) == 0 {
		return nil
	}

	if err := tx.Where("product_id = ?", productID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to remove product from carts: %w", err)
	}

	for _, cartID := range cartIDs {
		if _, err := recalculate(tx, cartID); err != nil {
			return err
		}
	}

	s.log.WithFields(logrus.Fields{
		"product_id": productID,
		"carts":      len(cartIDs),
	}).Info("removed deleted product from carts")
	return nil
}

// OnProductRepriced recalculates every cart holding the product.
func (s *Service) OnProductRepriced(tx *gorm.DB, productID uint) error {
	cartIDs, err := cartsHolding(tx, productID)
	if err != nil {
		return err
	}

	for _, cartID := range cartIDs {
		if _, err := recalculate(tx, cartID); err != nil {
			return err
		}
	}

	if len(cartIDs) > 0 {
		s.log.WithFields(logrus.Fields{
			"product_id": productID,
			"carts":      len(cartIDs),
		}).Info("recalculated carts after price change")
	}
	return nil
}

// DeleteForUser removes the user's cart and its items.
func (s *Service) DeleteForUser(tx *gorm.DB, userID uint) (func(ctx context.Context), error) {
	var cart Cart
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error; err != nil {
		return nil, fmt.Errorf("failed to delete cart items: %w", err)
	}
	if err := tx.Delete(&cart).Error; err != nil {
		return nil, fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil, nil
}

// mutate runs fn on the user's cart and recalculates the total, all in one
// transaction.
func (s *Service) mutate(ctx context.Context, userID uint, fn func(tx *gorm.DB, cart *Cart) error) (*CartResponse, error) {
	var result *Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := s.cartFor(tx, userID)
		if err != nil {
			return err
		}
		if err := fn(tx, cart); err != nil {
			return err
		}
		result, err = recalculate(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return respond(result), nil
}

func (s *Service) cartFor(tx *gorm.DB, userID uint) (*Cart, error) {
	var cart Cart
	if err := tx.Where(Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

// recalculate reloads the cart with its products, recomputes and stores the
// total.
func recalculate(tx *gorm.DB, cartID uint) (*Cart, error) {
	cart, err := loadCart(tx, cartID)
	if err != nil {
		return nil, err
	}

	RecalculateTotal(cart)

	if err := tx.Model(cart).Update("total_price", cart.TotalPrice).Error; err != nil {
		return nil, fmt.Errorf("failed to save cart total: %w", err)
	}
	return cart, nil
}

func loadCart(tx *gorm.DB, cartID uint) (*Cart, error) {
	var cart Cart
	err := tx.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.id ASC")
		}).
		Preload("Items.Product").
		First(&cart, cartID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("cart not found")
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &cart, nil
}

func findItem(tx *gorm.DB, cartID, itemID uint) (*CartItem, error) {
	var item CartItem
	if err := tx.Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("cart item not found")
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}
	return &item, nil
}

func respond(cart *Cart) *CartResponse {
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	return &CartResponse{Cart: cart, Totals: CalculateTotals(cart.Items)}
}

func cartsHolding(tx *gorm.DB, productID uint) ([]uint, error) {
	var cartIDs []uint
	if err := tx.Model(&CartItem{}).
		Where("product_id = ?", productID).
		Distinct().
		Pluck("cart_id", &cartIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to find carts holding product: %w", err)
	}
	return cartIDs, nil
}
