// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/favorite"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/pkg/auth"
	"gorm.io/gorm"
)

const (
	SeedAdminEmail    = "admin@example.com"
	SeedAdminPassword = "Adm1n!Store#42"
	SeedUserEmail     = "test1@example.com"
	SeedUserPassword  = "T3st!Store#58"
)

// Migration handles database migrations
type Migration struct {
	db        *gorm.DB
	log       *logrus.Logger
	passwords *auth.PasswordManager
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, cfg *config.Config, log *logrus.Logger) *Migration {
	return &Migration{
		db:        db,
		log:       log,
		passwords: auth.NewPasswordManager(cfg),
	}
}

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&product.Product{},
		&product.Review{},
		&cart.Cart{},
		&cart.CartItem{},
		&favorite.Favorite{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("running database auto-migrations")

	for _, model := range Models() {
		m.log.Debugf("migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("database auto-migrations completed")
	return nil
}

// CreateIndexes creates the composite indexes the list queries rely on.
// Failures are logged and counted, not fatal.
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_products_category_status ON products(category, status)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_rating ON products(rating DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_updated_at ON products(updated_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_reviews_product_created ON reviews(product_id, created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_cart_items_created_at ON cart_items(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_favorites_user_created ON favorites(user_id, created_at DESC)",
	}

	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).Warn("failed to create index")
			failed++
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("database indexes ensured")
	return nil
}

// SeedInitialData inserts development users, products and reviews. It is
// idempotent.
func (m *Migration) SeedInitialData() error {
	m.log.Info("seeding initial data")

	admin, err := m.seedUser(user.User{
		Email:     SeedAdminEmail,
		FirstName: "Admin",
		LastName:  "User",
		IsActive:  true,
		IsAdmin:   true,
	}, SeedAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	customer, err := m.seedUser(user.User{
		Email:     SeedUserEmail,
		FirstName: "Test",
		LastName:  "User",
		Phone:     "+919876543210",
		IsActive:  true,
	}, SeedUserPassword)
	if err != nil {
		return fmt.Errorf("failed to seed test user: %w", err)
	}

	products, err := m.seedProducts()
	if err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	if err := m.seedReviews(products, admin, customer); err != nil {
		return fmt.Errorf("failed to seed reviews: %w", err)
	}

	m.log.Info("initial data seeded")
	return nil
}

func (m *Migration) seedUser(u user.User, password string) (*user.User, error) {
	var existing user.User
	err := m.db.Where("email = ?", u.Email).First(&existing).Error
	if err == nil {
		m.log.WithField("email", u.Email).Debug("seed user already exists")
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := m.passwords.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u.Password = hashed

	if err := m.db.Create(&u).Error; err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"email": u.Email, "id": u.ID}).Info("created seed user")
	return &u, nil
}

func (m *Migration) seedProducts() ([]product.Product, error) {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		m.log.Debug("seed products already exist")
		return nil, nil
	}

	products := []product.Product{
		{
			Name:        "Premium Gaming Laptop",
			Description: "High-performance gaming laptop with dedicated graphics and a 165Hz display.",
			Price:       decimal.RequireFromString("1999.99"),
			Category:    product.CategoryElectronics,
			Status:      product.StatusAvailable,
		},
		{
			Name:        "Wireless Gaming Mouse",
			Description: "Ergonomic wireless mouse with a precise optical sensor.",
			Price:       decimal.RequireFromString("79.99"),
			Category:    product.CategoryElectronics,
			Status:      product.StatusAvailable,
		},
		{
			Name:        "Noise Cancelling Headphones",
			Description: "Over-ear headphones with active noise cancellation and 30 hour battery.",
			Price:       decimal.RequireFromString("249.00"),
			Category:    product.CategoryElectronics,
			Status:      product.StatusAvailable,
		},
		{
			Name:        "Merino Wool Sweater",
			Description: "Soft crew-neck sweater made from merino wool.",
			Price:       decimal.RequireFromString("89.50"),
			Category:    product.CategoryClothing,
			Status:      product.StatusAvailable,
		},
		{
			Name:        "The Go Programming Language",
			Description: "A thorough introduction to Go for working programmers.",
			Price:       decimal.RequireFromString("39.95"),
			Category:    product.CategoryBooks,
			Status:      product.StatusOutOfStock,
		},
	}

	if err := m.db.Create(&products).Error; err != nil {
		return nil, err
	}
	m.log.WithField("count", len(products)).Info("created seed products")
	return products, nil
}

func (m *Migration) seedReviews(products []product.Product, admin, customer *user.User) error {
	if len(products) < 3 {
		return nil
	}

	reviews := []product.Review{
		{ProductID: products[0].ID, UserID: admin.ID, Rating: 5, Comment: "Handles everything I throw at it."},
		{ProductID: products[0].ID, UserID: customer.ID, Rating: 4, Comment: "Great value, gets warm under load."},
		{ProductID: products[1].ID, UserID: admin.ID, Rating: 5, Comment: "Precise sensor and comfortable grip."},
		{ProductID: products[2].ID, UserID: customer.ID, Rating: 3, Comment: "Good sound, ear cups get uncomfortable."},
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reviews).Error; err != nil {
			return err
		}
		for _, p := range products {
			if err := product.RecomputeRating(tx, p.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// DropAllTables drops every table managed by the migration. Development only.
func (m *Migration) DropAllTables() error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := m.db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", models[i], err)
		}
	}
	m.log.Warn("all tables dropped")
	return nil
}
