// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
)

// RecommendationNotifier delivers recommendations to a user's live
// connection.
type RecommendationNotifier interface {
	Connected(userID uint) bool
	NotifyRecommendations(userID uint, recs any)
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	productService *product.Service
	notifier       RecommendationNotifier
	config         *config.Config
	log            *logrus.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *product.Service, notifier RecommendationNotifier, cfg *config.Config, log *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		notifier:       notifier,
		config:         cfg,
		log:            log,
	}
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	criteria, ok := bindCriteria(c, h.config, product.ProductSchema)
	if !ok {
		return
	}

	page, err := h.productService.ListProducts(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Products retrieved successfully", page)
}

// GetProduct handles GET /products/:id. Authenticated callers with a live
// connection also receive recommendations for the product.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	p, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		h.pushRecommendations(c, userID, p)
	}

	respond(c, http.StatusOK, "Product retrieved successfully", p)
}

func (h *ProductHandler) pushRecommendations(c *gin.Context, userID uint, p *product.Product) {
	if h.notifier == nil || !h.notifier.Connected(userID) {
		return
	}

	recs, err := h.productService.Recommend(c.Request.Context(), p, product.DefaultRecommendationLimit)
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"product_id": p.ID,
		}).Warn("failed to compute recommendations")
		return
	}
	h.notifier.NotifyRecommendations(userID, recs)
}

// GetCategories handles GET /products/categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Categories retrieved successfully", categories)
}

// AdminCreateProduct handles POST /admin/products
func (h *ProductHandler) AdminCreateProduct(c *gin.Context) {
	var req product.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Product created successfully", p)
}

// AdminUpdateProduct handles PUT /admin/products/:id
func (h *ProductHandler) AdminUpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req product.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Product updated successfully", p)
}

// AdminDeleteProduct handles DELETE /admin/products/:id
func (h *ProductHandler) AdminDeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Product deleted successfully", nil)
}
