// internal/interfaces/http/handlers/review.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
)

// ReviewHandler handles review endpoints
type ReviewHandler struct {
	reviewService *product.ReviewService
	config        *config.Config
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *product.ReviewService, cfg *config.Config) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		config:        cfg,
	}
}

// GetProductReviews handles GET /products/:id/reviews
func (h *ReviewHandler) GetProductReviews(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	criteria, ok := bindCriteria(c, h.config, product.ReviewSchema)
	if !ok {
		return
	}

	page, err := h.reviewService.ListReviews(c.Request.Context(), productID, criteria)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Reviews retrieved successfully", page)
}

// GetReviewSummary handles GET /products/:id/reviews/summary
func (h *ReviewHandler) GetReviewSummary(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	summary, err := h.reviewService.GetReviewSummary(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Review summary retrieved successfully", summary)
}

// CreateReview handles POST /products/:id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req product.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), userID, productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Review created successfully", review)
}

// GetReview handles GET /reviews/:id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	reviewID, ok := parseID(c, "id")
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), reviewID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Review retrieved successfully", review)
}

// UpdateReview handles PUT /reviews/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req product.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), reviewID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Review updated successfully", review)
}

// DeleteReview handles DELETE /reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "id")
	if !ok {
		return
	}

	err := h.reviewService.DeleteReview(c.Request.Context(), reviewID, userID, middleware.IsAdminFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Review deleted successfully", nil)
}
