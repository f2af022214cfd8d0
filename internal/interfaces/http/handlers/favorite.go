// internal/interfaces/http/handlers/favorite.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/favorite"
)

// FavoriteHandler handles favorites endpoints
type FavoriteHandler struct {
	favoriteService *favorite.Service
	config          *config.Config
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(favoriteService *favorite.Service, cfg *config.Config) *FavoriteHandler {
	return &FavoriteHandler{
		favoriteService: favoriteService,
		config:          cfg,
	}
}

// GetFavorites handles GET /favorites
func (h *FavoriteHandler) GetFavorites(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	criteria, ok := bindSingleSortCriteria(c, h.config, favorite.Schema)
	if !ok {
		return
	}

	page, err := h.favoriteService.ListFavorites(c.Request.Context(), userID, criteria)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Favorites retrieved successfully", page)
}

// GetSummary handles GET /favorites/summary
func (h *FavoriteHandler) GetSummary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.favoriteService.GetSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Favorites summary retrieved successfully", summary)
}

// AddFavorite handles POST /favorites
func (h *FavoriteHandler) AddFavorite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req favorite.AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	fav, err := h.favoriteService.AddFavorite(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Product added to favorites", fav)
}

// CheckFavorite handles GET /favorites/:product_id/check
func (h *FavoriteHandler) CheckFavorite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "product_id")
	if !ok {
		return
	}

	isFavorite, err := h.favoriteService.IsFavorite(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Favorite status retrieved", gin.H{
		"product_id":  productID,
		"is_favorite": isFavorite,
	})
}

// RemoveFavorite handles DELETE /favorites/:product_id
func (h *FavoriteHandler) RemoveFavorite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "product_id")
	if !ok {
		return
	}

	if err := h.favoriteService.RemoveFavorite(c.Request.Context(), userID, productID); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Product removed from favorites", nil)
}
