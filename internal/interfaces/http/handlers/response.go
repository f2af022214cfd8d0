// internal/interfaces/http/handlers/response.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/listing"
)

func respond(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// respondError maps err to its status code. Internal errors are attached to
// the context for the request logger and never shown to the client.
func respondError(c *gin.Context, err error) {
	if apperror.KindOf(err) == apperror.KindInternal {
		_ = c.Error(err)
	}
	c.JSON(apperror.HTTPStatus(err), gin.H{
		"error": apperror.PublicMessage(err),
		"kind":  apperror.KindOf(err),
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"kind":    apperror.KindValidation,
		"details": err.Error(),
	})
}

// parseID reads a positive numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		respondError(c, apperror.Validation("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// currentUser returns the authenticated user ID or writes 401.
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperror.Unauthorized("Authentication required"))
		return 0, false
	}
	return userID, true
}

// bindCriteria binds filters and paging from the query string. The sort
// parameter is a comma separated list of field[:direction] pairs.
func bindCriteria(c *gin.Context, cfg *config.Config, schema *listing.Schema) (listing.Criteria, bool) {
	var criteria listing.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		respondBindError(c, err)
		return criteria, false
	}

	sorts, err := schema.ParseSort(c.Query("sort"))
	if err != nil {
		respondError(c, err)
		return criteria, false
	}
	criteria.Sort = sorts
	criteria.Normalize(cfg.Listing.DefaultPageSize, cfg.Listing.MaxPageSize)
	return criteria, true
}

// bindSingleSortCriteria is bindCriteria for endpoints sorted by one field
// given as sort_field and order_by.
func bindSingleSortCriteria(c *gin.Context, cfg *config.Config, schema *listing.Schema) (listing.Criteria, bool) {
	var criteria listing.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		respondBindError(c, err)
		return criteria, false
	}

	sorts, err := schema.ParseSingle(c.Query("sort_field"), c.Query("order_by"))
	if err != nil {
		respondError(c, err)
		return criteria, false
	}
	criteria.Sort = sorts
	criteria.Normalize(cfg.Listing.DefaultPageSize, cfg.Listing.MaxPageSize)
	return criteria, true
}
