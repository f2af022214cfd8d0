// Package listing builds filtered, sorted and paginated queries over gorm
// models and wraps the results into pages.
package listing

import (
	"math"
	"time"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// MaxPageIndex keeps the row offset far from integer overflow.
const MaxPageIndex = 1_000_000

// Field names a filterable or sortable attribute of a listed entity.
type Field string

const (
	FieldID           Field = "id"
	FieldName         Field = "name"
	FieldDescription  Field = "description"
	FieldPrice        Field = "price"
	FieldCategory     Field = "category"
	FieldStatus       Field = "status"
	FieldReviewsCount Field = "reviewsCount"
	FieldRating       Field = "rating"
	FieldCreatedAt    Field = "createdAt"
	FieldUpdatedAt    Field = "updatedAt"
	FieldQuantity     Field = "quantity"
	FieldEmail        Field = "email"
	FieldFirstName    Field = "firstName"
	FieldLastName     Field = "lastName"
	FieldComment      Field = "comment"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Sort struct {
	Field     Field     `json:"field"`
	Direction Direction `json:"direction"`
}

// Criteria is a listing request. Nil bounds and empty strings impose no
// constraint; all range bounds are inclusive.
type Criteria struct {
	Search   string `form:"search" json:"search,omitempty"`
	Category string `form:"category" json:"category,omitempty"`
	Status   string `form:"status" json:"status,omitempty"`

	PriceFrom        *float64   `form:"priceFrom" json:"priceFrom,omitempty"`
	PriceTo          *float64   `form:"priceTo" json:"priceTo,omitempty"`
	ReviewsCountFrom *int       `form:"reviewsCountFrom" json:"reviewsCountFrom,omitempty"`
	ReviewsCountTo   *int       `form:"reviewsCountTo" json:"reviewsCountTo,omitempty"`
	RatingFrom       *float64   `form:"ratingFrom" json:"ratingFrom,omitempty"`
	RatingTo         *float64   `form:"ratingTo" json:"ratingTo,omitempty"`
	CreatedFrom      *time.Time `form:"createdDateFrom" json:"createdDateFrom,omitempty"`
	CreatedTo        *time.Time `form:"createdDateTo" json:"createdDateTo,omitempty"`
	UpdatedFrom      *time.Time `form:"updatedDateFrom" json:"updatedDateFrom,omitempty"`
	UpdatedTo        *time.Time `form:"updatedDateTo" json:"updatedDateTo,omitempty"`

	PageIndex int `form:"pageIndex" json:"pageIndex" binding:"omitempty,min=0,max=1000000"`
	PageSize  int `form:"pageSize" json:"pageSize" binding:"omitempty,min=0"`

	// Sort is parsed separately through Schema.ParseSort.
	Sort []Sort `form:"-" json:"sort,omitempty"`
}

// Normalize defaults the page index to 1 and the page size to defaultSize.
// The page index is capped at MaxPageIndex and a positive maxSize caps the
// page size.
func (c *Criteria) Normalize(defaultSize, maxSize int) {
	if defaultSize < 1 {
		defaultSize = DefaultPageSize
	}
	if c.PageIndex < 1 {
		c.PageIndex = 1
	}
	if c.PageIndex > MaxPageIndex {
		c.PageIndex = MaxPageIndex
	}
	if c.PageSize < 1 {
		c.PageSize = defaultSize
	}
	if maxSize > 0 && c.PageSize > maxSize {
		c.PageSize = maxSize
	}
}

// Skip is the number of rows before the requested page.
func (c Criteria) Skip() int {
	if c.PageIndex < 1 || c.PageSize < 1 {
		return 0
	}
	if c.PageIndex-1 > math.MaxInt/c.PageSize {
		return math.MaxInt
	}
	return (c.PageIndex - 1) * c.PageSize
}
