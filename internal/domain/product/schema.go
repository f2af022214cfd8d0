package product

import (
	"github.com/your-org/storefront-api/internal/pkg/listing"
	"gorm.io/gorm/clause"
)

func productColumn(name string) clause.Column {
	return clause.Column{Table: "products", Name: name}
}

// ProductFields maps listing fields to product columns. Cart items and
// favorites reuse it after joining products.
func ProductFields() map[listing.Field]clause.Column {
	return map[listing.Field]clause.Column{
		listing.FieldName:         productColumn("name"),
		listing.FieldDescription:  productColumn("description"),
		listing.FieldPrice:        productColumn("price"),
		listing.FieldCategory:     productColumn("category"),
		listing.FieldStatus:       productColumn("status"),
		listing.FieldReviewsCount: productColumn("reviews_count"),
		listing.FieldRating:       productColumn("rating"),
		listing.FieldCreatedAt:    productColumn("created_at"),
		listing.FieldUpdatedAt:    productColumn("updated_at"),
	}
}

var (
	ProductSchema = listing.MustSchema(productColumn("id"), ProductFields(),
		listing.FieldName, listing.FieldDescription)

	ReviewSchema = listing.MustSchema(
		clause.Column{Table: "reviews", Name: "id"},
		map[listing.Field]clause.Column{
			listing.FieldComment:   {Table: "reviews", Name: "comment"},
			listing.FieldRating:    {Table: "reviews", Name: "rating"},
			listing.FieldCreatedAt: {Table: "reviews", Name: "created_at"},
			listing.FieldUpdatedAt: {Table: "reviews", Name: "updated_at"},
		},
		listing.FieldComment,
	)
)
