package cart

import (
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/pkg/listing"
	"gorm.io/gorm/clause"
)

// joinProducts is the join used by cart item listings. Items of deleted
// products are hidden.
const joinProducts = "JOIN products ON products.id = cart_items.product_id AND products.deleted_at IS NULL"

func itemColumn(name string) clause.Column {
	return clause.Column{Table: "cart_items", Name: name}
}

// ItemSchema filters on the joined product and sorts on item timestamps.
var ItemSchema = func() *listing.Schema {
	fields := product.ProductFields()
	fields[listing.FieldQuantity] = itemColumn("quantity")
	fields[listing.FieldCreatedAt] = itemColumn("created_at")
	fields[listing.FieldUpdatedAt] = itemColumn("updated_at")
	return listing.MustSchema(itemColumn("id"), fields, listing.FieldName, listing.FieldDescription)
}()
