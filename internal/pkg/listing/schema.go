package listing

import (
	"fmt"
	"strings"

	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Schema maps the fields of one listed entity to the columns that back them.
// Only mapped fields can be filtered or sorted on.
type Schema struct {
	key     clause.Column
	columns map[Field]clause.Column
	search  []clause.Column
}

// NewSchema validates a field table. key is the row identity used as the
// final sort key; search names the text fields matched by Criteria.Search.
func NewSchema(key clause.Column, columns map[Field]clause.Column, search ...Field) (*Schema, error) {
	if key.Name == "" {
		return nil, fmt.Errorf("listing schema: key column is required")
	}
	if _, ok := columns[FieldUpdatedAt]; !ok {
		return nil, fmt.Errorf("listing schema: %s must be mapped for the default sort", FieldUpdatedAt)
	}

	s := &Schema{key: key, columns: make(map[Field]clause.Column, len(columns))}
	for field, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("listing schema: field %q has no column", field)
		}
		s.columns[field] = col
	}

	for _, field := range search {
		col, ok := s.columns[field]
		if !ok {
			return nil, fmt.Errorf("listing schema: search field %q is not mapped", field)
		}
		s.search = append(s.search, col)
	}

	return s, nil
}

// MustSchema is NewSchema for package-level tables. It panics on an invalid table.
func MustSchema(key clause.Column, columns map[Field]clause.Column, search ...Field) *Schema {
	s, err := NewSchema(key, columns, search...)
	if err != nil {
		panic(err)
	}
	return s
}

// Has reports whether the field is mapped.
func (s *Schema) Has(field Field) bool {
	_, ok := s.columns[field]
	return ok
}

// ParseSort parses "field[:direction],..." into a sort list. A missing
// direction means ascending.
func (s *Schema) ParseSort(raw string) ([]Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var sorts []Sort
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, dir, _ := strings.Cut(part, ":")
		sort, err := s.sortOf(name, dir, Asc)
		if err != nil {
			return nil, err
		}
		sorts = append(sorts, sort)
	}
	return sorts, nil
}

// ParseSingle handles callers that pass one sort field and one order. An
// empty field keeps the default ordering; an empty order means descending.
func (s *Schema) ParseSingle(field, order string) ([]Sort, error) {
	if strings.TrimSpace(field) == "" {
		if strings.TrimSpace(order) != "" {
			if _, err := ParseDirection(order, Desc); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
	sort, err := s.sortOf(field, order, Desc)
	if err != nil {
		return nil, err
	}
	return []Sort{sort}, nil
}

func (s *Schema) sortOf(name, dir string, fallback Direction) (Sort, error) {
	field := Field(strings.TrimSpace(name))
	if !s.Has(field) {
		return Sort{}, apperror.Validation("unsupported sort field %q", name)
	}
	direction, err := ParseDirection(dir, fallback)
	if err != nil {
		return Sort{}, err
	}
	return Sort{Field: field, Direction: direction}, nil
}

// ParseDirection accepts asc/ascending and desc/descending in any case.
func ParseDirection(raw string, fallback Direction) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return fallback, nil
	case "asc", "ascending":
		return Asc, nil
	case "desc", "descending":
		return Desc, nil
	default:
		return "", apperror.Validation("unsupported sort direction %q", raw)
	}
}

// Filter adds the predicates of c to db. Criteria on unmapped fields are ignored.
func (s *Schema) Filter(db *gorm.DB, c Criteria) *gorm.DB {
	if term := strings.TrimSpace(c.Search); term != "" && len(s.search) > 0 {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		exprs := make([]clause.Expression, 0, len(s.search))
		for _, col := range s.search {
			exprs = append(exprs, clause.Expr{
				SQL:  `LOWER(?) LIKE ? ESCAPE '\'`,
				Vars: []any{col, pattern},
			})
		}
		db = db.Where(clause.Or(exprs...))
	}

	if c.Category != "" {
		db = s.eq(db, FieldCategory, c.Category)
	}
	if c.Status != "" {
		db = s.eq(db, FieldStatus, c.Status)
	}

	db = between(s, db, FieldPrice, c.PriceFrom, c.PriceTo)
	db = between(s, db, FieldReviewsCount, c.ReviewsCountFrom, c.ReviewsCountTo)
	db = between(s, db, FieldRating, c.RatingFrom, c.RatingTo)
	db = between(s, db, FieldCreatedAt, c.CreatedFrom, c.CreatedTo)
	db = between(s, db, FieldUpdatedAt, c.UpdatedFrom, c.UpdatedTo)

	return db
}

// Order applies sorts in order, falling back to updatedAt descending, and
// always ends with the key column ascending.
func (s *Schema) Order(db *gorm.DB, sorts []Sort) *gorm.DB {
	if len(sorts) == 0 {
		sorts = []Sort{{Field: FieldUpdatedAt, Direction: Desc}}
	}

	for _, sort := range sorts {
		col, ok := s.columns[sort.Field]
		if !ok {
			continue
		}
		db = db.Order(clause.OrderByColumn{Column: col, Desc: sort.Direction != Asc})
	}

	return db.Order(clause.OrderByColumn{Column: s.key})
}

func (s *Schema) eq(db *gorm.DB, field Field, value any) *gorm.DB {
	col, ok := s.columns[field]
	if !ok {
		return db
	}
	return db.Where(clause.Eq{Column: col, Value: value})
}

// between adds inclusive bounds. Nil pointers are skipped.
func between[V any](s *Schema, db *gorm.DB, field Field, from, to *V) *gorm.DB {
	col, ok := s.columns[field]
	if !ok {
		return db
	}
	if from != nil {
		db = db.Where(clause.Gte{Column: col, Value: *from})
	}
	if to != nil {
		db = db.Where(clause.Lte{Column: col, Value: *to})
	}
	return db
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// Find runs the listing query for c against base, which must already carry
// the model and any joins. It returns the requested page of rows and the
// number of rows matched before pagination.
func Find[T any](base *gorm.DB, schema *Schema, c Criteria, preloads ...string) ([]T, int64, error) {
	c.Normalize(DefaultPageSize, 0)

	filtered := schema.Filter(base, c).Session(&gorm.Session{})

	var total int64
	if err := filtered.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count rows: %w", err)
	}

	items := make([]T, 0)
	if total == 0 || int64(c.Skip()) >= total {
		return items, total, nil
	}

	query := schema.Order(filtered, c.Sort).Offset(c.Skip()).Limit(c.PageSize)
	for _, preload := range preloads {
		query = query.Preload(preload)
	}

	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch rows: %w", err)
	}

	return items, total, nil
}

// FindPage is Find followed by NewPage.
func FindPage[T any](base *gorm.DB, schema *Schema, c Criteria, preloads ...string) (Page[T], error) {
	c.Normalize(DefaultPageSize, 0)
	items, total, err := Find[T](base, schema, c, preloads...)
	if err != nil {
		return Page[T]{}, err
	}
	return NewPage(items, total, c.PageIndex, c.PageSize), nil
}
