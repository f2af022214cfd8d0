package listing

// Page is one slice of a filtered collection plus its pagination metadata.
type Page[T any] struct {
	Items           []T   `json:"items"`
	TotalCount      int64 `json:"total_count"`
	TotalPages      int   `json:"total_pages"`
	PageIndex       int   `json:"page_index"`
	PageSize        int   `json:"page_size"`
	HasPreviousPage bool  `json:"has_previous_page"`
	HasNextPage     bool  `json:"has_next_page"`
}

func NewPage[T any](items []T, totalCount int64, pageIndex, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	if items == nil {
		items = []T{}
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))

	return Page[T]{
		Items:           items,
		TotalCount:      totalCount,
		TotalPages:      totalPages,
		PageIndex:       pageIndex,
		PageSize:        pageSize,
		HasPreviousPage: pageIndex > 1,
		HasNextPage:     pageIndex < totalPages,
	}
}

// Map converts the items of a page while keeping its metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, len(p.Items))
	for i, item := range p.Items {
		items[i] = fn(item)
	}
	return Page[U]{
		Items:           items,
		TotalCount:      p.TotalCount,
		TotalPages:      p.TotalPages,
		PageIndex:       p.PageIndex,
		PageSize:        p.PageSize,
		HasPreviousPage: p.HasPreviousPage,
		HasNextPage:     p.HasNextPage,
	}
}
