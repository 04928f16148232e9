package ledger

import "github.com/abrezinsky/claimboard/internal/models"

// DefaultPageSize is the number of history records per page.
const DefaultPageSize = 5

// NewPagination builds pagination metadata for a 1-based page over total
// records split into pages of limit. An empty history has zero pages.
func NewPagination(page, limit, total int) models.Pagination {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	pages := (total + limit - 1) / limit
	return models.Pagination{
		CurrentPage:  page,
		TotalPages:   pages,
		TotalRecords: total,
		HasNext:      page < pages,
		HasPrev:      page > 1,
	}
}

// PageBounds returns the slice bounds of page within total records.
func PageBounds(page, limit, total int) (start, end int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	start = (page - 1) * limit
	if start > total {
		start = total
	}
	end = start + limit
	if end > total {
		end = total
	}
	return start, end
}
