package query

import (
	"strconv"
	"strings"
)

type Pagination struct {
	TotalCount  int64 `json:"totalCount"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// ComputePagination derives page metadata from a total row count.
func ComputePagination(totalCount int64, page, limit int) Pagination {
	page = clampPage(page)
	limit = clampLimit(limit)
	if totalCount < 0 {
		totalCount = 0
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))
	return Pagination{
		TotalCount:  totalCount,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

// ParsePage reads an untrusted page number. Garbage yields the default;
// anything below 1 becomes 1.
func ParsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultPage
	}
	return clampPage(n)
}

// ParseLimit reads an untrusted page size, clamped to [1, MaxLimit].
func ParseLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultLimit
	}
	return clampLimit(n)
}

func clampPage(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func clampLimit(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}
