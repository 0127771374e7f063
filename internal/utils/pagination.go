// Package utils provides small helpers shared across layers, independent of
// domain or transport types.
package utils

import "strconv"

// Pagination bounds for list endpoints.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination converts raw page and page_size query values into clamped
// ints. Missing or unparseable values take the defaults; page_size is capped
// at MaxPageSize so a single request can never drag a service's full
// attendance history.
func ParsePagination(rawPage, rawPageSize string) (page, pageSize int) {
	page = atoiDefault(rawPage, DefaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = atoiDefault(rawPageSize, DefaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// TotalPages returns the number of pages needed for total items at the given
// page size.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
