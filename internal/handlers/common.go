package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mueblesworkflow/backend/internal/util"
)

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// pageResponse is the wire shape of every paginated listing. Pages are
// zero-indexed.
func pageResponse[T any](content []T, page, size int, total int64) echo.Map {
	if content == nil {
		content = []T{}
	}
	return echo.Map{
		"content":       content,
		"page":          page,
		"size":          size,
		"totalElements": total,
		"totalPages":    util.TotalPages(total, size),
	}
}
