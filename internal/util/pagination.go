package util

const DefaultPageSize = 10

// Calculate turns a zero-indexed page cursor into an offset/limit pair.
// Out-of-range input falls back to the first page / default size.
func Calculate(page, size int) (offset, limit int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = DefaultPageSize
	}
	return page * size, size
}

// TotalPages is ceil(total / size) with at least one page for empty sets.
func TotalPages(total int64, size int) int64 {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (total + int64(size) - 1) / int64(size)
	if pages < 1 {
		return 1
	}
	return pages
}
