package utils

import (
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Number      int   `json:"number"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	NumPages    int   `json:"num_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Paginate counts q and loads the requested page of it, preloading the named associations.
// A missing or malformed page number yields the first page, a number past the end the last one.
func Paginate[T any](q *gorm.DB, rawPage string, perPage int, preloads ...string) (*Page[T], error) {
	if perPage <= 0 {
		perPage = 10
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count page items: %w", err)
	}

	numPages := NumPages(total, perPage)
	number := clampPage(rawPage, numPages)

	items := make([]T, 0, perPage)
	if total > 0 {
		fq := q.Session(&gorm.Session{})
		for _, assoc := range preloads {
			fq = fq.Preload(assoc)
		}
		if err := fq.Offset((number - 1) * perPage).Limit(perPage).Find(&items).Error; err != nil {
			return nil, fmt.Errorf("load page %d: %w", number, err)
		}
	}
	return &Page[T]{
		Items:       items,
		Number:      number,
		PerPage:     perPage,
		Total:       total,
		NumPages:    numPages,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}, nil
}

// NumPages is never below one, an empty result still has a single empty page.
func NumPages(total int64, perPage int) int {
	if total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// PageNumber parses a requested page number; anything that is not a positive integer means page 1.
func PageNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func clampPage(raw string, numPages int) int {
	n := PageNumber(raw)
	if n > numPages {
		return numPages
	}
	return n
}
