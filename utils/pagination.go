package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultPerPage is the page size when none is requested
	DefaultPerPage = 10
	// MaxPerPage is the hard cap on page size
	MaxPerPage = 100
)

// PageRequest is the parsed pagination portion of a list query
type PageRequest struct {
	Page    int
	PerPage int
}

// Offset returns the row offset for the requested page
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PageMeta is the pagination metadata returned alongside list items
type PageMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	NextPage   *int  `json:"next_page"`
	PrevPage   *int  `json:"prev_page"`
}

// ParsePageRequest reads page/per_page query parameters, applying the
// defaults and the hard cap. Out-of-range values fall back to defaults
// rather than erroring.
func ParsePageRequest(c *gin.Context) PageRequest {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	perPage, err := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(DefaultPerPage)))
	if err != nil || perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return PageRequest{Page: page, PerPage: perPage}
}

// BuildPageMeta derives pagination metadata from the request and the
// total matching row count
func BuildPageMeta(req PageRequest, total int64) PageMeta {
	totalPages := int((total + int64(req.PerPage) - 1) / int64(req.PerPage))

	meta := PageMeta{
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	if req.Page < totalPages {
		next := req.Page + 1
		meta.NextPage = &next
	}
	if req.Page > 1 && req.Page <= totalPages+1 {
		prev := req.Page - 1
		meta.PrevPage = &prev
	}

	return meta
}

// ParseSort validates the sort_by/sort_order query parameters against an
// allow-list of sortable columns. Returns ok=false when sort_by names an
// unknown field.
func ParseSort(c *gin.Context, allowed []string, defaultField string) (field, order string, ok bool) {
	field = c.DefaultQuery("sort_by", defaultField)

	found := false
	for _, a := range allowed {
		if field == a {
			found = true
			break
		}
	}
	if !found {
		return "", "", false
	}

	order = c.DefaultQuery("sort_order", "asc")
	if order != "asc" && order != "desc" {
		order = "asc"
	}
	return field, order, true
}
