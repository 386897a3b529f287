package common

import (
	"net/http"
	"strconv"
)

// Page holds normalized pagination parameters for list endpoints.
type Page struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// ParsePagination extracts page and limit query parameters, clamping limit to
// the provided maximum.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Page {
	page := 1
	limit := defaultLimit
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Page{Page: page, Limit: limit, Offset: (page - 1) * limit}
}
