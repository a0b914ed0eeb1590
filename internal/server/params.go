package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"shelfmark/pkg/domain"
	"shelfmark/pkg/store"
)

// pageParams are the validated pagination values of a listing request.
type pageParams struct {
	Page  int
	Limit int
}

// parsePageParams reads page and limit from the query string. Absent
// values fall back to defaults; malformed or out-of-range values are an
// error rather than being silently clamped.
func (s *Server) parsePageParams(query url.Values) (pageParams, error) {
	params := pageParams{Page: 1, Limit: s.defaultPageLimit}
	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, fmt.Errorf("page must be a positive integer")
		}
		params.Page = page
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > s.maxPageLimit {
			return params, fmt.Errorf("limit must be between 1 and %d", s.maxPageLimit)
		}
		params.Limit = limit
	}
	return params, nil
}

// parseSortParams reads sortBy and order. Unknown sort fields are
// rejected, never passed through to the store; an absent order keeps the
// descending default regardless of sortBy.
func parseSortParams(query url.Values) (store.BookSort, error) {
	sort := store.DefaultBookSort()
	if raw := strings.TrimSpace(query.Get("sortBy")); raw != "" {
		if !store.ValidSortField(raw) {
			return sort, fmt.Errorf("sortBy must be one of title, author, category, createdAt, updatedAt")
		}
		sort.Field = raw
	}
	if raw := strings.TrimSpace(query.Get("order")); raw != "" {
		switch strings.ToLower(raw) {
		case "asc":
			sort.Desc = false
		case "desc":
			sort.Desc = true
		default:
			return sort, fmt.Errorf("order must be asc or desc")
		}
	}
	return sort, nil
}

// parseCategoryParam validates the category filter. Empty and "All" both
// mean no filter.
func parseCategoryParam(query url.Values) (string, error) {
	category := strings.TrimSpace(query.Get("category"))
	if category == "" || category == domain.CategoryAll {
		return category, nil
	}
	if !domain.ValidCategory(category) {
		return "", fmt.Errorf("unknown category %q", category)
	}
	return category, nil
}
