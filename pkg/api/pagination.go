package api

import (
	"strconv"

	"github.com/LocalHostDiluk/reinicializado/pkg/errors"
	"github.com/gin-gonic/gin"
)

// Pagination defaults and bounds
const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 10
	MaxLimit     int64 = 100
)

// PageRequest represents pagination request parameters
type PageRequest struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
}

// Offset calculates the offset for database queries
func (p PageRequest) Offset() int64 {
	return (p.Page - 1) * p.Limit
}

// PageInfo describes the page returned to the client.
type PageInfo struct {
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// PageResponse represents a paginated response
type PageResponse[T any] struct {
	Data       []T      `json:"data"`
	Pagination PageInfo `json:"pagination"`
}

// NewPageResponse creates a new paginated response
func NewPageResponse[T any](data []T, page PageRequest, total int64) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := int64(0)
	if page.Limit > 0 {
		totalPages = (total + page.Limit - 1) / page.Limit
	}

	return PageResponse[T]{
		Data: data,
		Pagination: PageInfo{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// ParsePagination reads page and limit from the query string. Missing values
// take the defaults; values outside the bounds are rejected.
func ParsePagination(c *gin.Context) (PageRequest, *errors.AppError) {
	req := PageRequest{Page: DefaultPage, Limit: DefaultLimit}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || page < 1 {
			return req, errors.ErrInvalidArgument("page must be an integer greater than or equal to 1")
		}
		req.Page = page
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 1 || limit > MaxLimit {
			return req, errors.ErrInvalidArgument("limit must be an integer between 1 and 100")
		}
		req.Limit = limit
	}

	return req, nil
}
