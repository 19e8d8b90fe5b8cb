// internal/utils/pagination.go
package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams carries the list query string shared by every collection endpoint.
// Status and Category are free-form here; handlers convert them to typed filters.
type PaginationParams struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Sort     string `json:"sort"`
	Order    string `json:"order"`
	Search   string `json:"search"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

// Offset is the zero-based index of the first row on the page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

func (p PaginationParams) Descending() bool {
	return p.Order != "asc"
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

func GetPaginationParams(c *gin.Context) PaginationParams {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageSize)))
	if err != nil || limit < 1 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	order := c.DefaultQuery("order", "desc")
	if order != "asc" {
		order = "desc"
	}

	return PaginationParams{
		Page:     page,
		Limit:    limit,
		Sort:     c.DefaultQuery("sort", "created_at"),
		Order:    order,
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Status:   c.Query("status"),
	}
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	if params.Limit <= 0 {
		return db
	}
	return db.Offset(params.Offset()).Limit(params.Limit)
}

// ApplySort orders by params.Sort when it is one of allowed, else by created_at.
// The column goes through clause.OrderByColumn so it is always quoted.
func ApplySort(db *gorm.DB, params PaginationParams, allowed []string) *gorm.DB {
	column := "created_at"
	for _, field := range allowed {
		if field == params.Sort {
			column = field
			break
		}
	}
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: params.Descending()})
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = int((total + int64(params.Limit) - 1) / int64(params.Limit))
	}

	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
