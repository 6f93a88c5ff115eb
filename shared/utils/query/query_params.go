package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// FilterParams represents filtering parameters
type FilterParams struct {
	Filters  map[string]string `json:"filters"`
	Sort     SortParams        `json:"sort"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Search   string            `json:"search"`
}

// SortParams represents sorting parameters
type SortParams struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// PaginationResponse represents pagination metadata
type PaginationResponse struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ParseQueryParams extracts standardized query parameters from Gin context.
// Page size is read from pageSize, page_size or limit, in that order.
func ParseQueryParams(c *gin.Context) FilterParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	rawSize := c.Query("pageSize")
	if rawSize == "" {
		rawSize = c.Query("page_size")
	}
	if rawSize == "" {
		rawSize = c.Query("limit")
	}
	pageSize, err := strconv.Atoi(rawSize)
	if err != nil {
		pageSize = DefaultPageSize
	}

	page, pageSize = NormalizePage(page, pageSize)

	// filters[field_name]=value
	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if strings.HasPrefix(key, "filters[") && strings.HasSuffix(key, "]") {
			fieldName := key[8 : len(key)-1]
			if len(values) > 0 && values[0] != "" {
				filters[fieldName] = values[0]
			}
		}
	}

	// sort[field]=field_name&sort[order]=asc|desc
	sortOrder := strings.ToLower(c.Query("sort[order]"))
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "asc"
	}

	return FilterParams{
		Filters: filters,
		Sort: SortParams{
			Field: c.Query("sort[field]"),
			Order: sortOrder,
		},
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	}
}

// NormalizePage clamps page and page size to their accepted ranges
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// ApplySearch applies a case-insensitive search to the given fields
func ApplySearch(query *gorm.DB, search string, searchFields []string) *gorm.DB {
	if search == "" || len(searchFields) == 0 {
		return query
	}

	conditions := make([]string, len(searchFields))
	args := make([]interface{}, len(searchFields))

	for i, field := range searchFields {
		conditions[i] = fmt.Sprintf("LOWER(%s) LIKE ?", field)
		args[i] = "%" + strings.ToLower(search) + "%"
	}

	return query.Where(strings.Join(conditions, " OR "), args...)
}

// ApplySort applies sorting to a GORM query, falling back to the given default order
func ApplySort(query *gorm.DB, sort SortParams, allowedSortFields map[string]string, fallback string) *gorm.DB {
	if dbField, allowed := allowedSortFields[sort.Field]; allowed {
		return query.Order(fmt.Sprintf("%s %s", dbField, strings.ToUpper(sort.Order)))
	}
	return query.Order(fallback)
}

// ApplyPagination applies pagination to a GORM query
func ApplyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	offset := (page - 1) * pageSize
	return query.Offset(offset).Limit(pageSize)
}

// BuildPaginationResponse creates pagination metadata
func BuildPaginationResponse(page, pageSize int, total int64) PaginationResponse {
	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)

	return PaginationResponse{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < int(totalPages),
		HasPrev:    page > 1,
	}
}
