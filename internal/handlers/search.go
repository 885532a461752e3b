package handlers

import (
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mueblesworkflow/backend/internal/models"
	"github.com/mueblesworkflow/backend/internal/service/search"
	"github.com/mueblesworkflow/backend/internal/util"
)

// SearchHandler answers free-text order search. With Elasticsearch
// configured it runs a fuzzy multi_match; otherwise it falls back to a
// LIKE scan over the same fields.
type SearchHandler struct {
	DB    *gorm.DB
	ES    *elasticsearch.Client
	Index string
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	page := parseIntDefault(c.QueryParam("page"), 0)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	if h.ES != nil {
		total, orders, err := search.Search(c.Request().Context(), h.ES, h.Index, q, from, limit)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err)
		}
		return c.JSON(http.StatusOK, pageResponse(orders, page, limit, total))
	}

	pattern := "%" + strings.ToLower(q) + "%"
	tx := h.DB.Model(&models.Product{}).Where(
		"LOWER(title) LIKE ? OR LOWER(product_type) LIKE ? OR LOWER(material) LIKE ? OR LOWER(color) LIKE ?",
		pattern, pattern, pattern, pattern,
	)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	var orders []models.Product
	if err := tx.Order("id ASC").Offset(from).Limit(limit).Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, pageResponse(orders, page, limit, total))
}
