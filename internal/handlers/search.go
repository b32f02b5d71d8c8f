package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkpress/blog_platform/internal/service/search"
	"github.com/inkpress/blog_platform/internal/util"
)

type SearchHandler struct {
	Index *search.Index
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, size := util.Calculate(page, size)

	total, posts, err := h.Index.Search(c.Request().Context(), q, from, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total": total,
		"posts": posts,
	})
}
