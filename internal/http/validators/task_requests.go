package validators

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"waste-collector.com/waste-collector/internal/services"
)

func ParseTaskID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "task id must be a positive integer")
	}
	return id, nil
}

// ParseTaskFilter reads q, page and page_size. Missing values default to the
// first page of DefaultPageSize tasks.
func ParseTaskFilter(c echo.Context) (services.TaskFilter, error) {
	filter := services.TaskFilter{
		Query:    c.QueryParam("q"),
		Page:     1,
		PageSize: services.DefaultPageSize,
	}

	var err error
	if filter.Page, err = intParam(c, "page", filter.Page); err != nil {
		return services.TaskFilter{}, err
	}
	if filter.PageSize, err = intParam(c, "page_size", filter.PageSize); err != nil {
		return services.TaskFilter{}, err
	}
	if filter.PageSize > 100 {
		return services.TaskFilter{}, echo.NewHTTPError(http.StatusBadRequest, "page_size must not exceed 100")
	}

	return filter, nil
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return v, nil
}
