package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"fluxcast/internal/domain/models"
	"fluxcast/internal/usecase"
	xhttp "fluxcast/pkg/http"
	xlogger "fluxcast/pkg/logger"
)

// HealthChecker reports readiness of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ForecastEchoHandler exposes the forecast pipeline over HTTP.
type ForecastEchoHandler struct {
	logger *xlogger.Logger
	uc     *usecase.ForecastUseCase
	health HealthChecker
}

func NewForecastEchoHandler(logger *xlogger.Logger, uc *usecase.ForecastUseCase, health HealthChecker) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, uc: uc, health: health}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/forecasts", h.Generate)
	g.GET("/health", h.Health)
}

func (h *ForecastEchoHandler) Generate(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.Generate(c.Request().Context(), usecase.GenerateParams{
		RestaurantID: req.RestaurantID,
		ItemName:     req.ItemName,
		Category:     req.Category,
		HorizonDays:  req.HorizonDays,
		Samples:      req.Samples,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrItemNotFound):
			return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("item %q not found for restaurant %q", req.ItemName, req.RestaurantID))
		case errors.Is(err, models.ErrInvalidHorizon):
			return xhttp.BadRequestResponse(c, xhttp.BadRequestError(err.Error()))
		default:
			h.logger.Error("forecast usecase error",
				xlogger.String("restaurant_id", req.RestaurantID),
				xlogger.String("item", req.ItemName),
				xlogger.Error(err),
			)
			return xhttp.InternalServerErrorResponse(c)
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	status := map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if h.health != nil {
		if err := h.health.Health(c.Request().Context()); err != nil {
			status["status"] = "degraded"
			status["clickhouse"] = err.Error()
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
		}
		status["clickhouse"] = "ok"
	}
	return xhttp.SuccessResponse(c, status)
}
