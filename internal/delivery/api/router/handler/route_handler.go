package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/paulmach/orb"
	"go.uber.org/fx"

	"airscout/internal/delivery/api/response"
	"airscout/internal/domain/entity"
	"airscout/internal/usecase"
)

// RouteHandlerParams holds dependencies for RouteHandler, injected by Fx.
type RouteHandlerParams struct {
	fx.In

	RouteUC usecase.RouteUsecase
	Logger  *slog.Logger
}

// RouteHandler holds dependencies for route checking handlers
type RouteHandler struct {
	routeUC usecase.RouteUsecase
	logger  *slog.Logger
}

// NewRouteHandler is the constructor for RouteHandler
func NewRouteHandler(params RouteHandlerParams) *RouteHandler {
	return &RouteHandler{
		routeUC: params.RouteUC,
		logger:  params.Logger,
	}
}

// CheckRouteRequest represents the request body for an on-demand route check.
// Coordinates are [longitude, latitude] pairs.
type CheckRouteRequest struct {
	Route        [][2]float64 `json:"route" validate:"required,min=2"`
	BufferMeters float64      `json:"buffer_meters" validate:"gte=0"`
	MinSeverity  int          `json:"min_severity" validate:"gte=0,lte=5"`
}

// CheckRoute handles the on-demand route risk check
func (h *RouteHandler) CheckRoute(c echo.Context) error {
	var req CheckRouteRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid route check input")
	}

	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	route := make(orb.LineString, 0, len(req.Route))
	for _, pair := range req.Route {
		route = append(route, orb.Point{pair[0], pair[1]})
	}

	assessment, err := h.routeUC.CheckRoute(c.Request().Context(), usecase.CheckRouteInput{
		Route:        route,
		BufferMeters: req.BufferMeters,
		MinSeverity:  req.MinSeverity,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, assessment)
}

// ListActiveHazards handles listing unexpired hazards, optionally filtered by
// the ?type= query parameter.
func (h *RouteHandler) ListActiveHazards(c echo.Context) error {
	var hazardType *entity.HazardType
	if raw := c.QueryParam("type"); raw != "" {
		t := entity.HazardType(raw)
		hazardType = &t
	}

	hazards, err := h.routeUC.ListActiveHazards(c.Request().Context(), hazardType)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, hazards)
}

// HealthCheck reports process liveness.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
