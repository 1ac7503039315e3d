// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"airscout/internal/delivery/api/router/handler"
)

type RouterParams struct {
	fx.In

	RouteHandler *handler.RouteHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	routeHandler *handler.RouteHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		routeHandler: params.RouteHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Operational endpoints
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	apiV1 := e.Group("/api/v1")

	routesGroup := apiV1.Group("/routes")
	{
		routesGroup.POST("/check", r.routeHandler.CheckRoute)
	}

	hazardsGroup := apiV1.Group("/hazards")
	{
		hazardsGroup.GET("/active", r.routeHandler.ListActiveHazards)
	}
}
