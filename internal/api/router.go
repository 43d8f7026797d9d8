package api

import (
	"net/http"

	"routeboard/internal/modules/orders"
	"routeboard/internal/modules/segments"
	"routeboard/internal/modules/updates"
	"routeboard/internal/modules/waypoints"
	"routeboard/pkg/ws"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	waypointHandler *waypoints.Handler,
	segmentHandler *segments.Handler,
	updateHandler *updates.Handler,
	orderHandler *orders.Handler,
	hub *ws.Hub,
) {
	// --- Health ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "routeboard is up"})
	})

	// --- Route Waypoint Routes ---
	routeGroup := e.Group("/routes/:routeId")
	{
		routeGroup.GET("/waypoints", waypointHandler.ListRoute)
		routeGroup.GET("/overlay", waypointHandler.Overlay)
		routeGroup.POST("/waypoints", waypointHandler.Assign)
		routeGroup.DELETE("/waypoints/:orderId", waypointHandler.Unassign)
		routeGroup.PUT("/waypoints/reorder", waypointHandler.Reorder)
		routeGroup.PUT("/waypoints/:orderId/status", waypointHandler.UpdateStatus)
		routeGroup.PATCH("/waypoints/:orderId", waypointHandler.UpdatePatch)
		routeGroup.POST("/segments/refresh", waypointHandler.RefreshSegments)
	}

	// --- Order Routes ---
	orderGroup := e.Group("/orders")
	{
		orderGroup.GET("", orderHandler.List)
		orderGroup.GET("/:orderId", orderHandler.Get)
		orderGroup.GET("/:orderId/routes", waypointHandler.RoutesForOrder)
	}

	// --- Segment Routes ---
	segmentGroup := e.Group("/segments")
	{
		segmentGroup.GET("", segmentHandler.List)
		segmentGroup.POST("", segmentHandler.Upsert)
		segmentGroup.GET("/:segmentId", segmentHandler.Get)
		segmentGroup.DELETE("/:segmentId", segmentHandler.Remove)
		segmentGroup.GET("/:segmentId/status", segmentHandler.Status)
		segmentGroup.POST("/:segmentId/recalculate", segmentHandler.Recalculate)
		segmentGroup.PUT("/:segmentId/highlight", segmentHandler.Highlight)
		segmentGroup.DELETE("/:segmentId/highlight", segmentHandler.Unhighlight)
	}

	// --- Optimistic Update Ledger Routes ---
	updateGroup := e.Group("/updates")
	{
		updateGroup.GET("/pending", updateHandler.ListPending)
		updateGroup.POST("/purge", updateHandler.PurgeSettled)
		updateGroup.POST("/reset", updateHandler.Reset)
	}

	// --- Live Segment Feed ---
	e.GET("/ws/segments", hub.Serve)
}
