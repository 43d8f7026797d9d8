package waypoints

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"routeboard/internal/models"
	"routeboard/pkg/utils"
)

// Handler handles HTTP requests for route waypoints.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new waypoint handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListRoute(c echo.Context) error {
	routeID := c.Param("routeId")
	wps, err := h.svc.ListRoute(c.Request().Context(), routeID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"route_id": routeID, "waypoints": wps})
}

func (h *Handler) Assign(c echo.Context) error {
	var req models.AssignWaypointRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	wp, err := h.svc.Assign(c.Request().Context(), c.Param("routeId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, wp)
}

func (h *Handler) Unassign(c echo.Context) error {
	err := h.svc.Unassign(c.Request().Context(), c.Param("routeId"), c.Param("orderId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Reorder(c echo.Context) error {
	var req models.ReorderWaypointsRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	wps, err := h.svc.Reorder(c.Request().Context(), c.Param("routeId"), *req.FromIndex, *req.ToIndex)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"waypoints": wps})
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req models.UpdateWaypointStatusRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	wp, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("routeId"), c.Param("orderId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, wp)
}

func (h *Handler) UpdatePatch(c echo.Context) error {
	var patch models.WaypointPatch
	if err := c.Bind(&patch); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(patch); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	wp, err := h.svc.UpdatePatch(c.Request().Context(), c.Param("routeId"), c.Param("orderId"), patch)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, wp)
}

func (h *Handler) Overlay(c echo.Context) error {
	overlay, err := h.svc.Overlay(c.Request().Context(), c.Param("routeId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, overlay)
}

func (h *Handler) RefreshSegments(c echo.Context) error {
	routeID := c.Param("routeId")
	if err := h.svc.RefreshSegments(c.Request().Context(), routeID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) RoutesForOrder(c echo.Context) error {
	orderID := c.Param("orderId")
	routes, err := h.svc.RoutesForOrder(c.Request().Context(), orderID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"order_id": orderID, "routes": routes})
}
