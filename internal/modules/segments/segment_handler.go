package segments

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"routeboard/internal/models"
	"routeboard/pkg/utils"
)

// Handler handles HTTP requests for route segments.
type Handler struct {
	manager *Manager
}

// NewHandler creates a new segment handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) List(c echo.Context) error {
	if status := c.QueryParam("status"); status != "" {
		segs := h.manager.ListByStatus(models.SegmentStatus(status))
		return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"segments": segs})
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"segments": h.manager.ListAll()})
}

func (h *Handler) Get(c echo.Context) error {
	seg, ok := h.manager.Get(c.Param("segmentId"))
	if !ok {
		return utils.RespondWithError(c, http.StatusNotFound, "segment not found")
	}
	return utils.RespondWithJSON(c, http.StatusOK, seg)
}

func (h *Handler) Upsert(c echo.Context) error {
	var req models.UpsertSegmentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	seg := h.manager.Upsert(req.From, req.To)
	return utils.RespondWithJSON(c, http.StatusOK, seg)
}

func (h *Handler) Remove(c echo.Context) error {
	h.manager.Remove(c.Param("segmentId"))
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Recalculate(c echo.Context) error {
	id := c.Param("segmentId")
	seg := h.manager.Recalculate(id)
	if seg.ID == "" {
		return utils.RespondWithError(c, http.StatusNotFound, "segment not found")
	}
	return utils.RespondWithJSON(c, http.StatusAccepted, seg)
}

func (h *Handler) Highlight(c echo.Context) error {
	id := c.Param("segmentId")
	if _, ok := h.manager.Get(id); !ok {
		return utils.RespondWithError(c, http.StatusNotFound, "segment not found")
	}
	h.manager.Highlight(id)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Unhighlight(c echo.Context) error {
	id := c.Param("segmentId")
	if _, ok := h.manager.Get(id); !ok {
		return utils.RespondWithError(c, http.StatusNotFound, "segment not found")
	}
	h.manager.Unhighlight(id)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Status(c echo.Context) error {
	id := c.Param("segmentId")
	if _, ok := h.manager.Get(id); !ok {
		return utils.RespondWithError(c, http.StatusNotFound, "segment not found")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{
		"id":          id,
		"calculating": h.manager.IsCalculating(id),
	})
}
