package orders

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"routeboard/pkg/utils"
)

// Handler handles HTTP requests for order snapshots.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new order handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(c echo.Context) error {
	page, limit := utils.GetPageLimit(c)
	orders, total, err := h.svc.ListOrders(c.Request().Context(), page, limit)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}

func (h *Handler) Get(c echo.Context) error {
	order, err := h.svc.GetOrder(c.Request().Context(), c.Param("orderId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, order)
}
