package updates

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"routeboard/pkg/utils"
)

// Handler handles HTTP requests for the optimistic-update ledger.
type Handler struct {
	ledger *Ledger
}

// NewHandler creates a new update handler.
func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// ListPending returns the overlay of every unsettled update.
func (h *Handler) ListPending(c echo.Context) error {
	pending, err := h.ledger.ListPending(c.Request().Context())
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, pending)
}

// PurgeSettled drops every completed and failed entry from the ledger.
func (h *Handler) PurgeSettled(c echo.Context) error {
	if err := h.ledger.PurgeSettled(c.Request().Context()); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Reset empties the ledger entirely. Used right before a caller forces a
// full resynchronization from the durable store.
func (h *Handler) Reset(c echo.Context) error {
	if err := h.ledger.ResetAll(c.Request().Context()); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
