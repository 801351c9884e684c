package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promociones-residenciales/reservas/backend/service"
)

// ReservationHandler exposes reservation records to administrators.
type ReservationHandler struct {
	contracts *service.ContractService
}

func NewReservationHandler(contracts *service.ContractService) *ReservationHandler {
	return &ReservationHandler{contracts: contracts}
}

// Get returns a single reservation
func (h *ReservationHandler) Get(c *gin.Context) {
	reservation, err := h.contracts.Reservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

// Audit returns the audit entries and recorded failures of a reservation
func (h *ReservationHandler) Audit(c *gin.Context) {
	entries, failures, err := h.contracts.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reservation_id": c.Param("id"),
		"entries":        entries,
		"errors":         failures,
	})
}
