package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/rideledger/ride_billing_app/internal/core/ports/services"
	"github.com/rideledger/ride_billing_app/internal/middleware"
)

// outboxHandler exposes delivery backlog visibility for operators.
type outboxHandler struct {
	outbox portssvc.OutboxProcessorSvc
}

// registerOutboxRoutes registers the outbox visibility route.
func registerOutboxRoutes(rg *gin.RouterGroup, outbox portssvc.OutboxProcessorSvc) {
	h := &outboxHandler{outbox: outbox}
	rg.GET("/outbox/pending", h.pendingCount)
}

// pendingCount reports how many events still await delivery.
func (h *outboxHandler) pendingCount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	count, err := h.outbox.PendingCount(c.Request.Context())
	if err != nil {
		respondServiceError(c, logger, err, "Failed to count pending events")
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending": count})
}
