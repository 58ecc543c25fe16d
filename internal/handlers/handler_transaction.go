package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/rideledger/ride_billing_app/internal/core/ports/services"
	"github.com/rideledger/ride_billing_app/internal/dto"
	"github.com/rideledger/ride_billing_app/internal/middleware"
)

// transactionHandler handles HTTP requests that post to and read the ledger.
type transactionHandler struct {
	transactionService portssvc.TransactionSvcFacade
}

func newTransactionHandler(ts portssvc.TransactionSvcFacade) *transactionHandler {
	return &transactionHandler{transactionService: ts}
}

// registerTransactionRoutes registers ledger posting and listing routes.
func registerTransactionRoutes(rg *gin.RouterGroup, transactionService portssvc.TransactionSvcFacade) {
	h := newTransactionHandler(transactionService)

	accounts := rg.Group("/accounts/:accountID")
	{
		accounts.POST("/charges", h.postRideCharge)
		accounts.POST("/payments", h.postPayment)
		accounts.GET("/entries", h.listEntries)
	}
}

// postRideCharge records a completed ride against the account. The rideID is
// the idempotency key: replaying the same charge returns 409 with the
// DUPLICATE_TRANSACTION code rather than double-billing.
func (h *transactionHandler) postRideCharge(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	var req dto.RideChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostRideCharge", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("account_id", accountID), slog.String("ride_id", req.RideID))
	logger.Info("Received request to post ride charge")

	entries, err := h.transactionService.PostRideCharge(c.Request.Context(), tenantID, accountID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to post ride charge")
		return
	}

	logger.Info("Ride charge posted", slog.Int("entry_count", len(entries)))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(entries))
}

// postPayment records a payment received against the account. The
// paymentReference is the idempotency key.
func (h *transactionHandler) postPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("account_id", accountID), slog.String("payment_reference", req.PaymentReference))
	logger.Info("Received request to post payment")

	entries, err := h.transactionService.PostPayment(c.Request.Context(), tenantID, accountID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to post payment")
		return
	}

	logger.Info("Payment posted", slog.Int("entry_count", len(entries)))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(entries))
}

// listEntries retrieves a token-paginated page of the account's ledger
// entries, newest first.
func (h *transactionHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.transactionService.ListEntriesByAccount(c.Request.Context(), tenantID, accountID, params)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list ledger entries")
		return
	}

	c.JSON(http.StatusOK, resp)
}
