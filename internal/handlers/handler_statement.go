package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/rideledger/ride_billing_app/internal/core/ports/services"
	"github.com/rideledger/ride_billing_app/internal/dto"
	"github.com/rideledger/ride_billing_app/internal/middleware"
)

// statementHandler handles HTTP requests for account statements.
type statementHandler struct {
	statementService portssvc.StatementSvc
}

func newStatementHandler(ss portssvc.StatementSvc) *statementHandler {
	return &statementHandler{statementService: ss}
}

// registerStatementRoutes registers the statement route.
func registerStatementRoutes(rg *gin.RouterGroup, statementService portssvc.StatementSvc) {
	h := newStatementHandler(statementService)
	rg.GET("/accounts/:accountID/statement", h.getStatement)
}

// getStatement builds an account statement for the requested period: opening
// balance the instant before the period, every entry inside it (paged), and
// the closing balance at its end.
func (h *statementHandler) getStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	var params dto.StatementParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for GetStatement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("account_id", accountID))

	statement, err := h.statementService.BuildStatement(c.Request.Context(), tenantID, accountID, params)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to build statement")
		return
	}

	logger.Info("Statement built", slog.Int64("total_count", statement.TotalCount))
	c.JSON(http.StatusOK, dto.ToStatementResponse(statement))
}
