package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	portssvc "github.com/rideledger/ride_billing_app/internal/core/ports/services"
	"github.com/rideledger/ride_billing_app/internal/dto"
	"github.com/rideledger/ride_billing_app/internal/middleware"
)

// accountHandler handles HTTP requests related to billing accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
}

func newAccountHandler(as portssvc.AccountSvcFacade) *accountHandler {
	return &accountHandler{accountService: as}
}

// registerAccountRoutes registers routes related to billing accounts.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade) {
	h := newAccountHandler(accountService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:accountID", h.getAccount)
		accounts.POST("/:accountID/activate", h.activateAccount)
		accounts.POST("/:accountID/deactivate", h.deactivateAccount)
		accounts.GET("/:accountID/balance", h.getBalance)
	}
}

// createAccount creates a new billing account for the caller's tenant.
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	logger.Info("Received request to create account", slog.String("account_name", req.Name))

	account, err := h.accountService.CreateAccount(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create account")
		return
	}

	logger.Info("Account created successfully", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// getAccount retrieves a single account by ID.
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	account, err := h.accountService.GetAccountByID(c.Request.Context(), tenantID, accountID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve account")
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// listAccounts retrieves a token-paginated page of the tenant's accounts.
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListAccounts", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.accountService.ListAccounts(c.Request.Context(), tenantID, params)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list accounts")
		return
	}

	logger.Info("Accounts listed successfully", slog.Int("count", len(resp.Accounts)))
	c.JSON(http.StatusOK, resp)
}

// activateAccount transitions an account to ACTIVE. Idempotent.
func (h *accountHandler) activateAccount(c *gin.Context) {
	h.setStatus(c, true)
}

// deactivateAccount transitions an account to INACTIVE. Idempotent. Inactive
// accounts reject new charges but keep their full history readable.
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	h.setStatus(c, false)
}

func (h *accountHandler) setStatus(c *gin.Context, active bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("target_account_id", accountID))

	change := h.accountService.DeactivateAccount
	if active {
		change = h.accountService.ActivateAccount
	}

	account, err := change(c.Request.Context(), tenantID, accountID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to change account status")
		return
	}

	logger.Info("Account status changed successfully", slog.String("status", string(account.Status)))
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// getBalance computes the account's receivable balance, optionally as of a
// point in time (query param asOf, RFC 3339).
func (h *accountHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	var asOf *time.Time
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			logger.Warn("Invalid asOf parameter", slog.String("asOf", raw))
			c.JSON(http.StatusBadRequest, gin.H{"error": "asOf must be RFC 3339 formatted"})
			return
		}
		asOf = &parsed
	}

	resp := dto.AccountBalanceResponse{AccountID: accountID, AsOf: asOf}
	var err error
	if asOf != nil {
		resp.Balance, err = h.accountService.CalculateReceivableBalanceAsOf(c.Request.Context(), tenantID, accountID, *asOf)
	} else {
		resp.Balance, err = h.accountService.CalculateReceivableBalance(c.Request.Context(), tenantID, accountID)
	}
	if err != nil {
		respondServiceError(c, logger, err, "Failed to calculate balance")
		return
	}

	c.JSON(http.StatusOK, resp)
}
