package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/rideledger/ride_billing_app/internal/core/ports/services"
	"github.com/rideledger/ride_billing_app/internal/dto"
	"github.com/rideledger/ride_billing_app/internal/middleware"
)

// invoiceHandler handles HTTP requests related to invoices.
type invoiceHandler struct {
	invoiceService portssvc.InvoiceSvcFacade
}

func newInvoiceHandler(is portssvc.InvoiceSvcFacade) *invoiceHandler {
	return &invoiceHandler{invoiceService: is}
}

// registerInvoiceRoutes registers invoice generation and retrieval routes.
func registerInvoiceRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade) {
	h := newInvoiceHandler(invoiceService)

	rg.POST("/accounts/:accountID/invoices", h.generateInvoice)
	rg.GET("/accounts/:accountID/invoices", h.listInvoices)
	rg.GET("/invoices/:invoiceNumber", h.getInvoice)
}

// generateInvoice builds an invoice on demand for one account. The body may
// pin an explicit period; otherwise the account's invoicing frequency decides
// it. Rides already billed are never picked up again; if nothing is unbilled
// the response is 404 and no invoice is created.
func (h *invoiceHandler) generateInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	var req dto.GenerateInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for GenerateInvoice", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("account_id", accountID))
	logger.Info("Received request to generate invoice")

	invoice, err := h.invoiceService.GenerateInvoice(c.Request.Context(), tenantID, accountID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to generate invoice")
		return
	}

	logger.Info("Invoice generated",
		slog.String("invoice_number", invoice.InvoiceNumber),
		slog.Int("line_items", len(invoice.LineItems)),
	)
	c.JSON(http.StatusCreated, dto.ToInvoiceResponse(invoice))
}

// listInvoices retrieves all invoices for an account, newest first.
func (h *invoiceHandler) listInvoices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	invoices, err := h.invoiceService.ListInvoicesByAccount(c.Request.Context(), tenantID, accountID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list invoices")
		return
	}

	c.JSON(http.StatusOK, dto.ListInvoicesResponse{Invoices: dto.ToListInvoiceResponse(invoices)})
}

// getInvoice retrieves one invoice, with line items, by its number.
func (h *invoiceHandler) getInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	invoiceNumber := c.Param("invoiceNumber")

	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByNumber(c.Request.Context(), tenantID, invoiceNumber)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve invoice")
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice))
}
