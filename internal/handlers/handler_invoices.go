package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	"github.com/tipbit/tipbit-backend/internal/dto"
	"github.com/tipbit/tipbit-backend/internal/gateways/strike"
)

// invoiceHandler exposes the public invoice flow used by tip pages. All calls
// run under the deployment-wide Strike credential; this is the one
// pre-declared public call site for it.
type invoiceHandler struct {
	strikeService *strike.Service
}

func newInvoiceHandler(ss *strike.Service) *invoiceHandler {
	return &invoiceHandler{strikeService: ss}
}

// registerInvoiceRoutes registers public invoice routes.
func registerInvoiceRoutes(r *gin.Engine, strikeService *strike.Service) {
	h := newInvoiceHandler(strikeService)

	invoices := r.Group("/invoices")
	{
		invoices.POST("", h.createInvoice)
		invoices.GET("/:invoiceId", h.getInvoice)
		invoices.POST("/:invoiceId/quote", h.createQuote)
		invoices.POST("/:invoiceId/cancel", h.cancelInvoice)
	}
}

// createInvoice godoc
// @Summary Issue an invoice for a receiver handle
// @Tags invoices
// @Accept json
// @Produce json
// @Param request body dto.CreateInvoiceRequest true "Invoice details"
// @Success 201 {object} strike.Invoice
// @Failure 400 {object} apperrors.AppError
// @Failure 503 {object} apperrors.AppError "Provider unavailable"
// @Router /invoices [post]
func (h *invoiceHandler) createInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if req.Service != string(domain.ServiceStrike) {
		respondError(c, apperrors.NewBadRequestError("invoices are only supported for the strike service"))
		return
	}
	if !req.Amount.IsPositive() {
		respondError(c, apperrors.NewBadRequestError("amount must be positive"))
		return
	}

	invoiceReq := strike.CreateInvoiceRequest{
		CorrelationID: uuid.NewString(),
		Description:   req.Description,
		Amount: strike.Amount{
			Amount:   req.Amount,
			Currency: strike.Currency(strings.ToUpper(req.Currency)),
		},
	}

	var (
		invoice *strike.Invoice
		err     error
	)
	if req.Handle != "" {
		invoice, err = h.strikeService.IssueInvoiceForReceiver(c.Request.Context(), strike.ServiceCredential(), req.Handle, invoiceReq)
	} else {
		invoice, err = h.strikeService.IssueInvoice(c.Request.Context(), strike.ServiceCredential(), invoiceReq)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

// getInvoice godoc
// @Summary Fetch an invoice
// @Tags invoices
// @Produce json
// @Param invoiceId path string true "Invoice id"
// @Success 200 {object} strike.Invoice
// @Failure 404 {object} apperrors.AppError
// @Router /invoices/{invoiceId} [get]
func (h *invoiceHandler) getInvoice(c *gin.Context) {
	invoice, err := h.strikeService.GetInvoice(c.Request.Context(), strike.ServiceCredential(), c.Param("invoiceId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// createQuote godoc
// @Summary Create a Lightning quote for an invoice
// @Tags invoices
// @Produce json
// @Param invoiceId path string true "Invoice id"
// @Success 201 {object} strike.Quote
// @Failure 404 {object} apperrors.AppError
// @Router /invoices/{invoiceId}/quote [post]
func (h *invoiceHandler) createQuote(c *gin.Context) {
	quote, err := h.strikeService.CreateQuote(c.Request.Context(), strike.ServiceCredential(), c.Param("invoiceId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quote)
}

// cancelInvoice godoc
// @Summary Cancel an unpaid invoice
// @Tags invoices
// @Produce json
// @Param invoiceId path string true "Invoice id"
// @Success 200 {object} strike.Invoice
// @Failure 404 {object} apperrors.AppError
// @Router /invoices/{invoiceId}/cancel [post]
func (h *invoiceHandler) cancelInvoice(c *gin.Context) {
	invoice, err := h.strikeService.CancelInvoice(c.Request.Context(), strike.ServiceCredential(), c.Param("invoiceId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}
