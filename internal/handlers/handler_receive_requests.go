package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/dto"
	"github.com/tipbit/tipbit-backend/internal/gateways/strike"
)

// receiveRequestHandler exposes the public receive-request flow. The target
// connection must carry its own credential; there is deliberately no fallback
// to the deployment-wide key on this path.
type receiveRequestHandler struct {
	connectionService portssvc.ConnectionSvcFacade
	strikeService     *strike.Service
}

func newReceiveRequestHandler(cs portssvc.ConnectionSvcFacade, ss *strike.Service) *receiveRequestHandler {
	return &receiveRequestHandler{
		connectionService: cs,
		strikeService:     ss,
	}
}

// registerReceiveRequestRoutes registers the public receive-request route.
func registerReceiveRequestRoutes(r *gin.Engine, connectionService portssvc.ConnectionSvcFacade, strikeService *strike.Service) {
	h := newReceiveRequestHandler(connectionService, strikeService)
	r.POST("/receive-requests", h.createReceiveRequest)
}

// createReceiveRequest godoc
// @Summary Create a receive request against a payment connection
// @Tags receive-requests
// @Accept json
// @Produce json
// @Param request body dto.CreateReceiveRequestRequest true "Receive request details"
// @Success 201 {object} strike.ReceiveRequest
// @Failure 400 {object} apperrors.AppError
// @Failure 404 {object} apperrors.AppError
// @Router /receive-requests [post]
func (h *receiveRequestHandler) createReceiveRequest(c *gin.Context) {
	var req dto.CreateReceiveRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Bolt11 == nil && req.Onchain == nil {
		respondError(c, apperrors.NewBadRequestError("at least one of bolt11 or onchain is required"))
		return
	}

	encryptedKey, serviceType, err := h.connectionService.EncryptedCredential(c.Request.Context(), req.ConnectionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if serviceType != domain.ServiceStrike {
		respondError(c, apperrors.NewBadRequestError("receive requests are only supported for strike connections"))
		return
	}

	receiveReq := strike.CreateReceiveRequest{}
	if req.Bolt11 != nil {
		receiveReq.Bolt11 = &strike.Bolt11Params{
			Amount:          toStrikeAmount(req.Bolt11.Amount),
			Description:     req.Bolt11.Description,
			ExpiryInSeconds: req.Bolt11.ExpiryInSeconds,
		}
	}
	if req.Onchain != nil {
		receiveReq.Onchain = &strike.OnchainParams{
			Amount:         toStrikeAmount(req.Onchain.Amount),
			TargetCurrency: strike.Currency(strings.ToUpper(req.Onchain.TargetCurrency)),
		}
	}

	created, err := h.strikeService.CreateReceiveRequest(c.Request.Context(), strike.ConnectionCredential(encryptedKey), receiveReq)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func toStrikeAmount(a *dto.AmountRequest) *strike.Amount {
	if a == nil {
		return nil
	}
	return &strike.Amount{
		Amount:   a.Amount,
		Currency: strike.Currency(strings.ToUpper(a.Currency)),
	}
}
