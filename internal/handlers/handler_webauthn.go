package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/dto"
)

// webauthnHandler drives passkey registration and login ceremonies. Finish
// calls carry the raw WebAuthn response as the request body and the ceremony
// id as a query parameter.
type webauthnHandler struct {
	webauthn portssvc.WebAuthnSvcFacade
	token    portssvc.TokenSvcFacade
}

func newWebAuthnHandler(services *portssvc.ServiceContainer) *webauthnHandler {
	return &webauthnHandler{
		webauthn: services.WebAuthn,
		token:    services.Token,
	}
}

// registerWebAuthnRoutes registers passkey ceremony routes.
func registerWebAuthnRoutes(r *gin.Engine, services *portssvc.ServiceContainer) {
	h := newWebAuthnHandler(services)

	passkey := r.Group("/auth/passkey")
	{
		passkey.POST("/register/begin", h.beginRegistration)
		passkey.POST("/register/finish", h.finishRegistration)
		passkey.POST("/login/begin", h.beginAuthentication)
		passkey.POST("/login/finish", h.finishAuthentication)
	}
}

// beginRegistration godoc
// @Summary Begin passkey registration
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.PasskeyRegisterBeginRequest true "Desired username"
// @Success 200 {object} dto.CeremonyBeginResponse
// @Failure 400 {object} apperrors.AppError
// @Router /auth/passkey/register/begin [post]
func (h *webauthnHandler) beginRegistration(c *gin.Context) {
	var req dto.PasskeyRegisterBeginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.webauthn.BeginRegistration(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// finishRegistration godoc
// @Summary Finish passkey registration
// @Description Verifies the attestation, creates the account, and returns a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param ceremonyId query string true "Ceremony id from the begin call"
// @Success 201 {object} dto.TokenResponse
// @Failure 400 {object} apperrors.AppError
// @Failure 409 {object} apperrors.AppError "Username already taken"
// @Router /auth/passkey/register/finish [post]
func (h *webauthnHandler) finishRegistration(c *gin.Context) {
	ceremonyID := c.Query("ceremonyId")
	if ceremonyID == "" {
		respondError(c, apperrors.NewBadRequestError("ceremonyId is required"))
		return
	}

	user, err := h.webauthn.FinishRegistration(c.Request.Context(), ceremonyID, c.Request)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

// beginAuthentication godoc
// @Summary Begin passkey login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.PasskeyAuthenticateBeginRequest true "Optional username"
// @Success 200 {object} dto.CeremonyBeginResponse
// @Failure 404 {object} apperrors.AppError
// @Router /auth/passkey/login/begin [post]
func (h *webauthnHandler) beginAuthentication(c *gin.Context) {
	var req dto.PasskeyAuthenticateBeginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.webauthn.BeginAuthentication(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// finishAuthentication godoc
// @Summary Finish passkey login
// @Tags auth
// @Accept json
// @Produce json
// @Param ceremonyId query string true "Ceremony id from the begin call"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} apperrors.AppError
// @Router /auth/passkey/login/finish [post]
func (h *webauthnHandler) finishAuthentication(c *gin.Context) {
	ceremonyID := c.Query("ceremonyId")
	if ceremonyID == "" {
		respondError(c, apperrors.NewBadRequestError("ceremonyId is required"))
		return
	}

	user, err := h.webauthn.FinishAuthentication(c.Request.Context(), ceremonyID, c.Request)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *webauthnHandler) respondWithToken(c *gin.Context, status int, user *domain.User) {
	accessToken, _, err := h.token.GenerateAccessToken(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, dto.TokenResponse{
		Token: accessToken,
		User:  dto.ToUserResponse(user),
	})
}
