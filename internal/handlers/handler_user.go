package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/dto"
	"github.com/tipbit/tipbit-backend/internal/middleware"
)

// userHandler handles HTTP requests related to users and profiles.
type userHandler struct {
	userService portssvc.UserSvcFacade
}

func newUserHandler(us portssvc.UserSvcFacade) *userHandler {
	return &userHandler{userService: us}
}

// registerUserRoutes registers authenticated user routes.
func registerUserRoutes(rg *gin.RouterGroup, userService portssvc.UserSvcFacade) {
	h := newUserHandler(userService)

	users := rg.Group("/users")
	{
		users.GET("/me", h.getMe)
		users.GET("/me/accounts", h.listAuthAccounts)
		users.PATCH("/me/username", h.updateUsername)
		users.PATCH("/me/settings", h.updateSettings)
	}
}

// registerProfileRoutes registers the public profile route.
func registerProfileRoutes(r *gin.Engine, userService portssvc.UserSvcFacade) {
	h := newUserHandler(userService)
	r.GET("/profiles/:username", h.getPublicProfile)
}

// getMe godoc
// @Summary Get the authenticated user
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} apperrors.AppError
// @Security BearerAuth
// @Router /users/me [get]
func (h *userHandler) getMe(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// listAuthAccounts godoc
// @Summary List linked authentication methods
// @Tags users
// @Produce json
// @Success 200 {array} dto.AuthAccountResponse
// @Failure 401 {object} apperrors.AppError
// @Security BearerAuth
// @Router /users/me/accounts [get]
func (h *userHandler) listAuthAccounts(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	accounts, err := h.userService.ListAuthAccounts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// updateUsername godoc
// @Summary Change the authenticated user's handle
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.UpdateUsernameRequest true "New username"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} apperrors.AppError
// @Failure 409 {object} apperrors.AppError "Username already taken"
// @Security BearerAuth
// @Router /users/me/username [patch]
func (h *userHandler) updateUsername(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userService.UpdateUsername(c.Request.Context(), userID, req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// updateSettings godoc
// @Summary Update profile settings
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.UpdateSettingsRequest true "Settings patch"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} apperrors.AppError
// @Security BearerAuth
// @Router /users/me/settings [patch]
func (h *userHandler) updateSettings(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userService.UpdateSettings(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// getPublicProfile godoc
// @Summary Get a public profile
// @Description Private profiles answer 404 for everyone but their owner
// @Tags profiles
// @Produce json
// @Param username path string true "Public handle"
// @Success 200 {object} dto.PublicProfileResponse
// @Failure 404 {object} apperrors.AppError
// @Router /profiles/{username} [get]
func (h *userHandler) getPublicProfile(c *gin.Context) {
	// requester is empty for anonymous visitors; owners of private profiles
	// see themselves through /users/me
	requesterID, _ := middleware.GetUserIDFromContext(c)

	profile, err := h.userService.GetPublicProfile(c.Request.Context(), c.Param("username"), requesterID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
