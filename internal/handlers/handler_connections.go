package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/dto"
	"github.com/tipbit/tipbit-backend/internal/middleware"
)

// connectionHandler handles HTTP requests for payment connections.
type connectionHandler struct {
	connectionService portssvc.ConnectionSvcFacade
}

func newConnectionHandler(cs portssvc.ConnectionSvcFacade) *connectionHandler {
	return &connectionHandler{connectionService: cs}
}

// registerConnectionRoutes registers authenticated connection routes.
func registerConnectionRoutes(rg *gin.RouterGroup, connectionService portssvc.ConnectionSvcFacade) {
	h := newConnectionHandler(connectionService)

	connections := rg.Group("/connections")
	{
		connections.GET("", h.listConnections)
		connections.POST("", h.createConnection)
		connections.GET("/order", h.listPriorities)
		connections.PUT("/order", h.reorderConnections)
		connections.POST("/strike/connect", h.connectStrike)
		connections.GET("/strike/me", h.getLatestStrike)
		connections.GET("/:id", h.getConnection)
		connections.PATCH("/:id", h.updateConnection)
		connections.DELETE("/:id", h.deleteConnection)
	}
}

func callerID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
	}
	return userID, ok
}

// listConnections godoc
// @Summary List the caller's payment connections
// @Tags connections
// @Produce json
// @Success 200 {array} dto.ConnectionResponse
// @Security BearerAuth
// @Router /connections [get]
func (h *connectionHandler) listConnections(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	conns, err := h.connectionService.ListConnections(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conns)
}

// createConnection godoc
// @Summary Create a payment connection
// @Tags connections
// @Accept json
// @Produce json
// @Param request body dto.CreateConnectionRequest true "Connection details"
// @Success 201 {object} dto.ConnectionResponse
// @Failure 400 {object} apperrors.AppError
// @Security BearerAuth
// @Router /connections [post]
func (h *connectionHandler) createConnection(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	conn, err := h.connectionService.CreateConnection(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conn)
}

// getConnection godoc
// @Summary Get one payment connection
// @Tags connections
// @Produce json
// @Param id path string true "Connection id"
// @Success 200 {object} dto.ConnectionResponse
// @Failure 404 {object} apperrors.AppError
// @Security BearerAuth
// @Router /connections/{id} [get]
func (h *connectionHandler) getConnection(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	conn, err := h.connectionService.GetConnection(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// updateConnection godoc
// @Summary Patch a payment connection
// @Tags connections
// @Accept json
// @Produce json
// @Param id path string true "Connection id"
// @Param request body dto.UpdateConnectionRequest true "Patch"
// @Success 200 {object} dto.ConnectionResponse
// @Failure 404 {object} apperrors.AppError
// @Security BearerAuth
// @Router /connections/{id} [patch]
func (h *connectionHandler) updateConnection(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.UpdateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	conn, err := h.connectionService.UpdateConnection(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// deleteConnection godoc
// @Summary Delete a payment connection
// @Tags connections
// @Param id path string true "Connection id"
// @Success 204
// @Failure 404 {object} apperrors.AppError
// @Security BearerAuth
// @Router /connections/{id} [delete]
func (h *connectionHandler) deleteConnection(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.connectionService.DeleteConnection(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listPriorities godoc
// @Summary Get the caller's connection priority order
// @Tags connections
// @Produce json
// @Success 200 {array} dto.PriorityResponse
// @Security BearerAuth
// @Router /connections/order [get]
func (h *connectionHandler) listPriorities(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	priorities, err := h.connectionService.ListPriorities(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, priorities)
}

// reorderConnections godoc
// @Summary Replace the caller's connection priority order
// @Tags connections
// @Accept json
// @Produce json
// @Param request body dto.ReorderConnectionsRequest true "Connection ids, highest priority first"
// @Success 200 {array} dto.PriorityResponse
// @Failure 400 {object} apperrors.AppError
// @Failure 404 {object} apperrors.AppError
// @Security BearerAuth
// @Router /connections/order [put]
func (h *connectionHandler) reorderConnections(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.ReorderConnectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	priorities, err := h.connectionService.ReorderConnections(c.Request.Context(), userID, req.ConnectionIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, priorities)
}

// connectStrike godoc
// @Summary Connect a Strike account
// @Description Verifies the handle with Strike and creates or refreshes the caller's Strike connection
// @Tags connections
// @Accept json
// @Produce json
// @Param request body dto.StrikeConnectRequest true "Strike handle and optional encrypted API key"
// @Success 200 {object} dto.ConnectionResponse
// @Failure 404 {object} apperrors.AppError "Strike handle not found"
// @Security BearerAuth
// @Router /connections/strike/connect [post]
func (h *connectionHandler) connectStrike(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.StrikeConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	conn, err := h.connectionService.ConnectStrike(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// getLatestStrike godoc
// @Summary Get the caller's newest enabled Strike connection
// @Tags connections
// @Produce json
// @Success 200 {object} dto.ConnectionResponse
// @Failure 404 {object} apperrors.AppError
// @Security BearerAuth
// @Router /connections/strike/me [get]
func (h *connectionHandler) getLatestStrike(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	conn, err := h.connectionService.GetLatestStrikeConnection(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}
