package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/middleware"
	"github.com/tipbit/tipbit-backend/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	pool *pgxpool.Pool,
) {
	registerHomeRoutes(r, pool, cfg.EnableDBCheck)

	// Public authentication surfaces
	registerOAuthRoutes(r, cfg, services)
	registerWebAuthnRoutes(r, services)

	// Public tip-page surfaces
	registerProfileRoutes(r, services.User)
	registerInvoiceRoutes(r, services.Strike)
	registerReceiveRequestRoutes(r, services.Connection, services.Strike)

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the authenticated /api/v1 group.
func setupAPIV1Routes(r *gin.Engine, services *portssvc.ServiceContainer) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(services.Token))

	registerUserRoutes(v1, services.User)
	registerConnectionRoutes(v1, services.Connection)
}
