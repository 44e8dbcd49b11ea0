package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/middleware"
	"github.com/tipbit/tipbit-backend/internal/platform/config"
	"github.com/tipbit/tipbit-backend/internal/utils"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthVerifierCookie = "oauth_verifier"
	oauthCookieMaxAge   = 600 // seconds
)

// oauthHandler drives the redirect-based OAuth flow for every configured
// provider. CSRF state and the PKCE verifier travel in short-lived HTTP-only
// cookies.
type oauthHandler struct {
	cfg      *config.Config
	oauth    portssvc.OAuthSvcFacade
	resolver portssvc.AccountResolverSvc
	token    portssvc.TokenSvcFacade
}

func newOAuthHandler(cfg *config.Config, services *portssvc.ServiceContainer) *oauthHandler {
	return &oauthHandler{
		cfg:      cfg,
		oauth:    services.OAuth,
		resolver: services.Resolver,
		token:    services.Token,
	}
}

// registerOAuthRoutes registers login and callback routes for all providers.
func registerOAuthRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	h := newOAuthHandler(cfg, services)

	auth := r.Group("/auth")
	{
		auth.GET("/:provider", h.redirectToProvider)
		auth.GET("/:provider/callback", h.callback)
	}
}

// redirectToProvider godoc
// @Summary Start an OAuth login
// @Description Redirects the browser to the provider's consent page
// @Tags auth
// @Param provider path string true "Provider name (github, google, x, twitch)"
// @Success 307
// @Failure 404 {object} apperrors.AppError
// @Router /auth/{provider} [get]
func (h *oauthHandler) redirectToProvider(c *gin.Context) {
	provider, ok := h.oauth.Provider(c.Param("provider"))
	if !ok {
		respondError(c, apperrors.NewNotFoundError("unknown auth provider"))
		return
	}

	state, err := utils.GenerateSecureRandomString(16)
	if err != nil {
		respondError(c, err)
		return
	}
	verifier := oauth2.GenerateVerifier()

	secure := h.cfg.IsProduction
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthCookieMaxAge, "/", "", secure, true)
	c.SetCookie(oauthVerifierCookie, verifier, oauthCookieMaxAge, "/", "", secure, true)

	c.Redirect(http.StatusTemporaryRedirect, provider.AuthCodeURL(state, verifier))
}

// callback godoc
// @Summary Complete an OAuth login
// @Description Exchanges the authorization code, resolves the account, and redirects to the frontend with a session token
// @Tags auth
// @Param provider path string true "Provider name"
// @Param code query string true "Authorization code"
// @Param state query string true "CSRF state"
// @Success 307
// @Failure 401 {object} apperrors.AppError
// @Router /auth/{provider}/callback [get]
func (h *oauthHandler) callback(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	provider, ok := h.oauth.Provider(c.Param("provider"))
	if !ok {
		respondError(c, apperrors.NewNotFoundError("unknown auth provider"))
		return
	}

	state := c.Query("state")
	cookieState, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != cookieState {
		respondError(c, apperrors.NewUnauthorizedError("oauth state mismatch"))
		return
	}
	verifier, _ := c.Cookie(oauthVerifierCookie)

	// single-use cookies
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.cfg.IsProduction, true)
	c.SetCookie(oauthVerifierCookie, "", -1, "/", "", h.cfg.IsProduction, true)

	code := c.Query("code")
	if code == "" {
		respondError(c, apperrors.NewBadRequestError("authorization code missing"))
		return
	}

	data, err := provider.ResolveUser(ctx, code, verifier)
	if err != nil {
		logger.Error("OAuth user resolution failed",
			slog.String("provider", string(provider.Provider())),
			slog.String("error", err.Error()),
		)
		respondError(c, apperrors.NewUnauthorizedError("provider login failed"))
		return
	}

	user, err := h.resolver.ResolveOAuthLogin(ctx, data)
	if err != nil {
		respondError(c, err)
		return
	}

	accessToken, _, err := h.token.GenerateAccessToken(ctx, user)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("OAuth login completed",
		slog.String("provider", string(provider.Provider())),
		slog.String("user_id", user.ID),
	)

	redirect := h.cfg.FrontendBaseURL + "/dashboard#token=" + url.QueryEscape(accessToken)
	c.Redirect(http.StatusTemporaryRedirect, redirect)
}
