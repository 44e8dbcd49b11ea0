package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/platform/config"
)

// userFetcher turns an exchanged token into normalized provider data.
type userFetcher func(ctx context.Context, client *http.Client, token *oauth2.Token) (domain.OAuthProviderData, error)

// oauthProviderService is one configured provider: an oauth2 config plus the
// provider-specific user info fetch.
type oauthProviderService struct {
	provider  domain.AuthProvider
	oauth2Cfg *oauth2.Config
	usePKCE   bool
	fetchUser userFetcher
}

var _ portssvc.OAuthProviderSvc = (*oauthProviderService)(nil)

func (s *oauthProviderService) Provider() domain.AuthProvider {
	return s.provider
}

func (s *oauthProviderService) AuthCodeURL(state string, verifier string) string {
	if s.usePKCE {
		return s.oauth2Cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	}
	return s.oauth2Cfg.AuthCodeURL(state)
}

func (s *oauthProviderService) ResolveUser(ctx context.Context, code string, verifier string) (domain.OAuthProviderData, error) {
	var opts []oauth2.AuthCodeOption
	if s.usePKCE {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	token, err := s.oauth2Cfg.Exchange(ctx, code, opts...)
	if err != nil {
		return domain.OAuthProviderData{}, fmt.Errorf("failed to exchange %s oauth code: %w", s.provider, err)
	}
	return s.fetchUser(ctx, s.oauth2Cfg.Client(ctx, token), token)
}

// oauthService is the provider registry.
type oauthService struct {
	providers map[string]portssvc.OAuthProviderSvc
}

// NewOAuthService builds the registry from config. Providers without a client
// id are left out and resolve as unknown.
func NewOAuthService(cfg *config.Config) portssvc.OAuthSvcFacade {
	svc := &oauthService{providers: make(map[string]portssvc.OAuthProviderSvc)}

	register := func(p portssvc.OAuthProviderSvc, clientID string) {
		if clientID != "" {
			svc.providers[string(p.Provider())] = p
		}
	}

	register(newGitHubProvider(cfg.GitHub), cfg.GitHub.ClientID)
	register(newGoogleProvider(cfg.Google), cfg.Google.ClientID)
	register(newXProvider(cfg.X), cfg.X.ClientID)
	register(newTwitchProvider(cfg.Twitch), cfg.Twitch.ClientID)

	return svc
}

var _ portssvc.OAuthSvcFacade = (*oauthService)(nil)

func (s *oauthService) Provider(name string) (portssvc.OAuthProviderSvc, bool) {
	p, ok := s.providers[name]
	return p, ok
}

func newGitHubProvider(pc config.OAuthProviderConfig) portssvc.OAuthProviderSvc {
	return &oauthProviderService{
		provider: domain.ProviderGitHub,
		oauth2Cfg: &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoints.GitHub,
		},
		fetchUser: fetchGitHubUser,
	}
}

func newGoogleProvider(pc config.OAuthProviderConfig) portssvc.OAuthProviderSvc {
	p := &oauthProviderService{
		provider: domain.ProviderGoogle,
		oauth2Cfg: &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
	p.fetchUser = func(ctx context.Context, _ *http.Client, token *oauth2.Token) (domain.OAuthProviderData, error) {
		return fetchGoogleUser(ctx, token, pc.ClientID)
	}
	return p
}

func newXProvider(pc config.OAuthProviderConfig) portssvc.OAuthProviderSvc {
	return &oauthProviderService{
		provider: domain.ProviderX,
		oauth2Cfg: &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURL,
			Scopes:       []string{"users.read", "tweet.read"},
			Endpoint:     endpoints.X,
		},
		usePKCE:   true,
		fetchUser: fetchXUser,
	}
}

func newTwitchProvider(pc config.OAuthProviderConfig) portssvc.OAuthProviderSvc {
	p := &oauthProviderService{
		provider: domain.ProviderTwitch,
		oauth2Cfg: &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURL,
			Scopes:       []string{"user:read:email"},
			Endpoint:     endpoints.Twitch,
		},
	}
	p.fetchUser = func(ctx context.Context, client *http.Client, token *oauth2.Token) (domain.OAuthProviderData, error) {
		return fetchTwitchUser(ctx, client, pc.ClientID)
	}
	return p
}

func fetchGitHubUser(ctx context.Context, client *http.Client, _ *oauth2.Token) (domain.OAuthProviderData, error) {
	var ghUser struct {
		ID        int64   `json:"id"`
		Login     string  `json:"login"`
		Name      string  `json:"name"`
		AvatarURL *string `json:"avatar_url"`
		Email     string  `json:"email"`
	}
	if err := getJSON(ctx, client, "https://api.github.com/user", &ghUser); err != nil {
		return domain.OAuthProviderData{}, err
	}

	email := ghUser.Email
	if email == "" {
		// the profile email is often hidden; the emails endpoint carries the
		// verified primary
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, "https://api.github.com/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					email = e.Email
					break
				}
			}
		}
	}

	data := domain.OAuthProviderData{
		ProviderID:     fmt.Sprintf("%d", ghUser.ID),
		Provider:       domain.ProviderGitHub,
		DisplayName:    ghUser.Name,
		AvatarURL:      ghUser.AvatarURL,
		Handle:         ghUser.Login,
		Identifier:     email,
		IdentifierType: domain.IdentifierEmail,
	}
	if data.DisplayName == "" {
		data.DisplayName = ghUser.Login
	}
	if data.Identifier == "" {
		data.Identifier = "github:" + ghUser.Login
		data.IdentifierType = domain.IdentifierUsername
	}
	return data, nil
}

func fetchGoogleUser(ctx context.Context, token *oauth2.Token, clientID string) (domain.OAuthProviderData, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return domain.OAuthProviderData{}, fmt.Errorf("google token response missing id_token")
	}
	payload, err := idtoken.Validate(ctx, rawIDToken, clientID)
	if err != nil {
		return domain.OAuthProviderData{}, fmt.Errorf("failed to validate google id token: %w", err)
	}

	claimString := func(key string) string {
		v, _ := payload.Claims[key].(string)
		return v
	}

	email := claimString("email")
	if email == "" {
		return domain.OAuthProviderData{}, fmt.Errorf("google id token has no email claim")
	}

	data := domain.OAuthProviderData{
		ProviderID:     payload.Subject,
		Provider:       domain.ProviderGoogle,
		DisplayName:    claimString("name"),
		Identifier:     email,
		IdentifierType: domain.IdentifierEmail,
	}
	if picture := claimString("picture"); picture != "" {
		data.AvatarURL = &picture
	}
	if data.DisplayName == "" {
		data.DisplayName = email
	}
	return data, nil
}

func fetchXUser(ctx context.Context, client *http.Client, _ *oauth2.Token) (domain.OAuthProviderData, error) {
	var resp struct {
		Data struct {
			ID              string  `json:"id"`
			Name            string  `json:"name"`
			Username        string  `json:"username"`
			ProfileImageURL *string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := getJSON(ctx, client, "https://api.x.com/2/users/me?user.fields=profile_image_url", &resp); err != nil {
		return domain.OAuthProviderData{}, err
	}

	data := domain.OAuthProviderData{
		ProviderID:  resp.Data.ID,
		Provider:    domain.ProviderX,
		DisplayName: resp.Data.Name,
		AvatarURL:   resp.Data.ProfileImageURL,
		Handle:      resp.Data.Username,
		// X never shares email addresses; the provider-scoped handle is the
		// login identifier
		Identifier:     "x:" + resp.Data.Username,
		IdentifierType: domain.IdentifierUsername,
	}
	if data.DisplayName == "" {
		data.DisplayName = resp.Data.Username
	}
	return data, nil
}

func fetchTwitchUser(ctx context.Context, client *http.Client, clientID string) (domain.OAuthProviderData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.twitch.tv/helix/users", nil)
	if err != nil {
		return domain.OAuthProviderData{}, err
	}
	// helix requires the app's client id alongside the bearer token
	req.Header.Set("Client-Id", clientID)

	httpResp, err := client.Do(req)
	if err != nil {
		return domain.OAuthProviderData{}, fmt.Errorf("failed to fetch twitch user: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return domain.OAuthProviderData{}, fmt.Errorf("twitch user fetch returned status %d", httpResp.StatusCode)
	}

	var resp struct {
		Data []struct {
			ID              string `json:"id"`
			Login           string `json:"login"`
			DisplayName     string `json:"display_name"`
			ProfileImageURL string `json:"profile_image_url"`
			Email           string `json:"email"`
		} `json:"data"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return domain.OAuthProviderData{}, fmt.Errorf("failed to decode twitch user response: %w", err)
	}
	if len(resp.Data) == 0 {
		return domain.OAuthProviderData{}, apperrors.NewUnauthorizedError("twitch returned no user for token")
	}

	tw := resp.Data[0]
	data := domain.OAuthProviderData{
		ProviderID:     tw.ID,
		Provider:       domain.ProviderTwitch,
		DisplayName:    tw.DisplayName,
		Handle:         tw.Login,
		Identifier:     tw.Email,
		IdentifierType: domain.IdentifierEmail,
	}
	if tw.ProfileImageURL != "" {
		data.AvatarURL = &tw.ProfileImageURL
	}
	if data.DisplayName == "" {
		data.DisplayName = tw.Login
	}
	if data.Identifier == "" {
		data.Identifier = "twitch:" + tw.Login
		data.IdentifierType = domain.IdentifierUsername
	}
	return data, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("oauth user info request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oauth user info request returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode oauth user info: %w", err)
	}
	return nil
}
