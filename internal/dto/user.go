package dto

import (
	"github.com/tipbit/tipbit-backend/internal/core/domain"
)

// UserResponse is the public-safe projection of a user, also used as the
// session payload.
type UserResponse struct {
	ID             string                `json:"id"`
	Identifier     string                `json:"identifier"`
	IdentifierType domain.IdentifierType `json:"identifierType"`
	Username       string                `json:"username"`
	DisplayName    string                `json:"displayName"`
	AvatarURL      *string               `json:"avatarUrl,omitempty"`
	Role           domain.Role           `json:"role"`
	IsPublic       bool                  `json:"isPublic"`
}

// ToUserResponse maps a domain user to its public-safe projection.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Identifier:     u.Identifier,
		IdentifierType: u.IdentifierType,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		AvatarURL:      u.AvatarURL,
		Role:           u.Role,
		IsPublic:       u.IsPublic,
	}
}

// PublicProfileResponse is what anonymous visitors see of a public profile.
type PublicProfileResponse struct {
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

// UpdateUsernameRequest changes the caller's public handle.
type UpdateUsernameRequest struct {
	Username string `json:"username" binding:"required"`
}

// UpdateSettingsRequest patches the caller's profile settings. Nil fields are
// left untouched.
type UpdateSettingsRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
}

// AuthAccountResponse lists one linked authentication method.
type AuthAccountResponse struct {
	Provider       domain.AuthProvider `json:"provider"`
	ProviderUserID string              `json:"providerUserID"`
}
