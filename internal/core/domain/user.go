package domain

import "time"

// Role of a user within the application.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AuthProvider identifies an external OAuth identity provider.
type AuthProvider string

const (
	ProviderGitHub AuthProvider = "github"
	ProviderGoogle AuthProvider = "google"
	ProviderX      AuthProvider = "x"
	ProviderTwitch AuthProvider = "twitch"
)

// AuthProviders lists every supported OAuth provider.
var AuthProviders = []AuthProvider{ProviderGitHub, ProviderGoogle, ProviderX, ProviderTwitch}

// IsValidAuthProvider reports whether the given string names a supported provider.
func IsValidAuthProvider(s string) bool {
	for _, p := range AuthProviders {
		if string(p) == s {
			return true
		}
	}
	return false
}

// IdentifierType describes what kind of login key a user's identifier is.
type IdentifierType string

const (
	IdentifierEmail    IdentifierType = "email"
	IdentifierUsername IdentifierType = "username"
	IdentifierPasskey  IdentifierType = "passkey"
)

// User is the identity root. Identifier is the unique login key (an email or
// a provider-scoped username); Username is the unique public-facing handle,
// distinct from the identifier.
type User struct {
	ID             string         `json:"id"`
	Identifier     string         `json:"identifier"`
	IdentifierType IdentifierType `json:"identifierType"`
	Username       string         `json:"username"`
	DisplayName    string         `json:"displayName"`
	AvatarURL      *string        `json:"avatarUrl,omitempty"`
	Role           Role           `json:"role"`
	IsPublic       bool           `json:"isPublic"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// AuthConnection links one (provider, provider-scoped user id) pair to a user.
// The pair is globally unique; it is the identity-linking key.
type AuthConnection struct {
	ID             string       `json:"id"`
	UserID         string       `json:"userID"`
	Provider       AuthProvider `json:"provider"`
	ProviderUserID string       `json:"providerUserID"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// Credential is a WebAuthn passkey registered by a user. ID is the credential
// id assigned by the authenticator. Counter is the monotonic signature counter;
// a same-or-lower counter on authentication signals possible credential cloning.
type Credential struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userID"`
	PublicKey  []byte    `json:"-"`
	Counter    uint32    `json:"counter"`
	BackedUp   bool      `json:"backedUp"`
	Transports []string  `json:"transports"`
	CreatedAt  time.Time `json:"createdAt"`
}

// OAuthProviderData is the normalized shape of an inbound OAuth login event.
// Provider callback handlers translate their raw payloads into this before
// calling the account resolver; the resolver knows nothing provider-specific.
type OAuthProviderData struct {
	ProviderID     string
	Provider       AuthProvider
	Identifier     string
	IdentifierType IdentifierType
	DisplayName    string
	AvatarURL      *string
	Handle         string // optional hint for the generated username
}
