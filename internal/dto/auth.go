package dto

// TokenResponse returns the application JWT after a successful login.
type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// PasskeyRegisterBeginRequest starts a passkey registration ceremony.
type PasskeyRegisterBeginRequest struct {
	Username    string  `json:"userName" binding:"required,min=3,max=50"`
	DisplayName *string `json:"displayName,omitempty"`
}

// PasskeyAuthenticateBeginRequest starts a passkey authentication ceremony.
// Username is optional: discoverable credentials allow usernameless login.
type PasskeyAuthenticateBeginRequest struct {
	Username string `json:"userName,omitempty"`
}

// CeremonyBeginResponse carries the WebAuthn options to the browser plus the
// opaque ceremony id the finish call must echo back.
type CeremonyBeginResponse struct {
	CeremonyID string `json:"ceremonyId"`
	Options    any    `json:"options"`
}
