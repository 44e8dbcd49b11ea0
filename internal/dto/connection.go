package dto

import (
	"encoding/json"
	"time"

	"github.com/tipbit/tipbit-backend/internal/core/domain"
)

// StrikeConnectionResponse is the sanitized Strike detail: the stored
// credential ciphertext is replaced by a presence flag.
type StrikeConnectionResponse struct {
	ID              string    `json:"id"`
	ConnectionID    string    `json:"connectionID"`
	StrikeProfileID string    `json:"strikeProfileID"`
	Handle          string    `json:"handle"`
	HasAPIKey       bool      `json:"hasApiKey"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CoinosConnectionResponse is the sanitized Coinos detail.
type CoinosConnectionResponse struct {
	ID             string    `json:"id"`
	ConnectionID   string    `json:"connectionID"`
	CoinosUsername string    `json:"coinosUsername"`
	HasAPIKey      bool      `json:"hasApiKey"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// AlbyConnectionResponse is the sanitized Alby detail.
type AlbyConnectionResponse struct {
	ID              string    `json:"id"`
	ConnectionID    string    `json:"connectionID"`
	AlbyID          string    `json:"albyID"`
	HasAccessToken  bool      `json:"hasAccessToken"`
	HasRefreshToken bool      `json:"hasRefreshToken"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ConnectionResponse is the outward-facing connection record. It carries no
// credential material in any form, only presence flags.
type ConnectionResponse struct {
	ID          string                    `json:"id"`
	UserID      string                    `json:"userID"`
	ServiceType domain.PaymentServiceType `json:"serviceType"`
	Name        *string                   `json:"name,omitempty"`
	IsEnabled   bool                      `json:"isEnabled"`
	CreatedAt   time.Time                 `json:"createdAt"`
	UpdatedAt   time.Time                 `json:"updatedAt"`

	Strike *StrikeConnectionResponse `json:"strikeConnection,omitempty"`
	Coinos *CoinosConnectionResponse `json:"coinosConnection,omitempty"`
	Alby   *AlbyConnectionResponse   `json:"albyConnection,omitempty"`
}

// SanitizeConnection maps a connection aggregate to its outward-facing shape.
// This is the mandatory step on every read path that leaves the service layer.
func SanitizeConnection(c domain.ConnectionWithDetail) ConnectionResponse {
	resp := ConnectionResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		ServiceType: c.ServiceType,
		Name:        c.Name,
		IsEnabled:   c.IsEnabled,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.Strike != nil {
		resp.Strike = &StrikeConnectionResponse{
			ID:              c.Strike.ID,
			ConnectionID:    c.Strike.ConnectionID,
			StrikeProfileID: c.Strike.StrikeProfileID,
			Handle:          c.Strike.Handle,
			HasAPIKey:       c.Strike.APIKey != nil && *c.Strike.APIKey != "",
			CreatedAt:       c.Strike.CreatedAt,
			UpdatedAt:       c.Strike.UpdatedAt,
		}
	}
	if c.Coinos != nil {
		resp.Coinos = &CoinosConnectionResponse{
			ID:             c.Coinos.ID,
			ConnectionID:   c.Coinos.ConnectionID,
			CoinosUsername: c.Coinos.CoinosUsername,
			HasAPIKey:      c.Coinos.APIKey != "",
			CreatedAt:      c.Coinos.CreatedAt,
			UpdatedAt:      c.Coinos.UpdatedAt,
		}
	}
	if c.Alby != nil {
		resp.Alby = &AlbyConnectionResponse{
			ID:              c.Alby.ID,
			ConnectionID:    c.Alby.ConnectionID,
			AlbyID:          c.Alby.AlbyID,
			HasAccessToken:  c.Alby.AccessToken != "",
			HasRefreshToken: c.Alby.RefreshToken != nil && *c.Alby.RefreshToken != "",
			CreatedAt:       c.Alby.CreatedAt,
			UpdatedAt:       c.Alby.UpdatedAt,
		}
	}
	return resp
}

// SanitizeConnections maps a slice of aggregates.
func SanitizeConnections(cs []domain.ConnectionWithDetail) []ConnectionResponse {
	out := make([]ConnectionResponse, len(cs))
	for i, c := range cs {
		out[i] = SanitizeConnection(c)
	}
	return out
}

// CreateConnectionRequest creates a new payment connection. ServiceData is
// provider-specific; credential fields inside it are transit ciphertext
// produced by the browser.
type CreateConnectionRequest struct {
	ServiceType string          `json:"serviceType" binding:"required"`
	Name        *string         `json:"name,omitempty"`
	ServiceData json.RawMessage `json:"serviceData" binding:"required"`
}

// StrikeServiceDataRequest is the Strike-specific payload of a create request.
type StrikeServiceDataRequest struct {
	StrikeProfileID string  `json:"strikeProfileId" binding:"required"`
	Handle          string  `json:"handle" binding:"required"`
	APIKey          *string `json:"apiKey,omitempty"` // transit ciphertext
}

// CoinosServiceDataRequest is the Coinos-specific payload of a create request.
type CoinosServiceDataRequest struct {
	CoinosUsername string `json:"coinosUsername" binding:"required"`
	APIKey         string `json:"apiKey" binding:"required"` // transit ciphertext
}

// AlbyServiceDataRequest is the Alby-specific payload of a create request.
type AlbyServiceDataRequest struct {
	AlbyID       string  `json:"albyId" binding:"required"`
	AccessToken  string  `json:"accessToken" binding:"required"` // transit ciphertext
	RefreshToken *string `json:"refreshToken,omitempty"`         // transit ciphertext
}

// UpdateConnectionRequest patches a connection. Credential fields are
// tri-state: absent leaves the stored value, JSON null removes it, a string
// replaces it (transit ciphertext).
type UpdateConnectionRequest struct {
	Name        *string                  `json:"name,omitempty"`
	IsEnabled   *bool                    `json:"isEnabled,omitempty"`
	ServiceData *ServiceDataPatchRequest `json:"serviceData,omitempty"`
}

// ServiceDataPatchRequest carries the provider-specific part of an update.
type ServiceDataPatchRequest struct {
	APIKey       json.RawMessage `json:"apiKey,omitempty"`
	AccessToken  *string         `json:"accessToken,omitempty"`
	RefreshToken json.RawMessage `json:"refreshToken,omitempty"`
}

// TriState decodes a raw credential field into its tri-state form: a zero-length
// raw message means "not provided", JSON null means "remove", a JSON string
// means "replace".
func TriState(raw json.RawMessage) (domain.OptionalSecret, error) {
	if len(raw) == 0 {
		return domain.OptionalSecret{}, nil
	}
	if string(raw) == "null" {
		return domain.OptionalSecret{Set: true}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.OptionalSecret{}, err
	}
	return domain.OptionalSecret{Set: true, Value: &s}, nil
}

// ReorderConnectionsRequest replaces the caller's connection priority order.
type ReorderConnectionsRequest struct {
	ConnectionIDs []string `json:"connectionIds" binding:"required,min=1,dive,uuid"`
}

// PriorityResponse is one row of the resulting priority order.
type PriorityResponse struct {
	ConnectionID string `json:"connectionID"`
	Priority     int    `json:"priority"`
}

// StrikeConnectRequest connects (or re-connects) a Strike account.
type StrikeConnectRequest struct {
	Handle       string  `json:"handle" binding:"required"`
	APIKey       *string `json:"apiKey,omitempty"` // transit ciphertext
	Name         *string `json:"name,omitempty"`
	ConnectionID *string `json:"connectionId,omitempty" binding:"omitempty,uuid"`
}
