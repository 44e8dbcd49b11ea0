package domain

import "time"

// PaymentServiceType identifies a payment provider.
type PaymentServiceType string

const (
	ServiceStrike PaymentServiceType = "strike"
	ServiceCoinos PaymentServiceType = "coinos"
	ServiceAlby   PaymentServiceType = "alby"
)

// PaymentServiceTypes lists every supported payment provider.
var PaymentServiceTypes = []PaymentServiceType{ServiceStrike, ServiceCoinos, ServiceAlby}

// IsValidPaymentServiceType reports whether the given string names a supported service.
func IsValidPaymentServiceType(s string) bool {
	for _, t := range PaymentServiceTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// PaymentConnection is a user's link to one payment provider instance.
// Provider-specific detail lives in a sibling record keyed 1:1 by ConnectionID;
// this generic record never stores provider secrets.
type PaymentConnection struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userID"`
	ServiceType PaymentServiceType `json:"serviceType"`
	Name        *string            `json:"name,omitempty"`
	IsEnabled   bool               `json:"isEnabled"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// StrikeConnection is the Strike-specific detail record. APIKey, when present,
// is ciphertext produced by the storage encryption scheme; the plaintext never
// leaves the server boundary toward the browser.
type StrikeConnection struct {
	ID              string    `json:"id"`
	ConnectionID    string    `json:"connectionID"`
	StrikeProfileID string    `json:"strikeProfileID"`
	Handle          string    `json:"handle"`
	APIKey          *string   `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CoinosConnection is the Coinos-specific detail record.
type CoinosConnection struct {
	ID             string    `json:"id"`
	ConnectionID   string    `json:"connectionID"`
	CoinosUsername string    `json:"coinosUsername"`
	APIKey         string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// AlbyConnection is the Alby-specific detail record.
type AlbyConnection struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connectionID"`
	AlbyID       string    `json:"albyID"`
	AccessToken  string    `json:"-"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ConnectionWithDetail is the typed aggregate of a generic connection row and
// its single provider-specific sibling. Exactly one of the detail fields is
// non-nil, matching ServiceType.
type ConnectionWithDetail struct {
	PaymentConnection
	Strike *StrikeConnection `json:"strikeConnection,omitempty"`
	Coinos *CoinosConnection `json:"coinosConnection,omitempty"`
	Alby   *AlbyConnection   `json:"albyConnection,omitempty"`
}

// ConnectionPriority orders a user's payment connections; lower priority wins.
// Rows are fully replaced on reorder, never patched in place.
type ConnectionPriority struct {
	ID           string `json:"id"`
	OwnerID      string `json:"ownerID"`
	ConnectionID string `json:"connectionID"`
	Priority     int    `json:"priority"`
}

// ServiceData is the tagged union of provider-specific connection data
// supplied on create/update. Credential fields hold plaintext at this layer;
// the connection service encrypts for storage before persisting.
type ServiceData interface {
	ServiceType() PaymentServiceType
}

// StrikeServiceData carries Strike connection details.
type StrikeServiceData struct {
	StrikeProfileID string
	Handle          string
	APIKey          *string
}

func (StrikeServiceData) ServiceType() PaymentServiceType { return ServiceStrike }

// CoinosServiceData carries Coinos connection details.
type CoinosServiceData struct {
	CoinosUsername string
	APIKey         string
}

func (CoinosServiceData) ServiceType() PaymentServiceType { return ServiceCoinos }

// AlbyServiceData carries Alby connection details.
type AlbyServiceData struct {
	AlbyID       string
	AccessToken  string
	RefreshToken *string
}

func (AlbyServiceData) ServiceType() PaymentServiceType { return ServiceAlby }

// OptionalSecret distinguishes "not provided" from "remove" for credential
// patches: Set=false leaves the stored credential untouched, Set=true with a
// nil Value removes it, Set=true with a Value replaces it.
type OptionalSecret struct {
	Set   bool
	Value *string
}
