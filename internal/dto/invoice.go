package dto

import (
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest issues an invoice through a payment provider. Handle,
// when set, issues the invoice on behalf of that receiver handle using the
// deployment-wide credential (the pre-declared public tip-page flow).
type CreateInvoiceRequest struct {
	Service     string          `json:"service" binding:"required"`
	Handle      string          `json:"handle,omitempty"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"required"`
	Description string          `json:"description,omitempty"`
}

// CreateReceiveRequestRequest creates a receive request against a specific
// payment connection. This endpoint is public (tip pages), so the connection id
// is the only scoping input; the connection must hold its own API key.
type CreateReceiveRequestRequest struct {
	ConnectionID string          `json:"connectionId" binding:"required,uuid"`
	Bolt11       *Bolt11Request  `json:"bolt11,omitempty"`
	Onchain      *OnchainRequest `json:"onchain,omitempty"`
}

// Bolt11Request configures the Lightning leg of a receive request.
type Bolt11Request struct {
	Amount          *AmountRequest `json:"amount,omitempty"`
	Description     string         `json:"description,omitempty" binding:"omitempty,max=250"`
	ExpiryInSeconds int64          `json:"expiryInSeconds,omitempty"`
}

// OnchainRequest configures the on-chain leg of a receive request.
type OnchainRequest struct {
	Amount         *AmountRequest `json:"amount,omitempty"`
	TargetCurrency string         `json:"targetCurrency,omitempty"`
}

// AmountRequest is a decimal amount plus currency.
type AmountRequest struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency" binding:"required"`
}
