package strike

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency supported by the Strike API.
type Currency string

const (
	CurrencyBTC  Currency = "BTC"
	CurrencyUSD  Currency = "USD"
	CurrencyEUR  Currency = "EUR"
	CurrencyUSDT Currency = "USDT"
	CurrencyGBP  Currency = "GBP"
)

// Amount is a decimal monetary amount in a given currency. Strike serializes
// amounts as strings; shopspring/decimal round-trips that representation.
type Amount struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// InvoiceState as reported by Strike.
type InvoiceState string

const (
	InvoiceUnpaid    InvoiceState = "UNPAID"
	InvoicePaid      InvoiceState = "PAID"
	InvoiceCancelled InvoiceState = "CANCELLED"
	InvoiceExpired   InvoiceState = "EXPIRED"
)

// CreateInvoiceRequest is the body for issuing an invoice.
type CreateInvoiceRequest struct {
	CorrelationID string `json:"correlationId"`
	Description   string `json:"description"`
	Amount        Amount `json:"amount"`
}

// Invoice is Strike's invoice resource.
type Invoice struct {
	InvoiceID     string       `json:"invoiceId"`
	CorrelationID string       `json:"correlationId"`
	Description   string       `json:"description"`
	Amount        Amount       `json:"amount"`
	State         InvoiceState `json:"state"`
	Created       time.Time    `json:"created"`
	LnInvoice     string       `json:"lnInvoice,omitempty"`
}

// CreateQuoteRequest is the body for creating a quote for an invoice.
type CreateQuoteRequest struct {
	DescriptionHash string `json:"descriptionHash,omitempty"`
}

// ConversionRate between two currencies at quote time.
type ConversionRate struct {
	Amount         decimal.Decimal `json:"amount"`
	SourceCurrency Currency        `json:"sourceCurrency"`
	TargetCurrency Currency        `json:"targetCurrency"`
}

// Quote is Strike's quote resource: a Lightning invoice for paying an invoice.
type Quote struct {
	QuoteID         string         `json:"quoteId"`
	Description     string         `json:"description,omitempty"`
	LnInvoice       string         `json:"lnInvoice"`
	OnchainAddress  string         `json:"onchainAddress,omitempty"`
	Expiration      time.Time      `json:"expiration"`
	ExpirationInSec int64          `json:"expirationInSec"`
	TargetAmount    Amount         `json:"targetAmount"`
	SourceAmount    Amount         `json:"sourceAmount"`
	ConversionRate  ConversionRate `json:"conversionRate"`
}

// SupportedCurrency describes one currency capability of a Strike account.
type SupportedCurrency struct {
	Currency          Currency `json:"currency"`
	IsDefaultCurrency bool     `json:"isDefaultCurrency"`
	IsAvailable       bool     `json:"isAvailable"`
	IsInvoiceable     bool     `json:"isInvoiceable"`
}

// AccountProfile is Strike's public account profile resource.
type AccountProfile struct {
	ID          string              `json:"id"`
	Handle      string              `json:"handle"`
	AvatarURL   string              `json:"avatarUrl,omitempty"`
	Description string              `json:"description,omitempty"`
	CanReceive  bool                `json:"canReceive"`
	Currencies  []SupportedCurrency `json:"currencies"`
}

// Bolt11Params configures the Lightning leg of a receive request. An empty
// struct requests default Lightning config.
type Bolt11Params struct {
	Amount          *Amount `json:"amount,omitempty"`
	Description     string  `json:"description,omitempty"`
	DescriptionHash string  `json:"descriptionHash,omitempty"`
	ExpiryInSeconds int64   `json:"expiryInSeconds,omitempty"`
}

// OnchainParams configures the on-chain leg of a receive request.
type OnchainParams struct {
	Amount         *Amount  `json:"amount,omitempty"`
	TargetCurrency Currency `json:"targetCurrency,omitempty"`
}

// CreateReceiveRequest is the body for creating a receive request.
type CreateReceiveRequest struct {
	Bolt11  *Bolt11Params  `json:"bolt11,omitempty"`
	Onchain *OnchainParams `json:"onchain,omitempty"`
}

// ReceiveRequestBolt11 is the Lightning leg of a created receive request.
type ReceiveRequestBolt11 struct {
	Invoice         string           `json:"invoice"`
	RequestedAmount *Amount          `json:"requestedAmount,omitempty"`
	BtcAmount       *decimal.Decimal `json:"btcAmount,omitempty"`
	Description     string           `json:"description,omitempty"`
	DescriptionHash string           `json:"descriptionHash,omitempty"`
	PaymentHash     string           `json:"paymentHash"`
	Expires         time.Time        `json:"expires"`
}

// ReceiveRequestOnchain is the on-chain leg of a created receive request.
type ReceiveRequestOnchain struct {
	Address         string           `json:"address"`
	AddressURI      string           `json:"addressUri"`
	RequestedAmount *Amount          `json:"requestedAmount,omitempty"`
	BtcAmount       *decimal.Decimal `json:"btcAmount,omitempty"`
}

// ReceiveRequest is Strike's receive-request resource.
type ReceiveRequest struct {
	ReceiveRequestID string                 `json:"receiveRequestId"`
	Created          time.Time              `json:"created"`
	TargetCurrency   Currency               `json:"targetCurrency,omitempty"`
	Bolt11           *ReceiveRequestBolt11  `json:"bolt11,omitempty"`
	Onchain          *ReceiveRequestOnchain `json:"onchain,omitempty"`
}
