package models

// PaymentMethodType is the payment rail of a method.
type PaymentMethodType string

const (
	PaymentMobileMoney PaymentMethodType = "mobile_money"
	PaymentCard        PaymentMethodType = "card"
)

// PaymentMethod is a saved way to pay. Provider, CountryCode, Phone and
// Currency are only meaningful for mobile money.
type PaymentMethod struct {
	ID          string            `json:"id"`
	Type        PaymentMethodType `json:"type"`
	Provider    string            `json:"provider,omitempty"`
	CountryCode string            `json:"countryCode,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Last4       string            `json:"last4,omitempty"`
	IsDefault   bool              `json:"isDefault"`
}
