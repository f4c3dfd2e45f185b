// Package payments is the boundary to the external mobile-money collaborator.
package payments

import "context"

// ChargeStatus is the gateway's verdict on a charge.
type ChargeStatus string

const (
	StatusSuccess  ChargeStatus = "success"
	StatusDeclined ChargeStatus = "declined"
)

// ChargeRequest asks the gateway to debit a mobile-money wallet. Amount is in
// minor units of Currency (XOF and XAF have none).
type ChargeRequest struct {
	Provider    string
	CountryCode string
	Phone       string
	Amount      int64
	Currency    string
	Description string
	Reference   string
}

// ChargeResult is the outcome of a charge that reached the gateway. Reason
// is optional on declines.
type ChargeResult struct {
	Status        ChargeStatus
	Reason        string
	TransactionID string
}

// Gateway charges mobile-money wallets. A declined charge is a result, not an
// error; errors mean the outcome is unknown.
type Gateway interface {
	ChargeMobileMoney(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}
