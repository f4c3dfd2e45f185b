package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/appstate/internal/common"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanNone       Plan = "none"
	PlanProMonthly Plan = "pro-monthly"
	PlanProYearly  Plan = "pro-yearly"
)

// ParsePlan accepts the paid plans only; "none" is reached by cancelling.
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(s); p {
	case PlanProMonthly, PlanProYearly:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownPlan, s)
}

// Period is the billing period of a paid plan; zero for PlanNone.
func (p Plan) Period() time.Duration {
	switch p {
	case PlanProMonthly:
		return 30 * 24 * time.Hour
	case PlanProYearly:
		return 365 * 24 * time.Hour
	}
	return 0
}

// Label is the human-readable plan name.
func (p Plan) Label() string {
	switch p {
	case PlanProMonthly:
		return "Pro (monthly)"
	case PlanProYearly:
		return "Pro (yearly)"
	}
	return "Free"
}

// Subscription is the billing state. Plan == PlanNone implies a nil
// NextBillingAt.
type Subscription struct {
	Plan           Plan            `json:"plan"`
	NextBillingAt  *time.Time      `json:"nextBillingAt"`
	PaymentMethods []PaymentMethod `json:"paymentMethods"`
}

// DefaultSubscription is the state of a user who never subscribed.
func DefaultSubscription() Subscription {
	return Subscription{Plan: PlanNone, PaymentMethods: []PaymentMethod{}}
}

// Active reports whether a paid plan is in effect.
func (s Subscription) Active() bool {
	return s.Plan != PlanNone && s.Plan != ""
}

// Clone returns a deep copy safe to hand out to callers.
func (s Subscription) Clone() Subscription {
	out := Subscription{Plan: s.Plan, PaymentMethods: make([]PaymentMethod, len(s.PaymentMethods))}
	copy(out.PaymentMethods, s.PaymentMethods)
	if s.NextBillingAt != nil {
		t := *s.NextBillingAt
		out.NextBillingAt = &t
	}
	return out
}
