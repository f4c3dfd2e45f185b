// Package subscription runs the plan state machine and keeps the saved
// payment methods.
package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/client/payments"
	"github.com/dmitrijs2005/appstate/internal/common"
	"github.com/dmitrijs2005/appstate/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BillingDateLayout formats next billing dates in result messages.
const BillingDateLayout = "02 Jan 2006"

// Messages returned in Result.Msg.
const (
	MsgPaymentFailed        = "Payment failed. Please try again."
	MsgMissingDefaultMethod = "Add a default payment method before subscribing."
	MsgUnsupportedMethod    = "Only mobile money can be charged for subscriptions."
	MsgUnknownPlan          = "This plan is not available."
	MsgCancelled            = "Your subscription has been cancelled."
)

// Persister schedules a write-through of a serialized value.
type Persister interface {
	Persist(key string, value []byte)
}

// Result is the outcome of a subscription action as shown to the user.
// Err is set when OK is false and matches the common sentinels.
type Result struct {
	OK  bool
	Msg string
	Err error
}

// Options configures a Manager.
type Options struct {
	Gateway   payments.Gateway
	Persister Persister
	Logger    logging.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// StrictCharging refuses to activate plans with a default method that
	// cannot be charged. Otherwise such activations are granted and logged.
	StrictCharging bool
	// Language selects number formatting in messages. Default English.
	Language language.Tag
	// Guard is held while a subscribe attempt mutates state, never across
	// the gateway call. It returns the release function.
	Guard func() (release func())
}

// Manager owns the Subscription value.
type Manager struct {
	mu  sync.Mutex
	sub models.Subscription

	// charging serializes subscribe attempts; mu is not held during the
	// gateway call.
	charging sync.Mutex

	gateway payments.Gateway
	persist Persister
	now     func() time.Time
	strict  bool
	printer *message.Printer
	guard   func() func()
	log     logging.Logger
}

func NewManager(opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	tag := opts.Language
	if tag == language.Und {
		tag = language.English
	}
	guard := opts.Guard
	if guard == nil {
		guard = func() func() { return func() {} }
	}
	return &Manager{
		sub:     models.DefaultSubscription(),
		guard:   guard,
		gateway: opts.Gateway,
		persist: opts.Persister,
		now:     now,
		strict:  opts.StrictCharging,
		printer: message.NewPrinter(tag),
		log:     logging.OrNop(opts.Logger).With("component", "subscription"),
	}
}

// Snapshot returns a copy of the current subscription.
func (m *Manager) Snapshot() models.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sub.Clone()
}

// DefaultPaymentMethod returns the default method, if any.
func (m *Manager) DefaultPaymentMethod() (models.PaymentMethod, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return defaultOf(m.sub.PaymentMethods)
}

func defaultOf(methods []models.PaymentMethod) (models.PaymentMethod, bool) {
	for _, pm := range methods {
		if pm.IsDefault {
			return pm, true
		}
	}
	return models.PaymentMethod{}, false
}

// SubscribeWithDefault charges the default payment method for plan and
// activates it on success. Nothing changes unless the charge succeeds.
func (m *Manager) SubscribeWithDefault(ctx context.Context, plan models.Plan) Result {
	amount, err := payments.TariffFor(plan)
	if err != nil {
		return Result{Msg: MsgUnknownPlan, Err: err}
	}

	m.charging.Lock()
	defer m.charging.Unlock()

	pm, ok := m.DefaultPaymentMethod()
	if !ok {
		return Result{Msg: MsgMissingDefaultMethod, Err: common.ErrMissingDefaultPaymentMethod}
	}
	cur := payments.ResolveCurrency(pm)

	if pm.Type != models.PaymentMobileMoney {
		if m.strict {
			return Result{
				Msg: MsgUnsupportedMethod,
				Err: fmt.Errorf("%w: %s", common.ErrUnsupportedPaymentMethod, pm.Type),
			}
		}
		m.log.Warn(ctx, "activating plan without charging", "plan", plan, "method_type", pm.Type, "method_id", pm.ID)
		return m.activate(plan, amount, cur.String(), false)
	}

	req := payments.ChargeRequest{
		Provider:    pm.Provider,
		CountryCode: pm.CountryCode,
		Phone:       pm.Phone,
		Amount:      amount,
		Currency:    cur.String(),
		Description: "Subscription " + plan.Label(),
		Reference:   uuid.NewString(),
	}

	res, err := m.charge(ctx, req)
	if err != nil {
		m.log.Warn(ctx, "charge failed", "plan", plan, "reference", req.Reference, "error", err)
		return Result{Msg: MsgPaymentFailed, Err: errors.Join(common.ErrPaymentDeclined, err)}
	}
	if res.Status != payments.StatusSuccess {
		m.log.Info(ctx, "charge declined", "plan", plan, "reference", req.Reference, "reason", res.Reason)
		msg := res.Reason
		if msg == "" {
			msg = MsgPaymentFailed
		}
		return Result{Msg: msg, Err: common.ErrPaymentDeclined}
	}

	m.log.Info(ctx, "charge succeeded", "plan", plan, "reference", req.Reference, "transaction_id", res.TransactionID)
	return m.activate(plan, amount, cur.String(), true)
}

func (m *Manager) charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	if m.gateway == nil {
		return payments.ChargeResult{}, fmt.Errorf("%w: no gateway configured", common.ErrGatewayUnavailable)
	}
	return m.gateway.ChargeMobileMoney(ctx, req)
}

func (m *Manager) activate(plan models.Plan, amount int64, cur string, charged bool) Result {
	release := m.guard()
	m.mu.Lock()
	next := m.now().Add(plan.Period())
	m.sub.Plan = plan
	m.sub.NextBillingAt = &next
	m.persistLocked()
	m.mu.Unlock()
	release()

	if !charged {
		return Result{
			OK: true,
			Msg: m.printer.Sprintf("Subscribed to %s. Activated without charge, next billing on %s.",
				plan.Label(), next.Format(BillingDateLayout)),
		}
	}
	return Result{
		OK: true,
		Msg: m.printer.Sprintf("Subscribed to %s. %d %s charged, next billing on %s.",
			plan.Label(), amount, cur, next.Format(BillingDateLayout)),
	}
}

// Cancel drops back to the free plan. Payment methods are kept.
func (m *Manager) Cancel() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sub.Plan = models.PlanNone
	m.sub.NextBillingAt = nil
	m.persistLocked()
	return Result{OK: true, Msg: MsgCancelled}
}

// AddPaymentMethod appends pm, assigning an id when it has none. A method
// with an existing id replaces it. The first method becomes the default,
// and a method flagged default takes the flag from the others.
func (m *Manager) AddPaymentMethod(pm models.PaymentMethod) models.PaymentMethod {
	if pm.ID == "" {
		pm.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	methods := m.sub.PaymentMethods
	replaced := false
	for i := range methods {
		if methods[i].ID == pm.ID {
			methods[i] = pm
			replaced = true
			break
		}
	}
	if !replaced {
		methods = append(methods, pm)
	}
	if pm.IsDefault {
		setExclusiveDefault(methods, pm.ID)
	}
	m.sub.PaymentMethods = repair(methods)
	m.persistLocked()

	for _, v := range m.sub.PaymentMethods {
		if v.ID == pm.ID {
			return v
		}
	}
	return pm
}

// RemovePaymentMethod deletes the method with id. When it was the default,
// the first remaining method is promoted.
func (m *Manager) RemovePaymentMethod(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	methods := m.sub.PaymentMethods
	for i := range methods {
		if methods[i].ID != id {
			continue
		}
		out := make([]models.PaymentMethod, 0, len(methods)-1)
		out = append(out, methods[:i]...)
		out = append(out, methods[i+1:]...)
		m.sub.PaymentMethods = repair(out)
		m.persistLocked()
		return true
	}
	return false
}

// SetDefaultPaymentMethod makes id the only default. Unknown ids change
// nothing.
func (m *Manager) SetDefaultPaymentMethod(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !setExclusiveDefault(m.sub.PaymentMethods, id) {
		return false
	}
	m.persistLocked()
	return true
}

// SetPaymentMethods replaces the list, repairing the default flag.
func (m *Manager) SetPaymentMethods(methods []models.PaymentMethod) {
	out := make([]models.PaymentMethod, len(methods))
	copy(out, methods)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.NewString()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sub.PaymentMethods = repair(out)
	m.persistLocked()
}

// Restore loads persisted state without persisting it back.
func (m *Manager) Restore(sub models.Subscription) error {
	switch sub.Plan {
	case "":
		sub.Plan = models.PlanNone
	case models.PlanNone, models.PlanProMonthly, models.PlanProYearly:
	default:
		return fmt.Errorf("%w: plan %q", common.ErrMalformedData, sub.Plan)
	}

	sub = sub.Clone()
	if sub.Plan == models.PlanNone {
		sub.NextBillingAt = nil
	}
	sub.PaymentMethods = repair(sub.PaymentMethods)

	m.mu.Lock()
	m.sub = sub
	m.mu.Unlock()
	return nil
}

// Reset restores the never-subscribed state and persists it.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sub = models.DefaultSubscription()
	m.persistLocked()
}

func (m *Manager) persistLocked() {
	if m.persist == nil {
		return
	}
	raw, err := Encode(m.sub)
	if err != nil {
		m.log.Error(context.Background(), "failed to encode subscription", "error", err)
		return
	}
	m.persist.Persist(models.KeySubscription, raw)
}

// setExclusiveDefault flags id as default and clears the others. It reports
// false, changing nothing, when id is absent.
func setExclusiveDefault(methods []models.PaymentMethod, id string) bool {
	found := false
	for _, pm := range methods {
		if pm.ID == id {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for i := range methods {
		methods[i].IsDefault = methods[i].ID == id
	}
	return true
}

// repair enforces exactly one default in a non-empty list: the first
// default wins, or the first method when none is flagged.
func repair(methods []models.PaymentMethod) []models.PaymentMethod {
	if methods == nil {
		return []models.PaymentMethod{}
	}
	seen := false
	for i := range methods {
		if methods[i].IsDefault {
			if seen {
				methods[i].IsDefault = false
			}
			seen = true
		}
	}
	if !seen && len(methods) > 0 {
		methods[0].IsDefault = true
	}
	return methods
}

// Encode serializes a subscription.
func Encode(sub models.Subscription) ([]byte, error) {
	if sub.PaymentMethods == nil {
		sub.PaymentMethods = []models.PaymentMethod{}
	}
	return json.Marshal(sub)
}

// Decode parses a persisted subscription.
func Decode(raw []byte) (models.Subscription, error) {
	var sub models.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return models.Subscription{}, fmt.Errorf("%w: subscription: %v", common.ErrMalformedData, err)
	}
	return sub, nil
}
