package state

import (
	"context"

	"github.com/dmitrijs2005/appstate/internal/client/events"
	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/client/subscription"
)

func (c *Container) IsHydrated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hydrated
}

func (c *Container) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

func (c *Container) UserMode() models.Mode { return c.mode.Mode() }

func (c *Container) User() models.UserProfile { return c.prefs.User() }

func (c *Container) Language() string { return c.prefs.Language() }

func (c *Container) Currency() string { return c.prefs.Currency() }

func (c *Container) CountryCode() string { return c.prefs.CountryCode() }

func (c *Container) HasCompletedOnboarding() bool { return c.prefs.HasCompletedOnboarding() }

func (c *Container) Subscription() models.Subscription { return c.subs.Snapshot() }

func (c *Container) Filters() models.Filters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filters
}

func (c *Container) HasUnreadNotifications() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unread
}

// FavoriteIDs returns the ids favorited in domain, oldest first.
func (c *Container) FavoriteIDs(domain models.FavoriteDomain) []string { return c.favs.IDs(domain) }

func (c *Container) FavoritePropertyIDs() []string { return c.favs.IDs(models.FavoriteProperty) }

func (c *Container) FavoriteProviderIDs() []string { return c.favs.IDs(models.FavoriteProvider) }

func (c *Container) FavoriteVoyageIDs() []string { return c.favs.IDs(models.FavoriteVoyage) }

func (c *Container) FavoriteVehicleIDs() []string { return c.favs.IDs(models.FavoriteVehicle) }

func (c *Container) UpdateUser(u models.UserProfile) {
	defer c.guard()()
	c.prefs.UpdateUser(u)
}

func (c *Container) SetLanguage(tag string) error {
	defer c.guard()()
	return c.prefs.SetLanguage(tag)
}

func (c *Container) SetCurrency(code string) error {
	defer c.guard()()
	return c.prefs.SetCurrency(code)
}

func (c *Container) SetCountry(code string) error {
	defer c.guard()()
	return c.prefs.SetCountry(code)
}

func (c *Container) CompleteOnboarding() {
	defer c.guard()()
	c.prefs.CompleteOnboarding()
}

// SetFilters replaces the session filters. Filters are never persisted.
func (c *Container) SetFilters(f models.Filters) {
	c.mu.Lock()
	c.filters = f
	c.mu.Unlock()
}

func (c *Container) ResetFilters() {
	c.SetFilters(models.DefaultFilters())
}

func (c *Container) SetHasUnreadNotifications(v bool) {
	c.mu.Lock()
	c.unread = v
	c.mu.Unlock()
}

// ToggleFavorite flips membership of id and returns the new membership.
func (c *Container) ToggleFavorite(domain models.FavoriteDomain, id string) (bool, error) {
	defer c.guard()()
	return c.favs.Toggle(domain, id)
}

func (c *Container) IsFavorite(domain models.FavoriteDomain, id string) bool {
	return c.favs.IsFavorite(domain, id)
}

// SwitchMode activates mode and emits ModeChanged, also when the mode is
// already active. Listeners run after the container's locks are released.
func (c *Container) SwitchMode(ctx context.Context, mode models.Mode, source string) error {
	return c.mode.Switch(ctx, mode, source)
}

// ToggleMode switches to next, or to the other mode when next is nil.
func (c *Container) ToggleMode(ctx context.Context, next *models.Mode, source string) (models.Mode, error) {
	return c.mode.Toggle(ctx, next, source)
}

// OnModeChanged registers fn for every ModeChanged event. The returned
// function unregisters it.
func (c *Container) OnModeChanged(fn events.Listener) (unsubscribe func()) {
	return c.bus.Subscribe(fn)
}

// SubscribeWithDefault charges the default payment method and activates
// plan on success. On failure nothing changes and Msg explains why. Other
// actions proceed while the charge is in flight.
func (c *Container) SubscribeWithDefault(ctx context.Context, plan models.Plan) subscription.Result {
	return c.subs.SubscribeWithDefault(ctx, plan)
}

func (c *Container) CancelSubscription() subscription.Result {
	defer c.guard()()
	return c.subs.Cancel()
}

func (c *Container) AddPaymentMethod(pm models.PaymentMethod) models.PaymentMethod {
	defer c.guard()()
	return c.subs.AddPaymentMethod(pm)
}

func (c *Container) RemovePaymentMethod(id string) bool {
	defer c.guard()()
	return c.subs.RemovePaymentMethod(id)
}

func (c *Container) SetDefaultPaymentMethod(id string) bool {
	defer c.guard()()
	return c.subs.SetDefaultPaymentMethod(id)
}

func (c *Container) SetPaymentMethods(methods []models.PaymentMethod) {
	defer c.guard()()
	c.subs.SetPaymentMethods(methods)
}
