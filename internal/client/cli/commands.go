package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/client/subscription"
)

const (
	noDate      = "-"
	defaultFlag = "--default"
)

func (a *App) Status(ctx context.Context) error {
	c := a.container
	sub := c.Subscription()
	next := noDate
	if sub.NextBillingAt != nil {
		next = sub.NextBillingAt.Format(subscription.BillingDateLayout)
	}
	u := c.User()

	lines := [][2]string{
		{"mode", string(c.UserMode())},
		{"user", displayUser(u)},
		{"language", c.Language()},
		{"currency", c.Currency()},
		{"country", c.CountryCode()},
		{"onboarded", fmt.Sprint(c.HasCompletedOnboarding())},
		{"plan", sub.Plan.Label()},
		{"next billing", next},
		{"payment methods", fmt.Sprint(len(sub.PaymentMethods))},
	}
	for _, d := range models.FavoriteDomains {
		lines = append(lines, [2]string{"favorites " + string(d), fmt.Sprint(len(c.FavoriteIDs(d)))})
	}
	lines = append(lines, [2]string{"hydrated", fmt.Sprint(c.IsHydrated())})

	for _, l := range lines {
		if _, err := fmt.Fprintf(a.out, "%-20s %s\n", l[0]+":", l[1]); err != nil {
			return err
		}
	}
	return nil
}

func displayUser(u models.UserProfile) string {
	switch {
	case u.DisplayName != "" && u.Email != "":
		return fmt.Sprintf("%s <%s>", u.DisplayName, u.Email)
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	}
	return "(anonymous)"
}

func (a *App) ToggleFavorite(_ context.Context, domain, id string) error {
	d, err := models.ParseFavoriteDomain(domain)
	if err != nil {
		return err
	}
	member, err := a.container.ToggleFavorite(d, id)
	if err != nil {
		return err
	}
	if member {
		fmt.Fprintf(a.out, "%s %s added to favorites\n", d, id)
	} else {
		fmt.Fprintf(a.out, "%s %s removed from favorites\n", d, id)
	}
	return nil
}

// ListFavorites prints one domain, or all of them when domain is empty.
func (a *App) ListFavorites(_ context.Context, domain string) error {
	domains := models.FavoriteDomains
	if domain != "" {
		d, err := models.ParseFavoriteDomain(domain)
		if err != nil {
			return err
		}
		domains = []models.FavoriteDomain{d}
	}
	for _, d := range domains {
		fmt.Fprintf(a.out, "%s: %s\n", d, strings.Join(a.container.FavoriteIDs(d), ", "))
	}
	return nil
}

// SwitchMode switches to target, or toggles when target is empty.
func (a *App) SwitchMode(ctx context.Context, target string) error {
	var next *models.Mode
	if target != "" {
		m := models.Mode(target)
		next = &m
	}
	_, err := a.container.ToggleMode(ctx, next, "cli")
	return err
}

func (a *App) SetLanguage(_ context.Context, tag string) error {
	if err := a.container.SetLanguage(tag); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "language set to %s\n", a.container.Language())
	return nil
}

func (a *App) SetCurrency(_ context.Context, code string) error {
	if err := a.container.SetCurrency(code); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "currency set to %s\n", a.container.Currency())
	return nil
}

func (a *App) SetCountry(_ context.Context, code string) error {
	if err := a.container.SetCountry(code); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "country set to %s\n", a.container.CountryCode())
	return nil
}

func (a *App) CompleteOnboarding(context.Context) error {
	a.container.CompleteOnboarding()
	fmt.Fprintln(a.out, "onboarding completed")
	return nil
}

// UpdateUser sets one profile field: name, email, avatar or provider.
func (a *App) UpdateUser(_ context.Context, field, value string) error {
	u := a.container.User()
	switch field {
	case "name":
		u.DisplayName = value
	case "email":
		u.Email = value
	case "avatar":
		u.AvatarRef = value
	case "provider":
		u.IsProvider = value == "true" || value == "yes"
	default:
		return fmt.Errorf("unknown profile field %q (name, email, avatar, provider)", field)
	}
	a.container.UpdateUser(u)
	fmt.Fprintf(a.out, "user %s updated\n", field)
	return nil
}

func (a *App) AddPaymentMethod(_ context.Context, args []string) error {
	pm, err := parsePaymentMethod(args)
	if err != nil {
		return err
	}
	pm = a.container.AddPaymentMethod(pm)
	fmt.Fprintf(a.out, "added %s\n", describeMethod(pm))
	return nil
}

func (a *App) RemovePaymentMethod(_ context.Context, id string) error {
	if !a.container.RemovePaymentMethod(id) {
		return fmt.Errorf("no payment method %q", id)
	}
	fmt.Fprintf(a.out, "removed %s\n", id)
	return nil
}

func (a *App) SetDefaultPaymentMethod(_ context.Context, id string) error {
	if !a.container.SetDefaultPaymentMethod(id) {
		return fmt.Errorf("no payment method %q", id)
	}
	fmt.Fprintf(a.out, "default payment method is now %s\n", id)
	return nil
}

func (a *App) ListPaymentMethods(context.Context) error {
	methods := a.container.Subscription().PaymentMethods
	if len(methods) == 0 {
		fmt.Fprintln(a.out, "no payment methods")
		return nil
	}
	for _, pm := range methods {
		fmt.Fprintln(a.out, describeMethod(pm))
	}
	return nil
}

func (a *App) Subscribe(ctx context.Context, plan string) error {
	p, err := models.ParsePlan(plan)
	if err != nil {
		return err
	}
	return a.report(a.container.SubscribeWithDefault(ctx, p))
}

func (a *App) Cancel(context.Context) error {
	return a.report(a.container.CancelSubscription())
}

func (a *App) Reset(ctx context.Context) error {
	a.container.Reset(ctx)
	fmt.Fprintln(a.out, "state reset to defaults")
	return nil
}

// Dump prints every persisted key with its stored value, sorted by key.
func (a *App) Dump(ctx context.Context) error {
	values, err := a.container.Export(ctx)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		fmt.Fprintln(a.out, "nothing persisted")
		return nil
	}
	for _, k := range slices.Sorted(maps.Keys(values)) {
		fmt.Fprintf(a.out, "%s\t%s\n", k, values[k])
	}
	return nil
}

func (a *App) Purge(ctx context.Context) error {
	if err := a.container.Purge(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "persisted state removed")
	return nil
}

func (a *App) report(res subscription.Result) error {
	if !res.OK {
		if res.Err == nil {
			return errors.New(res.Msg)
		}
		return fmt.Errorf("%s (%w)", res.Msg, res.Err)
	}
	fmt.Fprintln(a.out, res.Msg)
	return nil
}

// parsePaymentMethod accepts
//
//	mobile_money <provider> <country> <phone> [currency] [--default]
//	card <last4> [--default]
func parsePaymentMethod(args []string) (models.PaymentMethod, error) {
	var pm models.PaymentMethod
	rest := make([]string, 0, len(args))
	for _, a := range args {
		if a == defaultFlag {
			pm.IsDefault = true
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) == 0 {
		return pm, errors.New("usage: pay add mobile_money <provider> <country> <phone> [currency] | card <last4>")
	}

	switch models.PaymentMethodType(rest[0]) {
	case models.PaymentMobileMoney:
		if len(rest) < 4 || len(rest) > 5 {
			return pm, errors.New("usage: pay add mobile_money <provider> <country> <phone> [currency]")
		}
		pm.Type = models.PaymentMobileMoney
		pm.Provider = rest[1]
		pm.CountryCode = strings.ToUpper(rest[2])
		pm.Phone = rest[3]
		if len(rest) == 5 {
			pm.Currency = strings.ToUpper(rest[4])
		}
	case models.PaymentCard:
		if len(rest) != 2 {
			return pm, errors.New("usage: pay add card <last4>")
		}
		pm.Type = models.PaymentCard
		pm.Last4 = rest[1]
	default:
		return pm, fmt.Errorf("unknown payment method type %q (mobile_money, card)", rest[0])
	}
	return pm, nil
}

func describeMethod(pm models.PaymentMethod) string {
	var b strings.Builder
	b.WriteString(pm.ID)
	b.WriteString(" ")
	switch pm.Type {
	case models.PaymentMobileMoney:
		fmt.Fprintf(&b, "mobile money %s %s %s", pm.Provider, pm.CountryCode, pm.Phone)
		if pm.Currency != "" {
			b.WriteString(" " + pm.Currency)
		}
	case models.PaymentCard:
		fmt.Fprintf(&b, "card ****%s", pm.Last4)
	default:
		b.WriteString(string(pm.Type))
	}
	if pm.IsDefault {
		b.WriteString(" (default)")
	}
	return b.String()
}
