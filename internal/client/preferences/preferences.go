// Package preferences holds the user profile and its locale settings.
package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/common"
	"github.com/dmitrijs2005/appstate/internal/logging"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Persister schedules a write-through of a serialized value.
type Persister interface {
	Persist(key string, value []byte)
}

// Preferences guards the profile, language, currency and onboarding flag.
// Language, currency and country are mirrored into the profile.
type Preferences struct {
	mu        sync.RWMutex
	user      models.UserProfile
	language  string
	currency  string
	onboarded bool
	persist   Persister
	log       logging.Logger
}

func New(p Persister, log logging.Logger) *Preferences {
	return &Preferences{
		user:     models.DefaultUser(),
		language: models.DefaultLanguage,
		currency: models.DefaultCurrency,
		persist:  p,
		log:      logging.OrNop(log).With("component", "preferences"),
	}
}

// NormalizeLanguage returns the canonical BCP 47 form of tag.
func NormalizeLanguage(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil || t == language.Und {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidLanguage, tag)
	}
	return t.String(), nil
}

// NormalizeCurrency returns the ISO 4217 code of code.
func NormalizeCurrency(code string) (string, error) {
	u, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidCurrency, code)
	}
	return u.String(), nil
}

// NormalizeCountry returns the ISO 3166-1 alpha-2 code of code.
func NormalizeCountry(code string) (string, error) {
	r, err := language.ParseRegion(code)
	if err != nil || !r.IsCountry() {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidCountry, code)
	}
	return r.String(), nil
}

func (p *Preferences) User() models.UserProfile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user
}

func (p *Preferences) Language() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.language
}

func (p *Preferences) Currency() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currency
}

func (p *Preferences) CountryCode() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user.Preferences.CountryCode
}

func (p *Preferences) HasCompletedOnboarding() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.onboarded
}

// UpdateUser overwrites the profile. Empty locale fields keep their current
// values.
func (p *Preferences) UpdateUser(u models.UserProfile) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.user = p.fillLocked(u)
	p.persistUserLocked()
}

// SetLanguage validates tag, stores it and mirrors it into the profile.
func (p *Preferences) SetLanguage(tag string) error {
	lang, err := NormalizeLanguage(tag)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.language = lang
	p.user.Preferences.Language = lang
	p.persistLocked(models.KeyLanguage, []byte(lang))
	p.persistUserLocked()
	return nil
}

// SetCurrency validates code, stores it and mirrors it into the profile.
func (p *Preferences) SetCurrency(code string) error {
	cur, err := NormalizeCurrency(code)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.currency = cur
	p.user.Preferences.Currency = cur
	p.persistLocked(models.KeyCurrency, []byte(cur))
	p.persistUserLocked()
	return nil
}

// SetCountry validates code and stores it in the profile.
func (p *Preferences) SetCountry(code string) error {
	country, err := NormalizeCountry(code)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.user.Preferences.CountryCode = country
	p.persistUserLocked()
	return nil
}

// CompleteOnboarding marks onboarding as done. It cannot be undone except by
// Reset.
func (p *Preferences) CompleteOnboarding() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.onboarded = true
	p.persistLocked(models.KeyHasCompletedOnboarding, []byte(strconv.FormatBool(true)))
}

// RestoreUser sets the profile from persisted state.
func (p *Preferences) RestoreUser(u models.UserProfile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.user = p.fillLocked(u)
}

// RestoreLanguage sets the language from persisted state.
func (p *Preferences) RestoreLanguage(tag string) error {
	lang, err := NormalizeLanguage(tag)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.language = lang
	p.mu.Unlock()
	return nil
}

// RestoreCurrency sets the currency from persisted state.
func (p *Preferences) RestoreCurrency(code string) error {
	cur, err := NormalizeCurrency(code)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.currency = cur
	p.mu.Unlock()
	return nil
}

// RestoreOnboarding sets the onboarding flag from persisted state.
func (p *Preferences) RestoreOnboarding(done bool) {
	p.mu.Lock()
	p.onboarded = done
	p.mu.Unlock()
}

// Reset returns every value to its default and persists the defaults.
func (p *Preferences) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.user = models.DefaultUser()
	p.language = models.DefaultLanguage
	p.currency = models.DefaultCurrency
	p.onboarded = false

	p.persistUserLocked()
	p.persistLocked(models.KeyLanguage, []byte(p.language))
	p.persistLocked(models.KeyCurrency, []byte(p.currency))
	p.persistLocked(models.KeyHasCompletedOnboarding, []byte(strconv.FormatBool(false)))
}

func (p *Preferences) fillLocked(u models.UserProfile) models.UserProfile {
	if u.Preferences.Language == "" {
		u.Preferences.Language = p.language
	}
	if u.Preferences.Currency == "" {
		u.Preferences.Currency = p.currency
	}
	if u.Preferences.CountryCode == "" {
		u.Preferences.CountryCode = p.user.Preferences.CountryCode
	}
	if u.Preferences.CountryCode == "" {
		u.Preferences.CountryCode = models.DefaultCountry
	}
	return u
}

func (p *Preferences) persistUserLocked() {
	raw, err := EncodeUser(p.user)
	if err != nil {
		p.log.Error(context.Background(), "failed to encode user", "error", err)
		return
	}
	p.persistLocked(models.KeyUser, raw)
}

func (p *Preferences) persistLocked(key string, value []byte) {
	if p.persist != nil {
		p.persist.Persist(key, value)
	}
}

// EncodeUser serializes a profile.
func EncodeUser(u models.UserProfile) ([]byte, error) {
	return json.Marshal(u)
}

// DecodeUser parses a persisted profile.
func DecodeUser(raw []byte) (models.UserProfile, error) {
	var u models.UserProfile
	if err := json.Unmarshal(raw, &u); err != nil {
		return models.UserProfile{}, fmt.Errorf("%w: user: %v", common.ErrMalformedData, err)
	}
	return u, nil
}

// DecodeOnboarding parses the persisted onboarding flag.
func DecodeOnboarding(raw []byte) (bool, error) {
	done, err := strconv.ParseBool(string(raw))
	if err != nil {
		return false, fmt.Errorf("%w: onboarding: %v", common.ErrMalformedData, err)
	}
	return done, nil
}
