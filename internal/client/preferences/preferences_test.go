package preferences

import (
	"testing"

	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPersister map[string]string

func (m memPersister) Persist(key string, value []byte) { m[key] = string(value) }

func TestPreferences_Defaults(t *testing.T) {
	p := New(nil, nil)

	assert.Equal(t, "fr", p.Language())
	assert.Equal(t, "XOF", p.Currency())
	assert.Equal(t, "SN", p.CountryCode())
	assert.False(t, p.HasCompletedOnboarding())
	assert.Equal(t, models.DefaultUser(), p.User())
}

func TestPreferences_SetLanguageMirrorsIntoUser(t *testing.T) {
	mp := memPersister{}
	p := New(mp, nil)

	require.NoError(t, p.SetLanguage("en"))
	assert.Equal(t, "en", p.Language())
	assert.Equal(t, "en", p.User().Preferences.Language)
	assert.Equal(t, "en", mp[models.KeyLanguage])

	u, err := DecodeUser([]byte(mp[models.KeyUser]))
	require.NoError(t, err)
	assert.Equal(t, "en", u.Preferences.Language)
}

func TestPreferences_SetCurrency(t *testing.T) {
	mp := memPersister{}
	p := New(mp, nil)

	require.NoError(t, p.SetCurrency("XAF"))
	assert.Equal(t, "XAF", p.Currency())
	assert.Equal(t, "XAF", p.User().Preferences.Currency)
	assert.Equal(t, "XAF", mp[models.KeyCurrency])

	require.ErrorIs(t, p.SetCurrency("ZZZ"), common.ErrInvalidCurrency)
	assert.Equal(t, "XAF", p.Currency())
}

func TestPreferences_SetCountry(t *testing.T) {
	mp := memPersister{}
	p := New(mp, nil)

	require.NoError(t, p.SetCountry("cm"))
	assert.Equal(t, "CM", p.CountryCode())
	assert.Contains(t, mp[models.KeyUser], `"countryCode":"CM"`)

	require.ErrorIs(t, p.SetCountry("001"), common.ErrInvalidCountry)
	require.ErrorIs(t, p.SetCountry("not-a-country"), common.ErrInvalidCountry)
	assert.Equal(t, "CM", p.CountryCode())
}

func TestPreferences_InvalidLanguageLeavesStateUntouched(t *testing.T) {
	mp := memPersister{}
	p := New(mp, nil)

	require.ErrorIs(t, p.SetLanguage("not a language!"), common.ErrInvalidLanguage)
	assert.Equal(t, "fr", p.Language())
	assert.Empty(t, mp)
}

func TestPreferences_UpdateUserKeepsLocaleWhenEmpty(t *testing.T) {
	mp := memPersister{}
	p := New(mp, nil)
	require.NoError(t, p.SetCurrency("XAF"))

	p.UpdateUser(models.UserProfile{ID: "u1", DisplayName: "Awa", IsProvider: true})

	u := p.User()
	assert.Equal(t, "u1", u.ID)
	assert.True(t, u.IsProvider)
	assert.Equal(t, models.Preferences{Language: "fr", Currency: "XAF", CountryCode: "SN"}, u.Preferences)

	stored, err := DecodeUser([]byte(mp[models.KeyUser]))
	require.NoError(t, err)
	assert.Equal(t, u, stored)
}

func TestPreferences_CompleteOnboarding(t *testing.T) {
	mp := memPersister{}
	p := New(mp, nil)

	p.CompleteOnboarding()
	assert.True(t, p.HasCompletedOnboarding())
	assert.Equal(t, "true", mp[models.KeyHasCompletedOnboarding])
}

func TestPreferences_RestoreDoesNotPersist(t *testing.T) {
	mp := memPersister{}
	p := New(mp, nil)

	p.RestoreUser(models.UserProfile{ID: "u2"})
	require.NoError(t, p.RestoreLanguage("en"))
	require.NoError(t, p.RestoreCurrency("XAF"))
	p.RestoreOnboarding(true)

	assert.Equal(t, "u2", p.User().ID)
	assert.Equal(t, "en", p.Language())
	assert.Equal(t, "XAF", p.Currency())
	assert.True(t, p.HasCompletedOnboarding())
	assert.Empty(t, mp)

	require.ErrorIs(t, p.RestoreCurrency("???"), common.ErrInvalidCurrency)
}

func TestPreferences_Reset(t *testing.T) {
	mp := memPersister{}
	p := New(mp, nil)
	require.NoError(t, p.SetLanguage("en"))
	p.CompleteOnboarding()

	p.Reset()
	assert.Equal(t, "fr", p.Language())
	assert.False(t, p.HasCompletedOnboarding())
	assert.Equal(t, "false", mp[models.KeyHasCompletedOnboarding])
	assert.Equal(t, "fr", mp[models.KeyLanguage])
}

func TestDecoders(t *testing.T) {
	_, err := DecodeUser([]byte("{"))
	require.ErrorIs(t, err, common.ErrMalformedData)

	done, err := DecodeOnboarding([]byte("true"))
	require.NoError(t, err)
	assert.True(t, done)

	_, err = DecodeOnboarding([]byte("yes please"))
	require.ErrorIs(t, err, common.ErrMalformedData)
}
