// Package models defines the client-side state types held by the state
// container and the storage keys they persist under.
package models

// Storage keys. Values are raw strings or JSON documents.
const (
	KeyUserMode               = "userMode"
	KeyUser                   = "user"
	KeyLanguage               = "language"
	KeyHasCompletedOnboarding = "hasCompletedOnboarding"
	KeyCurrency               = "currency"
	KeyFavoriteProperties     = "favoriteProperties"
	KeyFavoriteProviders      = "favoriteProviders"
	KeyFavoriteVoyages        = "favoriteVoyages"
	KeyFavoriteVehicles       = "favoriteVehicles"
	KeySubscription           = "subscription"
)

// AllKeys lists every persisted key in hydration order.
var AllKeys = []string{
	KeyUserMode,
	KeyUser,
	KeyLanguage,
	KeyHasCompletedOnboarding,
	KeyCurrency,
	KeyFavoriteProperties,
	KeyFavoriteProviders,
	KeyFavoriteVoyages,
	KeyFavoriteVehicles,
	KeySubscription,
}

// Defaults applied on first boot and whenever a persisted value is missing
// or unreadable.
const (
	DefaultLanguage = "fr"
	DefaultCurrency = "XOF"
	DefaultCountry  = "SN"
)
