package models

import (
	"fmt"

	"github.com/dmitrijs2005/appstate/internal/common"
)

// FavoriteDomain names one of the independent favorite registries.
type FavoriteDomain string

const (
	FavoriteProperty FavoriteDomain = "property"
	FavoriteProvider FavoriteDomain = "provider"
	FavoriteVoyage   FavoriteDomain = "voyage"
	FavoriteVehicle  FavoriteDomain = "vehicle"
)

// FavoriteDomains lists the registries in a stable order.
var FavoriteDomains = []FavoriteDomain{FavoriteProperty, FavoriteProvider, FavoriteVoyage, FavoriteVehicle}

// Key returns the storage key of the domain's set.
func (d FavoriteDomain) Key() string {
	switch d {
	case FavoriteProperty:
		return KeyFavoriteProperties
	case FavoriteProvider:
		return KeyFavoriteProviders
	case FavoriteVoyage:
		return KeyFavoriteVoyages
	case FavoriteVehicle:
		return KeyFavoriteVehicles
	}
	return ""
}

// ParseFavoriteDomain accepts the singular domain name.
func ParseFavoriteDomain(s string) (FavoriteDomain, error) {
	d := FavoriteDomain(s)
	if d.Key() == "" {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidDomain, s)
	}
	return d, nil
}

// FavoriteDomainForKey maps a storage key back to its domain.
func FavoriteDomainForKey(key string) (FavoriteDomain, bool) {
	for _, d := range FavoriteDomains {
		if d.Key() == key {
			return d, true
		}
	}
	return "", false
}
