package models

// Preferences are the locale settings embedded in a user profile.
type Preferences struct {
	Language    string `json:"language"`
	Currency    string `json:"currency"`
	CountryCode string `json:"countryCode"`
}

// UserProfile is the signed-in user as known to the client. It is overwritten
// as a whole by UpdateUser and never deleted.
type UserProfile struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"displayName"`
	Email       string      `json:"email"`
	AvatarRef   string      `json:"avatarRef"`
	IsProvider  bool        `json:"isProvider"`
	Preferences Preferences `json:"preferences"`
}

// DefaultUser is the anonymous profile used before anything is persisted.
func DefaultUser() UserProfile {
	return UserProfile{
		Preferences: Preferences{
			Language:    DefaultLanguage,
			Currency:    DefaultCurrency,
			CountryCode: DefaultCountry,
		},
	}
}
