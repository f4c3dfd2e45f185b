package models

import "time"

// Mode is the app-wide persona switch.
type Mode string

const (
	ModeUser     Mode = "user"
	ModeProvider Mode = "provider"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeUser || m == ModeProvider
}

// Opposite returns the other mode.
func (m Mode) Opposite() Mode {
	if m == ModeProvider {
		return ModeUser
	}
	return ModeProvider
}

// ModeChanged is broadcast on every mode switch, including no-op switches.
type ModeChanged struct {
	ID         string    `json:"id"`
	From       Mode      `json:"from"`
	To         Mode      `json:"to"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurredAt"`
}
