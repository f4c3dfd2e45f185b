// Package common contains shared constants and sentinel errors used across
// appstate components.
package common

// AppName is used as the default namespace for persisted keys and as the
// event source of changes triggered from the CLI.
const AppName = "appstate"

// DefaultSQLitePath is the on-device state file used by the sqlite backend.
const DefaultSQLitePath = "appstate.db"
