// Package cli provides the appstate command-line client.
//
// It is the composition root: it loads configuration, opens the configured
// storage backend, builds the payment gateway and the state container, and
// then either runs a single command or an interactive REPL.
//
// Key features:
//   - status: print the whole container state
//   - favorite / favorites: toggle and list favorites per domain
//   - mode: switch or toggle between user and provider mode
//   - lang / currency / country / onboard / user: preferences and profile
//   - pay add|rm|default|list: manage payment methods
//   - subscribe / cancel: subscription plans charged through mobile money
//   - reset: return everything to defaults
//
// The REPL is the default command; see runREPL for the accepted commands.
package cli
