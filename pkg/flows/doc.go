// Package flows implements the Entity Auth user-facing workflows: switching
// and creating organizations, editing account fields against a live snapshot
// stream, and saving preferences.
//
// # Overview
//
// Each flow is a small state machine driven by user actions. Flows take
// their provider dependencies as constructor arguments, keep their state
// behind a mutex, and expose it as a plain value via State() so any frontend
// can render it. Provider failures are converted to a single displayable
// message and stored on the state; nothing is retried automatically.
//
// # Concurrency
//
// Each user action runs as one logical task to completion or failure; there
// is no queueing of overlapping actions. Reloads carry a monotonic
// generation number so a slow response from a superseded reload is discarded
// instead of clobbering newer state.
//
// # Related Packages
//
//   - pkg/auth: the provider contract the flows drive
//   - pkg/client: the HTTP provider implementation
package flows
