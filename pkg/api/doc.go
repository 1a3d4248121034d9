// Package api wires the HTTP surface of the auth service: session and
// account endpoints, the organization directory, the SSO routes, and the
// operational endpoints (health, metrics).
//
// All endpoints speak JSON. Errors use the envelope from pkg/httputil, which
// carries an error kind so SDK clients can rebuild typed errors.
package api
