// Package httputil contains shared HTTP plumbing: the JSON error envelope
// with its kind-to-status mapping, request parsing helpers, and common
// middleware.
package httputil
