// Package client is the HTTP SDK for the entityauth service. It implements
// the auth.SessionProvider, auth.OrganizationDirectory, and auth.SSOExchange
// contracts against a running server, so the flows package can drive either a
// remote deployment or an in-process fake with the same code.
package client
