// Package sso implements sign-in through external OpenID Connect identity
// providers.
//
// Providers are declared in a YAML registry file and instantiated through
// OIDC discovery. The HTTP handlers run the authorization-code flow: the
// start endpoint redirects to the provider with a random state bound to the
// request via cookies, and the callback endpoint exchanges the code, verifies
// the ID token, provisions the user on first sign-in, and issues a token set.
package sso
