// Package audit records security-relevant events (sign-ins, session
// revocations, organization and membership changes) to PostgreSQL. Events
// are written asynchronously so audit logging never blocks request handling;
// a full buffer drops events rather than applying backpressure.
package audit
