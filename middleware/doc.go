// Package middleware adapts the authgate engine to net/http.
//
//   - [RequestContext] copies the declared tenant header, client IP and user
//     agent into the request context.
//   - [Guard] requires a tenant and a valid bearer token, then injects the
//     [authgate.Principal] ([PrincipalFromContext]).
//   - [WriteError] renders engine errors as JSON with a stable code and status.
//
// The package makes no authentication decisions of its own; everything is
// delegated to the engine.
package middleware
