// Package http exposes the schedule service over a JSON HTTP API. Handlers
// are thin adapters: they parse the request, resolve the session token and
// delegate to the application services, which own all authorization and
// business rules.
package http
