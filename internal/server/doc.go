// Package server provides the HTTP conformance service (dcs-check serve).
//
// The server is configured through environment variables (see internal/config).
// Key material is loaded once at start up; every request then runs its own independent check.
//
// Handlers are in internal/server/handlers and middleware is in internal/server/middleware.
package server
