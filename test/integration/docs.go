// Package integration contains end-to-end tests for the dcs-check HTTP service.
//
// The server is started in-process on a free port, configured from environment variables and
// key material files exactly as dcs-check serve is, and the tests call it over HTTP.
//
// These tests assume the crypto and envelope packages are working correctly (tested separately).
// If bugs are introduced in lower-level packages, there will be cascading failures here -
// fix the low-level problems first.
//
//	go test -tags=integration ./test/integration
package integration
