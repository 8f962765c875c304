// Package handlers provides the HTTP handlers of the dcs-check service:
// the conformance checks (thumbprints, JWS, JWE and the complete envelope)
// and the common infrastructure handlers (health, version).
package handlers
