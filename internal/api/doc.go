// Package api defines the request and response bodies of the dcs-check HTTP service and the helpers used to send them.
//
// A check that runs returns 200 with a CheckResponse whether or not the candidate is valid:
// an invalid JOSE object is the expected outcome of a conformance check, not a failed request.
// Requests that cannot be checked (malformed JSON, too large, rate limited) get an ErrorResponse
// with the matching HTTP status.
package api
