// crypto package provides the checks for each layer of a DCS request.
//
// these are the per-layer checks (thumbprints, JWS, JWE) - to check a complete
// sign-encrypt-sign envelope use the envelope package.
package crypto
