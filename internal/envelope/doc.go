// Package envelope checks a complete DCS request: a payload signed into an inner JWS,
// encrypted into a JWE, and signed again into an outer JWS.
//
// Verification is a fixed pipeline of three stages run in order:
//
//  1. outer JWS - signed by the client; its payload is the compact JWE
//  2. JWE - encrypted to the service encryption certificate; its plaintext is the compact inner JWS
//  3. inner JWS - signed by the client; its payload is the business payload
//
// The first stage to fail stops the pipeline. The failure is returned as a *StageError naming the stage,
// so the user can tell whether the outer signature, the encryption or the inner signature is at fault.
// The per-stage checks are implemented in the crypto package.
package envelope
