package envelope

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"log/slog"

	"github.com/information-sharing-networks/dcs-checker/internal/crypto"
	"github.com/information-sharing-networks/dcs-checker/internal/logger"
)

// Input contains the data needed to verify an envelope.
type Input struct {

	// PrivateKey is the service encryption key used to decrypt the JWE
	PrivateKey *rsa.PrivateKey

	// SigningCertificate is the client signing certificate.
	// Both the outer and inner JWS must be signed with its key and carry its thumbprints.
	SigningCertificate *x509.Certificate

	// EncryptionCertificate is the certificate the client encrypted the JWE to.
	// nil = the signing certificate is used (a single certificate setup).
	EncryptionCertificate *x509.Certificate

	// Outer is the compact outer JWS supplied by the user
	Outer string

	// ExpectedPayload is compared with the inner JWS payload when it is not empty
	ExpectedPayload string

	// Profile holds the required header values. The zero value is replaced by crypto.DCSProfile.
	Profile crypto.Profile

	// PayloadComparison selects exact or canonical JSON comparison of the final payload
	PayloadComparison crypto.PayloadComparison
}

// StageResult records the outcome of a stage.
type StageResult struct {
	Stage Stage

	// Messages are the progress messages reported by the stage checks
	Messages []string

	// Header is the protected header of the stage's JOSE object
	Header crypto.Header
}

// Result contains the results of envelope verification.
type Result struct {

	// Payload is the verified inner JWS payload. Only set when every stage passed.
	Payload string

	// Stages holds the stages that passed, in pipeline order
	Stages []StageResult

	// Failed holds the progress made by the failed stage before it failed, nil when every stage passed
	Failed *StageResult
}

// Messages returns the progress messages of every passed stage followed by those of the failed stage,
// each prefixed with its stage name.
func (r *Result) Messages() []string {
	stages := r.Stages
	if r.Failed != nil {
		stages = append(stages[:len(stages):len(stages)], *r.Failed)
	}

	var messages []string
	for _, s := range stages {
		for _, m := range s.Messages {
			messages = append(messages, string(s.Stage)+": "+m)
		}
	}
	return messages
}

// stageFunc checks one layer and returns its result; the payload is the next stage's candidate.
type stageFunc func(in Input, candidate string) (*crypto.Result, error)

type stage struct {
	name Stage
	run  stageFunc
}

// pipeline is the fixed order in which the layers are unwrapped.
var pipeline = []stage{
	{name: StageOuterJWS, run: verifyOuterJWS},
	{name: StageJWE, run: verifyJWE},
	{name: StageInnerJWS, run: verifyInnerJWS},
}

func (in Input) options() crypto.VerifyOptions {
	return crypto.VerifyOptions{Profile: in.Profile, PayloadComparison: in.PayloadComparison}
}

func (in Input) encryptionCertificate() *x509.Certificate {
	if in.EncryptionCertificate != nil {
		return in.EncryptionCertificate
	}
	return in.SigningCertificate
}

// the outer payload is the serialized JWE, so no expected payload applies
func verifyOuterJWS(in Input, candidate string) (*crypto.Result, error) {
	return crypto.VerifyJWS(in.SigningCertificate, candidate, in.options())
}

// the JWE plaintext is the serialized inner JWS, so no expected payload applies
func verifyJWE(in Input, candidate string) (*crypto.Result, error) {
	return crypto.VerifyJWE(in.PrivateKey, in.encryptionCertificate(), candidate, in.options())
}

func verifyInnerJWS(in Input, candidate string) (*crypto.Result, error) {
	opts := in.options()
	opts.ExpectedPayload = in.ExpectedPayload
	return crypto.VerifyJWS(in.SigningCertificate, candidate, opts)
}

// Verify checks the outer JWS, the JWE and the inner JWS in turn, passing each extracted payload to the next stage.
//
// Returns:
//   - on success, a Result with the final payload and the messages of all three stages, and a nil error.
//   - on failure, a *StageError naming the failed stage, and a Result holding the stages that passed before it
//     and the progress of the failed stage.
//   - a crypto validation error and a nil Result when the key material is missing.
func Verify(ctx context.Context, in Input) (*Result, error) {
	if in.SigningCertificate == nil {
		return nil, crypto.NewValidationError("signing certificate is required")
	}
	if in.PrivateKey == nil {
		return nil, crypto.NewValidationError("encryption key is required")
	}

	log := logger.ContextRequestLogger(ctx)
	result := &Result{}
	candidate := in.Outer

	for _, s := range pipeline {
		stageResult, err := s.run(in, candidate)
		if err != nil {
			log.Debug("envelope stage failed", slog.String("stage", string(s.name)))
			if stageResult != nil {
				result.Failed = &StageResult{Stage: s.name, Messages: stageResult.Messages, Header: stageResult.Header}
			}
			return result, &StageError{Stage: s.name, Err: err}
		}

		log.Debug("envelope stage passed",
			slog.String("stage", string(s.name)),
			slog.String("alg", stageResult.Header.Get(crypto.HeaderAlgorithm)))

		result.Stages = append(result.Stages, StageResult{
			Stage:    s.name,
			Messages: stageResult.Messages,
			Header:   stageResult.Header,
		})
		candidate = stageResult.Payload
	}

	result.Payload = candidate
	return result, nil
}
