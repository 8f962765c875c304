package envelope

import (
	"errors"
	"fmt"

	"github.com/information-sharing-networks/dcs-checker/internal/crypto"
)

// Stage identifies a layer of the envelope.
type Stage string

const (
	StageOuterJWS Stage = "outer JWS"
	StageJWE      Stage = "JWE"
	StageInnerJWS Stage = "inner JWS"
)

// StageError is returned when a stage of the pipeline fails.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s check failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Code returns the crypto error code of the underlying failure, or crypto.ErrCodeInternal
// when the failure did not come from the crypto package.
func (e *StageError) Code() crypto.ErrorCode {
	var cryptoErr crypto.Error
	if errors.As(e.Err, &cryptoErr) {
		return cryptoErr.Code()
	}
	return crypto.ErrCodeInternal
}

// FailedStage returns the stage that failed, if err came from Verify.
func FailedStage(err error) (Stage, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}
