package domain

import "errors"

var (
	ErrNotFound = errors.New("resource not found")
	ErrExpired  = errors.New("resource has expired")

	// ErrAdmissionRejected marks a file that is not of the accepted media type.
	ErrAdmissionRejected = errors.New("file type not accepted")
	ErrInvalidQuality    = errors.New("quality must be between 10 and 100")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrCodecFailure      = errors.New("codec failure")

	ErrEngineLoadFailed = errors.New("engine failed to load")
	ErrEngineNotReady   = errors.New("engine not ready")
	ErrEngineBusy       = errors.New("engine busy")
	ErrVideoRunFailed   = errors.New("video run failed")
)
