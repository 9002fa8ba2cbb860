package domain

import "errors"

var (
	ErrMissingImage    = errors.New("missing image")
	ErrMissingPrompt   = errors.New("missing prompt")
	ErrMissingFile     = errors.New("missing file")
	ErrInvalidSize     = errors.New("invalid size")
	ErrFileTooLarge    = errors.New("file too large")
	ErrProviderFailure = errors.New("provider failure")
	ErrStorageFailure  = errors.New("storage failure")
	ErrEmptyResult     = errors.New("empty result")
)
