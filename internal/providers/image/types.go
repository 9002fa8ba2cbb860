package image

import (
	"context"
	"os"
)

// EditRequest describes a normalized edit passed to an image provider. Image
// and Mask are staged files owned by the caller; Mask is nil for whole-image
// edits.
type EditRequest struct {
	Image     *os.File
	Mask      *os.File
	Prompt    string
	Size      string
	RequestID string
}

// Result is the first image returned by the provider, base64 encoded.
type Result struct {
	B64JSON       string
	RevisedPrompt string
}

// Editor is the contract implemented by all image edit providers.
type Editor interface {
	Edit(ctx context.Context, req EditRequest) (*Result, error)
}
