package handlers

import (
	"errors"
	"net/http"
	"strings"

	"visionforge/internal/domain"
	"visionforge/internal/middleware"
	imageprov "visionforge/internal/providers/image"
)

type editResponse struct {
	B64JSON string `json:"b64_json"`
}

// Edit handles POST /api/edit: image (required), mask (optional), prompt
// (required) and size. Parts are staged to temp files for the provider and
// removed once it answers.
func (a *App) Edit(w http.ResponseWriter, r *http.Request) {
	log := a.logger(r)

	// image and mask each get the per-file budget.
	cleanupForm, err := a.parseForm(w, r, 2*a.MaxUploadBytes)
	defer cleanupForm()
	if err != nil {
		if isTooLarge(err) {
			a.error(w, http.StatusRequestEntityTooLarge, message(r, msgFileTooLarge, a.MaxUploadBytes>>20))
			return
		}
		a.error(w, http.StatusBadRequest, message(r, msgInvalidForm))
		return
	}

	imageHeader := formFile(r, "image")
	if imageHeader == nil {
		a.error(w, http.StatusBadRequest, message(r, msgImageRequired))
		return
	}
	// Validated trimmed, forwarded as typed.
	prompt := r.FormValue("prompt")
	if strings.TrimSpace(prompt) == "" {
		a.error(w, http.StatusBadRequest, message(r, msgPromptRequired))
		return
	}
	size, err := domain.ParseSize(r.FormValue("size"))
	if err != nil {
		a.error(w, http.StatusBadRequest, message(r, msgInvalidSize, sizeList()))
		return
	}

	image, err := stageFile(a.TempDir, imageHeader)
	if err != nil {
		log.Error().Err(err).Msg("stage image")
		a.error(w, http.StatusInternalServerError, message(r, msgEditFailed, err))
		return
	}
	defer image.cleanup(*log)

	req := imageprov.EditRequest{
		Image:     image.File,
		Prompt:    prompt,
		Size:      size.String(),
		RequestID: middleware.RequestIDFromContext(r.Context()),
	}
	if maskHeader := formFile(r, "mask"); maskHeader != nil {
		mask, err := stageFile(a.TempDir, maskHeader)
		if err != nil {
			log.Error().Err(err).Msg("stage mask")
			a.error(w, http.StatusInternalServerError, message(r, msgEditFailed, err))
			return
		}
		defer mask.cleanup(*log)
		req.Mask = mask.File
	}

	log.Info().
		Str("image", image.name).
		Bool("mask", req.Mask != nil).
		Str("size", req.Size).
		Int("prompt_len", len(prompt)).
		Msg("image edit requested")

	res, err := a.Editor.Edit(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("image edit failed")
		a.error(w, editStatus(err), message(r, msgEditFailed, err))
		return
	}
	a.json(w, http.StatusOK, editResponse{B64JSON: res.B64JSON})
}

func editStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingImage), errors.Is(err, domain.ErrMissingPrompt), errors.Is(err, domain.ErrInvalidSize):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func sizeList() string {
	sizes := domain.Sizes()
	out := make([]string, len(sizes))
	for i, s := range sizes {
		out[i] = s.String()
	}
	return strings.Join(out, ", ")
}
