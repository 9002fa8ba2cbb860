package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"visionforge/internal/domain"
	"visionforge/internal/storage"
)

type urlResponse struct {
	URL string `json:"url"`
}

var errInvalidForm = errors.New("invalid multipart form")

// Upload handles POST /api/upload: stores the "file" part and returns its
// public URL.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	log := a.logger(r)

	cleanupForm, err := a.parseForm(w, r, a.MaxUploadBytes)
	defer cleanupForm()
	if err != nil {
		if isTooLarge(err) {
			err = fmt.Errorf("%w: %w", domain.ErrFileTooLarge, err)
		} else {
			err = fmt.Errorf("%w: %w", errInvalidForm, err)
		}
		a.uploadError(w, r, err)
		return
	}

	fh := formFile(r, "file")
	if fh == nil {
		a.uploadError(w, r, domain.ErrMissingFile)
		return
	}
	key := storage.ObjectKey(fh.Filename, a.clock())
	url, err := a.store(r, fh, key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("upload failed")
		a.uploadError(w, r, err)
		return
	}
	log.Info().Str("key", key).Int64("size", fh.Size).Msg("file uploaded")
	a.json(w, http.StatusOK, urlResponse{URL: url})
}

func (a *App) store(r *http.Request, fh *multipart.FileHeader, key string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open upload part: %w", domain.ErrStorageFailure, err)
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return a.Store.Put(r.Context(), storage.Object{
		Key:         key,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        src,
	})
}

func (a *App) uploadError(w http.ResponseWriter, r *http.Request, err error) {
	switch code := uploadStatus(err); code {
	case http.StatusRequestEntityTooLarge:
		a.error(w, code, message(r, msgFileTooLarge, a.MaxUploadBytes>>20))
	case http.StatusBadRequest:
		if errors.Is(err, domain.ErrMissingFile) {
			a.error(w, code, message(r, msgFileRequired))
			return
		}
		a.error(w, code, message(r, msgInvalidForm))
	default:
		a.error(w, code, message(r, msgUploadFailed, err))
	}
}

func uploadStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrMissingFile), errors.Is(err, errInvalidForm):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
