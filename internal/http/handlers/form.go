package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
)

const multipartMemory = 8 << 20

// parseForm reads a multipart body capped at limit bytes. A request that is
// not multipart at all parses as an empty form so that field validation can
// name what is missing.
func (a *App) parseForm(w http.ResponseWriter, r *http.Request, limit int64) (cleanup func(), err error) {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	err = r.ParseMultipartForm(multipartMemory)
	cleanup = func() {
		if r.MultipartForm != nil {
			if rmErr := r.MultipartForm.RemoveAll(); rmErr != nil {
				a.logger(r).Warn().Err(rmErr).Msg("remove multipart temp files")
			}
		}
	}
	if errors.Is(err, http.ErrNotMultipart) {
		return cleanup, nil
	}
	return cleanup, err
}

// formFile returns the first non-empty file part named field.
func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	for _, fh := range r.MultipartForm.File[field] {
		if fh != nil && fh.Size > 0 {
			return fh
		}
	}
	return nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
