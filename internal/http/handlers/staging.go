package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// stagedFile is a multipart part copied to a named temp file. The provider
// SDK uploads *os.File parts under their file name and the API infers the
// image type from it, so the original extension is preserved.
type stagedFile struct {
	*os.File
	name string
}

func stageFile(dir string, fh *multipart.FileHeader) (*stagedFile, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %q: %w", fh.Filename, err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = ".png"
	}
	f, err := os.CreateTemp(dir, "visionforge-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	staged := &stagedFile{File: f, name: fh.Filename}
	if _, err := io.Copy(f, src); err != nil {
		staged.cleanup(zerolog.Nop())
		return nil, fmt.Errorf("stage part %q: %w", fh.Filename, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		staged.cleanup(zerolog.Nop())
		return nil, fmt.Errorf("rewind staged part: %w", err)
	}
	return staged, nil
}

// cleanup closes and removes the temp file. Safe on a nil receiver.
func (s *stagedFile) cleanup(l zerolog.Logger) {
	if s == nil || s.File == nil {
		return
	}
	path := s.File.Name()
	_ = s.File.Close()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		l.Warn().Err(err).Str("path", path).Msg("remove staged file")
	}
}
