// Package session holds the state of one editing session: the loaded image,
// its mask painter, the instruction and size, and the last result. Submit
// packages that state into a single edit request.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"visionforge/internal/client"
	"visionforge/internal/domain"
	"visionforge/internal/mask"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotReady = errors.New("session: image and instruction are required")
	ErrBusy     = errors.New("session: a request is already in flight")
	ErrNoImage  = errors.New("session: no image loaded")
)

// Editor is the part of the API client a session needs.
type Editor interface {
	Edit(ctx context.Context, req client.EditRequest) (*client.EditResult, error)
}

// File is the loaded source image.
type File struct {
	Name   string
	Data   []byte
	Format string
	Width  int
	Height int
}

type Session struct {
	mu  sync.Mutex
	api Editor
	log zerolog.Logger

	painter     *mask.Painter
	file        *File
	instruction string
	size        domain.Size
	busy        bool
	result      string
	lastErr     error
}

func New(api Editor, log zerolog.Logger) *Session {
	return &Session{
		api:     api,
		log:     log,
		painter: mask.NewPainter(nil),
		size:    domain.DefaultSize,
	}
}

// Painter exposes the mask painter for pointer events. Callers must not use it
// while a submission is running.
func (s *Session) Painter() *mask.Painter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.painter
}

// Load decodes the image header, sizes the mask to the image's native
// resolution and drops the previous mask and result.
func (s *Session) Load(name string, data []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if err := s.painter.Resize(cfg.Width, cfg.Height); err != nil {
		return err
	}
	s.painter.SetActive(false)
	s.file = &File{Name: name, Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}
	s.result = ""
	s.lastErr = nil
	s.log.Debug().Str("file", name).Str("format", format).Int("width", cfg.Width).Int("height", cfg.Height).Msg("image loaded")
	return nil
}

func (s *Session) File() *File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

func (s *Session) SetInstruction(text string) {
	s.mu.Lock()
	s.instruction = text
	s.mu.Unlock()
}

func (s *Session) ClearInstruction() { s.SetInstruction("") }

func (s *Session) Instruction() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instruction
}

// SetSize selects one of the supported output sizes.
func (s *Session) SetSize(raw string) error {
	size, err := domain.ParseSize(raw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.size = size
	s.mu.Unlock()
	return nil
}

func (s *Session) Size() domain.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// ToggleBrush flips the brush tool and reports the new state. The brush can
// only be enabled once an image is loaded.
func (s *Session) ToggleBrush() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return false, ErrNoImage
	}
	s.painter.SetActive(!s.painter.Active())
	return s.painter.Active(), nil
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// CanSubmit reports whether an image is loaded, the instruction is non-empty
// and no request is in flight.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmit()
}

func (s *Session) canSubmit() bool {
	return s.file != nil && strings.TrimSpace(s.instruction) != "" && !s.busy
}

// Submit sends the image, the mask when one was painted, the instruction and
// the size. On success the result is stored as a data URL; on failure the
// error is recorded and the session state is left as it was.
func (s *Session) Submit(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return "", ErrBusy
	}
	if !s.canSubmit() {
		s.mu.Unlock()
		return "", ErrNotReady
	}
	req := client.EditRequest{
		Image:     s.file.Data,
		ImageName: s.file.Name,
		Prompt:    s.instruction,
		Size:      s.size.String(),
	}
	if s.painter.Painted() {
		req.Mask = s.painter.Snapshot()
	}
	s.busy = true
	s.lastErr = nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	s.log.Info().Str("file", req.ImageName).Bool("mask", len(req.Mask) > 0).Str("size", req.Size).Msg("submitting edit")
	res, err := s.api.Edit(ctx, req)
	if err == nil && (res == nil || res.B64JSON == "") {
		err = domain.ErrEmptyResult
	}
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("edit failed")
		return "", err
	}

	url := res.DataURL()
	s.mu.Lock()
	s.result = url
	s.mu.Unlock()
	return url, nil
}

// Result returns the data URL of the last successful edit.
func (s *Session) Result() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Reset returns the session to its initial state. It fails with ErrBusy
// while a submission is in flight.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.file = nil
	s.instruction = ""
	s.size = domain.DefaultSize
	s.result = ""
	s.lastErr = nil
	s.painter = mask.NewPainter(nil)
	return nil
}
