package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	imageprov "visionforge/internal/providers/image"
	"visionforge/internal/storage"

	"github.com/rs/zerolog"
)

// App carries the dependencies shared by the HTTP handlers.
type App struct {
	Editor         imageprov.Editor
	Store          storage.Store
	Logger         zerolog.Logger
	MaxUploadBytes int64
	TempDir        string

	now func() time.Time
}

func NewApp(editor imageprov.Editor, store storage.Store, logger zerolog.Logger, maxUploadBytes int64) *App {
	return &App{
		Editor:         editor,
		Store:          store,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}

// logger returns the request scoped logger when the logging middleware ran.
func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

func (a *App) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}
