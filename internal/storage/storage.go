// Package storage publishes uploaded files and returns publicly resolvable
// URLs for them.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

// Object is a file to publish.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store is implemented by every storage backend.
type Store interface {
	Put(ctx context.Context, obj Object) (string, error)
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey builds a unique key of the form <unix-millis>_<filename>. The
// filename is reduced to its base name with unsafe characters replaced.
func ObjectKey(filename string, now time.Time) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	name = unsafeKeyChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		name = "upload"
	}
	return fmt.Sprintf("%d_%s", now.UnixMilli(), name)
}
