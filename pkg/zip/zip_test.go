package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssets(t *testing.T) {
	data, err := ArchiveAssets([]Asset{
		{Filename: "edited.png", MIME: "image/png", Data: []byte("png")},
		{Filename: "prompt.txt", MIME: "text/plain", Data: []byte("brighten the sky")},
		{Filename: "", Data: []byte("skipped")},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("files = %d, want 2", len(zr.File))
	}
	want := map[string]struct {
		method uint16
		body   string
	}{
		"edited.png": {zip.Store, "png"},
		"prompt.txt": {zip.Deflate, "brighten the sky"},
	}
	for _, f := range zr.File {
		w, ok := want[f.Name]
		if !ok {
			t.Fatalf("unexpected file %s", f.Name)
		}
		if f.Method != w.method {
			t.Fatalf("%s method = %d, want %d", f.Name, f.Method, w.method)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, _ := io.ReadAll(rc)
		_ = rc.Close()
		if string(body) != w.body {
			t.Fatalf("%s body = %q", f.Name, body)
		}
	}
}
