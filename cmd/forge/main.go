// Command forge drives the Vision Forge API from the terminal: it loads an
// image, replays brush strokes into a mask, submits the edit and saves the
// result. It also uploads files.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"visionforge/internal/client"
	"visionforge/internal/infra"
	"visionforge/internal/session"
	"visionforge/pkg/zip"
)

const usage = `usage: forge <command> [flags]

commands:
  edit    edit an image with an instruction and an optional painted mask
  upload  upload a file and print its public URL
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := infra.LoadClientConfig()
	logger := infra.NewLoggerTo(os.Stderr, cfg.AppEnv).With().Str("cmd", "forge").Logger()
	api := client.New(client.Options{BaseURL: cfg.APIURL, Timeout: cfg.RequestTimeout, Logger: &logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "edit":
		err = runEdit(ctx, session.New(api, logger), os.Args[2:])
	case "upload":
		err = runUpload(ctx, api, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		exitWithError(err)
	}
}

func runEdit(ctx context.Context, s *session.Session, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	var (
		imagePath   = fs.String("image", "", "image to edit (png, jpeg, gif, webp, bmp, tiff)")
		prompt      = fs.String("prompt", "", "edit instruction")
		size        = fs.String("size", "1024x1024", "output size: 1024x1024, 1536x1024 or 1024x1536")
		strokesPath = fs.String("strokes", "", "JSON file of brush strokes in display coordinates")
		display     = fs.String("display", "", "display size WxH the strokes were drawn at (default: native size)")
		brush       = fs.Int("brush", 50, "brush radius in image pixels (5-100)")
		out         = fs.String("out", "edited.png", "where to write the edited image")
		maskOut     = fs.String("mask-out", "", "write the painted mask PNG here")
		overlayOut  = fs.String("overlay", "", "write the selection overlay PNG here")
		printURL    = fs.Bool("print-url", false, "print the result as a data URL")
		bundle      = fs.String("bundle", "", "also write a zip with the source, mask, overlay, result and prompt")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *imagePath == "" {
		return errors.New("-image is required")
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		return err
	}
	if err := s.Load(*imagePath, data); err != nil {
		return err
	}
	if err := s.SetSize(*size); err != nil {
		return err
	}
	s.SetInstruction(*prompt)

	if *strokesPath != "" {
		strokes, err := loadStrokes(*strokesPath)
		if err != nil {
			return err
		}
		geom, err := parseDisplay(*display)
		if err != nil {
			return err
		}
		if err := paint(s, strokes, geom, *brush); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, brushSummary(s.Painter(), geom))
	}

	p := s.Painter()
	if *maskOut != "" {
		mask, err := p.EncodePNG()
		if err != nil {
			return err
		}
		if err := os.WriteFile(*maskOut, mask, 0o644); err != nil {
			return err
		}
	}
	if *overlayOut != "" {
		if err := writePNG(*overlayOut, p.Overlay()); err != nil {
			return err
		}
	}

	if !s.CanSubmit() {
		return fmt.Errorf("%w: pass -prompt", session.ErrNotReady)
	}
	url, err := s.Submit(ctx)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("server rejected the edit (%d): %s", apiErr.Status, apiErr.Message)
		}
		return err
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	if err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	if err := os.WriteFile(*out, raw, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "edited image written to %s\n", *out)
	if *bundle != "" {
		if err := writeBundle(*bundle, s, raw); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "bundle written to %s\n", *bundle)
	}
	if *printURL {
		fmt.Fprintln(os.Stdout, url)
	}
	return nil
}

func runUpload(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: forge upload <file>")
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	url, err := api.Upload(ctx, f.Name(), f)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, url)
	return nil
}

// writeBundle archives everything that went into and came out of an edit.
func writeBundle(path string, s *session.Session, result []byte) error {
	src := s.File()
	p := s.Painter()
	maskPNG, err := p.EncodePNG()
	if err != nil {
		return err
	}
	var overlay bytes.Buffer
	if err := png.Encode(&overlay, p.Overlay()); err != nil {
		return fmt.Errorf("encode overlay: %w", err)
	}
	assets := []zip.Asset{
		{Filename: "source" + filepath.Ext(src.Name), MIME: "image/" + src.Format, Data: src.Data},
		{Filename: "mask.png", MIME: "image/png", Data: maskPNG},
		{Filename: "overlay.png", MIME: "image/png", Data: overlay.Bytes()},
		{Filename: "edited.png", MIME: "image/png", Data: result},
		{Filename: "prompt.txt", MIME: "text/plain", Data: []byte(s.Instruction() + "\n")},
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := zip.WriteArchive(f, assets, time.Now()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
