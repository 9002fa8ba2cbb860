package session

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"visionforge/internal/client"
	"visionforge/internal/domain"
	"visionforge/internal/mask"

	"gioui.org/f32"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeEditor struct {
	calls  []client.EditRequest
	result *client.EditResult
	err    error
	// during runs inside Edit, while the session is busy.
	during func()
}

func (f *fakeEditor) Edit(ctx context.Context, req client.EditRequest) (*client.EditResult, error) {
	f.calls = append(f.calls, req)
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newSession(api Editor) *Session {
	return New(api, zerolog.Nop())
}

func TestSubmitWithoutMask(t *testing.T) {
	api := &fakeEditor{result: &client.EditResult{B64JSON: "RURJVEVE"}}
	s := newSession(api)
	data := pngBytes(t, 400, 300)

	require.NoError(t, s.Load("sky.png", data))
	require.Equal(t, image.Rect(0, 0, 400, 300), s.Painter().Bounds())
	s.SetInstruction("brighten the sky")
	require.NoError(t, s.SetSize("1024x1024"))

	url, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, "data:image/png;base64,RURJVEVE", url)
	require.Equal(t, url, s.Result())
	require.False(t, s.Busy())

	require.Len(t, api.calls, 1)
	req := api.calls[0]
	require.Equal(t, data, req.Image)
	require.Equal(t, "sky.png", req.ImageName)
	require.Equal(t, "brighten the sky", req.Prompt)
	require.Equal(t, "1024x1024", req.Size)
	require.Empty(t, req.Mask)
}

func TestSubmitIncludesPaintedMask(t *testing.T) {
	api := &fakeEditor{result: &client.EditResult{B64JSON: "b64"}}
	s := newSession(api)
	require.NoError(t, s.Load("photo.png", pngBytes(t, 200, 100)))
	s.SetInstruction("remove the car")

	p := s.Painter()
	p.SetGeometry(mask.FixedGeometry{X: 100, Y: 50})
	on, err := s.ToggleBrush()
	require.NoError(t, err)
	require.True(t, on)
	require.NoError(t, p.BeginStroke(f32.Point{X: 10, Y: 10}))
	p.ExtendStroke(f32.Point{X: 60, Y: 30})
	require.NoError(t, p.EndStroke())

	_, err = s.Submit(context.Background())
	require.NoError(t, err)

	sent := api.calls[0].Mask
	require.NotEmpty(t, sent)
	decoded, err := png.Decode(bytes.NewReader(sent))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 200, 100), decoded.Bounds())
}

func TestSubmitNotReadyMakesNoCall(t *testing.T) {
	api := &fakeEditor{result: &client.EditResult{B64JSON: "b64"}}
	s := newSession(api)

	_, err := s.Submit(context.Background())
	require.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, s.Load("a.png", pngBytes(t, 10, 10)))
	require.False(t, s.CanSubmit())
	s.SetInstruction("   ")
	_, err = s.Submit(context.Background())
	require.ErrorIs(t, err, ErrNotReady)

	require.Empty(t, api.calls)
}

func TestSubmitFailureKeepsState(t *testing.T) {
	boom := &client.APIError{Status: 500, Message: "image edit failed: upstream"}
	api := &fakeEditor{err: boom}
	s := newSession(api)
	require.NoError(t, s.Load("a.png", pngBytes(t, 20, 20)))
	s.SetInstruction("make it blue")
	require.NoError(t, s.SetSize("1536x1024"))

	_, err := s.Submit(context.Background())
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, s.LastError(), boom)
	require.False(t, s.Busy())
	require.Equal(t, "make it blue", s.Instruction())
	require.Equal(t, domain.SizeLandscape, s.Size())
	require.NotNil(t, s.File())
	require.Empty(t, s.Result())
	require.True(t, s.CanSubmit())
}

func TestSubmitEmptyResult(t *testing.T) {
	s := newSession(&fakeEditor{result: &client.EditResult{}})
	require.NoError(t, s.Load("a.png", pngBytes(t, 20, 20)))
	s.SetInstruction("x")
	_, err := s.Submit(context.Background())
	require.ErrorIs(t, err, domain.ErrEmptyResult)
}

func TestSubmitWhileBusy(t *testing.T) {
	api := &fakeEditor{result: &client.EditResult{B64JSON: "b64"}}
	s := newSession(api)
	require.NoError(t, s.Load("a.png", pngBytes(t, 20, 20)))
	s.SetInstruction("x")

	var nested error
	api.during = func() {
		require.True(t, s.Busy())
		require.False(t, s.CanSubmit())
		_, nested = s.Submit(context.Background())
	}
	_, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.ErrorIs(t, nested, ErrBusy)
	require.Len(t, api.calls, 1)
	require.False(t, s.Busy())
}

func TestLoadRejectsUndecodableData(t *testing.T) {
	s := newSession(&fakeEditor{})
	require.Error(t, s.Load("notes.txt", []byte("not an image")))
	require.Nil(t, s.File())
}

func TestLoadReplacesMaskAndResult(t *testing.T) {
	api := &fakeEditor{result: &client.EditResult{B64JSON: "b64"}}
	s := newSession(api)
	require.NoError(t, s.Load("a.png", pngBytes(t, 50, 50)))
	s.SetInstruction("x")
	_, err := s.ToggleBrush()
	require.NoError(t, err)
	require.NoError(t, s.Painter().BeginStroke(f32.Point{X: 25, Y: 25}))
	require.NoError(t, s.Painter().EndStroke())
	_, err = s.Submit(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Load("b.png", pngBytes(t, 80, 40)))
	require.Equal(t, image.Rect(0, 0, 80, 40), s.Painter().Bounds())
	require.False(t, s.Painter().Painted())
	require.False(t, s.Painter().Active())
	require.Empty(t, s.Result())
}

func TestToggleBrushRequiresImage(t *testing.T) {
	s := newSession(&fakeEditor{})
	_, err := s.ToggleBrush()
	require.ErrorIs(t, err, ErrNoImage)
}

func TestSetSizeRejectsUnknown(t *testing.T) {
	s := newSession(&fakeEditor{})
	require.ErrorIs(t, s.SetSize("800x600"), domain.ErrInvalidSize)
	require.Equal(t, domain.DefaultSize, s.Size())
}

func TestReset(t *testing.T) {
	s := newSession(&fakeEditor{result: &client.EditResult{B64JSON: "b64"}})
	require.NoError(t, s.Load("a.png", pngBytes(t, 30, 30)))
	s.SetInstruction("x")
	require.NoError(t, s.SetSize("1024x1536"))
	s.Painter().SetBrushRadius(20)
	_, err := s.ToggleBrush()
	require.NoError(t, err)
	_, err = s.Submit(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Reset())
	require.Nil(t, s.File())
	require.Empty(t, s.Instruction())
	require.Equal(t, domain.DefaultSize, s.Size())
	require.Empty(t, s.Result())
	require.Equal(t, mask.DefaultBrushRadius, s.Painter().BrushRadius())
	require.False(t, s.Painter().Active())
	require.False(t, s.Painter().Loaded())
	require.False(t, s.CanSubmit())
}

func TestResetWhileBusy(t *testing.T) {
	api := &fakeEditor{result: &client.EditResult{B64JSON: "b64"}}
	s := newSession(api)
	require.NoError(t, s.Load("a.png", pngBytes(t, 20, 20)))
	s.SetInstruction("x")

	var resetErr error
	api.during = func() { resetErr = s.Reset() }
	url, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.ErrorIs(t, resetErr, ErrBusy)
	require.Equal(t, url, s.Result())
	require.NotNil(t, s.File())

	require.NoError(t, s.Reset())
	require.Empty(t, s.Result())
}
