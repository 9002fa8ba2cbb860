package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"visionforge/internal/domain"
)

const (
	defaultOpenAIImageModel = openai.CreateImageModelGptImage1
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	openAIDefaultTimeout    = 120 * time.Second
	maxDownloadBytes        = 50 << 20
	maxErrorBodyBytes       = 64 << 10
)

type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// OpenAIEditor forwards edits to the OpenAI Images API.
type OpenAIEditor struct {
	apiKey  string
	baseURL string
	http    *http.Client
	model   string
}

func NewOpenAIEditor(opts OpenAIOptions) (*OpenAIEditor, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = openAIDefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIImageModel
	}
	return &OpenAIEditor{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    httpClient,
		model:   model,
	}, nil
}

// Model returns the image model edits are sent to.
func (o *OpenAIEditor) Model() string { return o.model }

func (o *OpenAIEditor) Edit(ctx context.Context, req EditRequest) (*Result, error) {
	if req.Image == nil {
		return nil, domain.ErrMissingImage
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.ErrMissingPrompt
	}
	body, contentType, err := o.editForm(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/images/edits", body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrProviderFailure, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if req.RequestID != "" {
		httpReq.Header.Set("X-Client-Request-Id", req.RequestID)
	}
	resp, err := o.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, decodeOpenAIError(resp))
	}
	var out openai.ImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrProviderFailure, err)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("%w: provider returned no images", domain.ErrEmptyResult)
	}
	first := out.Data[0]
	b64 := strings.TrimSpace(first.B64JSON)
	if b64 == "" && first.URL != "" {
		b64, err = o.download(ctx, first.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
		}
	}
	if b64 == "" {
		return nil, fmt.Errorf("%w: provider returned an empty image", domain.ErrEmptyResult)
	}
	return &Result{B64JSON: b64, RevisedPrompt: first.RevisedPrompt}, nil
}

// editForm builds the multipart body for /images/edits. The mask part is
// written only when a mask is given, and response_format only for dall-e
// models since gpt-image models reject it.
func (o *OpenAIEditor) editForm(req EditRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := writeImagePart(mw, "image", req.Image); err != nil {
		return nil, "", err
	}
	if req.Mask != nil {
		if err := writeImagePart(mw, "mask", req.Mask); err != nil {
			return nil, "", err
		}
	}
	fields := [][2]string{
		{"model", o.model},
		{"prompt", req.Prompt},
		{"n", "1"},
	}
	if req.Size != "" {
		fields = append(fields, [2]string{"size", req.Size})
	}
	if strings.HasPrefix(o.model, "dall-e") {
		fields = append(fields, [2]string{"response_format", openai.CreateImageResponseFormatB64JSON})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write %s: %w", f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeImagePart(mw *multipart.Writer, field string, f *os.File) error {
	name := filepath.Base(f.Name())
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "image/png"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set("Content-Type", contentType)
	w, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy %s part: %w", field, err)
	}
	return nil
}

// decodeOpenAIError turns an error response into *openai.APIError, falling
// back to the raw body when it is not the usual JSON envelope.
func decodeOpenAIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	var envelope openai.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		envelope.Error.HTTPStatus = resp.Status
		envelope.Error.HTTPStatusCode = resp.StatusCode
		return envelope.Error
	}
	return fmt.Errorf("openai status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

func (o *OpenAIEditor) download(ctx context.Context, url string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := o.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("download result: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return "", fmt.Errorf("download result: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

var _ Editor = (*OpenAIEditor)(nil)
