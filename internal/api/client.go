// Package api talks to the web archive that stores exported map sessions.
package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dotmap/dotmap/pkg/core"
)

const (
	defaultTimeout = 30 * time.Second

	healthPath  = "/healthcheck"
	sessionPath = "/api/v1/sessions"
)

// StatusError is returned when the archive answers with anything but 200.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("archive %s %s: status %d", e.Method, e.Path, e.Code)
}

// Client uploads session exports to the archive.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New builds a client. A zero timeout uses 30 seconds.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Healthcheck reports whether the archive is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, healthPath, "", nil)
}

// Upload streams an exported session file together with its metadata as a
// multipart form.
func (c *Client) Upload(ctx context.Context, filePath string, meta core.UploadMetadata) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(c.writeForm(form, file, meta))
	}()

	err = c.do(ctx, http.MethodPost, sessionPath, form.FormDataContentType(), pr)
	// unblocks the writer if the request ended before reading the body
	pr.CloseWithError(err)
	return err
}

// writeForm emits the metadata fields and then the file part.
func (c *Client) writeForm(form *multipart.Writer, file *os.File, meta core.UploadMetadata) error {
	name := filepath.Base(file.Name())
	fields := []struct{ key, value string }{
		{"secret", c.apiKey},
		{"filename", name},
		{"sessionId", meta.SessionID},
		{"sources", strings.Join(meta.Sources, ",")},
		{"dots", strconv.Itoa(meta.Dots)},
		{"hotspots", strconv.Itoa(meta.Hotspots)},
		{"endFrame", strconv.FormatUint(meta.EndFrame, 10)},
		{"duration", strconv.FormatFloat(meta.Duration, 'f', 6, 64)},
	}
	for _, f := range fields {
		if err := form.WriteField(f.key, f.value); err != nil {
			return fmt.Errorf("write field %s: %w", f.key, err)
		}
	}

	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy export: %w", err)
	}
	return form.Close()
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("archive %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}
	return nil
}
