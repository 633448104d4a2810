// Package strapi is a minimal client for the Strapi content API.
package strapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected response status")

// maxErrorBody caps how much of an error response is read for logging.
const maxErrorBody = 4 << 10

// Entry is the created entity returned by the content API.
type Entry struct {
	ID         int64          `json:"id"`
	DocumentID string         `json:"documentId,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// File is one uploaded media file.
type File struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Client talks to one Strapi instance.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client. An empty token sends unauthenticated requests.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type entryRequest struct {
	Data any `json:"data"`
}

type entryResponse struct {
	Data Entry `json:"data"`
}

// CreateEntry creates one entry of contentType from data.
func (c *Client) CreateEntry(ctx context.Context, contentType string, data any) (*Entry, error) {
	body, err := json.Marshal(entryRequest{Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s entry: %w", contentType, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/"+contentType, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp entryResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", contentType, err)
	}
	return &resp.Data, nil
}

// UploadFile uploads a local file to the media library.
func (c *Client) UploadFile(ctx context.Context, path, alt string) ([]File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := mw.WriteField("alt", alt); err != nil {
		return nil, fmt.Errorf("failed to write alt field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var files []File
	if err := c.do(req, &files); err != nil {
		return nil, fmt.Errorf("failed to upload file %s: %w", path, err)
	}
	return files, nil
}

// do sends req and decodes a successful JSON response into out.
func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: HTTP %d: %s: %s", ErrStatus, resp.StatusCode, http.StatusText(resp.StatusCode), bytes.TrimSpace(detail))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
