package jobsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/lecgen/internal/domain"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 64 << 20

// StatusResponse is the body of GET /tasks/{id}.
type StatusResponse struct {
	Status domain.TaskStatus `json:"status" validate:"required,oneof=pending processing compressing optimizing completed failed"`
	Result *domain.Result    `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// HistoryEntry is one completed job as listed by GET /history.
type HistoryEntry struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Type      string            `json:"type"`
	Date      string            `json:"date"`
	Language  string            `json:"language"`
	WordCount int               `json:"wordCount"`
	Status    domain.TaskStatus `json:"status"`
	Result    *domain.Result    `json:"result,omitempty"`
}

// Download is an exported result file.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

type translateResponse struct {
	Status string         `json:"status"`
	Result *domain.Result `json:"result,omitempty"`
}

// Client talks to the job service over HTTP.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *slog.Logger
	validate *validator.Validate
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The default has no
// overall timeout; callers bound requests through the context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the job service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid job service url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid job service url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid job service url %q: missing host", baseURL)
	}

	c := &Client{
		baseURL:  strings.TrimRight(u.String(), "/"),
		http:     &http.Client{},
		logger:   slog.Default(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "job_service_client")

	return c, nil
}

// BaseURL returns the normalized service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Submit creates a job and returns the task id issued by the service.
// Invalid input is rejected before any request with domain.ErrInvalidSubmission;
// every other failure is a *SubmissionError.
func (c *Client) Submit(ctx context.Context, in domain.SubmissionInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	body, contentType, err := encodeSubmission(in)
	if err != nil {
		return "", &SubmissionError{Err: err}
	}

	status, data, _, err := c.do(ctx, http.MethodPost, "/process/"+string(in.Kind), body, contentType)
	if err != nil {
		return "", &SubmissionError{Err: err}
	}
	if !isSuccess(status) {
		return "", &SubmissionError{StatusCode: status, Detail: detailFrom(data)}
	}

	var resp submitResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", &SubmissionError{
			StatusCode: status,
			Err:        fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		}
	}
	if resp.TaskID == "" {
		return "", &SubmissionError{
			StatusCode: status,
			Err:        fmt.Errorf("%w: missing task_id", ErrMalformedResponse),
		}
	}

	c.logger.Debug("job submitted",
		"task_id", resp.TaskID,
		"source_kind", in.Kind,
		"large_file", in.LargeFile())

	return resp.TaskID, nil
}

// Status fetches the current status of a task. Every error wraps
// ErrTransient: a failed status request says nothing about the job itself.
func (c *Client) Status(ctx context.Context, taskID string) (*StatusResponse, error) {
	status, data, _, err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(taskID), nil, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: task %s: %w", ErrTransient, taskID, ErrNotFound)
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransient, status, detailFrom(data))
	}

	var resp StatusResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrTransient, ErrMalformedResponse, err)
	}
	if err := c.validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("%w: %w: unrecognized status %q", ErrTransient, ErrMalformedResponse, resp.Status)
	}

	return &resp, nil
}

// Translate requests a re-rendered result for a completed task. The
// returned payload replaces the displayed one wholesale; on failure a
// *TranslationError is returned.
func (c *Client) Translate(ctx context.Context, taskID string, lang domain.TargetLanguage) (*domain.Result, error) {
	form := url.Values{"target_lang": {string(lang)}}

	status, data, _, err := c.do(ctx, http.MethodPost, "/translate/"+url.PathEscape(taskID),
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, &TranslationError{TaskID: taskID, Language: string(lang), Err: err}
	}
	if !isSuccess(status) {
		return nil, &TranslationError{
			TaskID:     taskID,
			Language:   string(lang),
			StatusCode: status,
			Detail:     detailFrom(data),
		}
	}

	var resp translateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &TranslationError{
			TaskID:     taskID,
			Language:   string(lang),
			StatusCode: status,
			Err:        fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		}
	}
	if resp.Status != "success" {
		return nil, &TranslationError{
			TaskID:     taskID,
			Language:   string(lang),
			StatusCode: status,
			Detail:     detailFrom(data),
			Err:        fmt.Errorf("service reported status %q", resp.Status),
		}
	}
	if resp.Result == nil {
		return nil, &TranslationError{
			TaskID:     taskID,
			Language:   string(lang),
			StatusCode: status,
			Err:        fmt.Errorf("%w: missing result", ErrMalformedResponse),
		}
	}

	return resp.Result, nil
}

// History lists completed jobs, newest first as ordered by the service.
func (c *Client) History(ctx context.Context) ([]HistoryEntry, error) {
	const op = "list history"

	status, data, _, err := c.do(ctx, http.MethodGet, "/history", nil, "")
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	if !isSuccess(status) {
		return nil, requestError(op, status, data)
	}

	entries := []HistoryEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &RequestError{Op: op, StatusCode: status, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return entries, nil
}

// DeleteHistory removes one job from the service history.
func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	const op = "delete history"

	status, data, _, err := c.do(ctx, http.MethodDelete, "/history/"+url.PathEscape(id), nil, "")
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	if !isSuccess(status) {
		return requestError(op, status, data)
	}
	return nil
}

// DownloadHistory fetches the exported result file for a job.
func (c *Client) DownloadHistory(ctx context.Context, id string) (*Download, error) {
	const op = "download history"

	status, data, header, err := c.do(ctx, http.MethodGet, "/history/download/"+url.PathEscape(id), nil, "")
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	if !isSuccess(status) {
		return nil, requestError(op, status, data)
	}

	filename := id + ".json"
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" {
			filename = name
		}
	}

	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	return &Download{Filename: filename, ContentType: contentType, Data: data}, nil
}

// Ping checks that the service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	status, data, _, err := c.do(ctx, http.MethodGet, "/ping", nil, "")
	if err != nil {
		return &RequestError{Op: "ping", Err: err}
	}
	if !isSuccess(status) {
		return requestError("ping", status, data)
	}
	return nil
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	body io.Reader,
	contentType string,
) (int, []byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("request to job service failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, resp.Header, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("job service response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(data))

	return resp.StatusCode, data, resp.Header, nil
}

func encodeSubmission(in domain.SubmissionInput) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	var err error
	switch in.Kind {
	case domain.SourceKindYouTube:
		err = w.WriteField("url", in.URL)
	case domain.SourceKindText:
		err = w.WriteField("text", in.Text)
	case domain.SourceKindFile:
		filename := in.Filename
		if filename == "" {
			filename = "upload"
		}
		var part io.Writer
		part, err = w.CreateFormFile("file", filename)
		if err == nil {
			_, err = part.Write(in.File)
		}
	default:
		err = fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidSubmission, in.Kind)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode submission: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to encode submission: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func requestError(op string, status int, data []byte) *RequestError {
	e := &RequestError{Op: op, StatusCode: status, Detail: detailFrom(data)}
	if status == http.StatusNotFound {
		e.Err = ErrNotFound
	}
	return e
}

// detailFrom extracts the "detail" field of an error body. Structured
// details (validation error lists) are returned as compact JSON.
func detailFrom(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body.Detail); err != nil {
		return ""
	}
	if compact.String() == "null" {
		return ""
	}
	return compact.String()
}

// IsTransient reports whether err came from a status request that may
// succeed on retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
