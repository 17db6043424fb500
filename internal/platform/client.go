// Package platform is a small REST client for the contest platform API. The
// hosted service uses it to resolve display titles and the aoi CLI uses it
// for everything else.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	pkgerrors "vscsfarm/pkg/errors"
	"vscsfarm/pkg/utils/logger"

	"go.uber.org/zap"
)

// CodeTokenExpired is the error code the platform answers with once the
// session token has expired.
const CodeTokenExpired = "FST_JWT_AUTHORIZATION_TOKEN_EXPIRED"

// ResponseInfo carries response details.
type ResponseInfo struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// APIError is a non-2xx answer from the platform.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %d %s (%s)", e.Method, e.Path, e.StatusCode, msg, e.Code)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Client wraps HTTP requests against the API root.
type Client struct {
	baseURL       string
	timeout       time.Duration
	tokenProvider func() string
	httpClient    *http.Client
}

func New(baseURL string, timeout time.Duration, tokenProvider func() string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		timeout:       timeout,
		tokenProvider: tokenProvider,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// WithToken returns a copy of the client that authenticates as token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.tokenProvider = func() string { return token }
	return &cp
}

// Do sends a request to path relative to the API root. body is encoded as
// JSON when non-nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body interface{}) (ResponseInfo, error) {
	var info ResponseInfo

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return info, fmt.Errorf("encode request body failed: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return info, fmt.Errorf("build request failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.tokenProvider != nil {
		if token := c.tokenProvider(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	info.Duration = time.Since(start)
	if err != nil {
		return info, pkgerrors.Wrapf(err, pkgerrors.UpstreamError, "%s %s failed: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	info.StatusCode = resp.StatusCode
	info.Headers = resp.Header
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return info, pkgerrors.Wrapf(err, pkgerrors.UpstreamError, "read response body failed: %v", err)
	}
	info.Body = bodyBytes

	logger.Debug(ctx, "platform api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", info.StatusCode),
		zap.Duration("latency", info.Duration),
	)
	return info, checkStatus(method, path, info)
}

// GetJSON decodes the answer of GET path into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

// PostJSON posts body and decodes the answer into out when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, body, out)
}

// PatchJSON patches path with body.
func (c *Client) PatchJSON(ctx context.Context, path string, body, out interface{}) error {
	return c.doJSON(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	info, err := c.Do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(info.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(info.Body, out); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.UpstreamError, "decode %s %s response failed: %v", method, path, err)
	}
	return nil
}

// UploadFile PUTs the file to a presigned URL. No credentials are attached.
func (c *Client) UploadFile(ctx context.Context, target, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload file failed: %w", err)
	}
	defer func() { _ = file.Close() }()
	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat upload file failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, file)
	if err != nil {
		return fmt.Errorf("build upload request failed: %w", err)
	}
	req.ContentLength = stat.Size()

	resp, err := c.transferClient().Do(req)
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.UpstreamError, "upload failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.Newf(pkgerrors.UpstreamError, "upload failed with status %d", resp.StatusCode).
			WithDetail("status", resp.StatusCode)
	}
	return nil
}

// Download streams an absolute URL into w.
func (c *Client) Download(ctx context.Context, target string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build download request failed: %w", err)
	}
	resp, err := c.transferClient().Do(req)
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.UpstreamError, "download failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.Newf(pkgerrors.UpstreamError, "download failed with status %d", resp.StatusCode).
			WithDetail("status", resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("write download failed: %w", err)
	}
	return nil
}

// DownloadJSON fetches an absolute URL and decodes it into out.
func (c *Client) DownloadJSON(ctx context.Context, target string, out interface{}) error {
	var buf bytes.Buffer
	if err := c.Download(ctx, target, &buf); err != nil {
		return err
	}
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return fmt.Errorf("decode download failed: %w", err)
	}
	return nil
}

// transferClient has no overall timeout: archives can be large.
func (c *Client) transferClient() *http.Client {
	return &http.Client{Transport: c.httpClient.Transport}
}

func checkStatus(method, path string, info ResponseInfo) error {
	if info.StatusCode >= 200 && info.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{Method: method, Path: path, StatusCode: info.StatusCode}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(info.Body, &payload); err == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
	}

	if info.StatusCode == http.StatusUnauthorized && apiErr.Code == CodeTokenExpired {
		return pkgerrors.Wrap(apiErr, pkgerrors.SessionExpired).WithMessage(pkgerrors.SessionExpired.Message())
	}
	return pkgerrors.Wrap(apiErr, pkgerrors.UpstreamError).
		WithDetail("status", info.StatusCode).
		WithDetail("path", path)
}

