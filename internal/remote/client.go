// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

// Package remote is the single calling surface for the gateway's remote
// computation services (obstruction, encoder, model, merger, stats).
//
// Every call gets a fixed per-attempt timeout. Connection failures and 5xx
// responses are retried a bounded number of times with exponential backoff;
// 4xx responses and timeouts fail immediately. Failures are reported as
// *CallError so callers can tell timeouts, unreachable services, upstream
// rejections and malformed bodies apart. Responses are never cached.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/daylight-gateway/internal/logging"
	"github.com/tomtom215/daylight-gateway/internal/metrics"
)

// ContentKind selects how a payload is sent and how the response is read.
type ContentKind int

const (
	// ContentJSON sends JSON and expects a JSON response.
	ContentJSON ContentKind = iota
	// ContentBinary sends JSON and expects an opaque binary response.
	ContentBinary
	// ContentMultipart sends a *MultipartPayload and expects a JSON response.
	ContentMultipart
)

const (
	maxResponseBytes = 256 << 20
	maxErrorBodySize = 64 << 10
	errorBodyPreview = 512
)

// MultipartFile is one file part of a multipart upload.
type MultipartFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// MultipartPayload is the payload for ContentMultipart calls.
type MultipartPayload struct {
	Files  []MultipartFile
	Fields map[string]string
}

// Response is a successful (2xx) remote response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Decode unmarshals a JSON body into v.
func (r *Response) Decode(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// Options configures a Client.
type Options struct {
	Service    string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// RateLimit is requests per second; 0 disables the limiter.
	RateLimit float64
	RateBurst int

	BreakerEnabled  bool
	BreakerOpenTime time.Duration

	HTTPClient *http.Client
}

// Client calls one remote service.
type Client struct {
	service    string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
	breaker    *breaker
}

// NewClient creates a client for one remote service.
func NewClient(opts Options) *Client {
	c := &Client{
		service:    opts.Service,
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(16)
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	if opts.BreakerEnabled {
		openTime := opts.BreakerOpenTime
		if openTime <= 0 {
			openTime = 30 * time.Second
		}
		c.breaker = newBreaker(opts.Service, openTime)
	}
	return c
}

// NewHTTPClient returns the pooled HTTP client shared by remote clients.
// It sets no overall timeout; each attempt is bounded by its own context.
func NewHTTPClient(maxIdlePerHost int) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          maxIdlePerHost * 5,
		MaxIdleConnsPerHost:   maxIdlePerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Transport: transport}
}

// Service returns the service name this client calls.
func (c *Client) Service() string {
	return c.service
}

// Call POSTs payload to endpoint (a path such as "/encode").
func (c *Client) Call(ctx context.Context, endpoint string, payload interface{}, kind ContentKind) (*Response, error) {
	body, contentType, err := encodePayload(payload, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s %s payload: %w", c.service, endpoint, err)
	}

	start := time.Now()
	var resp *Response
	if c.breaker != nil {
		resp, err = c.breaker.execute(func() (*Response, error) {
			return c.callWithRetry(ctx, endpoint, body, contentType, kind)
		})
		if err != nil && isBreakerRejection(err) {
			err = &CallError{Service: c.service, Endpoint: endpoint, Kind: KindConnectionRefused, Err: err}
		}
	} else {
		resp, err = c.callWithRetry(ctx, endpoint, body, contentType, kind)
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
		if ce, ok := AsCallError(err); ok {
			outcome = ce.Kind.String()
		}
	}
	metrics.RecordRemoteCall(c.service, endpoint, outcome, time.Since(start))
	return resp, err
}

func (c *Client) callWithRetry(ctx context.Context, endpoint string, body []byte, contentType string, kind ContentKind) (*Response, error) {
	log := logging.Ctx(ctx).With().Str("service", c.service).Str("endpoint", endpoint).Logger()

	var lastErr *CallError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Warn().Err(lastErr).Int("attempt", attempt+1).Dur("backoff", delay).Msg("Retrying remote call")
			metrics.RecordRemoteRetry(c.service, endpoint)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, c.canceled(endpoint, ctx.Err())
			case <-timer.C:
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, c.canceled(endpoint, err)
			}
		}

		resp, callErr := c.attempt(ctx, endpoint, body, contentType, kind)
		if callErr == nil {
			if attempt > 0 {
				log.Info().Int("attempts", attempt+1).Msg("Remote call succeeded after retry")
			}
			return resp, nil
		}
		lastErr = callErr
		if !callErr.retryable() {
			break
		}
	}

	log.Error().Err(lastErr).Str("kind", lastErr.Kind.String()).Msg("Remote call failed")
	return nil, lastErr
}

// attempt performs one HTTP exchange under its own timeout.
func (c *Client) attempt(ctx context.Context, endpoint string, body []byte, contentType string, kind ContentKind) (*Response, *CallError) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &CallError{Service: c.service, Endpoint: endpoint, Kind: KindConnectionRefused, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	if kind == ContentBinary {
		req.Header.Set("Accept", "application/octet-stream, image/png, application/json")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(ctx, attemptCtx, endpoint, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &CallError{
			Service:    c.service,
			Endpoint:   endpoint,
			Kind:       KindUpstream,
			StatusCode: httpResp.StatusCode,
			Body:       readBodyForError(httpResp.Body),
		}
	}

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.classifyTransportError(ctx, attemptCtx, endpoint, err)
	}

	resp := &Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Body:        data,
	}
	if callErr := c.checkBody(endpoint, resp, kind); callErr != nil {
		return nil, callErr
	}
	return resp, nil
}

// checkBody rejects empty bodies and explicit error documents sent with 2xx.
func (c *Client) checkBody(endpoint string, resp *Response, kind ContentKind) *CallError {
	if len(resp.Body) == 0 {
		return &CallError{Service: c.service, Endpoint: endpoint, Kind: KindMalformedResponse, Err: errors.New("empty body")}
	}

	isJSON := strings.Contains(strings.ToLower(resp.ContentType), "json")
	if kind == ContentBinary && !isJSON {
		return nil
	}

	var envelope struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		if kind == ContentBinary {
			return nil
		}
		return &CallError{Service: c.service, Endpoint: endpoint, Kind: KindMalformedResponse, Err: err}
	}
	if strings.EqualFold(envelope.Status, "error") {
		msg := envelope.Error
		if msg == "" {
			msg = "service reported an error"
		}
		return &CallError{
			Service:    c.service,
			Endpoint:   endpoint,
			Kind:       KindUpstream,
			StatusCode: resp.StatusCode,
			Body:       truncate(msg, errorBodyPreview),
		}
	}
	if kind == ContentBinary {
		return &CallError{
			Service: c.service, Endpoint: endpoint, Kind: KindMalformedResponse,
			Err: errors.New("expected binary payload, got JSON document"),
		}
	}
	return nil
}

func (c *Client) classifyTransportError(parent, attemptCtx context.Context, endpoint string, err error) *CallError {
	if parent.Err() != nil {
		return c.canceled(endpoint, parent.Err())
	}
	var netErr net.Error
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &CallError{Service: c.service, Endpoint: endpoint, Kind: KindTimeout, Err: err}
	}
	return &CallError{Service: c.service, Endpoint: endpoint, Kind: KindConnectionRefused, Err: err}
}

func (c *Client) canceled(endpoint string, err error) *CallError {
	return &CallError{Service: c.service, Endpoint: endpoint, Kind: KindCanceled, Err: err}
}

func encodePayload(payload interface{}, kind ContentKind) ([]byte, string, error) {
	if kind != ContentMultipart {
		if raw, ok := payload.(json.RawMessage); ok {
			return raw, "application/json", nil
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}

	mp, ok := payload.(*MultipartPayload)
	if !ok {
		return nil, "", fmt.Errorf("multipart call requires *MultipartPayload, got %T", payload)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range mp.Files {
		part, err := createFilePart(w, f)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	for _, key := range sortedKeys(mp.Fields) {
		if err := w.WriteField(key, mp.Fields[key]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func createFilePart(w *multipart.Writer, f MultipartFile) (io.Writer, error) {
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{
		fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename),
	}
	h["Content-Type"] = []string{contentType}
	return w.CreatePart(h)
}

// readBodyForError reads a bounded prefix of an error response body.
func readBodyForError(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	if err != nil {
		return ""
	}
	return truncate(strings.TrimSpace(string(data)), errorBodyPreview)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
