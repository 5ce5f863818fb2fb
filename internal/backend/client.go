// Package backend is the authenticated HTTP client for the remote analysis
// and report service.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/repository"
	"github.com/user/scamshield-agent/pkg/metrics"
)

const (
	EndpointEmail   = "/email/v2/analyze"
	EndpointWebsite = "/website/v2/analyze"
	EndpointSocial  = "/socialmedia/v2/analyze"
	EndpointAPIKey  = "/auth/api-key"
	EndpointReport  = "/report/v2/submit"

	maxResponseBytes = 4 << 20
)

// Config holds the client settings.
type Config struct {
	BaseURL         string
	FallbackURLs    []string
	Timeout         time.Duration
	HealthTimeout   time.Duration
	KeyTTL          time.Duration
	ClientType      string
	DefaultLanguage string
}

// Client talks to the analysis backend.
type Client struct {
	cfg      Config
	http     *http.Client
	storage  repository.LocalStorage
	failover *failover
	logger   *zap.Logger

	mint singleflight.Group
	now  func() time.Time
}

// NewClient creates a client. Deadlines come from contexts, so the
// underlying http.Client has no global timeout.
func NewClient(cfg Config, storage repository.LocalStorage, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 5 * time.Second
	}
	if cfg.KeyTTL <= 0 {
		cfg.KeyTTL = 30 * 24 * time.Hour
	}
	if cfg.ClientType == "" {
		cfg.ClientType = "browser_extension"
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return &Client{
		cfg:      cfg,
		http:     httpClient,
		storage:  storage,
		failover: newFailover(cfg.BaseURL, cfg.FallbackURLs, cfg.HealthTimeout, httpClient, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// ActiveBaseURL returns the base URL the last successful probe selected.
func (c *Client) ActiveBaseURL() string {
	return c.failover.current()
}

// AnalyzeEmail submits an email for analysis.
func (c *Client) AnalyzeEmail(ctx context.Context, req *EmailRequest) (*entity.AnalysisResult, error) {
	req.TargetLanguage = NormalizeLanguage(req.TargetLanguage, c.cfg.DefaultLanguage)
	data, err := c.call(ctx, "email", EndpointEmail, req)
	if err != nil {
		return nil, err
	}
	return decodeAnalysis(EndpointEmail, data, req.TargetLanguage)
}

// AnalyzeWebsite submits a page for analysis.
func (c *Client) AnalyzeWebsite(ctx context.Context, req *WebsiteRequest) (*entity.AnalysisResult, error) {
	req.TargetLanguage = NormalizeLanguage(req.TargetLanguage, c.cfg.DefaultLanguage)
	data, err := c.call(ctx, "website", EndpointWebsite, req)
	if err != nil {
		return nil, err
	}
	return decodeAnalysis(EndpointWebsite, data, req.TargetLanguage)
}

// AnalyzeSocialMedia submits a social post for analysis.
func (c *Client) AnalyzeSocialMedia(ctx context.Context, req *SocialMediaRequest) (*entity.AnalysisResult, error) {
	req.TargetLanguage = NormalizeLanguage(req.TargetLanguage, c.cfg.DefaultLanguage)
	data, err := c.call(ctx, "socialmedia", EndpointSocial, req)
	if err != nil {
		return nil, err
	}
	return decodeSocialAnalysis(EndpointSocial, data, req.TargetLanguage)
}

// SubmitScamReport files a report.
func (c *Client) SubmitScamReport(ctx context.Context, req *ReportRequest) (*ReportResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	data, err := c.call(ctx, "report", EndpointReport, req)
	if err != nil {
		return nil, err
	}
	var resp ReportResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &MalformedResponseError{Endpoint: EndpointReport, Reason: err.Error()}
	}
	if resp.ReportID == "" {
		return nil, &MalformedResponseError{Endpoint: EndpointReport, Reason: "missing report_id"}
	}
	return &resp, nil
}

// call runs one authenticated POST: health probe, key lookup, request,
// envelope decoding. It returns the envelope's data.
func (c *Client) call(ctx context.Context, family, endpoint string, body any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	data, err := c.doCall(ctx, family, endpoint, body)
	metrics.BackendDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.BackendRequests.WithLabelValues(endpoint, outcome(err)).Inc()
	if err != nil {
		c.logger.Warn("backend call failed", zap.String("endpoint", endpoint), zap.Error(err))
	}
	return data, err
}

func (c *Client) doCall(ctx context.Context, family, endpoint string, body any) (json.RawMessage, error) {
	base, err := c.failover.resolve(ctx, family)
	if err != nil {
		return nil, err
	}
	key, err := c.apiKey(ctx, base)
	if err != nil {
		return nil, err
	}

	env, err := c.post(ctx, base, endpoint, key, body)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			c.discardKey(ctx)
		}
		return nil, err
	}
	return env.Data, nil
}

// post sends body as JSON and decodes the envelope. Every failure is mapped
// onto the error taxonomy.
func (c *Client) post(ctx context.Context, base, endpoint, key string, body any) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Endpoint: endpoint}
		}
		return nil, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Endpoint: endpoint}
		}
		return nil, &ConnectionError{Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.text()
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, &AuthError{Status: resp.StatusCode, Message: msg}
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return nil, &MalformedResponseError{Endpoint: endpoint, Reason: decodeErr.Error()}
	}
	if env.Success != nil && !*env.Success {
		msg := env.text()
		if msg == "" {
			msg = "request was not successful"
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &MalformedResponseError{Endpoint: endpoint, Reason: "missing data"}
	}
	return &env, nil
}

func outcome(err error) string {
	var (
		connErr    *ConnectionError
		timeoutErr *TimeoutError
		authErr    *AuthError
		apiErr     *APIError
		malformed  *MalformedResponseError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &connErr):
		return "connection"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &apiErr):
		return "api"
	case errors.As(err, &malformed):
		return "malformed"
	}
	return "error"
}
