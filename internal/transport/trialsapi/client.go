// Package trialsapi is a client for the clinical trials search API.
package trialsapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/trial"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 4096

// Config holds the trials API settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
}

// Client fetches trial records by NCI identifier.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// New creates a trials API client. BaseURL is normalized to end with "/".
func New(cfg *Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: trials api base url not set", domain.ErrConfiguration)
	}
	base := cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		http:    httpClient,
		baseURL: base,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}, nil
}

type searchRequest struct {
	From  int      `json:"from"`
	Size  int      `json:"size"`
	NCIID []string `json:"nci_id"`
}

type searchResponse struct {
	Total int           `json:"total"`
	Data  []trial.Trial `json:"data"`
}

// FetchTrials retrieves the trials with the given NCI ids in a single request.
// Result order follows the API, not ids.
func (c *Client) FetchTrials(ctx context.Context, ids []string) ([]trial.Trial, error) {
	body, err := json.Marshal(searchRequest{From: 0, Size: len(ids), NCIID: ids})
	if err != nil {
		return nil, fmt.Errorf("marshal trials request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"trials", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build trials request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.TrialsAPIRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TrialsAPIRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("trials api request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.TrialsAPIRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	reader, err := decodedBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(reader, maxErrorBody))
		c.logger.Error("Trials API returned an error status",
			zap.Int("status", resp.StatusCode),
			zap.Int("trial_count", len(ids)),
			zap.ByteString("body", snippet),
		)
		return nil, &domain.TrialsAPIError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var parsed searchResponse
	if err := json.NewDecoder(reader).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode trials response: %w", err)
	}
	metrics.TrialsAPITrialsReturned.Observe(float64(len(parsed.Data)))

	c.logger.Debug("Trials API request completed",
		zap.Int("requested", len(ids)),
		zap.Int("total", parsed.Total),
		zap.Int("returned", len(parsed.Data)),
	)
	return parsed.Data, nil
}

// Ping checks that the API base URL answers. Any response below 500 counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("trials api ping: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &domain.TrialsAPIError{StatusCode: resp.StatusCode}
	}
	return nil
}

// decodedBody unwraps a gzip-encoded response body.
func decodedBody(resp *http.Response) (io.Reader, error) {
	if !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return resp.Body, nil
	}
	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return bytes.NewReader(nil), nil
		}
		return nil, fmt.Errorf("open gzip response: %w", err)
	}
	return gz, nil
}
