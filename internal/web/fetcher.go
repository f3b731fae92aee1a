// Package web fetches remote pages over HTTP for the page cache.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"

	"github.com/Belphemur/callcache/internal/apperrors"
	"github.com/Belphemur/callcache/internal/config"
	"github.com/Belphemur/callcache/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// Fetcher downloads a page and returns its body decoded to UTF-8.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// NewFetcher builds a Fetcher from the fetch section of cfg.
// The transport chain is retry -> decompression -> proxied http.Transport.
func NewFetcher(cfg *config.Config) *Fetcher {
	logger := config.GetLogger()
	timeout := config.ParseDuration("fetch.timeout", cfg.Fetch.Timeout, defaultTimeout)

	// Clone DefaultTransport to keep its pooling, HTTP/2 and dial timeouts.
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Fetch.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Fetch.Proxy)
		if err != nil {
			logger.Warn().Err(err).Str("proxy", cfg.Fetch.Proxy).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	userAgent := cfg.Fetch.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newRetryTransport(newCompressionTransport(baseTransport), cfg.Fetch.MaxRetries),
		},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch performs a GET on pageURL. A non-2xx answer is returned as
// *apperrors.ErrHTTPStatus. The body is converted to UTF-8 using the
// Content-Type header or the document's meta tags.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	start := time.Now()
	body, err := f.fetch(ctx, pageURL)
	metrics.PageFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PageFetchesTotal.WithLabelValues("error").Inc()
		f.logger.Debug().Err(err).Str("url", pageURL).Msg("Page fetch failed")
		return "", err
	}
	metrics.PageFetchesTotal.WithLabelValues("success").Inc()
	f.logger.Debug().Str("url", pageURL).Int("bytes", len(body)).Dur("took", time.Since(start)).Msg("Fetched page")
	return body, nil
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &apperrors.ErrHTTPStatus{URL: pageURL, StatusCode: resp.StatusCode}
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("detecting charset of %s: %w", pageURL, err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading body of %s: %w", pageURL, err)
	}
	return string(body), nil
}
