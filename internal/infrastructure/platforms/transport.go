package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/infrastructure/monitoring"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	defaultRetryAfter = 2 * time.Second
	maxBodyBytes      = 10 << 20
	errBodyPreview    = 512
)

type fetchResult struct {
	header http.Header
	body   []byte
}

// transport is the shared outbound plumbing for platform clients: request
// timeout, client-side rate limiting, a circuit breaker per platform, and
// inline handling of provider rate-limit responses. A 429 is absorbed here by
// honoring the provider's Retry-After and re-issuing the request, so it never
// consumes the task scheduler's retry budget and never trips the breaker.
type transport struct {
	name    string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[fetchResult]
	logger  zerolog.Logger
}

func newTransport(name string, timeout time.Duration, rps float64, logger zerolog.Logger) *transport {
	return &transport{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		breaker: gobreaker.NewCircuitBreaker[fetchResult](gobreaker.Settings{
			Name: name,
		}),
		logger: logger.With().Str("platform", name).Logger(),
	}
}

// getJSON fetches a URL built by the given constructor and decodes the JSON
// body into v (if non-nil). The constructor is called once per issue so the
// same logical request can be replayed after a rate-limit wait. Returns the
// response headers for cursor extraction.
func (t *transport) getJSON(ctx context.Context, build func() (*http.Request, error), v any) (http.Header, error) {
	res, err := t.breaker.Execute(func() (fetchResult, error) {
		return t.fetch(ctx, build)
	})
	if err != nil {
		return nil, err
	}
	if v != nil {
		if err := json.Unmarshal(res.body, v); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", t.name, err)
		}
	}
	return res.header, nil
}

func (t *transport) fetch(ctx context.Context, build func() (*http.Request, error)) (fetchResult, error) {
	for {
		if err := t.limiter.Wait(ctx); err != nil {
			return fetchResult{}, err
		}

		req, err := build()
		if err != nil {
			return fetchResult{}, fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := t.client.Do(req.WithContext(ctx))
		if err != nil {
			monitoring.PlatformRequests.WithLabelValues(t.name, "error").Inc()
			return fetchResult{}, fmt.Errorf("%s request failed: %w", t.name, err)
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if readErr != nil {
			monitoring.PlatformRequests.WithLabelValues(t.name, "error").Inc()
			return fetchResult{}, fmt.Errorf("failed to read %s response: %w", t.name, readErr)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			delay := retryAfter(resp.Header)
			monitoring.PlatformRequests.WithLabelValues(t.name, "rate_limited").Inc()
			t.logger.Warn().Dur("retry_after", delay).Msg("Rate limit hit, waiting before retry")
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return fetchResult{}, ctx.Err()
			}

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			monitoring.PlatformRequests.WithLabelValues(t.name, "auth").Inc()
			return fetchResult{}, fmt.Errorf("%w: status %d", domain.ErrAuthenticationExpired, resp.StatusCode)

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			monitoring.PlatformRequests.WithLabelValues(t.name, "error").Inc()
			preview := body
			if len(preview) > errBodyPreview {
				preview = preview[:errBodyPreview]
			}
			return fetchResult{}, fmt.Errorf("%s returned status %d: %s", t.name, resp.StatusCode, preview)
		}

		monitoring.PlatformRequests.WithLabelValues(t.name, "ok").Inc()
		return fetchResult{header: resp.Header, body: body}, nil
	}
}

// retryAfter parses the provider-supplied delay. Some providers send float
// seconds; absence falls back to a fixed default.
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs * float64(time.Second))
}
