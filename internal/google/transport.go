package google

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// RateLimitedTransport delays outbound requests to respect a shared budget.
type RateLimitedTransport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

// RoundTrip implements http.RoundTripper.
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewLimiter returns a limiter allowing qps requests per second with a burst
// of the same size. A non-positive qps disables limiting.
func NewLimiter(qps float64) *rate.Limiter {
	if qps <= 0 {
		return nil
	}
	burst := int(qps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(qps), burst)
}

// HTTPClient returns an HTTP client authenticated by creds. The client is
// configured to use HTTP/1.1 to avoid HTTP/2 protocol errors seen with some
// Google endpoints.
func HTTPClient(ctx context.Context, creds CredentialProvider, limiter *rate.Limiter) (*http.Client, error) {
	if creds == nil {
		return nil, fmt.Errorf("credential provider cannot be nil")
	}
	ts, err := creds.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &RateLimitedTransport{
		Base:    &http.Transport{ForceAttemptHTTP2: false, Proxy: http.ProxyFromEnvironment},
		Limiter: limiter,
	}

	return client, nil
}
