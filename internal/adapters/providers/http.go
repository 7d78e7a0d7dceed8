package providers

import (
	"context"
	"encoding/json"
	"errors"
	"ev-charge-planner/internal/domain"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultUserAgent = "GreenCharge/1.0"

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// client holds what every upstream adapter shares: the HTTP session and
// the identifying User-Agent required by the public OSM services.
type client struct {
	session   *http.Client
	userAgent string
}

func newClient(session *http.Client, userAgent string) client {
	if session == nil {
		session = &http.Client{Timeout: 10 * time.Second}
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	return client{session: session, userAgent: userAgent}
}

func (c client) newRequest(
	ctx context.Context,
	method string,
	endpoint string,
	query url.Values,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func (c client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// getJSON performs a single GET and decodes the body into out.
// Failures are classified so the retry policy can tell transient from permanent.
func (c client) getJSON(ctx context.Context, op, endpoint string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, query)
	if err != nil {
		return domain.NewError(domain.KindInternal, op, "build upstream request", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return classify(ctx, op, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewError(domain.KindUpstreamUnavailable, op, "malformed upstream response", err)
	}

	return nil
}

func classify(ctx context.Context, op string, err error) error {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch {
		case he.Code == http.StatusTooManyRequests:
			return domain.NewError(domain.KindRateLimited, op, "upstream rate limited", err)
		case he.Code >= 500:
			return domain.NewError(domain.KindUpstreamUnavailable, op, "upstream unavailable", err)
		default:
			return domain.NewError(domain.KindInternal, op, "upstream rejected request", err)
		}
	}

	// Caller cancellation is not an upstream fault and must not be retried.
	if ctx.Err() != nil {
		return domain.NewError(domain.KindInternal, op, "request cancelled", err)
	}

	return domain.NewError(domain.KindUpstreamUnavailable, op, "upstream unavailable", err)
}
