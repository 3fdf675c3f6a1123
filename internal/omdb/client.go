package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Catalog defines the two remote lookups the coordinators depend on.
// This interface is implemented by *Client and can be used for testing.
type Catalog interface {
	LookupByTitle(ctx context.Context, query string) (SearchResult, error)
	LookupByIdentifier(ctx context.Context, idOrTitle string) (DetailResult, error)
}

// Ensure Client implements Catalog at compile time.
var _ Catalog = (*Client)(nil)

// Client talks to the OMDb HTTP API.
type Client struct {
	baseURL   *url.URL
	apiKey    string
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
}

const (
	defaultBaseURL   = "https://www.omdbapi.com/"
	defaultUserAgent = "marquee/0.1"
	maxErrorBody     = 64 * 1024
)

var imdbIDPattern = regexp.MustCompile(`^tt\d+$`)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLimiter throttles outgoing requests. A nil limiter disables throttling.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// New builds a Client for the API at baseURL using apiKey on every request.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("api key is required")
	}
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		apiKey:    key,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// LookupByTitle searches the catalog for titles matching query. A search the
// API answers with "not found" is a successful StatusEmpty result.
func (c *Client) LookupByTitle(ctx context.Context, query string) (SearchResult, error) {
	if c == nil {
		return SearchResult{}, fmt.Errorf("client is nil")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{}, ErrEmptyQuery
	}
	values := url.Values{}
	values.Set("s", query)

	const op = "search"
	var payload searchResponse
	if err := c.get(ctx, op, values, &payload); err != nil {
		return SearchResult{}, err
	}

	switch {
	case strings.EqualFold(payload.Response, "true"):
		if len(payload.Search) == 0 {
			return SearchResult{Status: StatusEmpty}, nil
		}
		return SearchResult{
			Status:     StatusFound,
			Items:      payload.Search,
			TotalCount: parseTotal(payload.TotalResults),
		}, nil
	case strings.EqualFold(payload.Response, "false"):
		if isNotFoundMessage(payload.Error) {
			return SearchResult{Status: StatusEmpty}, nil
		}
		return SearchResult{}, &RemoteError{Op: op, Message: remoteMessage(payload.Error)}
	default:
		return SearchResult{}, &DecodeError{Op: op, Err: fmt.Errorf("unexpected Response flag %q", payload.Response)}
	}
}

// LookupByIdentifier fetches one detail record. IMDb ids (tt1234567) are
// looked up exactly; anything else is treated as a title.
func (c *Client) LookupByIdentifier(ctx context.Context, idOrTitle string) (DetailResult, error) {
	if c == nil {
		return DetailResult{}, fmt.Errorf("client is nil")
	}
	idOrTitle = strings.TrimSpace(idOrTitle)
	if idOrTitle == "" {
		return DetailResult{}, ErrEmptyQuery
	}
	values := url.Values{}
	if IsIMDbID(idOrTitle) {
		values.Set("i", idOrTitle)
	} else {
		values.Set("t", idOrTitle)
	}

	const op = "detail"
	var payload detailResponse
	if err := c.get(ctx, op, values, &payload); err != nil {
		return DetailResult{}, err
	}

	switch {
	case strings.EqualFold(payload.Response, "true"):
		return DetailResult{Found: true, Record: payload.DetailRecord}, nil
	case strings.EqualFold(payload.Response, "false"):
		if isNotFoundMessage(payload.Error) {
			return DetailResult{Found: false}, nil
		}
		return DetailResult{}, &RemoteError{Op: op, Message: remoteMessage(payload.Error)}
	default:
		return DetailResult{}, &DecodeError{Op: op, Err: fmt.Errorf("unexpected Response flag %q", payload.Response)}
	}
}

// IsIMDbID reports whether value looks like an IMDb title id.
func IsIMDbID(value string) bool {
	return imdbIDPattern.MatchString(strings.TrimSpace(value))
}

func (c *Client) get(ctx context.Context, op string, values url.Values, dest any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Op: op, Err: err}
		}
	}

	values.Set("apikey", c.apiKey)
	reqURL := *c.baseURL
	reqURL.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: redact(err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return statusError(op, resp)
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		if ctx.Err() != nil {
			return &TransportError{Op: op, Err: ctx.Err()}
		}
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

// statusError prefers the API's own message over the bare status code.
func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(payload.Error)}
	}
	return &TransportError{Op: op, StatusCode: resp.StatusCode}
}

// redact drops the request URL (which carries the api key) from net/http errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return fmt.Errorf("execute request: %w", uerr.Err)
	}
	return fmt.Errorf("execute request: %w", err)
}

func remoteMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "request rejected"
	}
	return msg
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
