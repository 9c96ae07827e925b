package census

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the indicators endpoint for department 2 (El Progreso).
// Municipality codes are appended verbatim.
const DefaultBaseURL = "https://censopoblacion.azurewebsites.net/API/indicadores/2/"

// FetchError reports a failed load: either a non-2xx status or a transport
// or decoding failure carried in Err.
type FetchError struct {
	Code   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client loads datasets from the indicators API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithTimeout bounds each request. It applies to the client set by
// WithHTTPClient regardless of option order.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.timeout = d }
}

// WithRateLimit spaces out requests to the upstream API. A non-positive
// rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cl *Client) {
		if perSecond <= 0 {
			cl.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		cl.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger used for request and fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

// NewClient returns a Client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// BaseURL returns the endpoint codes are appended to.
func (c *Client) BaseURL() string { return c.baseURL }

// Load fetches the dataset for one municipality code. Every call issues its
// own request; concurrent calls are not coalesced.
func (c *Client) Load(ctx context.Context, code string) (Dataset, error) {
	url := c.baseURL + code

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{Code: code, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Code: code, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Code: code, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("indicators request",
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Code: code, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Code: code, Err: fmt.Errorf("read body: %w", err)}
	}

	d, fallback, err := Decode(body)
	if err != nil {
		return nil, &FetchError{Code: code, Err: err}
	}
	if fallback {
		c.log.Warn("indicators body is a string that is not JSON; using it as raw text",
			slog.String("code", code),
			slog.Int("length", len(d)),
		)
	}
	return d, nil
}

// Decode parses an indicators response body. A body that decodes to a JSON
// string is parsed once more; when that second pass fails the string is
// kept and fallback is true. An empty or null body is an empty dataset.
func Decode(body []byte) (d Dataset, fallback bool, err error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Dataset{}, false, nil
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, false, fmt.Errorf("decode body: %w", err)
	}

	if s, ok := v.(string); ok {
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return datasetFrom(s), true, nil
		}
		v = inner
	}
	return datasetFrom(v), false, nil
}
