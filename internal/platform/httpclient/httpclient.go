package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "farm-registry"

	maxBodyBytes = 1 << 20
)

// Client es el cliente JSON que usan los adapters contra servicios externos (IAM).
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string

	// Headers se mandan en todos los requests (p.ej. API key).
	Headers map[string]string
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Transport http.RoundTripper // tests
	Headers   map[string]string
}

func New(opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}

	c := &Client{
		HTTP:      &http.Client{Timeout: timeout, Transport: opts.Transport},
		UserAgent: ua,
		Headers:   cleanHeaders(opts.Headers),
	}

	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return c, nil
	}
	u, err := url.ParseRequestURI(base)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", base)
	}
	c.BaseURL = strings.TrimRight(base, "/")
	return c, nil
}

// HTTPError es una respuesta no-2xx del upstream.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// DoJSON manda in como JSON (si no es nil) y decodifica la respuesta en out (si no es nil).
// Si ctx trae request id de chi se reenvía como X-Request-Id.
func (c *Client) DoJSON(ctx context.Context, method, pathOrURL string, headers map[string]string, in, out any) error {
	if c == nil || c.HTTP == nil {
		return errors.New("httpclient: nil client")
	}

	req, err := c.newRequest(ctx, method, pathOrURL, headers, in)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, pathOrURL string, headers map[string]string, in any) (*http.Request, error) {
	fullURL, err := c.resolveURL(pathOrURL)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("httpclient: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := chimw.GetReqID(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range cleanHeaders(headers) {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (c *Client) resolveURL(pathOrURL string) (string, error) {
	pathOrURL = strings.TrimSpace(pathOrURL)
	switch {
	case pathOrURL == "":
		return "", errors.New("httpclient: empty url")
	case strings.HasPrefix(pathOrURL, "http://"), strings.HasPrefix(pathOrURL, "https://"):
		return pathOrURL, nil
	case c.BaseURL == "":
		return "", errors.New("httpclient: relative path requires BaseURL")
	}
	return c.BaseURL + "/" + strings.TrimLeft(pathOrURL, "/"), nil
}

func cleanHeaders(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if k = strings.TrimSpace(k); k != "" {
			out[k] = v
		}
	}
	return out
}
