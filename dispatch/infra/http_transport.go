package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Breadlyy/honestSign/dispatch/domain"
)

const (
	defaultHTTPTimeout      = 30 * time.Second
	defaultMaxResponseBytes = 64 << 10
)

// HTTPTransport faz o POST do payload para o registry.
type HTTPTransport struct {
	client    *http.Client
	maxBody   int64
	userAgent string
}

var _ domain.Transport = (*HTTPTransport)(nil)

type HTTPTransportOption func(*HTTPTransport)

func WithHTTPClient(c *http.Client) HTTPTransportOption {
	return func(t *HTTPTransport) { t.client = c }
}

// WithTimeout define o timeout por requisição do client padrão.
func WithTimeout(d time.Duration) HTTPTransportOption {
	return func(t *HTTPTransport) {
		if d > 0 {
			t.client.Timeout = d
		}
	}
}

func WithMaxResponseBytes(n int64) HTTPTransportOption {
	return func(t *HTTPTransport) { t.maxBody = n }
}

func WithUserAgent(ua string) HTTPTransportOption {
	return func(t *HTTPTransport) { t.userAgent = ua }
}

func NewHTTPTransport(opts ...HTTPTransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client:    &http.Client{Timeout: defaultHTTPTimeout},
		maxBody:   defaultMaxResponseBytes,
		userAgent: "honestsign-registrar",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) Send(ctx context.Context, url string, body []byte) (domain.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.Response{}, fmt.Errorf("post %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody))
	out := domain.Response{StatusCode: resp.StatusCode, Body: data}
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, &domain.StatusError{StatusCode: resp.StatusCode, Body: data}
	}
	return out, nil
}
