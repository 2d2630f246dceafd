package kube

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"

	"github.com/kbukum/kubeping/errors"
)

// StreamRequest is one GET against the API.
type StreamRequest struct {
	URL     string
	Headers http.Header
	// ConnectTimeout bounds dialing. ReadTimeout bounds waiting for and
	// reading the response.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// StreamProvider opens a response stream for a request. Implementations
// return an error for transport failures and non-success statuses.
type StreamProvider interface {
	Open(ctx context.Context, req StreamRequest) (io.ReadCloser, error)
}

// StreamProviderFunc adapts a function to StreamProvider.
type StreamProviderFunc func(ctx context.Context, req StreamRequest) (io.ReadCloser, error)

// Open calls f.
func (f StreamProviderFunc) Open(ctx context.Context, req StreamRequest) (io.ReadCloser, error) {
	return f(ctx, req)
}

// HTTPStreamProvider opens plain or TLS streams depending on the URL scheme.
type HTTPStreamProvider struct {
	client *http.Client
}

type connectTimeoutKey struct{}

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 1024

// NewHTTPStreamProvider builds a provider whose TLS connections use tlsConfig.
// A nil tlsConfig uses the system defaults.
func NewHTTPStreamProvider(tlsConfig *tls.Config) (*HTTPStreamProvider, error) {
	dialer := &net.Dialer{KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if d, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok && d > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}
			return dialer.DialContext(ctx, network, addr)
		},
		TLSClientConfig:     tlsConfig,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("kube: configure http2: %w", err)
	}
	return &HTTPStreamProvider{client: &http.Client{Transport: transport}}, nil
}

// Open performs the GET. The whole exchange is bounded by
// ConnectTimeout + ReadTimeout; dialing alone by ConnectTimeout.
func (p *HTTPStreamProvider) Open(ctx context.Context, req StreamRequest) (io.ReadCloser, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("kube: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("kube: unsupported scheme %q", u.Scheme)
	}

	ctx = context.WithValue(ctx, connectTimeoutKey{}, req.ConnectTimeout)
	cancel := context.CancelFunc(func() {})
	if total := req.ConnectTimeout + req.ReadTimeout; total > 0 {
		ctx, cancel = context.WithTimeout(ctx, total)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("kube: build request: %w", err)
	}
	for name, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		timedOut := ctx.Err() == context.DeadlineExceeded
		cancel()
		if timedOut {
			return nil, errors.Timeout("GET " + req.URL).WithCause(err)
		}
		return nil, errors.ConnectionFailed(u.Host, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		cancel()
		return nil, errors.UnexpectedStatus(resp.StatusCode, string(snippet))
	}

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
