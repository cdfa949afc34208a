package timing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Request is one call to the Timing API as handed to a Transport.
type Request struct {
	Method string
	URL    string
	Header http.Header
	// Body is nil for requests without body.
	Body []byte
}

// Response is the transport's answer. Body is already decompressed.
type Response struct {
	StatusCode int
	StatusText string
	URL        string
	Body       []byte
}

// Transport performs a single HTTP exchange. Network failures are returned
// as error and passed to the caller unchanged.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPTransport is the default Transport on top of net/http.
type HTTPTransport struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewHTTPTransport wraps httpClient. A requestsPerSecond above zero throttles
// all requests made through the transport.
func NewHTTPTransport(httpClient *http.Client, requestsPerSecond float64) *HTTPTransport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	t := &HTTPTransport{
		httpClient: httpClient,
		logger:     zap.NewNop(),
	}
	if requestsPerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return t
}

func (t *HTTPTransport) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.logger.Warn("closing response body failed", zap.Error(err))
		}
	}()

	// Accept-Encoding is set explicitly, so net/http leaves decompression to us.
	reader := io.Reader(resp.Body)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip response: %w", err)
		}
		defer func() {
			if err := gz.Close(); err != nil {
				t.logger.Warn("closing gzip reader failed", zap.Error(err))
			}
		}()
		reader = gz
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	url := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}

	return &Response{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		URL:        url,
		Body:       data,
	}, nil
}

// statusText strips the numeric code from resp.Status ("404 Not Found").
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}
