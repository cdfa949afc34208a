package timing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"hufschlaeger.net/timing-client/internal/config"
)

// Repository is the client of the Timing REST API. It holds no state besides
// its token and transport and is safe for concurrent use.
type Repository struct {
	token     string
	transport Transport
	logger    *zap.Logger
}

type options struct {
	transport    Transport
	transportSet bool
	logger       *zap.Logger
}

type Option func(*options)

// WithTransport replaces the default net/http transport.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
		o.transportSet = true
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewRepository creates the client. The token is taken from cfg and falls
// back to the TIMING_TOKEN environment variable; without either it fails
// with *ConfigError.
func NewRepository(cfg *config.Config, opts ...Option) (*Repository, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	token := cfg.TimingToken
	if token == "" {
		token = os.Getenv(config.TokenEnv)
	}
	if token == "" {
		return nil, &ConfigError{Message: "Timing token not specified (" + config.TokenEnv + ")"}
	}

	transport := o.transport
	if !o.transportSet {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpTransport := NewHTTPTransport(&http.Client{Timeout: timeout}, cfg.RateLimit)
		httpTransport.logger = o.logger
		transport = httpTransport
	}
	if f, ok := transport.(TransportFunc); transport == nil || (ok && f == nil) {
		return nil, &ConfigError{Message: "no usable transport"}
	}

	return &Repository{
		token:     token,
		transport: transport,
		logger:    o.logger,
	}, nil
}

// envelope is the wrapper of every singular response.
type envelope[T any] struct {
	Data    T                 `json:"data"`
	Message string            `json:"message,omitempty"`
	Links   map[string]string `json:"links,omitempty"`
}

// fetch runs one API call: build the request, hand it to the transport,
// classify the response and decode the payload into out (if out is not nil).
func (r *Repository) fetch(ctx context.Context, method, requestPath string, query any, body any, out any) error {
	req, err := r.newRequest(method, requestPath, query, body)
	if err != nil {
		return err
	}

	started := time.Now()
	resp, err := r.transport.RoundTrip(ctx, req)
	if err != nil {
		r.logger.Debug("timing request failed",
			zap.String("method", method), zap.String("url", req.URL), zap.Error(err))
		return err
	}

	r.logger.Debug("timing request",
		zap.String("method", method),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(started)))

	if resp.URL == "" {
		resp.URL = req.URL
	}

	payload, err := classify(resp)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if payload == nil {
		return &RequestError{
			Message:    "empty response",
			URL:        resp.URL,
			StatusCode: resp.StatusCode,
			StatusText: resp.StatusText,
		}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &ParseError{URL: resp.URL, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

// ValidateConnection prüft ob die Timing-Verbindung funktioniert
func (r *Repository) ValidateConnection(ctx context.Context) error {
	if _, err := r.ListProjects(ctx, nil); err != nil {
		return fmt.Errorf("timing connection failed: %w", err)
	}
	return nil
}
