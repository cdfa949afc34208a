package timing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"hufschlaeger.net/timing-client/internal/config"
	"hufschlaeger.net/timing-client/internal/repository/timing"
	"hufschlaeger.net/timing-client/internal/repository/timing/timingtest"
)

func newTimingRepoWithServer(t *testing.T, opts ...timing.Option) (*timing.Repository, *timingtest.Server) {
	t.Helper()

	srv := timingtest.NewServer()
	cfg := &config.Config{TimingToken: "timing-token"}

	repo, err := timing.NewRepository(cfg, append([]timing.Option{timing.WithTransport(srv)}, opts...)...)
	require.NoError(t, err)

	return repo, srv
}

func TestNewRepository_MissingTokenIsConfigError(t *testing.T) {
	t.Setenv(config.TokenEnv, "")

	called := false
	transport := timing.TransportFunc(func(ctx context.Context, req *timing.Request) (*timing.Response, error) {
		called = true
		return nil, errors.New("unexpected")
	})

	repo, err := timing.NewRepository(&config.Config{}, timing.WithTransport(transport))
	assert.Nil(t, repo)

	var cfgErr *timing.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "token")
	assert.False(t, called, "no request before the token is known")

	_, err = timing.NewRepository(nil)
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNewRepository_TokenFallsBackToEnvironment(t *testing.T) {
	t.Setenv(config.TokenEnv, "from-env")

	srv := timingtest.NewServer()
	repo, err := timing.NewRepository(&config.Config{}, timing.WithTransport(srv))
	require.NoError(t, err)

	_, err = repo.ListProjects(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer from-env", srv.LastRequest().Header.Get("Authorization"))
}

func TestNewRepository_NilTransportIsConfigError(t *testing.T) {
	for name, transport := range map[string]timing.Transport{
		"nil interface":     nil,
		"nil TransportFunc": timing.TransportFunc(nil),
	} {
		t.Run(name, func(t *testing.T) {
			repo, err := timing.NewRepository(&config.Config{TimingToken: "x"}, timing.WithTransport(transport))

			var cfgErr *timing.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
			assert.Nil(t, repo)
		})
	}
}

func TestNewRepository_DefaultTransport(t *testing.T) {
	repo, err := timing.NewRepository(&config.Config{TimingToken: "x"})
	require.NoError(t, err)
	assert.NotNil(t, repo)
}

func TestFetch_TransportErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("connection refused")
	transport := timing.TransportFunc(func(ctx context.Context, req *timing.Request) (*timing.Response, error) {
		return nil, boom
	})

	repo, err := timing.NewRepository(&config.Config{TimingToken: "x"}, timing.WithTransport(transport))
	require.NoError(t, err)

	_, err = repo.StopTask(context.Background())
	assert.Same(t, boom, err)
}

func TestFetch_EmptyPayloadWhereDataExpected(t *testing.T) {
	transport := timing.TransportFunc(func(ctx context.Context, req *timing.Request) (*timing.Response, error) {
		return &timing.Response{StatusCode: 200, StatusText: "OK", URL: req.URL}, nil
	})

	repo, err := timing.NewRepository(&config.Config{TimingToken: "x"}, timing.WithTransport(transport))
	require.NoError(t, err)

	_, err = repo.GetProject(context.Background(), "/projects/1")
	var reqErr *timing.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "empty response", reqErr.Message)

	var apiErr *timing.APIError
	assert.False(t, errors.As(err, &apiErr))

	// Delete expects no payload.
	assert.NoError(t, repo.Delete(context.Background(), "/projects/1"))
}

func TestFetch_MalformedPayloadIsParseError(t *testing.T) {
	transport := timing.TransportFunc(func(ctx context.Context, req *timing.Request) (*timing.Response, error) {
		return &timing.Response{StatusCode: 200, StatusText: "OK", URL: req.URL, Body: []byte(`{"data":"not a project"}`)}, nil
	})

	repo, err := timing.NewRepository(&config.Config{TimingToken: "x"}, timing.WithTransport(transport))
	require.NoError(t, err)

	_, err = repo.GetProject(context.Background(), "/projects/1")
	var parseErr *timing.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestFetch_LogsExchangeAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	repo, _ := newTimingRepoWithServer(t, timing.WithLogger(zap.New(core)))

	_, err := repo.ListProjectsHierarchy(context.Background())
	require.NoError(t, err)

	entries := logs.FilterMessage("timing request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "https://web.timingapp.com/api/v1/projects/hierarchy", fields["url"])
	assert.EqualValues(t, 200, fields["status"])
}

func TestTiming_ValidateConnection_ErrorWrapped(t *testing.T) {
	transport := timing.TransportFunc(func(ctx context.Context, req *timing.Request) (*timing.Response, error) {
		return &timing.Response{StatusCode: 401, StatusText: "Unauthorized", URL: req.URL, Body: []byte(`{"message":"Unauthenticated."}`)}, nil
	})

	repo, err := timing.NewRepository(&config.Config{TimingToken: "bad"}, timing.WithTransport(transport))
	require.NoError(t, err)

	err = repo.ValidateConnection(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timing connection failed:")
	assert.Contains(t, err.Error(), "Unauthenticated.")

	var apiErr *timing.APIError
	assert.ErrorAs(t, err, &apiErr)
}
