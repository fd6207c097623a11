package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akuity/artifact-resolver/internal/artifacts"
	"github.com/akuity/artifact-resolver/internal/artifacts/embedded"
	"github.com/akuity/artifact-resolver/internal/artifacts/helm"
	"github.com/akuity/artifact-resolver/internal/config"
	"github.com/akuity/artifact-resolver/internal/logging"
)

const testIndex = `apiVersion: v1
entries:
  chart-a:
  - version: 1.0.0
    urls: [charts/chart-a-1.0.0.tgz]
  - version: 1.1.0
    urls: [charts/chart-a-1.1.0.tgz]
  chart-b:
  - version: 2.0.0
    urls: [charts/chart-b-2.0.0.tgz]
`

func newTestChartRepository(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/index.yaml":
				_, _ = w.Write([]byte(testIndex))
			case "/charts/chart-a-1.0.0.tgz":
				_, _ = w.Write([]byte("chart-a archive"))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}),
	)
	t.Cleanup(srv.Close)
	return srv
}

// brokenStreamCredential hands out streams that fail on their first read.
type brokenStreamCredential struct {
	artifacts.Account
}

func (c *brokenStreamCredential) Download(
	context.Context,
	artifacts.Reference,
) (io.ReadCloser, error) {
	return io.NopCloser(iotest.ErrReader(&artifacts.TransportError{
		Location:   "upstream",
		StatusCode: http.StatusServiceUnavailable,
	})), nil
}

func newTestRepository(t *testing.T) *artifacts.Repository {
	t.Helper()
	chartRepo := newTestChartRepository(t)
	charts, err := helm.NewCredential("charts", helm.Options{Repository: chartRepo.URL}, nil)
	require.NoError(t, err)
	broken, err := helm.NewCredential(
		"broken",
		helm.Options{Repository: "http://127.0.0.1:1"},
		nil,
	)
	require.NoError(t, err)
	repo, err := artifacts.NewRepository(
		charts,
		broken,
		embedded.NewCredential(embedded.DefaultAccountName),
		&brokenStreamCredential{Account: artifacts.NewAccount("stream", "test/stream")},
	)
	require.NoError(t, err)
	return repo
}

func TestServer_Endpoints(t *testing.T) {
	enabled := NewServer(config.ServerConfig{}, newTestRepository(t)).(*server) // nolint: forcetypeassert
	disabled := NewServer(config.ServerConfig{}, nil).(*server)                 // nolint: forcetypeassert

	testCases := []struct {
		name       string
		server     *server
		method     string
		path       string
		body       string
		assertions func(*testing.T, *http.Response, []byte)
	}{
		{
			name:   "healthz",
			server: disabled,
			method: http.MethodGet,
			path:   "/healthz",
			assertions: func(t *testing.T, res *http.Response, _ []byte) {
				require.Equal(t, http.StatusOK, res.StatusCode)
			},
		},
		{
			name:   "version",
			server: disabled,
			method: http.MethodGet,
			path:   "/version",
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusOK, res.StatusCode)
				require.Contains(t, string(body), `"goVersion"`)
			},
		},
		{
			name:   "list credentials",
			server: enabled,
			method: http.MethodGet,
			path:   "/artifacts/credentials",
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusOK, res.StatusCode)
				require.JSONEq(
					t,
					`[
						{"name":"charts","types":["helm/chart"]},
						{"name":"broken","types":["helm/chart"]},
						{"name":"embedded-artifact","types":["embedded/base64"]},
						{"name":"stream","types":["test/stream"]}
					]`,
					string(body),
				)
			},
		},
		{
			name:   "list credentials when disabled",
			server: disabled,
			method: http.MethodGet,
			path:   "/artifacts/credentials",
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusOK, res.StatusCode)
				require.JSONEq(t, `[]`, string(body))
			},
		},
		{
			name:   "list names",
			server: enabled,
			method: http.MethodGet,
			path:   "/artifacts/helm/account/charts/names",
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusOK, res.StatusCode)
				require.JSONEq(t, `["chart-a","chart-b"]`, string(body))
			},
		},
		{
			name:   "list versions",
			server: enabled,
			method: http.MethodGet,
			path:   "/artifacts/helm/account/charts/names/chart-a/versions",
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusOK, res.StatusCode)
				require.JSONEq(t, `["1.0.0","1.1.0"]`, string(body))
			},
		},
		{
			name:   "list versions of unknown chart",
			server: enabled,
			method: http.MethodGet,
			path:   "/artifacts/helm/account/charts/names/nonexistent-name/versions",
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusOK, res.StatusCode)
				require.JSONEq(t, `[]`, string(body))
			},
		},
		{
			name:   "list names of unsupported type",
			server: enabled,
			method: http.MethodGet,
			path:   "/artifacts/docker/account/charts/names",
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusNotFound, res.StatusCode)
				require.Contains(t, string(body), `not supported`)
			},
		},
		{
			name:   "list names of unknown account",
			server: enabled,
			method: http.MethodGet,
			path:   "/artifacts/helm/account/nope/names",
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusNotFound, res.StatusCode)
				require.JSONEq(
					t,
					`{"error":"failed to resolve names for nope account"}`,
					string(body),
				)
			},
		},
		{
			name:   "list names of unreachable repository",
			server: enabled,
			method: http.MethodGet,
			path:   "/artifacts/helm/account/broken/names",
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusNotFound, res.StatusCode)
				require.JSONEq(
					t,
					`{"error":"failed to resolve names for broken account"}`,
					string(body),
				)
			},
		},
		{
			name:   "list names when disabled",
			server: disabled,
			method: http.MethodGet,
			path:   "/artifacts/helm/account/charts/names",
			assertions: func(t *testing.T, res *http.Response, _ []byte) {
				require.Equal(t, http.StatusNotImplemented, res.StatusCode)
			},
		},
		{
			name:   "fetch chart",
			server: enabled,
			method: http.MethodPut,
			path:   "/artifacts/fetch",
			body:   `{"type":"helm/chart","artifactAccount":"charts","name":"chart-a","version":"1.0.0"}`,
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusOK, res.StatusCode)
				require.Equal(t, "application/octet-stream", res.Header.Get("Content-Type"))
				require.Equal(t, "chart-a archive", string(body))
			},
		},
		{
			name:   "fetch embedded artifact without account",
			server: enabled,
			method: http.MethodPut,
			path:   "/artifacts/fetch",
			body: `{"type":"embedded/base64","reference":"` +
				base64.StdEncoding.EncodeToString([]byte("inline")) + `"}`,
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusOK, res.StatusCode)
				require.Equal(t, "inline", string(body))
			},
		},
		{
			name:   "fetch malformed embedded artifact",
			server: enabled,
			method: http.MethodPut,
			path:   "/artifacts/fetch",
			body:   `{"type":"embedded/base64","reference":"@@@not-base64@@@"}`,
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusBadRequest, res.StatusCode)
				require.Contains(t, string(body), "illegal base64 data")
			},
		},
		{
			name:   "fetch chart without name",
			server: enabled,
			method: http.MethodPut,
			path:   "/artifacts/fetch",
			body:   `{"type":"helm/chart","artifactAccount":"charts"}`,
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusBadRequest, res.StatusCode)
				require.Contains(t, string(body), "a chart name is required")
			},
		},
		{
			name:   "fetch stream failing on first read",
			server: enabled,
			method: http.MethodPut,
			path:   "/artifacts/fetch",
			body:   `{"type":"test/stream"}`,
			assertions: func(t *testing.T, res *http.Response, body []byte) {
				require.Equal(t, http.StatusBadGateway, res.StatusCode)
				require.NotEqual(t, "application/octet-stream", res.Header.Get("Content-Type"))
				require.Contains(t, string(body), "received unexpected HTTP 503")
			},
		},
		{
			name:   "fetch missing chart archive",
			server: enabled,
			method: http.MethodPut,
			path:   "/artifacts/fetch",
			body:   `{"type":"helm/chart","artifactAccount":"charts","name":"chart-b"}`,
			assertions: func(t *testing.T, res *http.Response, _ []byte) {
				require.Equal(t, http.StatusNotFound, res.StatusCode)
			},
		},
		{
			name:   "fetch from unknown account",
			server: enabled,
			method: http.MethodPut,
			path:   "/artifacts/fetch",
			body:   `{"type":"helm/chart","artifactAccount":"nope","name":"chart-a"}`,
			assertions: func(t *testing.T, res *http.Response, _ []byte) {
				require.Equal(t, http.StatusNotFound, res.StatusCode)
			},
		},
		{
			name:   "fetch from unreachable repository",
			server: enabled,
			method: http.MethodPut,
			path:   "/artifacts/fetch",
			body:   `{"type":"helm/chart","artifactAccount":"broken","name":"chart-a"}`,
			assertions: func(t *testing.T, res *http.Response, _ []byte) {
				require.Equal(t, http.StatusBadGateway, res.StatusCode)
			},
		},
		{
			name:   "fetch with malformed body",
			server: enabled,
			method: http.MethodPut,
			path:   "/artifacts/fetch",
			body:   `{"type":`,
			assertions: func(t *testing.T, res *http.Response, _ []byte) {
				require.Equal(t, http.StatusBadRequest, res.StatusCode)
			},
		},
		{
			name:   "fetch without type",
			server: enabled,
			method: http.MethodPut,
			path:   "/artifacts/fetch",
			body:   `{"name":"chart-a"}`,
			assertions: func(t *testing.T, res *http.Response, _ []byte) {
				require.Equal(t, http.StatusBadRequest, res.StatusCode)
			},
		},
		{
			name:   "fetch when disabled",
			server: disabled,
			method: http.MethodPut,
			path:   "/artifacts/fetch",
			body:   `{"type":"helm/chart","artifactAccount":"charts","name":"chart-a"}`,
			assertions: func(t *testing.T, res *http.Response, _ []byte) {
				require.Equal(t, http.StatusNotImplemented, res.StatusCode)
			},
		},
		{
			name:   "wrong method",
			server: enabled,
			method: http.MethodGet,
			path:   "/artifacts/fetch",
			assertions: func(t *testing.T, res *http.Response, _ []byte) {
				require.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			srv := httptest.NewServer(testCase.server.handler(logging.NewDiscardLogger()))
			defer srv.Close()
			req, err := http.NewRequest(
				testCase.method,
				srv.URL+testCase.path,
				strings.NewReader(testCase.body),
			)
			require.NoError(t, err)
			res, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer res.Body.Close()
			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)
			testCase.assertions(t, res, body)
		})
	}
}

func TestServer_Serve(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(
		logging.ContextWithLogger(context.Background(), logging.NewDiscardLogger()),
	)
	defer cancel()

	s := NewServer(
		config.ServerConfig{
			GracefulShutdownTimeout:     time.Second,
			PermissiveCORSPolicyEnabled: true,
		},
		nil,
	)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx, l)
	}()

	res, err := http.Get("http://" + l.Addr().String() + "/healthz")
	require.NoError(t, err)
	status := map[string]string{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&status))
	require.NoError(t, res.Body.Close())
	require.Equal(t, "ok", status["status"])

	cancel()
	select {
	case err = <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
