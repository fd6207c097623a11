package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/akuity/artifact-resolver/internal/artifacts"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifacts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(args ...string) (string, error) {
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	chartRepo := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/index.yaml":
				_, _ = w.Write([]byte(`entries:
  chart-a:
  - version: 1.0.0
    urls: [chart-a-1.0.0.tgz]
  - version: 1.1.0
    urls: [chart-a-1.1.0.tgz]
  chart-b:
  - version: 2.0.0
    urls: [chart-b-2.0.0.tgz]
`))
			case "/chart-a-1.1.0.tgz":
				_, _ = w.Write([]byte("chart-a 1.1.0"))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}),
	)
	defer chartRepo.Close()

	configPath := writeConfig(t, fmt.Sprintf(`enabled: true
accounts:
- name: charts
  type: helm/chart
  options:
    repository: %s
`, chartRepo.URL))

	testCases := []struct {
		name       string
		args       []string
		assertions func(*testing.T, string, error)
	}{
		{
			name: "credentials",
			args: []string{"credentials", "--config", configPath},
			assertions: func(t *testing.T, out string, err error) {
				require.NoError(t, err)
				require.JSONEq(
					t,
					`[
						{"name":"charts","types":["helm/chart"]},
						{"name":"embedded-artifact","types":["embedded/base64"]}
					]`,
					out,
				)
			},
		},
		{
			name: "credentials when disabled",
			args: []string{"credentials", "--config", ""},
			assertions: func(t *testing.T, out string, err error) {
				require.NoError(t, err)
				require.JSONEq(t, `[]`, out)
			},
		},
		{
			name: "names",
			args: []string{"names", "helm", "charts", "--config", configPath},
			assertions: func(t *testing.T, out string, err error) {
				require.NoError(t, err)
				require.JSONEq(t, `["chart-a","chart-b"]`, out)
			},
		},
		{
			name: "versions",
			args: []string{"versions", "helm", "charts", "chart-a", "--config", configPath},
			assertions: func(t *testing.T, out string, err error) {
				require.NoError(t, err)
				require.JSONEq(t, `["1.0.0","1.1.0"]`, out)
			},
		},
		{
			name: "names of unsupported kind",
			args: []string{"names", "docker", "charts", "--config", configPath},
			assertions: func(t *testing.T, _ string, err error) {
				require.True(t, artifacts.IsUnsupportedType(err))
			},
		},
		{
			name: "names when disabled",
			args: []string{"names", "helm", "charts", "--config", ""},
			assertions: func(t *testing.T, _ string, err error) {
				require.True(t, artifacts.IsNotConfigured(err))
			},
		},
		{
			name: "fetch latest chart",
			args: []string{
				"fetch",
				"--config", configPath,
				"--type", "helm/chart",
				"--account", "charts",
				"--name", "chart-a",
			},
			assertions: func(t *testing.T, out string, err error) {
				require.NoError(t, err)
				require.Equal(t, "chart-a 1.1.0", out)
			},
		},
		{
			name: "fetch embedded artifact",
			args: []string{
				"fetch",
				"--config", configPath,
				"--type", "embedded/base64",
				"--reference", base64.StdEncoding.EncodeToString([]byte("inline")),
			},
			assertions: func(t *testing.T, out string, err error) {
				require.NoError(t, err)
				require.Equal(t, "inline", out)
			},
		},
		{
			name: "fetch without type",
			args: []string{"fetch", "--config", configPath, "--name", "chart-a"},
			assertions: func(t *testing.T, _ string, err error) {
				require.ErrorContains(t, err, "type")
			},
		},
		{
			name: "bad configuration",
			args: []string{"credentials", "--config", writeConfig(t, "enabled: [")},
			assertions: func(t *testing.T, _ string, err error) {
				require.ErrorContains(t, err, "error parsing artifacts configuration")
			},
		},
		{
			name: "version",
			args: []string{"version"},
			assertions: func(t *testing.T, out string, err error) {
				require.NoError(t, err)
				require.Contains(t, out, `"goVersion"`)
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			out, err := run(testCase.args...)
			testCase.assertions(t, out, err)
		})
	}
}

func TestFetchToFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "artifact.txt")
	_, err := run(
		"fetch",
		"--config", writeConfig(t, "enabled: true\n"),
		"--type", "embedded/base64",
		"--reference", base64.StdEncoding.EncodeToString([]byte("to a file")),
		"-o", output,
	)
	require.NoError(t, err)
	b, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, "to a file", string(b))
}

func TestWriteArtifact(t *testing.T) {
	testCases := []struct {
		name       string
		path       func(*testing.T) string
		reader     io.Reader
		assertions func(*testing.T, string, error)
	}{
		{
			name: "success",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "artifact.txt")
			},
			reader: strings.NewReader("artifact content"),
			assertions: func(t *testing.T, path string, err error) {
				require.NoError(t, err)
				b, err := os.ReadFile(path)
				require.NoError(t, err)
				require.Equal(t, "artifact content", string(b))
			},
		},
		{
			name: "output directory does not exist",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing", "artifact.txt")
			},
			reader: strings.NewReader("artifact content"),
			assertions: func(t *testing.T, _ string, err error) {
				require.ErrorContains(t, err, "error creating output file")
			},
		},
		{
			name: "read failure",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "artifact.txt")
			},
			reader: iotest.ErrReader(errors.New("connection reset")),
			assertions: func(t *testing.T, _ string, err error) {
				require.ErrorContains(t, err, "error writing artifact: connection reset")
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			path := testCase.path(t)
			testCase.assertions(t, path, writeArtifact(path, testCase.reader))
		})
	}
}
