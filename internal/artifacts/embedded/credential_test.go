package embedded

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akuity/artifact-resolver/internal/artifacts"
)

func TestCredential_Download(t *testing.T) {
	cred := NewCredential(DefaultAccountName)

	testCases := []struct {
		name       string
		ref        artifacts.Reference
		assertions func(*testing.T, io.ReadCloser, error)
	}{
		{
			name: "valid content",
			ref: artifacts.Reference{
				Type:      ArtifactType,
				Reference: base64.StdEncoding.EncodeToString([]byte("apiVersion: v1\n")),
			},
			assertions: func(t *testing.T, rc io.ReadCloser, err error) {
				require.NoError(t, err)
				defer rc.Close()
				b, err := io.ReadAll(rc)
				require.NoError(t, err)
				require.Equal(t, "apiVersion: v1\n", string(b))
			},
		},
		{
			name: "malformed content",
			ref:  artifacts.Reference{Type: ArtifactType, Reference: "@@@not-base64@@@"},
			assertions: func(t *testing.T, rc io.ReadCloser, err error) {
				require.Nil(t, rc)
				require.True(t, artifacts.IsInvalidReference(err))
				require.ErrorContains(t, err, "illegal base64 data at input byte 0")
			},
		},
		{
			name: "content corrupted after a valid prefix",
			ref: artifacts.Reference{
				Type: ArtifactType,
				Reference: base64.StdEncoding.EncodeToString(
					[]byte(strings.Repeat("a", 3000)),
				) + "@@@",
			},
			assertions: func(t *testing.T, rc io.ReadCloser, err error) {
				require.Nil(t, rc)
				require.True(t, artifacts.IsInvalidReference(err))
			},
		},
		{
			name: "no content",
			ref:  artifacts.Reference{Type: ArtifactType},
			assertions: func(t *testing.T, _ io.ReadCloser, err error) {
				require.ErrorContains(t, err, "no embedded content")
				require.True(t, artifacts.IsInvalidReference(err))
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			rc, err := cred.Download(context.Background(), testCase.ref)
			testCase.assertions(t, rc, err)
		})
	}
}

func TestDefaultAccount(t *testing.T) {
	repo, err := artifacts.NewRepositoryFromConfig(
		context.Background(),
		artifacts.Config{Enabled: true},
		nil,
	)
	require.NoError(t, err)
	cred, err := repo.Find(context.Background(), ArtifactType, DefaultAccountName)
	require.NoError(t, err)
	require.Equal(t, DefaultAccountName, cred.Name())

	_, err = artifacts.NewRepositoryFromConfig(
		context.Background(),
		artifacts.Config{
			Enabled: true,
			Accounts: []artifacts.AccountConfig{{
				Name:    "inline",
				Type:    ArtifactType,
				Options: json.RawMessage(`{"unexpected":true}`),
			}},
		},
		nil,
	)
	require.ErrorContains(t, err, "unknown field")
}
