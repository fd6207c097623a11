// Package github provides credentials for files stored in GitHub
// repositories.
package github

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v56/github"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/akuity/artifact-resolver/internal/artifacts"
	"github.com/akuity/artifact-resolver/internal/logging"
)

// ArtifactType is the type of artifacts stored as files in GitHub
// repositories.
const ArtifactType = "github/file"

func init() {
	artifacts.DefaultFactories.MustRegister(artifacts.FactoryRegistration{
		Name:  ArtifactType,
		Value: newCredentialFromConfig,
	})
}

// Options configures a GitHub account.
type Options struct {
	// Token is a personal access token. Public repositories can be read
	// without one, subject to stricter rate limits.
	Token string `json:"token,omitempty"`
	// BaseURL is the base URL of a GitHub Enterprise instance. When empty,
	// github.com is used.
	BaseURL               string `json:"baseURL,omitempty"`
	InsecureSkipTLSVerify bool   `json:"insecureSkipTLSVerify,omitempty"`
}

// Credential fetches a file from a repository. The reference's Reference field
// is either a contents API URL
// (https://<host>/repos/<owner>/<repo>/contents/<path>) or <owner>/<repo>/<path>.
// Version, if set, is the branch, tag or commit to read from.
type Credential struct {
	artifacts.Account
	client *github.Client
}

// NewCredential returns a Credential.
func NewCredential(name string, opts Options) (*Credential, error) {
	httpClient := cleanhttp.DefaultPooledClient()
	if opts.InsecureSkipTLSVerify {
		t := cleanhttp.DefaultPooledTransport()
		t.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, // nolint: gosec
		}
		httpClient.Transport = t
	}
	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		var err error
		// This adds the API path prefixes to the base URL.
		if client, err = client.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL); err != nil {
			return nil, fmt.Errorf("error configuring GitHub Enterprise URL: %w", err)
		}
	}
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	return &Credential{
		Account: artifacts.NewAccount(name, ArtifactType),
		client:  client,
	}, nil
}

func newCredentialFromConfig(
	_ context.Context,
	cfg artifacts.AccountConfig,
) (artifacts.Credential, error) {
	opts := Options{}
	if err := cfg.DecodeOptions(&opts); err != nil {
		return nil, err
	}
	return NewCredential(cfg.Name, opts)
}

// Download implements artifacts.Credential.
func (c *Credential) Download(
	ctx context.Context,
	ref artifacts.Reference,
) (io.ReadCloser, error) {
	loc, err := parseFileReference(ref.Reference)
	if err != nil {
		return nil, &artifacts.InvalidReferenceError{Type: ArtifactType, Err: err}
	}
	gitRef := ref.Version
	if gitRef == "" {
		gitRef = loc.ref
	}
	logging.LoggerFromContext(ctx).Trace(
		"downloading file",
		"owner", loc.owner,
		"repo", loc.repo,
		"path", loc.path,
		"ref", gitRef,
	)
	rc, res, err := c.client.Repositories.DownloadContents(
		ctx,
		loc.owner,
		loc.repo,
		loc.path,
		&github.RepositoryContentGetOptions{Ref: gitRef},
	)
	if err != nil {
		transportErr := &artifacts.TransportError{
			Location: ref.Reference,
			Err:      err,
		}
		var ghErr *github.ErrorResponse
		switch {
		case errors.As(err, &ghErr) && ghErr.Response != nil:
			transportErr.StatusCode = ghErr.Response.StatusCode
		case res != nil && res.Response != nil && res.StatusCode == http.StatusOK:
			// The parent directory was listed, but holds no downloadable file
			// by that name.
			transportErr.StatusCode = http.StatusNotFound
		case res != nil && res.Response != nil:
			transportErr.StatusCode = res.StatusCode
		}
		return nil, transportErr
	}
	return rc, nil
}

type fileLocation struct {
	owner string
	repo  string
	path  string
	ref   string
}

// parseFileReference accepts a contents API URL or an owner/repo/path triple.
func parseFileReference(reference string) (fileLocation, error) {
	if reference == "" {
		return fileLocation{}, errors.New("a file reference is required")
	}
	loc := fileLocation{}
	p := reference
	if strings.Contains(reference, "://") {
		u, err := url.Parse(reference)
		if err != nil {
			return loc, fmt.Errorf("error parsing file URL: %w", err)
		}
		// GitHub Enterprise prefixes API paths with /api/v3.
		p = strings.TrimPrefix(u.Path, "/api/v3")
		repoPath, ok := strings.CutPrefix(p, "/repos/")
		if !ok {
			return loc, fmt.Errorf("file URL %q is not a contents API URL", reference)
		}
		owner, rest, _ := strings.Cut(repoPath, "/")
		repo, filePath, ok := strings.Cut(rest, "/contents/")
		if !ok {
			return loc, fmt.Errorf("file URL %q is not a contents API URL", reference)
		}
		loc.owner, loc.repo, loc.path = owner, repo, filePath
		loc.ref = u.Query().Get("ref")
	} else {
		parts := strings.SplitN(strings.TrimPrefix(p, "/"), "/", 3)
		if len(parts) == 3 {
			loc.owner, loc.repo, loc.path = parts[0], parts[1], parts[2]
		}
	}
	if loc.owner == "" || loc.repo == "" || loc.path == "" {
		return fileLocation{}, fmt.Errorf(
			"file reference %q must identify an owner, a repository and a path",
			reference,
		)
	}
	return loc, nil
}
