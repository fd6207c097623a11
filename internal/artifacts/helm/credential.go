// Package helm provides credentials for classic (HTTP/S) Helm chart
// repositories. These are index-based: every chart name and version the
// repository offers is listed in its index.yaml.
package helm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"helm.sh/helm/v3/pkg/repo"

	"github.com/akuity/artifact-resolver/internal/artifacts"
	"github.com/akuity/artifact-resolver/internal/artifacts/transport"
	"github.com/akuity/artifact-resolver/internal/logging"
)

const (
	// ArtifactType is the type of artifacts served by chart repositories.
	ArtifactType = "helm/chart"
	// Kind is how chart repositories are addressed in name and version queries.
	Kind = "helm"

	indexFile = "index.yaml"
)

func init() {
	artifacts.DefaultFactories.MustRegister(artifacts.FactoryRegistration{
		Name:  ArtifactType,
		Value: newCredentialFromConfig,
	})
	artifacts.DefaultIndexKinds.MustRegister(artifacts.IndexKindRegistration{
		Name:  Kind,
		Value: ArtifactType,
	})
}

// Options configures a chart repository account.
type Options struct {
	// Repository is the base URL of the chart repository.
	Repository string `json:"repository"`
	// Username and Password, if set, are used for basic authentication.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	// InsecureSkipTLSVerify disables verification of the repository's
	// certificate.
	InsecureSkipTLSVerify bool `json:"insecureSkipTLSVerify,omitempty"`
}

// Credential is an artifacts.IndexedCredential for a chart repository.
type Credential struct {
	artifacts.Account
	repoURL  string
	username string
	password string
	fetcher  transport.Fetcher
	parser   IndexParser
}

var _ artifacts.IndexedCredential = &Credential{}

// NewCredential returns a Credential for the chart repository described by
// opts. fetcher may be nil, in which case an HTTP fetcher honoring
// opts.InsecureSkipTLSVerify is used.
func NewCredential(
	name string,
	opts Options,
	fetcher transport.Fetcher,
) (*Credential, error) {
	u, err := url.Parse(opts.Repository)
	if err != nil {
		return nil, fmt.Errorf("error parsing repository URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf(
			"repository URL %q must begin with http:// or https://",
			u.Redacted(),
		)
	}
	if opts.Username != "" && opts.Password == "" {
		return nil, errors.New("a password is required when a username is set")
	}
	if fetcher == nil {
		fetcher = transport.NewHTTPFetcher(&transport.Options{
			InsecureSkipTLSVerify: opts.InsecureSkipTLSVerify,
		})
	}
	return &Credential{
		Account:  artifacts.NewAccount(name, ArtifactType),
		repoURL:  strings.TrimSuffix(opts.Repository, "/"),
		username: opts.Username,
		password: opts.Password,
		fetcher:  fetcher,
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
	return NewCredential(cfg.Name, opts, nil)
}

// IndexParser implements artifacts.IndexedCredential.
func (c *Credential) IndexParser() artifacts.IndexParser {
	return c.parser
}

// DownloadIndex implements artifacts.IndexedCredential.
func (c *Credential) DownloadIndex(ctx context.Context) (io.ReadCloser, error) {
	indexURL := fmt.Sprintf("%s/%s", c.repoURL, indexFile)
	logging.LoggerFromContext(ctx).Trace("downloading chart repository index", "url", indexURL)
	rc, err := c.fetcher.Fetch(ctx, transport.Request{
		URL:      indexURL,
		Username: c.username,
		Password: c.password,
	})
	if err != nil {
		return nil, &artifacts.IndexUnavailableError{Account: c.Name(), Err: err}
	}
	return rc, nil
}

// Download implements artifacts.Credential. The chart's location is looked up
// in the repository's index. If ref.Version is empty, the latest version is
// downloaded.
func (c *Credential) Download(
	ctx context.Context,
	ref artifacts.Reference,
) (io.ReadCloser, error) {
	if ref.Name == "" {
		return nil, &artifacts.InvalidReferenceError{
			Type: ArtifactType,
			Err:  errors.New("a chart name is required"),
		}
	}
	urls, err := c.findChartURLs(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, &artifacts.ArtifactNotFoundError{Account: c.Name(), Reference: ref}
	}
	chartURL, err := repo.ResolveReferenceURL(c.repoURL, urls[0])
	if err != nil {
		return nil, fmt.Errorf("error resolving chart URL %q: %w", urls[0], err)
	}
	req := transport.Request{URL: chartURL}
	// Credentials are only passed along to the repository's own host.
	if sameHost(c.repoURL, chartURL) {
		req.Username = c.username
		req.Password = c.password
	}
	return c.fetcher.Fetch(ctx, req)
}

func (c *Credential) findChartURLs(
	ctx context.Context,
	ref artifacts.Reference,
) ([]string, error) {
	index, err := c.DownloadIndex(ctx)
	if err != nil {
		return nil, err
	}
	defer index.Close()
	return c.parser.FindURLs(index, ref.Name, ref.Version)
}

func sameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return ua.Host == ub.Host
}
