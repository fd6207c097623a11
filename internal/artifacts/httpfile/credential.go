// Package httpfile provides credentials for artifacts that are plain files
// served over HTTP/S.
package httpfile

import (
	"context"
	"errors"
	"io"

	"github.com/akuity/artifact-resolver/internal/artifacts"
	"github.com/akuity/artifact-resolver/internal/artifacts/transport"
)

// ArtifactType is the type of artifacts referenced by URL.
const ArtifactType = "http/file"

func init() {
	artifacts.DefaultFactories.MustRegister(artifacts.FactoryRegistration{
		Name:  ArtifactType,
		Value: newCredentialFromConfig,
	})
}

// Options configures an HTTP file account. At most one of Password and Token
// may be set.
type Options struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	// Token, if set, is sent as a bearer token.
	Token                 string `json:"token,omitempty"`
	InsecureSkipTLSVerify bool   `json:"insecureSkipTLSVerify,omitempty"`
}

// Credential fetches the file whose absolute URL is the reference's
// Reference field.
type Credential struct {
	artifacts.Account
	username string
	password string
	token    string
	fetcher  transport.Fetcher
}

// NewCredential returns a Credential. fetcher may be nil, in which case an
// HTTP fetcher honoring opts.InsecureSkipTLSVerify is used.
func NewCredential(
	name string,
	opts Options,
	fetcher transport.Fetcher,
) (*Credential, error) {
	if opts.Token != "" && (opts.Username != "" || opts.Password != "") {
		return nil, errors.New("token cannot be combined with username or password")
	}
	if fetcher == nil {
		fetcher = transport.NewHTTPFetcher(&transport.Options{
			InsecureSkipTLSVerify: opts.InsecureSkipTLSVerify,
		})
	}
	return &Credential{
		Account:  artifacts.NewAccount(name, ArtifactType),
		username: opts.Username,
		password: opts.Password,
		token:    opts.Token,
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

// Download implements artifacts.Credential.
func (c *Credential) Download(
	ctx context.Context,
	ref artifacts.Reference,
) (io.ReadCloser, error) {
	if ref.Reference == "" {
		return nil, &artifacts.InvalidReferenceError{
			Type: ArtifactType,
			Err:  errors.New("a file URL is required"),
		}
	}
	return c.fetcher.Fetch(ctx, transport.Request{
		URL:         ref.Reference,
		Username:    c.username,
		Password:    c.password,
		BearerToken: c.token,
	})
}
