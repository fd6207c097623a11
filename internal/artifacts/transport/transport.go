// Package transport provides the capability every credential relies on to
// fetch bytes from a remote location.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/fluxcd/pkg/masktoken"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/akuity/artifact-resolver/internal/artifacts"
	"github.com/akuity/artifact-resolver/internal/version"
)

// maxErrorBodyBytes bounds how much of an unsuccessful response body is
// drained before the connection is released.
const maxErrorBodyBytes = 64 << 10

// Request describes a single fetch.
type Request struct {
	URL         string
	Username    string
	Password    string
	BearerToken string
}

// Fetcher streams the bytes found at a remote location. Implementations do not
// retry. The caller owns the returned stream and must close it.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (io.ReadCloser, error)
}

// Options configures an HTTPFetcher.
type Options struct {
	// InsecureSkipTLSVerify disables verification of server certificates.
	InsecureSkipTLSVerify bool
}

// HTTPFetcher is a Fetcher for http:// and https:// locations.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher returns an HTTPFetcher. No overall client timeout is set, so
// large payloads can stream for as long as the request's context allows.
func NewHTTPFetcher(opts *Options) *HTTPFetcher {
	if opts == nil {
		opts = &Options{}
	}
	client := cleanhttp.DefaultPooledClient()
	if opts.InsecureSkipTLSVerify {
		t := cleanhttp.DefaultPooledTransport()
		t.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, // nolint: gosec
		}
		client.Transport = t
	}
	return &HTTPFetcher{
		client:    client,
		userAgent: "artifact-resolver/" + version.GetVersion().Version,
	}
}

// Fetch implements Fetcher. Every failure is reported as an
// *artifacts.TransportError with any credentials redacted from its message.
func (f *HTTPFetcher) Fetch(
	ctx context.Context,
	req Request,
) (io.ReadCloser, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, &artifacts.TransportError{
			Location: "<invalid URL>",
			Err:      redact(err, req.Password, req.BearerToken),
		}
	}
	location := u.Redacted()
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &artifacts.TransportError{
			Location: location,
			Err:      fmt.Errorf("unsupported URL scheme %q", u.Scheme),
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &artifacts.TransportError{
			Location: location,
			Err:      redact(err, req.Password, req.BearerToken),
		}
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	switch {
	case req.BearerToken != "":
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	case req.Username != "" || req.Password != "":
		httpReq.SetBasicAuth(req.Username, req.Password)
	}

	res, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &artifacts.TransportError{
			Location: location,
			Err:      redact(err, req.Password, req.BearerToken),
		}
	}
	if res.StatusCode != http.StatusOK {
		// Draining what is left of the body lets the connection be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxErrorBodyBytes))
		_ = res.Body.Close()
		return nil, &artifacts.TransportError{
			Location:   location,
			StatusCode: res.StatusCode,
		}
	}
	return res.Body, nil
}

// redact removes every non-empty secret from err's message.
func redact(err error, secrets ...string) error {
	msg := err.Error()
	for _, secret := range secrets {
		masked, maskErr := masktoken.MaskTokenFromString(msg, secret)
		if maskErr != nil {
			continue
		}
		msg = masked
	}
	if msg == err.Error() {
		return err
	}
	return errors.New(msg)
}
