// Package s3 provides credentials for objects stored in Amazon S3 or an
// S3-compatible object store.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/akuity/artifact-resolver/internal/artifacts"
	"github.com/akuity/artifact-resolver/internal/logging"
)

// ArtifactType is the type of artifacts stored as S3 objects.
const ArtifactType = "s3/object"

func init() {
	artifacts.DefaultFactories.MustRegister(artifacts.FactoryRegistration{
		Name:  ArtifactType,
		Value: newCredentialFromConfig,
	})
}

// Options configures an S3 account. When AccessKeyID and SecretAccessKey are
// unset, the default AWS credential chain is used.
type Options struct {
	Region string `json:"region,omitempty"`
	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint        string `json:"endpoint,omitempty"`
	AccessKeyID     string `json:"accessKeyID,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty"`
	// ForcePathStyle addresses buckets as part of the path rather than the
	// host name.
	ForcePathStyle bool `json:"forcePathStyle,omitempty"`
}

type objectGetter interface {
	GetObject(
		context.Context,
		*s3.GetObjectInput,
		...func(*s3.Options),
	) (*s3.GetObjectOutput, error)
}

// Credential fetches the object at the s3://bucket/key URI found in the
// reference's Reference field. A non-empty Version selects a specific object
// version.
type Credential struct {
	artifacts.Account
	client objectGetter
}

// NewCredential returns a Credential backed by an S3 client built from opts.
func NewCredential(
	ctx context.Context,
	name string,
	opts Options,
) (*Credential, error) {
	if (opts.AccessKeyID == "") != (opts.SecretAccessKey == "") {
		return nil, errors.New(
			"accessKeyID and secretAccessKey must be specified together",
		)
	}
	loadOpts := []func(*config.LoadOptions) error{
		config.WithHTTPClient(newHTTPClient()),
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(
			loadOpts,
			config.WithCredentialsProvider(
				awscreds.NewStaticCredentialsProvider(
					opts.AccessKeyID,
					opts.SecretAccessKey,
					"",
				),
			),
		)
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS configuration: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle
		o.Retryer = aws.NopRetryer{}
	})
	return &Credential{
		Account: artifacts.NewAccount(name, ArtifactType),
		client:  client,
	}, nil
}

// newHTTPClient returns an SDK client with cleanhttp's pooled transport
// settings. Unlike a plain *http.Client, the SDK can still install root CAs
// from a configured CA bundle into it.
func newHTTPClient() *awshttp.BuildableClient {
	return awshttp.NewBuildableClient().WithTransportOptions(
		func(tr *http.Transport) {
			pooled := cleanhttp.DefaultPooledTransport()
			tr.Proxy = pooled.Proxy
			tr.DialContext = pooled.DialContext
			tr.ForceAttemptHTTP2 = pooled.ForceAttemptHTTP2
			tr.MaxIdleConns = pooled.MaxIdleConns
			tr.MaxIdleConnsPerHost = pooled.MaxIdleConnsPerHost
			tr.IdleConnTimeout = pooled.IdleConnTimeout
			tr.TLSHandshakeTimeout = pooled.TLSHandshakeTimeout
			tr.ExpectContinueTimeout = pooled.ExpectContinueTimeout
		},
	)
}

func newCredentialFromConfig(
	ctx context.Context,
	cfg artifacts.AccountConfig,
) (artifacts.Credential, error) {
	opts := Options{}
	if err := cfg.DecodeOptions(&opts); err != nil {
		return nil, err
	}
	return NewCredential(ctx, cfg.Name, opts)
}

// Download implements artifacts.Credential.
func (c *Credential) Download(
	ctx context.Context,
	ref artifacts.Reference,
) (io.ReadCloser, error) {
	bucket, key, err := parseObjectURI(ref.Reference)
	if err != nil {
		return nil, &artifacts.InvalidReferenceError{Type: ArtifactType, Err: err}
	}
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if ref.Version != "" {
		input.VersionId = aws.String(ref.Version)
	}
	logging.LoggerFromContext(ctx).Trace(
		"getting object",
		"bucket", bucket,
		"key", key,
		"versionId", ref.Version,
	)
	out, err := c.client.GetObject(ctx, input)
	if err != nil {
		transportErr := &artifacts.TransportError{
			Location: ref.Reference,
			Err:      err,
		}
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			transportErr.StatusCode = respErr.HTTPStatusCode()
		}
		return nil, transportErr
	}
	return out.Body, nil
}

// parseObjectURI splits an s3://bucket/key URI.
func parseObjectURI(uri string) (string, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("error parsing object URI %q: %w", uri, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("object URI %q must begin with s3://", uri)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf(
			"object URI %q must be of the form s3://bucket/key",
			uri,
		)
	}
	return u.Host, key, nil
}
