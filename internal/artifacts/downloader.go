package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/akuity/artifact-resolver/internal/logging"
)

// Downloader fetches the bytes of any referenced artifact using the matching
// credential from a Repository.
//
// A nil *Downloader represents a process in which downloading is disabled.
type Downloader struct {
	repo *Repository
}

// NewDownloader returns a Downloader backed by repo. When repo is nil, the
// result is nil, meaning downloading is disabled.
func NewDownloader(repo *Repository) *Downloader {
	if repo == nil {
		return nil
	}
	return &Downloader{repo: repo}
}

// Download resolves ref to a credential and streams the artifact's bytes.
// The caller owns the returned stream and must close it.
func (d *Downloader) Download(
	ctx context.Context,
	ref Reference,
) (io.ReadCloser, error) {
	if d == nil {
		return nil, ErrNotConfigured
	}
	if ref.Type == "" {
		return nil, &InvalidReferenceError{Err: errors.New("no type was specified")}
	}
	logger := logging.LoggerFromContext(ctx).WithValues(
		"type", ref.Type,
		"account", ref.Account,
	)

	var cred Credential
	var err error
	if ref.Account == "" {
		cred, err = d.repo.FindForType(ctx, ref.Type)
	} else {
		cred, err = d.repo.Find(ctx, ref.Type, ref.Account)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("downloading artifact", "credential", cred.Name(), "artifact", ref.String())
	rc, err := cred.Download(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf(
			"error downloading artifact using credentials %q: %w",
			cred.Name(),
			err,
		)
	}
	return rc, nil
}
