package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/akuity/artifact-resolver/internal/component"
	"github.com/akuity/artifact-resolver/internal/logging"
)

type (
	// IndexKindRegistration maps a kind, as it appears in a name or version
	// query (e.g. "helm"), to the credential type that serves it (e.g.
	// "helm/chart").
	IndexKindRegistration = component.NameBasedRegistration[string, struct{}]
	// IndexKindRegistry is the Resolver's dispatch table.
	IndexKindRegistry = component.NameBasedRegistry[string, struct{}]
)

// DefaultIndexKinds is populated by index-based credential packages from
// their init functions.
var DefaultIndexKinds = component.MustNewNameBasedRegistry[string, struct{}](nil)

// Resolver answers name and version queries for index-based artifact sources.
// Each query downloads and parses the account's index afresh; nothing is
// retained between calls.
type Resolver struct {
	repo  *Repository
	kinds IndexKindRegistry
}

// NewResolver returns a Resolver that looks up credentials in repo and
// dispatches on kind using kinds. repo may be nil, in which case every query
// for a known kind fails with ErrNotConfigured.
func NewResolver(repo *Repository, kinds IndexKindRegistry) *Resolver {
	if kinds == nil {
		kinds = DefaultIndexKinds
	}
	return &Resolver{
		repo:  repo,
		kinds: kinds,
	}
}

// ListNames returns the names of all artifacts known to the index of the
// account named accountName.
func (r *Resolver) ListNames(
	ctx context.Context,
	kind string,
	accountName string,
) ([]string, error) {
	return r.resolve(
		ctx,
		kind,
		accountName,
		"names",
		func(p IndexParser, index io.Reader) ([]string, error) {
			return p.FindNames(index)
		},
	)
}

// ListVersions returns all versions of the named artifact known to the index
// of the account named accountName.
func (r *Resolver) ListVersions(
	ctx context.Context,
	kind string,
	accountName string,
	artifactName string,
) ([]string, error) {
	return r.resolve(
		ctx,
		kind,
		accountName,
		"versions",
		func(p IndexParser, index io.Reader) ([]string, error) {
			return p.FindVersions(index, artifactName)
		},
	)
}

func (r *Resolver) resolve(
	ctx context.Context,
	kind string,
	accountName string,
	what string,
	parse func(IndexParser, io.Reader) ([]string, error),
) ([]string, error) {
	reg, err := r.kinds.Get(kind)
	if err != nil {
		return nil, &UnsupportedTypeError{Type: kind}
	}
	credType := reg.Value
	logger := logging.LoggerFromContext(ctx).WithValues(
		"type", credType,
		"account", accountName,
	)

	cred, err := r.repo.Find(ctx, credType, accountName)
	if err != nil {
		var notFoundErr *CredentialNotFoundError
		if errors.As(err, &notFoundErr) {
			return nil, &ResolutionNotFoundError{
				Account: accountName,
				What:    what,
				Err:     err,
			}
		}
		return nil, err
	}
	indexed, ok := AsIndexed(cred)
	if !ok {
		return nil, &UnsupportedTypeError{Type: kind}
	}

	index, err := indexed.DownloadIndex(ctx)
	if err != nil {
		logger.Error(err, "error downloading index")
		return nil, &ResolutionNotFoundError{
			Account: accountName,
			What:    what,
			Err:     err,
		}
	}
	defer index.Close()

	res, err := parse(indexed.IndexParser(), index)
	if err != nil {
		logger.Error(err, "error parsing index")
		return nil, &ResolutionNotFoundError{
			Account: accountName,
			What:    what,
			Err:     fmt.Errorf("error reading index: %w", err),
		}
	}
	logger.Debug("resolved "+what, "count", len(res))
	return res, nil
}
