package artifacts

import (
	"context"
	"io"
	"slices"
)

// Credential is one configured, named source of artifacts of one or more
// types. Implementations are constructed once at startup and are read-only
// thereafter, so they must be safe for concurrent use.
type Credential interface {
	// Name returns the name of the account this credential represents.
	Name() string
	// Types returns the artifact types this credential can fetch.
	Types() []string
	// HandlesType returns true if this credential can fetch artifacts of the
	// given type.
	HandlesType(artifactType string) bool
	// Download streams the bytes of the referenced artifact. The caller owns
	// the returned stream and must close it.
	Download(ctx context.Context, ref Reference) (io.ReadCloser, error)
}

// IndexedCredential is a Credential backed by a repository that publishes an
// index of all known artifact names and versions.
type IndexedCredential interface {
	Credential
	// DownloadIndex streams the repository's index document. The caller owns
	// the returned stream and must close it. Failures are reported as
	// *IndexUnavailableError.
	DownloadIndex(ctx context.Context) (io.ReadCloser, error)
	// IndexParser returns the parser that understands this credential's
	// index documents.
	IndexParser() IndexParser
}

// IndexParser extracts artifact names and versions from an index document.
// Implementations are pure and stateless.
type IndexParser interface {
	// FindNames returns every distinct artifact name in the index, in the
	// index's own order.
	FindNames(index io.Reader) ([]string, error)
	// FindVersions returns every version recorded for name, in the index's own
	// order. An empty slice, not an error, is returned if name is absent.
	FindVersions(index io.Reader, name string) ([]string, error)
}

// AsIndexed narrows c to an IndexedCredential if it supports index queries.
func AsIndexed(c Credential) (IndexedCredential, bool) {
	ic, ok := c.(IndexedCredential)
	return ic, ok
}

// Account carries a credential's identity. Credential implementations embed it
// to satisfy the Name, Types and HandlesType methods of Credential.
type Account struct {
	name  string
	types []string
}

// NewAccount returns an Account with the given name that handles the given
// artifact types.
func NewAccount(name string, types ...string) Account {
	return Account{
		name:  name,
		types: slices.Clone(types),
	}
}

// Name implements Credential.
func (a Account) Name() string {
	return a.name
}

// Types implements Credential.
func (a Account) Types() []string {
	return slices.Clone(a.types)
}

// HandlesType implements Credential.
func (a Account) HandlesType(artifactType string) bool {
	return slices.Contains(a.types, artifactType)
}
