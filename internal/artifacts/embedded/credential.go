// Package embedded provides a credential for artifacts whose content travels
// inline, base64 encoded, in the reference itself.
package embedded

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"github.com/akuity/artifact-resolver/internal/artifacts"
)

const (
	// ArtifactType is the type of inline artifacts.
	ArtifactType = "embedded/base64"
	// DefaultAccountName is the name of the account created automatically
	// when no account of ArtifactType is configured.
	DefaultAccountName = "embedded-artifact"
)

func init() {
	artifacts.DefaultFactories.MustRegister(artifacts.FactoryRegistration{
		Name:     ArtifactType,
		Value:    newCredentialFromConfig,
		Metadata: &artifacts.DefaultAccount{Name: DefaultAccountName},
	})
}

// Credential decodes the reference's Reference field. It needs no secrets.
type Credential struct {
	artifacts.Account
}

// NewCredential returns a Credential with the given name.
func NewCredential(name string) *Credential {
	return &Credential{Account: artifacts.NewAccount(name, ArtifactType)}
}

func newCredentialFromConfig(
	_ context.Context,
	cfg artifacts.AccountConfig,
) (artifacts.Credential, error) {
	if err := cfg.DecodeOptions(&struct{}{}); err != nil {
		return nil, err
	}
	return NewCredential(cfg.Name), nil
}

// Download implements artifacts.Credential. The content is checked in full
// before the stream is returned, so a malformed reference fails here and never
// in the middle of a read.
func (c *Credential) Download(
	_ context.Context,
	ref artifacts.Reference,
) (io.ReadCloser, error) {
	if ref.Reference == "" {
		return nil, &artifacts.InvalidReferenceError{
			Type: ArtifactType,
			Err:  errors.New("artifact has no embedded content"),
		}
	}
	if _, err := io.Copy(io.Discard, newDecoder(ref.Reference)); err != nil {
		return nil, &artifacts.InvalidReferenceError{Type: ArtifactType, Err: err}
	}
	return io.NopCloser(newDecoder(ref.Reference)), nil
}

func newDecoder(content string) io.Reader {
	return base64.NewDecoder(base64.StdEncoding, strings.NewReader(content))
}
