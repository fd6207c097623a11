package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/akuity/artifact-resolver/internal/component"
)

// Config describes every artifact account a process should serve.
type Config struct {
	// Enabled turns artifact support on. When false, no Repository is built
	// and every artifact operation reports ErrNotConfigured.
	Enabled bool `json:"enabled"`
	// Accounts lists the accounts to materialize into credentials, in lookup
	// order.
	Accounts []AccountConfig `json:"accounts,omitempty"`
}

// AccountConfig describes a single artifact account.
type AccountConfig struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// Options holds type-specific settings, decoded by the factory registered
	// for Type.
	Options json.RawMessage `json:"options,omitempty"`
}

// DecodeOptions decodes the account's type-specific options into v. Unknown
// fields are rejected so that typos are not silently ignored.
func (a AccountConfig) DecodeOptions(v any) error {
	if len(a.Options) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(a.Options))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf(
			"error decoding options for account %q of type %q: %w",
			a.Name,
			a.Type,
			err,
		)
	}
	return nil
}

// Factory builds a Credential from an account's configuration.
type Factory func(context.Context, AccountConfig) (Credential, error)

// DefaultAccount is metadata a credential type may register to have an
// account created automatically, under the given name, when artifacts are
// enabled and no account of that type is configured.
type DefaultAccount struct {
	Name string
}

type (
	FactoryRegistration = component.NameBasedRegistration[Factory, *DefaultAccount]
	FactoryRegistry     = component.NameBasedRegistry[Factory, *DefaultAccount]
)

// DefaultFactories is populated by credential packages from their init
// functions, keyed by credential type.
var DefaultFactories = component.MustNewNameBasedRegistry[Factory, *DefaultAccount](nil)

// NewRepositoryFromConfig materializes the accounts in cfg into a Repository.
// If cfg is disabled, it returns a nil *Repository and no error.
func NewRepositoryFromConfig(
	ctx context.Context,
	cfg Config,
	factories FactoryRegistry,
) (*Repository, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if factories == nil {
		factories = DefaultFactories
	}
	accounts := slices.Clone(cfg.Accounts)
	for _, credType := range factories.Names() {
		reg, _ := factories.Get(credType)
		if reg.Metadata == nil || hasAccountOfType(accounts, credType) {
			continue
		}
		accounts = append(accounts, AccountConfig{
			Name: reg.Metadata.Name,
			Type: credType,
		})
	}
	creds := make([]Credential, 0, len(accounts))
	for _, acct := range accounts {
		reg, err := factories.Get(acct.Type)
		if err != nil {
			return nil, fmt.Errorf(
				"account %q has unsupported type %q",
				acct.Name,
				acct.Type,
			)
		}
		cred, err := reg.Value(ctx, acct)
		if err != nil {
			return nil, fmt.Errorf("error configuring account %q: %w", acct.Name, err)
		}
		creds = append(creds, cred)
	}
	return NewRepository(creds...)
}

func hasAccountOfType(accounts []AccountConfig, credType string) bool {
	return slices.ContainsFunc(accounts, func(a AccountConfig) bool {
		return a.Type == credType
	})
}
