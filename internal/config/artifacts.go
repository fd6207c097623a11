package config

import (
	"fmt"
	"os"

	"github.com/fluxcd/pkg/envsubst"
	"sigs.k8s.io/yaml"

	"github.com/akuity/artifact-resolver/internal/artifacts"
)

// LoadArtifactsConfig reads artifact account configuration from the YAML file
// at path. References of the form ${VAR} are replaced with the values of the
// corresponding environment variables before the file is parsed, so secrets
// need not be written to the file itself. Referencing an unset variable is an
// error. An empty path yields a configuration with artifacts disabled.
func LoadArtifactsConfig(path string) (artifacts.Config, error) {
	if path == "" {
		return artifacts.Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return artifacts.Config{}, fmt.Errorf(
			"error reading artifacts configuration: %w",
			err,
		)
	}
	return ParseArtifactsConfig(data)
}

// ParseArtifactsConfig is like LoadArtifactsConfig, but parses configuration
// that has already been read.
func ParseArtifactsConfig(data []byte) (artifacts.Config, error) {
	expanded, err := envsubst.EvalEnv(string(data), true)
	if err != nil {
		return artifacts.Config{}, fmt.Errorf(
			"error expanding environment variables in artifacts configuration: %w",
			err,
		)
	}
	cfg := artifacts.Config{}
	if err = yaml.UnmarshalStrict([]byte(expanded), &cfg); err != nil {
		return artifacts.Config{}, fmt.Errorf(
			"error parsing artifacts configuration: %w",
			err,
		)
	}
	for i, acct := range cfg.Accounts {
		if acct.Name == "" {
			return artifacts.Config{}, fmt.Errorf("account at index %d has no name", i)
		}
		if acct.Type == "" {
			return artifacts.Config{}, fmt.Errorf("account %q has no type", acct.Name)
		}
	}
	return cfg, nil
}
