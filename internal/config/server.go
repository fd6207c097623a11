package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ServerConfig represents configuration for the artifact server.
type ServerConfig struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"8080"`
	// ArtifactsConfigPath is the path to the file listing artifact accounts.
	// When empty, artifacts are disabled.
	ArtifactsConfigPath         string        `envconfig:"ARTIFACTS_CONFIG_PATH"`
	GracefulShutdownTimeout     time.Duration `envconfig:"GRACEFUL_SHUTDOWN_TIMEOUT" default:"30s"`
	PermissiveCORSPolicyEnabled bool          `envconfig:"PERMISSIVE_CORS_POLICY_ENABLED" default:"false"`
}

// ServerConfigFromEnv returns a ServerConfig populated from environment
// variables. It panics if any variable cannot be parsed.
func ServerConfigFromEnv() ServerConfig {
	cfg := ServerConfig{}
	envconfig.MustProcess("", &cfg)
	return cfg
}
