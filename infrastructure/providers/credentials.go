package providers

import (
	"os"

	"github.com/sourceblend/recommender/internal/ports"
)

// DefaultCredentialEnvVars maps provider keys to the environment
// variables holding their API credentials.
var DefaultCredentialEnvVars = map[string]string{
	"openai": "OPENAI_API_KEY",
}

var _ ports.CredentialStore = (*EnvCredentialStore)(nil)

// EnvCredentialStore resolves provider credentials from the process
// environment. It is the reference CredentialStore implementation;
// deployments with a secrets manager supply their own.
type EnvCredentialStore struct {
	envVars map[string]string
}

// NewEnvCredentialStore creates a store using the default
// provider-to-environment-variable mapping.
func NewEnvCredentialStore() *EnvCredentialStore {
	envVars := make(map[string]string, len(DefaultCredentialEnvVars))
	for provider, envVar := range DefaultCredentialEnvVars {
		envVars[provider] = envVar
	}
	return &EnvCredentialStore{envVars: envVars}
}

// Credential returns the credential for the named provider, or the
// empty string when the provider is unknown or the variable is unset.
func (s *EnvCredentialStore) Credential(provider string) string {
	envVar, ok := s.envVars[provider]
	if !ok {
		return ""
	}
	return os.Getenv(envVar)
}

var _ ports.CredentialStore = (StaticCredentialStore)(nil)

// StaticCredentialStore is a fixed provider-to-credential mapping,
// useful for tests and single-tenant deployments.
type StaticCredentialStore map[string]string

// Credential returns the configured credential for the provider.
func (s StaticCredentialStore) Credential(provider string) string { return s[provider] }
