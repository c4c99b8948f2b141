package config

import "context"

// SecretProvider resolves secret parameter paths to plaintext values.
type SecretProvider interface {
	// GetParametersBatch returns path -> value for every path it could
	// resolve. Missing paths are omitted from the map.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
