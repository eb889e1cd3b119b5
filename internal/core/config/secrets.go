package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Secret Loading
// =============================================================================

// LoadSecrets reads the secrets file and returns the resolved key→value map.
// Values of the form ${VAR} are substituted from the process environment at
// load time, so the file itself never has to contain plaintext credentials.
//
// A missing secrets path is not an error when the manifest declares no
// secrets file; callers pass "" in that case and receive an empty map.
func LoadSecrets(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secrets %s: %w", path, err)
	}

	var secrets map[string]string
	if err := yaml.Unmarshal(raw, &secrets); err != nil {
		return nil, fmt.Errorf("parse secrets %s: %w", path, err)
	}

	resolved := make(map[string]string, len(secrets))
	for key, value := range secrets {
		resolved[key] = os.Expand(value, func(envKey string) string {
			return os.Getenv(envKey)
		})
	}
	return resolved, nil
}
