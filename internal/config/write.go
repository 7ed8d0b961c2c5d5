package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteDefault writes the default configuration to path, creating parent directories
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	header := []byte("# taskdash configuration\n# Environment variables prefixed with TASKDASH_ override these values.\n")
	return os.WriteFile(path, append(header, data...), 0644)
}
