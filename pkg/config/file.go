package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

func readYAMLFile(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parseYAML(data)
}

func parseYAML(data []byte) (map[string]string, error) {
	var document map[string]any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	values := make(map[string]string, len(document))
	for key, value := range document {
		switch typed := value.(type) {
		case nil:
			continue
		case map[string]any, []any:
			return nil, fmt.Errorf("config key %s must be a scalar", key)
		default:
			values[strings.ToUpper(strings.TrimSpace(key))] = fmt.Sprint(typed)
		}
	}
	return values, nil
}

func envLookup(fileValues map[string]string) func(string) string {
	return func(key string) string {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return value
		}
		return fileValues[key]
	}
}
