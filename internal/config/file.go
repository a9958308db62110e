package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is a parsed config file: flag values as strings plus the plugin
// options map.
type fileConfig struct {
	values  map[string]string
	options map[string]string
}

func readConfigFile(path string) (fileConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	if info.IsDir() {
		return fileConfig{}, fmt.Errorf("config: %s is a directory, expected a file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return parseConfig(data, path)
}

func parseConfig(data []byte, path string) (fileConfig, error) {
	out := fileConfig{values: map[string]string{}, options: map[string]string{}}
	if len(strings.TrimSpace(string(data))) == 0 {
		return out, nil
	}
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fileConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	for key, node := range raw {
		key = strings.TrimSpace(key)
		if key == "options" {
			if err := node.Decode(&out.options); err != nil {
				return fileConfig{}, fmt.Errorf("config: %s: options must map names to values: %w", path, err)
			}
			continue
		}
		if node.Kind != yaml.ScalarNode {
			return fileConfig{}, fmt.Errorf("config: %s: %s must be a single value", path, key)
		}
		out.values[key] = node.Value
	}
	return out, nil
}
