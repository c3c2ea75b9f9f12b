package cli

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDefinition читает определение action из YAML или JSON файла.
func LoadDefinition(path string) (map[string]any, error) {
	def, err := loadYAMLMap(path)
	if err != nil {
		return nil, fmt.Errorf("load definition: %w", err)
	}
	if def == nil {
		return nil, fmt.Errorf("load definition: %s is empty", path)
	}
	return def, nil
}

// LoadContext читает контекст первого прохода. Пустой path — пустой контекст.
func LoadContext(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}

	ctx, err := loadYAMLMap(path)
	if err != nil {
		return nil, fmt.Errorf("load context: %w", err)
	}
	if ctx == nil {
		ctx = map[string]any{}
	}
	return ctx, nil
}

// loadYAMLMap разбирает файл как YAML объект (JSON — частный случай YAML).
func loadYAMLMap(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// ParseHeaders разбирает заголовки вида "Name: value".
func ParseHeaders(values []string) (http.Header, error) {
	h := make(http.Header, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", v)
		}
		h.Add(name, strings.TrimSpace(value))
	}
	return h, nil
}
