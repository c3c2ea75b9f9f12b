package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// maxRequestBody — лимит тела входящего запроса.
const maxRequestBody = 1 << 20 // 1 MB

// wildcardPattern — {name} или {name...} в шаблоне ServeMux.
var wildcardPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)(?:\.\.\.)?\}`)

// pathParams возвращает имена параметров пути маршрута.
func pathParams(path string) []string {
	matches := wildcardPattern.FindAllStringSubmatch(path, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// hydrate строит контекст первого прохода из входящего запроса:
//
//	params  — параметры пути
//	query   — первое значение каждого query параметра
//	headers — заголовки в нижнем регистре, первое значение
//	body    — JSON тело, иначе строка, пустое тело — nil
//	actions — результаты уже выполненных action маршрута
func hydrate(r *http.Request, params []string) (map[string]any, error) {
	pathValues := make(map[string]any, len(params))
	for _, name := range params {
		pathValues[name] = r.PathValue(name)
	}

	query := make(map[string]any)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}

	headers := make(map[string]any, len(r.Header))
	for key, values := range r.Header {
		if len(values) > 0 {
			headers[strings.ToLower(key)] = values[0]
		}
	}

	body, err := readBody(r)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"params":  pathValues,
		"query":   query,
		"headers": headers,
		"body":    body,
		"actions": map[string]any{},
	}, nil
}

// readBody читает и разбирает тело запроса.
func readBody(r *http.Request) (any, error) {
	if r.Body == nil {
		return nil, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if len(raw) > maxRequestBody {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxRequestBody)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	ct := r.Header.Get("Content-Type")
	if ct == "" || strings.Contains(ct, "json") {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			return parsed, nil
		}
	}
	return string(raw), nil
}
