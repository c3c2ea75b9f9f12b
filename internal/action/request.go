package action

import (
	"fmt"
	"net/http"
	"strings"
)

// Content types.
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeBin  = "application/octet-stream"
)

// RequestDescriptor — описание исходящего запроса для транспорта.
//
// Строится заново на каждый вызов и нигде не сохраняется.
type RequestDescriptor struct {
	Method      string
	URL         string
	ContentType string // пусто — транспорт определяет по телу
	Body        any    // nil — запрос без тела
	Headers     http.Header
}

// Build строит RequestDescriptor из конкретной конфигурации.
//
// Порядок применения (последующие шаги перекрывают предыдущие):
//  1. method + url
//  2. contentType
//  3. payload как тело без сериализации
//  4. passThroughHeaders: true — все входящие заголовки
//  5. passThroughHeaders: [...] — только перечисленные, отсутствующие пропускаются
//  6. headers — фиксированные заголовки, всегда побеждают проброшенные
func Build(cfg *Config, inbound http.Header) *RequestDescriptor {
	desc := &RequestDescriptor{
		Method:  strings.ToUpper(cfg.Method),
		URL:     cfg.URL,
		Headers: make(http.Header),
	}
	if desc.Method == "" {
		desc.Method = http.MethodGet
	}

	if cfg.ContentType != "" {
		desc.ContentType = normalizeContentType(cfg.ContentType)
	}

	if cfg.Payload != nil {
		desc.Body = cfg.Payload
	}

	switch cfg.PassThroughHeaders.Mode {
	case ForwardAll:
		for key, values := range inbound {
			desc.Headers[key] = append([]string(nil), values...)
		}
	case ForwardNamed:
		for _, name := range cfg.PassThroughHeaders.Names {
			values := inbound.Values(name)
			if len(values) == 0 {
				continue
			}
			desc.Headers.Del(name)
			for _, v := range values {
				desc.Headers.Add(name, v)
			}
		}
	}

	for name, value := range cfg.Headers {
		setHeader(desc.Headers, name, value)
	}

	// Заголовок Content-Type из шагов 4–6 перекрывает contentType.
	if ct := desc.Headers.Get("Content-Type"); ct != "" {
		desc.ContentType = ct
	}

	return desc
}

// setHeader заменяет все значения заголовка.
func setHeader(h http.Header, name string, value any) {
	h.Del(name)

	switch v := value.(type) {
	case []any:
		for _, item := range v {
			h.Add(name, headerString(item))
		}
	case []string:
		for _, item := range v {
			h.Add(name, item)
		}
	default:
		h.Set(name, headerString(v))
	}
}

func headerString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func normalizeContentType(ct string) string {
	if ct == "json" {
		return ContentTypeJSON
	}
	return ct
}
