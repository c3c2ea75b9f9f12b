package action

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/shaiso/conduit/internal/engine"
)

// SchemaName — имя схемы конфигурации HTTP action.
const SchemaName = "http action"

// schemaDocument — JSON Schema определения action.
//
// Неизвестные поля допускаются: определение может нести данные хоста.
const schemaDocument = `{
	"type": "object",
	"required": ["url"],
	"properties": {
		"name":        {"type": "string"},
		"type":        {"type": "string"},
		"url":         {"type": "string", "format": "uri"},
		"method":      {"type": "string", "enum": ["get", "post", "put", "delete", "patch"], "default": "get"},
		"contentType": {"type": "string", "enum": ["json", "application/json"]},
		"payload":     {},
		"headers":     {"type": "object"},
		"passThroughHeaders": {
			"oneOf": [
				{"type": "boolean"},
				{"type": "array", "items": {"type": "string"}}
			]
		},
		"responseMapping": {
			"oneOf": [
				{"type": "boolean"},
				{"type": "object"}
			]
		},
		"output": {}
	}
}`

// Schema — скомпилированная схема, общая для обоих проходов разрешения.
var Schema = engine.MustSchema(SchemaName, schemaDocument)

// ForwardMode — режим проброса входящих заголовков.
type ForwardMode int

const (
	// ForwardNone — заголовки не пробрасываются.
	ForwardNone ForwardMode = iota

	// ForwardAll — пробрасываются все входящие заголовки.
	ForwardAll

	// ForwardNamed — пробрасываются только перечисленные заголовки.
	ForwardNamed
)

// String возвращает имя режима.
func (m ForwardMode) String() string {
	switch m {
	case ForwardAll:
		return "all"
	case ForwardNamed:
		return "named"
	default:
		return "none"
	}
}

// Forward — политика passThroughHeaders.
//
// В определении задаётся как true (все заголовки) или как список имён.
type Forward struct {
	Mode  ForwardMode
	Names []string // только для ForwardNamed, в заданном порядке
}

// MappingMode — режим ответа вызывающему.
type MappingMode int

const (
	// MappingNone — вызывающему ничего не отправляется.
	MappingNone MappingMode = iota

	// MappingRaw — отправляется сырое тело ответа.
	MappingRaw

	// MappingTemplate — отправляется объект-шаблон, разрешённый по ответу.
	MappingTemplate
)

// String возвращает имя режима.
func (m MappingMode) String() string {
	switch m {
	case MappingRaw:
		return "raw"
	case MappingTemplate:
		return "template"
	default:
		return "none"
	}
}

// Mapping — политика responseMapping.
//
// В определении задаётся как true (сырое тело) или как объект-шаблон.
type Mapping struct {
	Mode     MappingMode
	Template map[string]any // только для MappingTemplate
}

// Config — конкретная (разрешённая) конфигурация HTTP action.
type Config struct {
	Name               string         `mapstructure:"name"`
	Type               string         `mapstructure:"type"`
	URL                string         `mapstructure:"url"`
	Method             string         `mapstructure:"method"`
	ContentType        string         `mapstructure:"contentType"`
	Payload            any            `mapstructure:"payload"`
	Headers            map[string]any `mapstructure:"headers"`
	PassThroughHeaders Forward        `mapstructure:"passThroughHeaders"`
	ResponseMapping    Mapping        `mapstructure:"responseMapping"`
	Output             any            `mapstructure:"output"`
}

var (
	forwardType = reflect.TypeOf(Forward{})
	mappingType = reflect.TypeOf(Mapping{})
)

// variantHook превращает bool/list/object в tagged variants.
func variantHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to {
	case forwardType:
		return parseForward(data)
	case mappingType:
		return parseMapping(data)
	default:
		return data, nil
	}
}

func parseForward(data any) (Forward, error) {
	switch v := data.(type) {
	case bool:
		if v {
			return Forward{Mode: ForwardAll}, nil
		}
		return Forward{Mode: ForwardNone}, nil

	case []string:
		return Forward{Mode: ForwardNamed, Names: append([]string(nil), v...)}, nil

	case []any:
		names := make([]string, 0, len(v))
		for i, item := range v {
			name, ok := item.(string)
			if !ok {
				return Forward{}, fmt.Errorf("passThroughHeaders[%d]: expected string, got %T", i, item)
			}
			names = append(names, name)
		}
		return Forward{Mode: ForwardNamed, Names: names}, nil

	default:
		return Forward{}, fmt.Errorf("passThroughHeaders: expected bool or list, got %T", data)
	}
}

func parseMapping(data any) (Mapping, error) {
	switch v := data.(type) {
	case bool:
		if v {
			return Mapping{Mode: MappingRaw}, nil
		}
		return Mapping{Mode: MappingNone}, nil

	case map[string]any:
		tmpl := make(map[string]any, len(v))
		for key, val := range v {
			tmpl[key] = val
		}
		return Mapping{Mode: MappingTemplate, Template: tmpl}, nil

	default:
		return Mapping{}, fmt.Errorf("responseMapping: expected bool or object, got %T", data)
	}
}

// Decode превращает разрешённую конфигурацию в Config.
func Decode(resolved map[string]any) (*Config, error) {
	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: variantHook,
		Result:     &cfg,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(resolved); err != nil {
		return nil, engine.NewValidationError(SchemaName, []engine.FieldIssue{{
			Field:  "(root)",
			Reason: err.Error(),
			Value:  resolved,
		}}, engine.ErrSchemaViolation)
	}
	return &cfg, nil
}

// Resolve разрешает определение action в окружении hydration.
//
// Используется в обоих проходах: с контекстом вызывающего и с телом ответа.
// Ошибки схемы возвращаются как *engine.ValidationError.
func Resolve(definition map[string]any, hydration any) (*Config, error) {
	resolved, err := engine.Resolve(definition, Schema, engine.Options{
		Hydration:    hydration,
		AllowUnknown: true,
	})
	if err != nil {
		return nil, err
	}
	return Decode(resolved)
}
