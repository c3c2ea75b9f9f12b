package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema — скомпилированная JSON Schema конфигурации.
//
// Помимо валидации схема задаёт значения по умолчанию: поле "default"
// у свойств верхнего уровня применяется, если поле отсутствует или
// осталось неподставленным выражением.
type Schema struct {
	name     string
	loose    *gojsonschema.Schema
	strict   *gojsonschema.Schema
	defaults map[string]any
}

// Options — параметры разрешения конфигурации.
type Options struct {
	// Hydration — окружение для подстановки выражений.
	Hydration any

	// AllowUnknown разрешает поля, не описанные в схеме.
	AllowUnknown bool
}

// NewSchema компилирует документ JSON Schema.
func NewSchema(name, document string) (*Schema, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(document), &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, name, err)
	}

	loose, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, name, err)
	}

	strictDoc := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		strictDoc[k] = v
	}
	strictDoc["additionalProperties"] = false

	strict, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(strictDoc))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, name, err)
	}

	return &Schema{
		name:     name,
		loose:    loose,
		strict:   strict,
		defaults: collectDefaults(doc),
	}, nil
}

// MustSchema компилирует схему и паникует при ошибке.
// Используется для схем, объявленных в коде.
func MustSchema(name, document string) *Schema {
	s, err := NewSchema(name, document)
	if err != nil {
		panic(err)
	}
	return s
}

// Name возвращает имя схемы.
func (s *Schema) Name() string {
	return s.name
}

// Defaults возвращает копию значений по умолчанию.
func (s *Schema) Defaults() map[string]any {
	out := make(map[string]any, len(s.defaults))
	for k, v := range s.defaults {
		out[k] = v
	}
	return out
}

// collectDefaults извлекает default у свойств верхнего уровня.
func collectDefaults(doc map[string]any) map[string]any {
	defaults := make(map[string]any)

	props, ok := doc["properties"].(map[string]any)
	if !ok {
		return defaults
	}
	for key, raw := range props {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if def, ok := prop["default"]; ok {
			defaults[key] = def
		}
	}
	return defaults
}

// applyDefaults заполняет отсутствующие и неподставленные поля.
func (s *Schema) applyDefaults(config map[string]any) {
	for key, def := range s.defaults {
		val, exists := config[key]
		if !exists || IsPlaceholder(val) {
			config[key] = def
		}
	}
}

// Validate проверяет значение по схеме.
// Возвращает *ValidationError со всеми нарушениями.
func (s *Schema) Validate(value any, allowUnknown bool) error {
	compiled := s.strict
	if allowUnknown {
		compiled = s.loose
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return NewValidationError(s.name, []FieldIssue{{
			Field:  "(root)",
			Reason: err.Error(),
			Value:  value,
		}}, ErrSchemaViolation)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]FieldIssue, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		issues = append(issues, FieldIssue{
			Field:  issueField(re),
			Reason: re.Description(),
			Value:  re.Value(),
		})
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Field < issues[j].Field
	})

	return NewValidationError(s.name, issues, ErrSchemaViolation)
}

// issueField вычисляет путь поля.
// Для ошибок required gojsonschema указывает объект, а не само свойство.
func issueField(re gojsonschema.ResultError) string {
	field := re.Field()

	prop, ok := re.Details()["property"].(string)
	if !ok || prop == "" {
		return field
	}
	if field == "" || field == "(root)" {
		return prop
	}
	if field == prop || strings.HasSuffix(field, "."+prop) {
		return field
	}
	return field + "." + prop
}

// Resolve подставляет выражения из opts.Hydration в definition,
// применяет значения по умолчанию и валидирует результат.
//
// definition и opts.Hydration не изменяются.
func Resolve(definition map[string]any, schema *Schema, opts Options) (map[string]any, error) {
	ctx, err := NewContext(opts.Hydration)
	if err != nil {
		return nil, err
	}

	resolved := RenderConfig(definition, ctx)
	schema.applyDefaults(resolved)

	if err := schema.Validate(resolved, opts.AllowUnknown); err != nil {
		return nil, err
	}
	return resolved, nil
}
