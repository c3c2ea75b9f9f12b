package engine

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// expressionPattern — выражение вида {{ path }} или {{ path | filter }}.
var expressionPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Context — окружение для подстановки шаблонов (hydration context).
//
// Значение хранится в виде JSON, пути вычисляются через gjson:
//   - {{ name }}
//   - {{ params.id }}
//   - {{ items.0.title }}
//   - {{ @this }} — всё окружение целиком
type Context struct {
	raw []byte
}

// NewContext создаёт контекст из произвольного значения.
// nil означает пустое окружение: ни одно выражение не будет подставлено.
func NewContext(data any) (*Context, error) {
	if data == nil {
		return &Context{}, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal context: %v", ErrTemplateRender, err)
	}
	return &Context{raw: raw}, nil
}

// Lookup возвращает значение по пути.
// Второй результат false, если путь в контексте отсутствует.
// JSON null считается существующим значением.
func (c *Context) Lookup(path string) (any, bool) {
	if c == nil || len(c.raw) == 0 {
		return nil, false
	}

	res := gjson.GetBytes(c.raw, path)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// templateFuncs — фильтры, применяемые через "|".
var templateFuncs = map[string]func(any) any{
	"json": func(v any) any {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},
	"lower":    func(v any) any { return strings.ToLower(stringify(v)) },
	"upper":    func(v any) any { return strings.ToUpper(stringify(v)) },
	"trim":     func(v any) any { return strings.TrimSpace(stringify(v)) },
	"urlquery": func(v any) any { return url.QueryEscape(stringify(v)) },
	"string":   func(v any) any { return stringify(v) },
}

// evaluate вычисляет тело выражения: путь и необязательная цепочка фильтров.
func evaluate(expr string, ctx *Context) (any, bool) {
	parts := strings.Split(expr, "|")

	value, ok := ctx.Lookup(strings.TrimSpace(parts[0]))
	if !ok {
		return nil, false
	}

	for _, name := range parts[1:] {
		fn, exists := templateFuncs[strings.TrimSpace(name)]
		if !exists {
			return nil, false
		}
		value = fn(value)
	}
	return value, true
}

// Render подставляет выражения в строку.
//
// Если строка целиком состоит из одного выражения, возвращается найденное
// значение как есть (map, число, nil). Иначе выражения интерполируются
// в строку. Выражения с отсутствующим путём остаются без изменений.
func Render(tmpl string, ctx *Context) any {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}

	if loc := expressionPattern.FindStringSubmatchIndex(tmpl); loc != nil && loc[0] == 0 && loc[1] == len(tmpl) {
		if value, ok := evaluate(tmpl[loc[2]:loc[3]], ctx); ok {
			return value
		}
		return tmpl
	}

	return expressionPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		sub := expressionPattern.FindStringSubmatch(match)
		value, ok := evaluate(sub[1], ctx)
		if !ok {
			return match
		}
		return stringify(value)
	})
}

// RenderValue рендерит произвольное значение.
// Рекурсивно обрабатывает map и slice, исходное значение не изменяется.
func RenderValue(value any, ctx *Context) any {
	switch v := value.(type) {
	case nil:
		return nil

	case string:
		return Render(v, ctx)

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = RenderValue(val, ctx)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = RenderValue(val, ctx)
		}
		return result

	case map[string]string:
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = Render(val, ctx)
		}
		return result

	case []string:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = Render(val, ctx)
		}
		return result

	default:
		// int, float, bool и прочее возвращаем как есть
		return value
	}
}

// RenderConfig рендерит конфигурацию целиком.
func RenderConfig(config map[string]any, ctx *Context) map[string]any {
	if config == nil {
		return make(map[string]any)
	}
	return RenderValue(config, ctx).(map[string]any)
}

// IsPlaceholder проверяет, является ли значение строкой из одного
// неподставленного выражения.
func IsPlaceholder(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	loc := expressionPattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

// stringify приводит значение к строке для интерполяции.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
