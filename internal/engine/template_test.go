package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustContext(t *testing.T, data any) *Context {
	t.Helper()
	ctx, err := NewContext(data)
	require.NoError(t, err)
	return ctx
}

func TestContext_Lookup(t *testing.T) {
	ctx := mustContext(t, map[string]any{
		"name":  "test",
		"count": 42,
		"break": nil,
		"data": map[string]any{
			"items": []any{"a", "b"},
		},
	})

	v, ok := ctx.Lookup("name")
	assert.True(t, ok)
	assert.Equal(t, "test", v)

	v, ok = ctx.Lookup("count")
	assert.True(t, ok)
	assert.Equal(t, float64(42), v)

	// null — существующее значение
	v, ok = ctx.Lookup("break")
	assert.True(t, ok)
	assert.Nil(t, v)

	v, ok = ctx.Lookup("data.items.1")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = ctx.Lookup("missing")
	assert.False(t, ok)
}

func TestContext_NilLookup(t *testing.T) {
	ctx := mustContext(t, nil)

	_, ok := ctx.Lookup("anything")
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	ctx := mustContext(t, map[string]any{
		"name":  "Test User",
		"count": 3,
		"host":  "example.com",
		"break": nil,
		"user":  map[string]any{"id": "u1"},
	})

	tests := []struct {
		name     string
		template string
		expected any
	}{
		{name: "no template", template: "plain text", expected: "plain text"},
		{name: "whole string keeps type", template: "{{count}}", expected: float64(3)},
		{name: "whole string with spaces", template: "{{ name }}", expected: "Test User"},
		{name: "whole string null", template: "{{break}}", expected: nil},
		{name: "whole string object", template: "{{user}}", expected: map[string]any{"id": "u1"}},
		{name: "interpolation", template: "https://{{host}}/users/{{user.id}}", expected: "https://example.com/users/u1"},
		{name: "interpolated number", template: "count={{count}}", expected: "count=3"},
		{name: "interpolated null", template: "[{{break}}]", expected: "[]"},
		{name: "unresolved whole", template: "{{missing}}", expected: "{{missing}}"},
		{name: "unresolved embedded", template: "a {{missing}} {{name}}", expected: "a {{missing}} Test User"},
		{name: "filter lower", template: "{{ name | lower }}", expected: "test user"},
		{name: "filter chain", template: "{{ name | upper | urlquery }}", expected: "TEST+USER"},
		{name: "filter json", template: "{{ user | json }}", expected: `{"id":"u1"}`},
		{name: "unknown filter", template: "{{ name | nope }}", expected: "{{ name | nope }}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.template, ctx))
		})
	}
}

func TestRenderValue_Nested(t *testing.T) {
	ctx := mustContext(t, map[string]any{"id": "42", "tag": "x"})

	value := map[string]any{
		"url":  "https://api/{{id}}",
		"keep": 10,
		"flag": true,
		"body": map[string]any{
			"tags":  []any{"{{tag}}", "y"},
			"names": []string{"{{tag}}"},
		},
		"headers": map[string]string{"x-id": "{{id}}"},
	}

	result := RenderValue(value, ctx).(map[string]any)

	assert.Equal(t, "https://api/42", result["url"])
	assert.Equal(t, 10, result["keep"])
	assert.Equal(t, true, result["flag"])

	body := result["body"].(map[string]any)
	assert.Equal(t, []any{"x", "y"}, body["tags"])
	assert.Equal(t, []any{"x"}, body["names"])
	assert.Equal(t, map[string]any{"x-id": "42"}, result["headers"])

	// Исходное значение не изменено
	assert.Equal(t, "https://api/{{id}}", value["url"])
	assert.Equal(t, []any{"{{tag}}", "y"}, value["body"].(map[string]any)["tags"])
}

func TestRenderConfig_Nil(t *testing.T) {
	ctx := mustContext(t, nil)

	result := RenderConfig(nil, ctx)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder("{{x}}"))
	assert.True(t, IsPlaceholder("{{ a.b | lower }}"))
	assert.False(t, IsPlaceholder("x {{x}}"))
	assert.False(t, IsPlaceholder("plain"))
	assert.False(t, IsPlaceholder(42))
}
