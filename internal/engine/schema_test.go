package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchemaDoc = `{
	"type": "object",
	"required": ["url"],
	"properties": {
		"url":    {"type": "string", "format": "uri"},
		"method": {"type": "string", "enum": ["get", "post"], "default": "get"},
		"retries": {"type": "integer"}
	}
}`

func TestNewSchema_Invalid(t *testing.T) {
	_, err := NewSchema("broken", "{not json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSchema))
}

func TestSchema_Defaults(t *testing.T) {
	s := MustSchema("test", testSchemaDoc)

	assert.Equal(t, "test", s.Name())
	assert.Equal(t, map[string]any{"method": "get"}, s.Defaults())
}

func TestResolve_AppliesContextAndDefaults(t *testing.T) {
	s := MustSchema("test", testSchemaDoc)

	definition := map[string]any{"url": "http://{{host}}/x"}
	cfg, err := Resolve(definition, s, Options{
		Hydration: map[string]any{"host": "localhost"},
	})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost/x", cfg["url"])
	assert.Equal(t, "get", cfg["method"])

	// definition не изменяется
	assert.Equal(t, map[string]any{"url": "http://{{host}}/x"}, definition)
}

func TestResolve_UnresolvedPlaceholderFallsBackToDefault(t *testing.T) {
	s := MustSchema("test", testSchemaDoc)

	cfg, err := Resolve(map[string]any{
		"url":    "http://localhost",
		"method": "{{verb}}",
	}, s, Options{})
	require.NoError(t, err)
	assert.Equal(t, "get", cfg["method"])
}

func TestResolve_MissingRequired(t *testing.T) {
	s := MustSchema("test", testSchemaDoc)

	_, err := Resolve(map[string]any{}, s, Options{})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, errors.Is(err, ErrSchemaViolation))
	assert.True(t, verr.HasField("url"), "issues: %+v", verr.Issues)
	assert.Equal(t, "url", verr.Field)
}

func TestResolve_EnumAndFormat(t *testing.T) {
	s := MustSchema("test", testSchemaDoc)

	_, err := Resolve(map[string]any{
		"url":    "not a uri",
		"method": "trace",
	}, s, Options{})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasField("url"))
	assert.True(t, verr.HasField("method"))
	assert.Len(t, verr.Issues, 2)
}

func TestResolve_UnknownFields(t *testing.T) {
	s := MustSchema("test", testSchemaDoc)
	definition := map[string]any{"url": "http://localhost", "extra": 1}

	_, err := Resolve(definition, s, Options{AllowUnknown: true})
	assert.NoError(t, err)

	_, err = Resolve(definition, s, Options{AllowUnknown: false})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasField("extra"), "issues: %+v", verr.Issues)
}

func TestResolve_ConcreteIsIdempotent(t *testing.T) {
	s := MustSchema("test", testSchemaDoc)
	concrete := map[string]any{
		"url":     "http://localhost/a",
		"method":  "post",
		"retries": 2,
	}

	for _, hydration := range []any{nil, map[string]any{"url": "other"}, []any{1, 2}} {
		cfg, err := Resolve(concrete, s, Options{Hydration: hydration, AllowUnknown: true})
		require.NoError(t, err)
		assert.Equal(t, concrete, cfg)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("action", []FieldIssue{
		{Field: "url", Reason: "url is required"},
		{Field: "method", Reason: "bad"},
	}, ErrSchemaViolation)

	assert.Equal(t, "action: validation failed: url: url is required; method: bad", err.Error())
	assert.Equal(t, "url", err.Field)
}
