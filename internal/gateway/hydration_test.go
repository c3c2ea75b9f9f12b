package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathParams(t *testing.T) {
	assert.Equal(t, []string{"id", "rest"}, pathParams("/users/{id}/files/{rest...}"))
	assert.Empty(t, pathParams("/static/{$}"))
	assert.Empty(t, pathParams("/plain"))
}

func TestHydrate(t *testing.T) {
	mux := http.NewServeMux()

	var got map[string]any
	var hydrateErr error
	mux.HandleFunc("POST /users/{id}", func(_ http.ResponseWriter, r *http.Request) {
		got, hydrateErr = hydrate(r, pathParams("/users/{id}"))
	})

	req := httptest.NewRequest(http.MethodPost, "/users/42?q=x&q=y&page=2", strings.NewReader(`{"a":[1,2]}`))
	req.Header.Set("X-Trace-Id", "t-1")
	mux.ServeHTTP(httptest.NewRecorder(), req)

	require.NoError(t, hydrateErr)
	assert.Equal(t, map[string]any{"id": "42"}, got["params"])
	assert.Equal(t, map[string]any{"q": "x", "page": "2"}, got["query"])
	assert.Equal(t, "t-1", got["headers"].(map[string]any)["x-trace-id"])
	assert.Equal(t, map[string]any{"a": []any{float64(1), float64(2)}}, got["body"])
	assert.Equal(t, map[string]any{}, got["actions"])
}

func TestReadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	body, err := readBody(req)
	require.NoError(t, err)
	assert.Equal(t, "a=1", body)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	body, err = readBody(req)
	require.NoError(t, err)
	assert.Nil(t, body)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", maxRequestBody+1)))
	_, err = readBody(req)
	assert.Error(t, err)
}
