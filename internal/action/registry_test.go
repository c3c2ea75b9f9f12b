package action

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAction struct{ typ string }

func (s stubAction) Type() string { return s.typ }

func (s stubAction) Execute(context.Context, *Invocation) (*Result, error) {
	return &Result{Output: s.typ}, nil
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry(&spyTransport{})

	assert.True(t, r.Has(TypeHTTP))
	assert.Equal(t, 1, r.Count())

	a, err := r.Get(TypeHTTP)
	require.NoError(t, err)
	assert.Equal(t, TypeHTTP, a.Type())

	_, err = r.Get("grpc")
	assert.True(t, errors.Is(err, ErrActionNotFound))

	r.Register(stubAction{typ: "grpc"})
	assert.Equal(t, []string{"grpc", TypeHTTP}, r.Types())

	a, err = r.For(map[string]any{"type": "grpc"})
	require.NoError(t, err)
	assert.Equal(t, "grpc", a.Type())

	a, err = r.For(map[string]any{"url": "http://localhost"})
	require.NoError(t, err)
	assert.Equal(t, TypeHTTP, a.Type())

	r.Unregister("grpc")
	assert.False(t, r.Has("grpc"))
	assert.Equal(t, 1, r.Count())
}
