package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wisteria-lang/wisteria/lang/value"
)

func TestTruth(t *testing.T) {
	assert.False(t, value.Nil.Truth())
	assert.False(t, value.False.Truth())
	assert.True(t, value.True.Truth())
	assert.True(t, value.Number(0).Truth())
	assert.True(t, value.Number(-1).Truth())
}

func TestEqual(t *testing.T) {
	assert.True(t, value.Equal(value.Nil, value.Nil))
	assert.True(t, value.Equal(value.Number(1), value.Number(1)))
	assert.False(t, value.Equal(value.Number(1), value.Number(2)))
	assert.False(t, value.Equal(value.Nil, value.False))
	assert.False(t, value.Equal(value.Number(0), value.False))
}

func TestStringRepresentation(t *testing.T) {
	assert.Equal(t, "nil", value.Nil.String())
	assert.Equal(t, "true", value.True.String())
	assert.Equal(t, "false", value.False.String())
	assert.Equal(t, "1", value.Number(1).String())
	assert.Equal(t, "1.5", value.Number(1.5).String())
}

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "nil", value.Nil.Type())
	assert.Equal(t, "boolean", value.True.Type())
	assert.Equal(t, "number", value.Number(1).Type())
}
