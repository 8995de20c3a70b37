package natives_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisteria-lang/wisteria/lang/natives"
)

func TestClockReturnsNonNegativeNumber(t *testing.T) {
	v, err := natives.Clock(nil)
	require.NoError(t, err)
	require.True(t, v.IsNumber())
	assert.GreaterOrEqual(t, v.AsNumber(), 0.0)
}
