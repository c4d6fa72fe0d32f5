package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampInt(t *testing.T) {
	assert.Equal(t, 5, ClampInt(5, 0, 10))
	assert.Equal(t, 0, ClampInt(-3, 0, 10))
	assert.Equal(t, 10, ClampInt(42, 0, 10))
	assert.Equal(t, 7, ClampInt(7, 7, 7))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, ClampLimit(0, 50, 200), "zero falls back to default")
	assert.Equal(t, 50, ClampLimit(-1, 50, 200), "negative falls back to default")
	assert.Equal(t, 25, ClampLimit(25, 50, 200))
	assert.Equal(t, 200, ClampLimit(1000, 50, 200), "capped at max")
}
