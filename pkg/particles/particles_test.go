package particles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_IsDeterministic(t *testing.T) {
	a, err := Generate(DefaultCount)
	require.NoError(t, err)
	b, err := Generate(DefaultCount)
	require.NoError(t, err)

	assert.Len(t, a, DefaultCount)
	assert.Equal(t, a, b)
}

func TestGenerate_FieldsStayInRange(t *testing.T) {
	field, err := Generate(MaxCount)
	require.NoError(t, err)

	for i, p := range field {
		assert.Equal(t, i, p.ID)
		assert.GreaterOrEqual(t, p.Left, 0.0)
		assert.Less(t, p.Left, 100.0)
		assert.GreaterOrEqual(t, p.Top, 0.0)
		assert.Less(t, p.Top, 100.0)
		assert.GreaterOrEqual(t, p.Size, 2.0)
		assert.Less(t, p.Size, 4.0)
		assert.Contains(t, []string{ColorCoral, ColorCyan}, p.Color)
		assert.GreaterOrEqual(t, p.Opacity, 0.3)
		assert.Less(t, p.Opacity, 0.5)
		assert.GreaterOrEqual(t, p.Duration, 40.0)
		assert.Less(t, p.Duration, 60.0)
		assert.LessOrEqual(t, p.Delay, 0.0)
		assert.Greater(t, p.Delay, -40.0)
		assert.GreaterOrEqual(t, p.Sway, 20.0)
		assert.Less(t, p.Sway, 50.0)
	}
}

func TestGenerate_PrefixStable(t *testing.T) {
	small, err := Generate(3)
	require.NoError(t, err)
	large, err := Generate(10)
	require.NoError(t, err)

	assert.Equal(t, small, large[:3])
}

func TestGenerate_RejectsOutOfRange(t *testing.T) {
	_, err := Generate(-1)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = Generate(MaxCount + 1)
	assert.ErrorIs(t, err, ErrInvalidCount)

	empty, err := Generate(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSeeded_UnitInterval(t *testing.T) {
	for s := 1.0; s <= 64; s++ {
		v := Seeded(s)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}
