package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	original := []float32{1.0, -0.5, 3.14, 0.0, -100.0}

	restored, err := Decode(Encode(original))
	require.NoError(t, err)
	require.Equal(t, original, restored)
}

func TestCodecEmpty(t *testing.T) {
	restored, err := Decode(Encode([]float32{}))
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestDecodeInvalidLength(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestCosine(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		a := []float32{1.0, 0.0, 0.0}
		assert.InDelta(t, 1.0, Cosine(a, a), 1e-6)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		a := []float32{1.0, 0.0, 0.0}
		b := []float32{0.0, 1.0, 0.0}
		assert.InDelta(t, 0.0, Cosine(a, b), 1e-6)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		a := []float32{1.0, 0.0, 0.0}
		b := []float32{-1.0, 0.0, 0.0}
		assert.InDelta(t, -1.0, Cosine(a, b), 1e-6)
	})

	t.Run("magnitude independent", func(t *testing.T) {
		a := []float32{1.0, 2.0, 3.0}
		b := []float32{10.0, 20.0, 30.0}
		assert.InDelta(t, 1.0, Cosine(a, b), 1e-6)
	})

	t.Run("zero vector scores zero", func(t *testing.T) {
		a := []float32{0.0, 0.0, 0.0}
		b := []float32{1.0, 2.0, 3.0}
		assert.Equal(t, 0.0, Cosine(a, b))
	})

	t.Run("mismatched or empty score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1, 2, 3}))
		assert.Equal(t, 0.0, Cosine([]float32{}, []float32{}))
	})
}
