package pitchtune

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewFramer_rejectsNonPositiveSize(t *testing.T) {
	_, err := NewFramer(0)
	assert.Error(t, err)
	_, err = NewFramer(-1)
	assert.Error(t, err)
}

func TestFramer_notPrimedUntilFull(t *testing.T) {
	f, err := NewFramer(8)
	require.NoError(t, err)

	_, ready := f.Push([]float32{1, 2, 3})
	assert.False(t, ready)
	assert.False(t, f.Primed())

	_, ready = f.Push([]float32{4, 5})
	assert.False(t, ready)

	frame, ready := f.Push([]float32{6, 7, 8})
	require.True(t, ready)
	assert.True(t, f.Primed())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, frame)
}

func TestFramer_overflowDuringPrimeKeepsCorrectTail(t *testing.T) {
	f, err := NewFramer(5)
	require.NoError(t, err)

	_, ready := f.Push([]float32{1, 2})
	assert.False(t, ready)

	// This chunk alone overflows what's needed to finish priming (3
	// slots remaining, 4 incoming): only the last 1 old sample plus all
	// 4 new ones should survive.
	frame, ready := f.Push([]float32{10, 11, 12, 13})
	require.True(t, ready)
	assert.Equal(t, []float32{2, 10, 11, 12, 13}, frame)
}

func TestFramer_chunkLongerThanWindowKeepsOnlyTail(t *testing.T) {
	f, err := NewFramer(4)
	require.NoError(t, err)

	frame, ready := f.Push([]float32{1, 2, 3, 4, 5, 6, 7})
	require.True(t, ready)
	assert.Equal(t, []float32{4, 5, 6, 7}, frame)
}

func TestFramer_slidesAfterPriming(t *testing.T) {
	f, err := NewFramer(4)
	require.NoError(t, err)

	f.Push([]float32{1, 2, 3, 4})
	frame, ready := f.Push([]float32{5, 6})
	require.True(t, ready)
	assert.Equal(t, []float32{3, 4, 5, 6}, frame)
}

func TestFramer_resetUnprimes(t *testing.T) {
	f, err := NewFramer(4)
	require.NoError(t, err)
	f.Push([]float32{1, 2, 3, 4})
	require.True(t, f.Primed())

	f.Reset()
	assert.False(t, f.Primed())
	_, ready := f.Push([]float32{1, 2, 3})
	assert.False(t, ready)
}

func TestFramer_alwaysEmitsWindowSizedFrameOncePrimed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 64).Draw(t, "n")
		f, err := NewFramer(n)
		require.NoError(t, err)

		chunks := rapid.SliceOfN(rapid.IntRange(0, 3*n), 1, 20).Draw(t, "chunkSizes")
		for _, size := range chunks {
			chunk := make([]float32, size)
			for i := range chunk {
				chunk[i] = float32(i)
			}
			frame, ready := f.Push(chunk)
			if ready {
				assert.Equal(t, n, len(frame))
			}
		}
	})
}
