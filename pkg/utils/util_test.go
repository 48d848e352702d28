package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedUtils(t *testing.T) {
	t.Run("DereferenceSeed: nil の場合は 0 を返す", func(t *testing.T) {
		assert.Equal(t, int64(0), DereferenceSeed(nil))
	})

	t.Run("DereferenceSeed: 値がある場合はその値を返す", func(t *testing.T) {
		v := int64(999)
		assert.Equal(t, int64(999), DereferenceSeed(&v))
	})

	t.Run("NewSeed は 0..999999 に収まる", func(t *testing.T) {
		for range 1000 {
			s := NewSeed()
			assert.GreaterOrEqual(t, s, int64(0))
			assert.LessOrEqual(t, s, int64(MaxSeed))
		}
	})

	t.Run("ResolveSeed は保存済みのシードを優先する", func(t *testing.T) {
		stored := int64(424242)
		assert.Equal(t, stored, ResolveSeed(&stored))
		s := ResolveSeed(nil)
		assert.LessOrEqual(t, s, int64(MaxSeed))
	})

	t.Run("SeedToInt32 は範囲外を切り詰める", func(t *testing.T) {
		assert.Nil(t, SeedToInt32(nil))

		big := int64(math.MaxInt64)
		got := SeedToInt32(&big)
		require.NotNil(t, got)
		assert.Equal(t, int32(math.MaxInt32), *got)

		small := int64(12)
		assert.Equal(t, int32(12), *SeedToInt32(&small))
	})
}
