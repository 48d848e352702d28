package utils

import (
	"math"
	"math/rand/v2"
)

// MaxSeed は新しく払い出すシードの上限です。
const MaxSeed = 999999

// DereferenceSeed は、int64のポインタを安全にデリファレンスします。
// ポインタがnilの場合は0を返します。
func DereferenceSeed(seed *int64) int64 {
	if seed == nil {
		return 0
	}
	return *seed
}

// NewSeed は 0 から MaxSeed までのランダムなシードを返します。
func NewSeed() int64 {
	return rand.Int64N(MaxSeed + 1)
}

// ResolveSeed はセッションに保存されたシードがあればそれを、なければ新しいシードを返します。
func ResolveSeed(stored *int64) int64 {
	if stored != nil {
		return *stored
	}
	return NewSeed()
}

// SeedToInt32 は SDK 向けに *int64 を *int32 へ変換します。範囲外の値は切り詰めます。
func SeedToInt32(seed *int64) *int32 {
	if seed == nil {
		return nil
	}
	v := max(min(*seed, math.MaxInt32), math.MinInt32)
	s := int32(v)
	return &s
}
