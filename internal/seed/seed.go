// SPDX-License-Identifier: AGPL-3.0-only

// Package seed derives a stable per-user seed and draws bounded values from
// it, so demo metrics stay the same for a user across sessions.
package seed

import (
	"fmt"
	"math"
	"unicode/utf16"
)

// Seed is derived from a user's identity and is never persisted.
type Seed uint32

const twoPow32 = float64(1 << 32)

// Derive folds id and name into a seed with a base-31 polynomial hash over
// UTF-16 code units. Overflow wraps at 32 bits; the result is the absolute
// value of the signed accumulator.
func Derive(id, name string) Seed {
	var acc int32
	for _, c := range utf16.Encode([]rune(id + name)) {
		acc = acc*31 + int32(c)
	}
	if acc < 0 {
		return Seed(uint32(-int64(acc)))
	}
	return Seed(uint32(acc))
}

// unit maps key to [0, 1) for this seed.
func (s Seed) unit(key string) float64 {
	h := uint32(s)
	for _, c := range utf16.Encode([]rune(key)) {
		h = h*31 + uint32(c)
	}
	return float64(mix(h)) / twoPow32
}

// mix is the murmur3 finalizer. Keys that differ only in their last
// character land next to each other after the polynomial fold.
func mix(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// Int returns an integer in [min, max) that is constant for (s, key, min, max).
// min == max returns min. It panics if min > max.
func (s Seed) Int(key string, min, max int) int {
	if min > max {
		panic(fmt.Sprintf("seed: invalid range [%d, %d) for key %q", min, max, key))
	}
	if min == max {
		return min
	}
	// The width is unsigned so ranges wider than MaxInt do not overflow.
	width := uint64(max) - uint64(min)
	off := uint64(math.Floor(s.unit(key) * float64(width)))
	if off >= width {
		off = width - 1
	}
	return int(uint64(min) + off)
}

// Float returns a float in [min, max) with the same contract as Int. It is
// used for scaling factors such as per-user multipliers.
func (s Seed) Float(key string, min, max float64) float64 {
	if min > max {
		panic(fmt.Sprintf("seed: invalid range [%g, %g) for key %q", min, max, key))
	}
	if min == max {
		return min
	}
	v := min + s.unit(key)*(max-min)
	if v >= max {
		v = math.Nextafter(max, min)
	}
	return v
}

// Pick returns one of options chosen by key. options must not be empty.
func Pick[T any](s Seed, key string, options []T) T {
	return options[s.Int(key, 0, len(options))]
}
