/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package rng provides a small seeded generator whose output is identical on
// every platform. It is used to derive turn order and card order from a
// room's shared seed, so every observer computes the same values without
// exchanging them.
//
// The generator is mulberry32. All state transitions use 32-bit unsigned
// arithmetic only.
package rng

import "errors"

var ErrEmptyList = errors.New("rng: cannot pick from an empty list")

const increment uint32 = 0x6d2b79f5

// Rand is a mulberry32 generator. The zero value is a valid generator
// seeded with 0. A Rand is not safe for concurrent use.
type Rand struct {
	state uint32
}

// New returns a generator seeded with seed.
func New(seed uint32) *Rand {
	return &Rand{state: seed}
}

// Uint32 advances the generator and returns the next raw value.
func (r *Rand) Uint32() uint32 {
	r.state += increment

	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)

	return t ^ (t >> 14)
}

// Float64 returns a value in [0, 1) with 32 bits of precision.
func (r *Rand) Float64() float64 {
	return float64(r.Uint32()) / (1 << 32)
}

// Int returns a uniform integer in [min, max] inclusive.
func (r *Rand) Int(min, max int) int {
	return int(r.Float64()*float64(max-min+1)) + min
}

// Item picks one element of list.
func Item[T any](list []T, r *Rand) (T, error) {
	if len(list) == 0 {
		var zero T
		return zero, ErrEmptyList
	}

	return list[int(r.Float64()*float64(len(list)))], nil
}

// Shuffle returns a Fisher-Yates permutation of list, walking from the last
// index down. The input is not modified.
func Shuffle[T any](list []T, r *Rand) []T {
	out := make([]T, len(list))
	copy(out, list)

	for i := len(out) - 1; i > 0; i-- {
		j := int(r.Float64() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}

	return out
}
