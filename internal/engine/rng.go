package engine

import (
	"hash/fnv"
	"strconv"
)

// SeedFromKey hashes key with 32-bit FNV-1a over its UTF-8 bytes.
func SeedFromKey(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

// EnemySeed is the seed for seedKey's enemy in round: FNV-1a of "<seedKey>:<round>".
func EnemySeed(seedKey string, round int) uint32 {
	return SeedFromKey(seedKey + ":" + strconv.Itoa(round))
}

// Mulberry32 is a 32-bit state PRNG. Its output sequence is fixed for a seed,
// which keeps enemy generation reproducible across implementations.
type Mulberry32 struct {
	state uint32
}

func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

func (m *Mulberry32) Uint32() uint32 {
	m.state += 0x6D2B79F5
	z := m.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	return z ^ (z >> 14)
}

// Float64 returns Uint32()/2^32, in [0, 1).
func (m *Mulberry32) Float64() float64 {
	return float64(m.Uint32()) / 4294967296.0
}

type floatSource interface {
	Float64() float64
}

// intRange draws uniformly from [lo, hi].
func intRange(src floatSource, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + int(src.Float64()*float64(hi-lo+1))
}
