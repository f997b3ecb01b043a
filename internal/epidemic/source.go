package epidemic

import "math/rand/v2"

// Source is the random stream a trial draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic stream for seed. Adjacent seeds produce
// unrelated streams, so workers may be seeded with baseSeed+i.
func NewSource(seed int64) *rand.Rand {
	hi := splitmix64(uint64(seed))
	lo := splitmix64(hi)
	return rand.New(rand.NewPCG(hi, lo))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
