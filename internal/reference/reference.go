// Package reference generates the human-readable tokens printed on each message.
// Tokens are not unique identifiers; two messages on the same day may collide.
package reference

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Generate returns PREFIX-YYYYMMDD-RRRR with RRRR drawn uniformly from
// [1000, 9999]. A nil rng uses the global source.
func Generate(prefix string, now time.Time, rng *rand.Rand) string {
	return token(prefix, now, 1000, 9999, rng)
}

// Notice returns PREFIX-YYYYMMDD-RRR with RRR drawn uniformly from [100, 999].
func Notice(prefix string, now time.Time, rng *rand.Rand) string {
	return token(prefix, now, 100, 999, rng)
}

func token(prefix string, now time.Time, lo, hi int, rng *rand.Rand) string {
	return fmt.Sprintf("%s-%s-%d", prefix, now.Format("20060102"), lo+intN(rng, hi-lo+1))
}

// intN draws from rng, or from the global source when rng is nil.
func intN(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}
