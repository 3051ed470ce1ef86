package star

import (
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
)

// SurrogateKey derives a stable 64-bit surrogate key from an
// entity-qualified natural key. Hash-derived keys are deterministic across
// runs, which is what makes the full-refresh load idempotent: the same
// donor always lands on the same donor_key with no cross-run counter state.
// The sign bit is masked off so keys are always positive.
func SurrogateKey(entity Entity, naturalKey string) int64 {
	h := xxhash.Sum64String(string(entity) + ":" + naturalKey)
	return int64(h & math.MaxInt64)
}

// DateKey encodes a calendar day as a YYYYMMDD integer, the primary key of
// the date dimension.
func DateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Lookup maps natural keys to surrogate keys for one dimension. The
// conformance layer populates one Lookup per dimension and the validator
// resolves fact foreign keys against them.
type Lookup map[string]int64

// Resolve returns the surrogate key for a natural key, or false if the
// natural key never conformed into the dimension.
func (l Lookup) Resolve(naturalKey string) (int64, bool) {
	k, ok := l[naturalKey]
	return k, ok
}
