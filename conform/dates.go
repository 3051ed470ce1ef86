package conform

import (
	"time"

	"github.com/openrange/elkhorn/star"
)

// DateRange accumulates the business dates observed while conforming facts.
// The date dimension is regenerated from this range after all facts
// conform, spanning it inclusively.
type DateRange struct {
	min, max time.Time
	seen     bool
}

// Observe widens the range to include t. Zero times (failed coercions) are
// ignored.
func (r *DateRange) Observe(t time.Time) {
	if t.IsZero() {
		return
	}
	if !r.seen {
		r.min, r.max = t, t
		r.seen = true
		return
	}
	if t.Before(r.min) {
		r.min = t
	}
	if t.After(r.max) {
		r.max = t
	}
}

// Dates builds the date dimension for the observed range, or nil when no
// fact carried a parseable date.
func (r *DateRange) Dates() []star.DateDim {
	if !r.seen {
		return nil
	}
	return star.BuildDateDimension(r.min, r.max)
}
