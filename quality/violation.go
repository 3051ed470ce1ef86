// Package quality implements the data quality validator: completeness,
// uniqueness, referential integrity, and business rule checks over conformed
// batches. The validator only classifies — it never mutates records and
// never filters them; the run coordinator excludes blocking-violation
// records before they reach the loader.
package quality

import (
	"github.com/openrange/elkhorn/star"
)

// Severity classifies how a violation affects the load.
type Severity string

const (
	// SeverityBlocking excludes the offending record from load.
	SeverityBlocking Severity = "blocking"
	// SeverityWarning is logged and counted; the record still loads.
	SeverityWarning Severity = "warning"
)

// Rule names, stable identifiers for the run report.
const (
	RuleCompleteness         = "completeness"
	RuleUniqueness           = "uniqueness"
	RuleReferentialIntegrity = "referential_integrity"
	RuleBusiness             = "business_rule"
	RuleFormat               = "format"
	RuleMissingLabel         = "missing_label"
)

// Violation is one per-record validation outcome.
type Violation struct {
	Entity   star.Entity `json:"entity"`
	Index    int         `json:"-"`      // position in the validated batch
	Record   string      `json:"record"` // natural key or staged ref
	Rule     string      `json:"rule"`
	Severity Severity    `json:"severity"`
	Message  string      `json:"message"`
}

// BlockedIndexes returns the batch positions that must be excluded from
// load: every record with at least one blocking violation.
func BlockedIndexes(violations []Violation) map[int]bool {
	blocked := make(map[int]bool)
	for _, v := range violations {
		if v.Severity == SeverityBlocking {
			blocked[v.Index] = true
		}
	}
	return blocked
}

// CountBySeverity tallies violations for the run report.
func CountBySeverity(violations []Violation) map[Severity]int {
	counts := make(map[Severity]int)
	for _, v := range violations {
		counts[v.Severity]++
	}
	return counts
}

// Lookups bundles the dimension lookups facts resolve against.
type Lookups struct {
	Donors    star.Lookup
	Campaigns star.Lookup
	Habitats  star.Lookup
	Projects  star.Lookup
}
