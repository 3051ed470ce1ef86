// Package anomaly applies threshold rules to validated fact records.
// Anomalies are informational: flagged records still load, and the flags
// persist alongside them for downstream surfacing.
package anomaly

import (
	"fmt"

	"github.com/openrange/elkhorn/config"
	"github.com/openrange/elkhorn/star"
)

// Rule names, stable identifiers for the run report and the flag store.
const (
	RuleLargeDonation     = "large_donation"
	RuleHabitatAtRisk     = "habitat_at_risk"
	RulePopulationDecline = "population_decline"
	RuleBudgetOverrun     = "budget_overrun"
)

// Severity levels for flags. Detection never produces anything stronger
// than a warning; blocking is the validator's business.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Flag is one threshold rule firing on one record.
type Flag struct {
	Entity    star.Entity `json:"entity"`
	Record    string      `json:"record"` // natural key reference
	Rule      string      `json:"rule"`
	Severity  string      `json:"severity"`
	Observed  float64     `json:"observed"`
	Threshold float64     `json:"threshold"`
	Message   string      `json:"message"`
}

// Detector evaluates the configured threshold rules.
type Detector struct {
	cfg config.Anomaly
}

// NewDetector builds a detector from the anomaly configuration.
func NewDetector(cfg config.Anomaly) *Detector {
	return &Detector{cfg: cfg}
}

// Donations flags donations whose amount exceeds the large-donation
// threshold.
func (d *Detector) Donations(batch []star.Donation) []Flag {
	var flags []Flag
	for _, don := range batch {
		if don.Amount > d.cfg.LargeDonationAmount {
			flags = append(flags, Flag{
				Entity:    star.EntityDonation,
				Record:    don.DonationID,
				Rule:      RuleLargeDonation,
				Severity:  SeverityInfo,
				Observed:  don.Amount,
				Threshold: d.cfg.LargeDonationAmount,
				Message:   fmt.Sprintf("donation %s of %.2f exceeds %.2f", don.DonationID, don.Amount, d.cfg.LargeDonationAmount),
			})
		}
	}
	return flags
}

// Habitats flags habitats whose conservation status is in the configured
// at-risk set. Habitats are dimensions, but at-risk status is surfaced the
// same way as fact anomalies.
func (d *Detector) Habitats(batch []star.Habitat) []Flag {
	atRisk := make(map[string]bool, len(d.cfg.AtRiskStatuses))
	for _, s := range d.cfg.AtRiskStatuses {
		atRisk[s] = true
	}

	var flags []Flag
	for _, h := range batch {
		if atRisk[h.ConservationStatus] {
			flags = append(flags, Flag{
				Entity:   star.EntityHabitat,
				Record:   h.HabitatID,
				Rule:     RuleHabitatAtRisk,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("habitat %s status is %q", h.HabitatID, h.ConservationStatus),
			})
		}
	}
	return flags
}

// ElkPopulations flags year-over-year declines steeper than the configured
// percentage. The first observed year of a habitat's series carries zero
// change and never flags.
func (d *Detector) ElkPopulations(batch []star.ElkPopulation) []Flag {
	var flags []Flag
	for _, p := range batch {
		if p.ChangePct < -d.cfg.PopulationDeclinePct {
			flags = append(flags, Flag{
				Entity:    star.EntityElkPopulation,
				Record:    fmt.Sprintf("%s/%d", p.HabitatID, p.Year),
				Rule:      RulePopulationDecline,
				Severity:  SeverityWarning,
				Observed:  p.ChangePct,
				Threshold: -d.cfg.PopulationDeclinePct,
				Message:   fmt.Sprintf("habitat %s population fell %.2f%% in %d", p.HabitatID, -p.ChangePct, p.Year),
			})
		}
	}
	return flags
}

// ConservationMetrics flags projects whose spend exceeds their budget.
func (d *Detector) ConservationMetrics(batch []star.ConservationMetric) []Flag {
	var flags []Flag
	for _, m := range batch {
		if m.SpentToDate > m.Budget {
			flags = append(flags, Flag{
				Entity:    star.EntityConservationMetric,
				Record:    m.ProjectID,
				Rule:      RuleBudgetOverrun,
				Severity:  SeverityWarning,
				Observed:  m.SpentToDate,
				Threshold: m.Budget,
				Message:   fmt.Sprintf("project %s spent %.2f of a %.2f budget", m.ProjectID, m.SpentToDate, m.Budget),
			})
		}
	}
	return flags
}

// CountByRule tallies flags for the run report.
func CountByRule(flags []Flag) map[string]int {
	counts := make(map[string]int)
	for _, f := range flags {
		counts[f.Rule]++
	}
	return counts
}
