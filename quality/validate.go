package quality

import (
	"fmt"
	"strings"

	"github.com/openrange/elkhorn/star"
)

// Known enumeration values. Out-of-set values are worth a review but not
// worth rejecting a record over, so these all surface as warnings.
var (
	validDonorTypes       = set("Individual", "Corporate", "Foundation")
	validMembershipLevels = set("Bronze", "Silver", "Gold", "Platinum")
	validCampaignStatuses = set("Active", "Completed", "Cancelled", "Planned")
	validProjectStatuses  = set("In Progress", "Completed", "Planned", "On Hold")
	validPaymentMethods   = set("Credit Card", "Check", "Wire Transfer", "Cash", "ACH")
)

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// Donors validates a conformed donor batch.
func Donors(batch []star.Donor) []Violation {
	var out []Violation
	seen := make(map[string]bool)

	for i, d := range batch {
		if d.DonorID == "" {
			out = append(out, blocking(star.EntityDonor, i, d.NaturalKey(), RuleCompleteness, "donor_id is required"))
			continue
		}
		if seen[d.DonorID] {
			out = append(out, blocking(star.EntityDonor, i, d.NaturalKey(), RuleUniqueness,
				fmt.Sprintf("duplicate donor_id %q, first occurrence wins", d.DonorID)))
		}
		seen[d.DonorID] = true

		if d.Email != "" && !strings.Contains(d.Email, "@") {
			out = append(out, warning(star.EntityDonor, i, d.NaturalKey(), RuleFormat,
				fmt.Sprintf("email %q does not look like an address", d.Email)))
		}
		if d.DonorType != "" && !validDonorTypes[d.DonorType] {
			out = append(out, warning(star.EntityDonor, i, d.NaturalKey(), RuleBusiness,
				fmt.Sprintf("unknown donor_type %q", d.DonorType)))
		}
		if d.MembershipLevel != "" && !validMembershipLevels[d.MembershipLevel] {
			out = append(out, warning(star.EntityDonor, i, d.NaturalKey(), RuleBusiness,
				fmt.Sprintf("unknown membership_level %q", d.MembershipLevel)))
		}
	}
	return out
}

// Campaigns validates a conformed campaign batch.
func Campaigns(batch []star.Campaign) []Violation {
	var out []Violation
	seen := make(map[string]bool)

	for i, c := range batch {
		if c.CampaignID == "" {
			out = append(out, blocking(star.EntityCampaign, i, c.NaturalKey(), RuleCompleteness, "campaign_id is required"))
			continue
		}
		if c.Name == "" {
			out = append(out, blocking(star.EntityCampaign, i, c.NaturalKey(), RuleCompleteness, "campaign_name is required"))
		}
		if seen[c.CampaignID] {
			out = append(out, blocking(star.EntityCampaign, i, c.NaturalKey(), RuleUniqueness,
				fmt.Sprintf("duplicate campaign_id %q, first occurrence wins", c.CampaignID)))
		}
		seen[c.CampaignID] = true

		if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
			out = append(out, blocking(star.EntityCampaign, i, c.NaturalKey(), RuleBusiness,
				fmt.Sprintf("end_date %s precedes start_date %s",
					c.EndDate.Format("2006-01-02"), c.StartDate.Format("2006-01-02"))))
		}
		if c.GoalAmount < 0 {
			out = append(out, blocking(star.EntityCampaign, i, c.NaturalKey(), RuleBusiness,
				fmt.Sprintf("goal_amount %v is negative", c.GoalAmount)))
		}
		if c.Status != "" && !validCampaignStatuses[c.Status] {
			out = append(out, warning(star.EntityCampaign, i, c.NaturalKey(), RuleBusiness,
				fmt.Sprintf("unknown status %q", c.Status)))
		}
	}
	return out
}

// Habitats validates a conformed habitat batch.
func Habitats(batch []star.Habitat) []Violation {
	var out []Violation
	seen := make(map[string]bool)

	for i, h := range batch {
		if h.HabitatID == "" {
			out = append(out, blocking(star.EntityHabitat, i, h.NaturalKey(), RuleCompleteness, "habitat_id is required"))
			continue
		}
		if h.Name == "" {
			out = append(out, blocking(star.EntityHabitat, i, h.NaturalKey(), RuleCompleteness, "habitat_name is required"))
		}
		if seen[h.HabitatID] {
			out = append(out, blocking(star.EntityHabitat, i, h.NaturalKey(), RuleUniqueness,
				fmt.Sprintf("duplicate habitat_id %q, first occurrence wins", h.HabitatID)))
		}
		seen[h.HabitatID] = true

		if h.QualityScore < 0 || h.QualityScore > 100 {
			out = append(out, blocking(star.EntityHabitat, i, h.NaturalKey(), RuleBusiness,
				fmt.Sprintf("habitat_quality_score %d outside 0..100", h.QualityScore)))
		}
	}
	return out
}

// Projects validates a conformed project batch.
func Projects(batch []star.Project) []Violation {
	var out []Violation
	seen := make(map[string]bool)

	for i, p := range batch {
		if p.ProjectID == "" {
			out = append(out, blocking(star.EntityProject, i, p.NaturalKey(), RuleCompleteness, "project_id is required"))
			continue
		}
		if p.Name == "" {
			out = append(out, blocking(star.EntityProject, i, p.NaturalKey(), RuleCompleteness, "project_name is required"))
		}
		if seen[p.ProjectID] {
			out = append(out, blocking(star.EntityProject, i, p.NaturalKey(), RuleUniqueness,
				fmt.Sprintf("duplicate project_id %q, first occurrence wins", p.ProjectID)))
		}
		seen[p.ProjectID] = true

		if p.Status != "" && !validProjectStatuses[p.Status] {
			out = append(out, warning(star.EntityProject, i, p.NaturalKey(), RuleBusiness,
				fmt.Sprintf("unknown status %q", p.Status)))
		}
	}
	return out
}

// Donations validates a conformed donation fact batch against the
// dimension lookups.
func Donations(batch []star.Donation, lk Lookups) []Violation {
	var out []Violation
	seen := make(map[string]bool)

	for i, d := range batch {
		ref := d.DonationID
		if ref == "" {
			out = append(out, blocking(star.EntityDonation, i, fmt.Sprintf("donation[%d]", i), RuleCompleteness, "donation_id is required"))
			continue
		}
		if seen[ref] {
			out = append(out, blocking(star.EntityDonation, i, ref, RuleUniqueness,
				fmt.Sprintf("duplicate donation_id %q, first occurrence wins", ref)))
		}
		seen[ref] = true

		if _, ok := lk.Donors.Resolve(d.DonorID); !ok {
			out = append(out, blocking(star.EntityDonation, i, ref, RuleReferentialIntegrity,
				fmt.Sprintf("donor_id %q does not resolve in dim_donor", d.DonorID)))
		}
		if _, ok := lk.Campaigns.Resolve(d.CampaignID); !ok {
			out = append(out, blocking(star.EntityDonation, i, ref, RuleReferentialIntegrity,
				fmt.Sprintf("campaign_id %q does not resolve in dim_campaign", d.CampaignID)))
		}
		if d.Amount <= 0 {
			out = append(out, blocking(star.EntityDonation, i, ref, RuleBusiness,
				fmt.Sprintf("amount %v is not positive", d.Amount)))
		}
		if d.PaymentMethod != "" && !validPaymentMethods[d.PaymentMethod] {
			out = append(out, warning(star.EntityDonation, i, ref, RuleBusiness,
				fmt.Sprintf("unknown payment_method %q", d.PaymentMethod)))
		}
	}
	return out
}

// ElkPopulations validates a conformed population fact batch.
func ElkPopulations(batch []star.ElkPopulation, lk Lookups) []Violation {
	var out []Violation
	seen := make(map[string]bool)

	for i, p := range batch {
		ref := fmt.Sprintf("%s/%d", p.HabitatID, p.Year)
		if _, ok := lk.Habitats.Resolve(p.HabitatID); !ok {
			out = append(out, blocking(star.EntityElkPopulation, i, ref, RuleReferentialIntegrity,
				fmt.Sprintf("habitat_id %q does not resolve in dim_habitat", p.HabitatID)))
		}
		if seen[ref] {
			out = append(out, blocking(star.EntityElkPopulation, i, ref, RuleUniqueness,
				fmt.Sprintf("duplicate observation for habitat %q year %d", p.HabitatID, p.Year)))
		}
		seen[ref] = true

		if p.Count < 0 {
			out = append(out, blocking(star.EntityElkPopulation, i, ref, RuleBusiness,
				fmt.Sprintf("elk_count %d is negative", p.Count)))
		}
	}
	return out
}

// ConservationMetrics validates a conformed project metric fact batch.
func ConservationMetrics(batch []star.ConservationMetric, lk Lookups) []Violation {
	var out []Violation

	for i, m := range batch {
		ref := m.ProjectID
		if _, ok := lk.Projects.Resolve(m.ProjectID); !ok {
			out = append(out, blocking(star.EntityConservationMetric, i, ref, RuleReferentialIntegrity,
				fmt.Sprintf("project_id %q does not resolve in dim_project", m.ProjectID)))
		}
		// Habitat association is optional; validate only when present.
		if m.HabitatID != "" {
			if _, ok := lk.Habitats.Resolve(m.HabitatID); !ok {
				out = append(out, blocking(star.EntityConservationMetric, i, ref, RuleReferentialIntegrity,
					fmt.Sprintf("habitat_id %q does not resolve in dim_habitat", m.HabitatID)))
			}
		}
		if m.Budget < 0 {
			out = append(out, blocking(star.EntityConservationMetric, i, ref, RuleBusiness,
				fmt.Sprintf("budget %v is negative", m.Budget)))
		}
		if m.SpentToDate < 0 {
			out = append(out, blocking(star.EntityConservationMetric, i, ref, RuleBusiness,
				fmt.Sprintf("spent_to_date %v is negative", m.SpentToDate)))
		}
		if m.AcresProtected < 0 {
			out = append(out, blocking(star.EntityConservationMetric, i, ref, RuleBusiness,
				fmt.Sprintf("acres_protected %d is negative", m.AcresProtected)))
		}
	}
	return out
}

// FinancialFilings validates an extracted filing batch. Missing-label
// warnings are attached during conformance; this adds batch-level rules.
func FinancialFilings(batch []star.FinancialFiling) []Violation {
	var out []Violation
	seen := make(map[int]bool)

	for i, f := range batch {
		ref := fmt.Sprintf("filing/%d", f.FiscalYear)
		if f.FiscalYear <= 0 {
			out = append(out, blocking(star.EntityFinancialFiling, i, ref, RuleCompleteness, "fiscal_year is required"))
			continue
		}
		if seen[f.FiscalYear] {
			out = append(out, blocking(star.EntityFinancialFiling, i, ref, RuleUniqueness,
				fmt.Sprintf("duplicate filing for fiscal year %d", f.FiscalYear)))
		}
		seen[f.FiscalYear] = true

		if f.TotalRevenue != nil && *f.TotalRevenue < 0 {
			out = append(out, warning(star.EntityFinancialFiling, i, ref, RuleBusiness,
				fmt.Sprintf("total_revenue %v is negative", *f.TotalRevenue)))
		}
	}
	return out
}

// ProgramServiceLines validates extracted program service lines.
func ProgramServiceLines(batch []star.ProgramServiceLine) []Violation {
	var out []Violation
	seen := make(map[string]bool)

	for i, l := range batch {
		ref := fmt.Sprintf("%d/%s", l.FiscalYear, l.ProgramName)
		if l.ProgramName == "" {
			out = append(out, blocking(star.EntityProgramServiceLine, i, ref, RuleCompleteness, "program_name is required"))
			continue
		}
		if seen[ref] {
			out = append(out, blocking(star.EntityProgramServiceLine, i, ref, RuleUniqueness,
				fmt.Sprintf("duplicate program service line %q for fiscal year %d", l.ProgramName, l.FiscalYear)))
		}
		seen[ref] = true

		if l.Expenses < 0 {
			out = append(out, blocking(star.EntityProgramServiceLine, i, ref, RuleBusiness,
				fmt.Sprintf("expenses %v is negative", l.Expenses)))
		}
	}
	return out
}

func blocking(entity star.Entity, index int, record, rule, message string) Violation {
	return Violation{Entity: entity, Index: index, Record: record, Rule: rule, Severity: SeverityBlocking, Message: message}
}

func warning(entity star.Entity, index int, record, rule, message string) Violation {
	return Violation{Entity: entity, Index: index, Record: record, Rule: rule, Severity: SeverityWarning, Message: message}
}
