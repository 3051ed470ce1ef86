package conform

import (
	"math"
	"sort"

	"github.com/openrange/elkhorn/ingest"
	"github.com/openrange/elkhorn/quality"
	"github.com/openrange/elkhorn/star"
)

// Donations conforms staged donation rows. Foreign keys are carried as both
// the source natural key (for integrity diagnostics) and the hash-derived
// surrogate; the validator decides whether the surrogate actually resolves.
func Donations(staged []star.StagedRecord, dates *DateRange) ([]star.Donation, []quality.Violation) {
	donations := make([]star.Donation, 0, len(staged))
	var violations []quality.Violation

	for i, rec := range staged {
		c := &coercer{entity: star.EntityDonation, index: i, rec: rec, violations: &violations}
		donorID := c.str("donor_id")
		campaignID := c.str("campaign_id")
		date := c.requiredDate("donation_date")
		dates.Observe(date)
		donations = append(donations, star.Donation{
			DonationID:    c.str("donation_id"),
			DonorID:       donorID,
			CampaignID:    campaignID,
			DonorKey:      star.SurrogateKey(star.EntityDonor, donorID),
			CampaignKey:   star.SurrogateKey(star.EntityCampaign, campaignID),
			DateKey:       star.DateKey(date),
			Amount:        c.float("amount"),
			PaymentMethod: c.str("payment_method"),
			IsRecurring:   c.bool("is_recurring"),
			Notes:         c.str("notes"),
			Date:          date,
		})
	}
	return donations, violations
}

// ElkPopulations conforms the flattened per-year population series staged
// from habitat documents. Records are ordered by habitat then year, and
// each year's change is derived against the prior observed year for the
// same habitat; the first year of a series has zero change.
func ElkPopulations(staged []star.StagedRecord) ([]star.ElkPopulation, []quality.Violation) {
	series := make([]star.StagedRecord, 0, len(staged))
	for _, rec := range staged {
		if rec.Has(ingest.FieldSeriesKey) {
			series = append(series, rec)
		}
	}

	// Series keys come off an unordered document mapping; sorting before
	// coercion makes the prior-year derivation deterministic and keeps
	// violation indexes aligned with the conformed batch order.
	sort.Slice(series, func(a, b int) bool {
		ha := series[a].String(ingest.FieldParentKey)
		hb := series[b].String(ingest.FieldParentKey)
		if ha != hb {
			return ha < hb
		}
		return series[a].String(ingest.FieldSeriesKey) < series[b].String(ingest.FieldSeriesKey)
	})

	populations := make([]star.ElkPopulation, 0, len(series))
	var violations []quality.Violation

	for i, rec := range series {
		c := &coercer{entity: star.EntityElkPopulation, index: i, rec: rec, violations: &violations}
		habitatID := c.str(ingest.FieldParentKey)
		populations = append(populations, star.ElkPopulation{
			HabitatID:  habitatID,
			HabitatKey: star.SurrogateKey(star.EntityHabitat, habitatID),
			Year:       int(c.int(ingest.FieldSeriesKey)),
			Count:      c.int(ingest.FieldSeriesValue),
		})
	}

	for i := range populations {
		if i == 0 || populations[i].HabitatID != populations[i-1].HabitatID {
			continue
		}
		prev := populations[i-1].Count
		if prev == 0 {
			continue
		}
		change := populations[i].Count - prev
		populations[i].Change = change
		populations[i].ChangePct = math.Round(float64(change)/float64(prev)*100*100) / 100
	}
	return populations, violations
}

// ConservationMetrics conforms the per-project metric measures carried on
// project documents. The project's start date anchors the fact in the date
// dimension. A habitat association is optional.
func ConservationMetrics(staged []star.StagedRecord, dates *DateRange) ([]star.ConservationMetric, []quality.Violation) {
	var metrics []star.ConservationMetric
	var violations []quality.Violation

	for _, rec := range staged {
		if ingest.IsChild(rec) {
			continue
		}
		i := len(metrics)
		c := &coercer{entity: star.EntityConservationMetric, index: i, rec: rec, violations: &violations}
		projectID := c.str("project_id")
		habitatID := c.str("habitat_id")
		date := c.requiredDate("start_date")
		dates.Observe(date)

		m := star.ConservationMetric{
			ProjectID:             projectID,
			HabitatID:             habitatID,
			ProjectKey:            star.SurrogateKey(star.EntityProject, projectID),
			DateKey:               star.DateKey(date),
			Budget:                c.float("budget"),
			SpentToDate:           c.float("spent_to_date"),
			AcresProtected:        c.int("acres_protected"),
			ElkPopulationImpacted: c.int("elk_population_impacted"),
			Date:                  date,
		}
		if habitatID != "" {
			m.HabitatKey = star.SurrogateKey(star.EntityHabitat, habitatID)
		}
		metrics = append(metrics, m)
	}
	return metrics, violations
}

// FinancialFilings conforms staged filing documents. Labels the reader
// could not locate arrive as nil fields; they conform to null measures with
// a warning-level violation each, so noisy filings load with gaps instead
// of blocking.
func FinancialFilings(staged []star.StagedRecord) ([]star.FinancialFiling, []quality.Violation) {
	filings := make([]star.FinancialFiling, 0, len(staged))
	var violations []quality.Violation

	for i, rec := range staged {
		c := &coercer{entity: star.EntityFinancialFiling, index: i, rec: rec, violations: &violations}
		f := star.FinancialFiling{
			FiscalYear:             int(c.int(ingest.FieldFiscalYear)),
			EIN:                    c.str(ingest.FieldEIN),
			OrganizationName:       c.str(ingest.FieldOrganizationName),
			ContributionsAndGrants: optFloat(rec, "contributions_and_grants"),
			ProgramServiceRevenue:  optFloat(rec, "program_service_revenue"),
			InvestmentIncome:       optFloat(rec, "investment_income"),
			OtherRevenue:           optFloat(rec, "other_revenue"),
			TotalRevenue:           optFloat(rec, "total_revenue"),
			GrantsAndSimilarPaid:   optFloat(rec, "grants_and_similar_paid"),
			SalariesAndWages:       optFloat(rec, "salaries_and_wages"),
			TotalExpenses:          optFloat(rec, "total_expenses"),
			RevenueLessExpenses:    optFloat(rec, "revenue_less_expenses"),
			TotalAssets:            optFloat(rec, "total_assets"),
			TotalLiabilities:       optFloat(rec, "total_liabilities"),
			NetAssets:              optFloat(rec, "net_assets"),
			EmployeesCount:         optInt(rec, ingest.FieldEmployeesCount),
			VolunteersCount:        optInt(rec, ingest.FieldVolunteersCount),
		}
		filings = append(filings, f)

		if missing, ok := rec.Fields[ingest.FieldMissingLabels].([]string); ok {
			for _, label := range missing {
				violations = append(violations, quality.Violation{
					Entity:   star.EntityFinancialFiling,
					Index:    i,
					Record:   rec.Ref(),
					Rule:     quality.RuleMissingLabel,
					Severity: quality.SeverityWarning,
					Message:  "label not found in filing, loading null: " + label,
				})
			}
		}
	}
	return filings, violations
}

// ProgramServiceLines conforms the program service lines extracted from
// filing documents, one fact per named program per fiscal year.
func ProgramServiceLines(staged []star.StagedRecord) ([]star.ProgramServiceLine, []quality.Violation) {
	var lines []star.ProgramServiceLine
	var violations []quality.Violation

	for _, rec := range staged {
		programs, ok := rec.Fields[ingest.FieldProgramServices].([]map[string]any)
		if !ok {
			continue
		}
		fiscalYear, _ := toInt(rec.Fields[ingest.FieldFiscalYear])
		for _, p := range programs {
			name, _ := p["name"].(string)
			expenses, _ := toFloat(p["expenses"])
			grants, _ := toFloat(p["grants"])
			revenue, _ := toFloat(p["revenue"])
			lines = append(lines, star.ProgramServiceLine{
				FiscalYear:  int(fiscalYear),
				ProgramName: name,
				Expenses:    expenses,
				Grants:      grants,
				Revenue:     revenue,
			})
		}
	}
	return lines, violations
}

func optFloat(rec star.StagedRecord, field string) *float64 {
	v, ok := rec.Fields[field]
	if !ok || v == nil {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func optInt(rec star.StagedRecord, field string) *int64 {
	v, ok := rec.Fields[field]
	if !ok || v == nil {
		return nil
	}
	n, ok := toInt(v)
	if !ok {
		return nil
	}
	return &n
}
