package load

import (
	"context"
	"database/sql"

	"github.com/openrange/elkhorn/anomaly"
	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/star"
)

// Donations replaces the donation facts and persists their anomaly flags
// in one transaction.
func (l *Loader) Donations(ctx context.Context, batch []star.Donation, flags []anomaly.Flag) error {
	return l.withTx(ctx, star.EntityDonation, func(tx *sql.Tx) error {
		if err := replace(tx, star.EntityDonation); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO fact_donation
			(donation_row_id, donation_id, donor_key, campaign_key, date_key,
			 amount, payment_method, is_recurring, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return errors.Wrap(err, "preparing donation insert")
		}
		defer stmt.Close()

		for _, d := range batch {
			if _, err := stmt.Exec(newRowID(), d.DonationID, d.DonorKey,
				d.CampaignKey, d.DateKey, d.Amount, d.PaymentMethod,
				d.IsRecurring, d.Notes); err != nil {
				return errors.Wrapf(err, "inserting donation %s", d.DonationID)
			}
		}
		return insertFlags(tx, flags)
	})
}

// ElkPopulations replaces the per-habitat per-year population facts.
func (l *Loader) ElkPopulations(ctx context.Context, batch []star.ElkPopulation, flags []anomaly.Flag) error {
	return l.withTx(ctx, star.EntityElkPopulation, func(tx *sql.Tx) error {
		if err := replace(tx, star.EntityElkPopulation); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO fact_elk_population
			(population_row_id, habitat_key, year, elk_count,
			 population_change, population_change_pct)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return errors.Wrap(err, "preparing population insert")
		}
		defer stmt.Close()

		for _, p := range batch {
			if _, err := stmt.Exec(newRowID(), p.HabitatKey, p.Year, p.Count,
				p.Change, p.ChangePct); err != nil {
				return errors.Wrapf(err, "inserting population %s/%d", p.HabitatID, p.Year)
			}
		}
		return insertFlags(tx, flags)
	})
}

// ConservationMetrics replaces the per-project conservation facts. A zero
// habitat key means no habitat association and loads as NULL.
func (l *Loader) ConservationMetrics(ctx context.Context, batch []star.ConservationMetric, flags []anomaly.Flag) error {
	return l.withTx(ctx, star.EntityConservationMetric, func(tx *sql.Tx) error {
		if err := replace(tx, star.EntityConservationMetric); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO fact_conservation
			(conservation_row_id, project_key, habitat_key, date_key,
			 budget, spent_to_date, acres_protected, elk_population_impacted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return errors.Wrap(err, "preparing conservation insert")
		}
		defer stmt.Close()

		for _, m := range batch {
			habitatKey := sql.NullInt64{Int64: m.HabitatKey, Valid: m.HabitatKey != 0}
			if _, err := stmt.Exec(newRowID(), m.ProjectKey, habitatKey,
				m.DateKey, m.Budget, m.SpentToDate, m.AcresProtected,
				m.ElkPopulationImpacted); err != nil {
				return errors.Wrapf(err, "inserting conservation metric %s", m.ProjectID)
			}
		}
		return insertFlags(tx, flags)
	})
}

// FinancialFilings replaces the per-fiscal-year filing facts. Nil measures
// load as NULL.
func (l *Loader) FinancialFilings(ctx context.Context, batch []star.FinancialFiling) error {
	return l.withTx(ctx, star.EntityFinancialFiling, func(tx *sql.Tx) error {
		if err := replace(tx, star.EntityFinancialFiling); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO fact_filing
			(filing_row_id, fiscal_year, ein, organization_name,
			 contributions_and_grants, program_service_revenue, investment_income,
			 other_revenue, total_revenue, grants_and_similar_paid,
			 salaries_and_wages, total_expenses, revenue_less_expenses,
			 total_assets, total_liabilities, net_assets,
			 employees_count, volunteers_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return errors.Wrap(err, "preparing filing insert")
		}
		defer stmt.Close()

		for _, f := range batch {
			if _, err := stmt.Exec(newRowID(), f.FiscalYear, f.EIN, f.OrganizationName,
				f.ContributionsAndGrants, f.ProgramServiceRevenue, f.InvestmentIncome,
				f.OtherRevenue, f.TotalRevenue, f.GrantsAndSimilarPaid,
				f.SalariesAndWages, f.TotalExpenses, f.RevenueLessExpenses,
				f.TotalAssets, f.TotalLiabilities, f.NetAssets,
				f.EmployeesCount, f.VolunteersCount); err != nil {
				return errors.Wrapf(err, "inserting filing FY%d", f.FiscalYear)
			}
		}
		return nil
	})
}

// ProgramServiceLines replaces the per-program filing line facts.
func (l *Loader) ProgramServiceLines(ctx context.Context, batch []star.ProgramServiceLine) error {
	return l.withTx(ctx, star.EntityProgramServiceLine, func(tx *sql.Tx) error {
		if err := replace(tx, star.EntityProgramServiceLine); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO fact_program_service
			(program_row_id, fiscal_year, program_name, expenses, grants, revenue)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return errors.Wrap(err, "preparing program service insert")
		}
		defer stmt.Close()

		for _, p := range batch {
			if _, err := stmt.Exec(newRowID(), p.FiscalYear, p.ProgramName,
				p.Expenses, p.Grants, p.Revenue); err != nil {
				return errors.Wrapf(err, "inserting program service %s FY%d", p.ProgramName, p.FiscalYear)
			}
		}
		return nil
	})
}
