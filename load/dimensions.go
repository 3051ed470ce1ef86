package load

import (
	"context"
	"database/sql"

	"github.com/openrange/elkhorn/anomaly"
	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/star"
)

// Donors upserts the donor dimension by natural key.
func (l *Loader) Donors(ctx context.Context, batch []star.Donor) error {
	return l.withTx(ctx, star.EntityDonor, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO dim_donor
			(donor_key, donor_id, first_name, last_name, email, phone, address,
			 city, state, zip_code, donor_type, join_date, membership_level)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(donor_id) DO UPDATE SET
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				email = excluded.email,
				phone = excluded.phone,
				address = excluded.address,
				city = excluded.city,
				state = excluded.state,
				zip_code = excluded.zip_code,
				donor_type = excluded.donor_type,
				join_date = excluded.join_date,
				membership_level = excluded.membership_level,
				updated_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return errors.Wrap(err, "preparing donor upsert")
		}
		defer stmt.Close()

		for _, d := range batch {
			if _, err := stmt.Exec(d.Key, d.DonorID, d.FirstName, d.LastName,
				d.Email, d.Phone, d.Address, d.City, d.State, d.ZipCode,
				d.DonorType, d.JoinDate, d.MembershipLevel); err != nil {
				return errors.Wrapf(err, "upserting donor %s", d.DonorID)
			}
		}
		return nil
	})
}

// Campaigns upserts the campaign dimension by natural key.
func (l *Loader) Campaigns(ctx context.Context, batch []star.Campaign) error {
	return l.withTx(ctx, star.EntityCampaign, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO dim_campaign
			(campaign_key, campaign_id, campaign_name, campaign_type,
			 start_date, end_date, goal_amount, description, target_region, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(campaign_id) DO UPDATE SET
				campaign_name = excluded.campaign_name,
				campaign_type = excluded.campaign_type,
				start_date = excluded.start_date,
				end_date = excluded.end_date,
				goal_amount = excluded.goal_amount,
				description = excluded.description,
				target_region = excluded.target_region,
				status = excluded.status,
				updated_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return errors.Wrap(err, "preparing campaign upsert")
		}
		defer stmt.Close()

		for _, c := range batch {
			if _, err := stmt.Exec(c.Key, c.CampaignID, c.Name, c.CampaignType,
				c.StartDate, c.EndDate, c.GoalAmount, c.Description,
				c.TargetRegion, c.Status); err != nil {
				return errors.Wrapf(err, "upserting campaign %s", c.CampaignID)
			}
		}
		return nil
	})
}

// Habitats upserts the habitat dimension and persists at-risk flags in the
// same transaction.
func (l *Loader) Habitats(ctx context.Context, batch []star.Habitat, flags []anomaly.Flag) error {
	return l.withTx(ctx, star.EntityHabitat, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO dim_habitat
			(habitat_key, habitat_id, habitat_name, state, region,
			 total_acres, habitat_quality_score, conservation_status, primary_threats)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(habitat_id) DO UPDATE SET
				habitat_name = excluded.habitat_name,
				state = excluded.state,
				region = excluded.region,
				total_acres = excluded.total_acres,
				habitat_quality_score = excluded.habitat_quality_score,
				conservation_status = excluded.conservation_status,
				primary_threats = excluded.primary_threats,
				updated_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return errors.Wrap(err, "preparing habitat upsert")
		}
		defer stmt.Close()

		for _, h := range batch {
			if _, err := stmt.Exec(h.Key, h.HabitatID, h.Name, h.State, h.Region,
				h.TotalAcres, h.QualityScore, h.ConservationStatus, h.PrimaryThreatsJSON); err != nil {
				return errors.Wrapf(err, "upserting habitat %s", h.HabitatID)
			}
		}

		if _, err := tx.Exec("DELETE FROM anomaly_flag WHERE entity = ?", string(star.EntityHabitat)); err != nil {
			return errors.Wrap(err, "clearing habitat anomaly flags")
		}
		return insertFlags(tx, flags)
	})
}

// Projects upserts the project dimension by natural key.
func (l *Loader) Projects(ctx context.Context, batch []star.Project) error {
	return l.withTx(ctx, star.EntityProject, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO dim_project
			(project_key, project_id, project_name, project_type,
			 state, county, status, partner_organizations, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(project_id) DO UPDATE SET
				project_name = excluded.project_name,
				project_type = excluded.project_type,
				state = excluded.state,
				county = excluded.county,
				status = excluded.status,
				partner_organizations = excluded.partner_organizations,
				description = excluded.description,
				updated_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return errors.Wrap(err, "preparing project upsert")
		}
		defer stmt.Close()

		for _, p := range batch {
			if _, err := stmt.Exec(p.Key, p.ProjectID, p.Name, p.ProjectType,
				p.State, p.County, p.Status, p.PartnerOrgsJSON, p.Description); err != nil {
				return errors.Wrapf(err, "upserting project %s", p.ProjectID)
			}
		}
		return nil
	})
}

// Dates replaces the date dimension in full. Hash-stable date keys make
// the replace idempotent; nothing enforces a reference into this table, so
// replace order does not matter relative to the facts.
func (l *Loader) Dates(ctx context.Context, batch []star.DateDim) error {
	return l.withTx(ctx, star.EntityDate, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM dim_date"); err != nil {
			return errors.Wrap(err, "clearing dim_date")
		}

		stmt, err := tx.Prepare(`INSERT INTO dim_date
			(date_key, full_date, year, quarter, month, month_name, week,
			 day_of_month, day_of_week, day_name, is_weekend, fiscal_year, fiscal_quarter)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return errors.Wrap(err, "preparing date insert")
		}
		defer stmt.Close()

		for _, d := range batch {
			if _, err := stmt.Exec(d.Key, d.FullDate.Format("2006-01-02"), d.Year,
				d.Quarter, d.Month, d.MonthName, d.Week, d.DayOfMonth,
				d.DayOfWeek, d.DayName, d.IsWeekend, d.FiscalYear, d.FiscalQuarter); err != nil {
				return errors.Wrapf(err, "inserting date %d", d.Key)
			}
		}
		return nil
	})
}
