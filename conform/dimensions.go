// Package conform converts staged records into typed dimension and fact
// records. Surrogate keys are derived from natural keys by a stable hash,
// so conformance needs no persisted key counter. Coercion failures are
// reported as blocking violations against the conformed batch; they never
// halt a run.
package conform

import (
	"github.com/openrange/elkhorn/ingest"
	"github.com/openrange/elkhorn/quality"
	"github.com/openrange/elkhorn/star"
)

// Donors conforms staged donor rows.
func Donors(staged []star.StagedRecord) ([]star.Donor, []quality.Violation) {
	donors := make([]star.Donor, 0, len(staged))
	var violations []quality.Violation

	for i, rec := range staged {
		c := &coercer{entity: star.EntityDonor, index: i, rec: rec, violations: &violations}
		id := c.str("donor_id")
		donors = append(donors, star.Donor{
			Key:             star.SurrogateKey(star.EntityDonor, id),
			DonorID:         id,
			FirstName:       c.str("first_name"),
			LastName:        c.str("last_name"),
			Email:           c.str("email"),
			Phone:           c.str("phone"),
			Address:         c.str("address"),
			City:            c.str("city"),
			State:           c.str("state"),
			ZipCode:         c.str("zip_code"),
			DonorType:       c.str("donor_type"),
			JoinDate:        c.date("join_date"),
			MembershipLevel: c.str("membership_level"),
		})
	}
	return donors, violations
}

// Campaigns conforms staged campaign rows.
func Campaigns(staged []star.StagedRecord) ([]star.Campaign, []quality.Violation) {
	campaigns := make([]star.Campaign, 0, len(staged))
	var violations []quality.Violation

	for i, rec := range staged {
		c := &coercer{entity: star.EntityCampaign, index: i, rec: rec, violations: &violations}
		id := c.str("campaign_id")
		campaigns = append(campaigns, star.Campaign{
			Key:          star.SurrogateKey(star.EntityCampaign, id),
			CampaignID:   id,
			Name:         c.str("campaign_name"),
			CampaignType: c.str("campaign_type"),
			StartDate:    c.date("start_date"),
			EndDate:      c.date("end_date"),
			GoalAmount:   c.float("goal_amount"),
			Description:  c.str("description"),
			TargetRegion: c.str("target_region"),
			Status:       c.str("status"),
		})
	}
	return campaigns, violations
}

// Habitats conforms staged habitat documents. Flattened child records
// (the per-year population series) belong to the elk population fact and
// are skipped here.
func Habitats(staged []star.StagedRecord) ([]star.Habitat, []quality.Violation) {
	habitats := make([]star.Habitat, 0, len(staged))
	var violations []quality.Violation

	for _, rec := range staged {
		if ingest.IsChild(rec) {
			continue
		}
		i := len(habitats)
		c := &coercer{entity: star.EntityHabitat, index: i, rec: rec, violations: &violations}
		id := c.str("habitat_id")
		habitats = append(habitats, star.Habitat{
			Key:                star.SurrogateKey(star.EntityHabitat, id),
			HabitatID:          id,
			Name:               c.str("habitat_name"),
			State:              c.str("state"),
			Region:             c.str("region"),
			TotalAcres:         c.int("total_acres"),
			QualityScore:       c.int("habitat_quality_score"),
			ConservationStatus: c.str("conservation_status"),
			PrimaryThreatsJSON: jsonEncode(rec.Fields["primary_threats"]),
		})
	}
	return habitats, violations
}

// Projects conforms staged project documents. The same documents also carry
// the conservation metric measures; those conform separately as facts.
func Projects(staged []star.StagedRecord) ([]star.Project, []quality.Violation) {
	projects := make([]star.Project, 0, len(staged))
	var violations []quality.Violation

	for _, rec := range staged {
		if ingest.IsChild(rec) {
			continue
		}
		i := len(projects)
		c := &coercer{entity: star.EntityProject, index: i, rec: rec, violations: &violations}
		id := c.str("project_id")
		projects = append(projects, star.Project{
			Key:             star.SurrogateKey(star.EntityProject, id),
			ProjectID:       id,
			Name:            c.str("project_name"),
			ProjectType:     c.str("project_type"),
			State:           c.str("state"),
			County:          c.str("county"),
			Status:          c.str("status"),
			PartnerOrgsJSON: jsonEncode(rec.Fields["partner_organizations"]),
			Description:     c.str("description"),
		})
	}
	return projects, violations
}

// DonorLookup builds the natural key → surrogate key lookup for a conformed
// donor batch. Duplicate natural keys keep the first occurrence, matching
// the uniqueness rule.
func DonorLookup(donors []star.Donor) star.Lookup {
	lk := make(star.Lookup, len(donors))
	for _, d := range donors {
		if _, ok := lk[d.DonorID]; !ok {
			lk[d.DonorID] = d.Key
		}
	}
	return lk
}

// CampaignLookup builds the campaign lookup.
func CampaignLookup(campaigns []star.Campaign) star.Lookup {
	lk := make(star.Lookup, len(campaigns))
	for _, c := range campaigns {
		if _, ok := lk[c.CampaignID]; !ok {
			lk[c.CampaignID] = c.Key
		}
	}
	return lk
}

// HabitatLookup builds the habitat lookup.
func HabitatLookup(habitats []star.Habitat) star.Lookup {
	lk := make(star.Lookup, len(habitats))
	for _, h := range habitats {
		if _, ok := lk[h.HabitatID]; !ok {
			lk[h.HabitatID] = h.Key
		}
	}
	return lk
}

// ProjectLookup builds the project lookup.
func ProjectLookup(projects []star.Project) star.Lookup {
	lk := make(star.Lookup, len(projects))
	for _, p := range projects {
		if _, ok := lk[p.ProjectID]; !ok {
			lk[p.ProjectID] = p.Key
		}
	}
	return lk
}
