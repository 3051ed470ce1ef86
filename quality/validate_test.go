package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrange/elkhorn/star"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func testLookups() Lookups {
	return Lookups{
		Donors:    star.Lookup{"D0001": star.SurrogateKey(star.EntityDonor, "D0001")},
		Campaigns: star.Lookup{"C0001": star.SurrogateKey(star.EntityCampaign, "C0001")},
		Habitats:  star.Lookup{"H0001": star.SurrogateKey(star.EntityHabitat, "H0001")},
		Projects:  star.Lookup{"P0001": star.SurrogateKey(star.EntityProject, "P0001")},
	}
}

func TestDonors(t *testing.T) {
	t.Run("clean batch has no violations", func(t *testing.T) {
		batch := []star.Donor{
			{DonorID: "D0001", Email: "a@b.org", DonorType: "Individual", MembershipLevel: "Gold"},
			{DonorID: "D0002", Email: "c@d.org", DonorType: "Corporate", MembershipLevel: "Bronze"},
		}
		assert.Empty(t, Donors(batch))
	})

	t.Run("missing id is blocking", func(t *testing.T) {
		violations := Donors([]star.Donor{{Email: "a@b.org"}})
		require.Len(t, violations, 1)
		assert.Equal(t, SeverityBlocking, violations[0].Severity)
		assert.Equal(t, RuleCompleteness, violations[0].Rule)
	})

	t.Run("duplicate id blocks second occurrence only", func(t *testing.T) {
		batch := []star.Donor{{DonorID: "D0001"}, {DonorID: "D0001"}, {DonorID: "D0001"}}
		violations := Donors(batch)
		require.Len(t, violations, 2)
		assert.Equal(t, 1, violations[0].Index)
		assert.Equal(t, 2, violations[1].Index)

		blocked := BlockedIndexes(violations)
		assert.False(t, blocked[0], "first occurrence wins")
		assert.True(t, blocked[1])
		assert.True(t, blocked[2])
	})

	t.Run("bad email is a warning, not blocking", func(t *testing.T) {
		violations := Donors([]star.Donor{{DonorID: "D0001", Email: "not-an-address"}})
		require.Len(t, violations, 1)
		assert.Equal(t, SeverityWarning, violations[0].Severity)
		assert.Empty(t, BlockedIndexes(violations))
	})
}

func TestCampaigns(t *testing.T) {
	t.Run("inverted date range is exactly one blocking violation", func(t *testing.T) {
		batch := []star.Campaign{{
			CampaignID: "C0001",
			Name:       "Winter Range Protection",
			Status:     "Active",
			StartDate:  date(2024, time.June, 1),
			EndDate:    date(2024, time.January, 1),
		}}
		violations := Campaigns(batch)
		require.Len(t, violations, 1)
		assert.Equal(t, SeverityBlocking, violations[0].Severity)
		assert.Equal(t, RuleBusiness, violations[0].Rule)
		assert.True(t, BlockedIndexes(violations)[0], "record must be excluded from load")
	})

	t.Run("equal start and end dates are fine", func(t *testing.T) {
		batch := []star.Campaign{{
			CampaignID: "C0001",
			Name:       "One Day Drive",
			Status:     "Completed",
			StartDate:  date(2024, time.June, 1),
			EndDate:    date(2024, time.June, 1),
		}}
		assert.Empty(t, Campaigns(batch))
	})

	t.Run("unknown status is a warning", func(t *testing.T) {
		batch := []star.Campaign{{CampaignID: "C0001", Name: "X", Status: "Zombie"}}
		violations := Campaigns(batch)
		require.Len(t, violations, 1)
		assert.Equal(t, SeverityWarning, violations[0].Severity)
	})
}

func TestHabitats(t *testing.T) {
	violations := Habitats([]star.Habitat{
		{HabitatID: "H0001", Name: "Gravelly Range", QualityScore: 85},
		{HabitatID: "H0002", Name: "Bitterroot", QualityScore: 140},
	})
	require.Len(t, violations, 1)
	assert.Equal(t, 1, violations[0].Index)
	assert.Equal(t, SeverityBlocking, violations[0].Severity)
}

func TestDonations(t *testing.T) {
	lk := testLookups()

	t.Run("resolvable donation passes", func(t *testing.T) {
		batch := []star.Donation{{
			DonationID: "DN-1", DonorID: "D0001", CampaignID: "C0001",
			Amount: 250, PaymentMethod: "Check",
		}}
		assert.Empty(t, Donations(batch, lk))
	})

	t.Run("unresolved foreign keys are blocking and carry the key", func(t *testing.T) {
		batch := []star.Donation{{
			DonationID: "DN-2", DonorID: "D9999", CampaignID: "C0001", Amount: 100,
		}}
		violations := Donations(batch, lk)
		require.Len(t, violations, 1)
		assert.Equal(t, RuleReferentialIntegrity, violations[0].Rule)
		assert.Equal(t, SeverityBlocking, violations[0].Severity)
		assert.Contains(t, violations[0].Message, "D9999")
	})

	t.Run("non-positive amount is blocking", func(t *testing.T) {
		batch := []star.Donation{
			{DonationID: "DN-3", DonorID: "D0001", CampaignID: "C0001", Amount: 0},
			{DonationID: "DN-4", DonorID: "D0001", CampaignID: "C0001", Amount: -50},
		}
		violations := Donations(batch, lk)
		require.Len(t, violations, 2)
		for _, v := range violations {
			assert.Equal(t, SeverityBlocking, v.Severity)
			assert.Equal(t, RuleBusiness, v.Rule)
		}
	})
}

func TestElkPopulations(t *testing.T) {
	lk := testLookups()

	batch := []star.ElkPopulation{
		{HabitatID: "H0001", Year: 2023, Count: 500},
		{HabitatID: "H0001", Year: 2023, Count: 480}, // duplicate year
		{HabitatID: "H0404", Year: 2023, Count: 100}, // unknown habitat
		{HabitatID: "H0001", Year: 2024, Count: -3},  // negative count
	}
	violations := ElkPopulations(batch, lk)
	require.Len(t, violations, 3)

	blocked := BlockedIndexes(violations)
	assert.False(t, blocked[0])
	assert.True(t, blocked[1])
	assert.True(t, blocked[2])
	assert.True(t, blocked[3])
}

func TestConservationMetrics(t *testing.T) {
	lk := testLookups()

	t.Run("optional habitat association", func(t *testing.T) {
		batch := []star.ConservationMetric{
			{ProjectID: "P0001", Budget: 1000, SpentToDate: 400, AcresProtected: 12},
			{ProjectID: "P0001", HabitatID: "H0001", Budget: 1000, SpentToDate: 400},
		}
		assert.Empty(t, ConservationMetrics(batch, lk))
	})

	t.Run("overspend is not a violation", func(t *testing.T) {
		// Budget overruns are anomaly territory; the record still loads.
		batch := []star.ConservationMetric{
			{ProjectID: "P0001", Budget: 1000, SpentToDate: 1400},
		}
		assert.Empty(t, ConservationMetrics(batch, lk))
	})

	t.Run("negative measures are blocking", func(t *testing.T) {
		batch := []star.ConservationMetric{
			{ProjectID: "P0001", Budget: -1, SpentToDate: 0, AcresProtected: -5},
		}
		violations := ConservationMetrics(batch, lk)
		assert.Len(t, violations, 2)
	})
}

func TestFinancialFilings(t *testing.T) {
	rev := 61910976.0
	batch := []star.FinancialFiling{
		{FiscalYear: 2022, TotalRevenue: &rev},
		{FiscalYear: 2022},
		{FiscalYear: 0},
	}
	violations := FinancialFilings(batch)
	require.Len(t, violations, 2)
	assert.Equal(t, RuleUniqueness, violations[0].Rule)
	assert.Equal(t, RuleCompleteness, violations[1].Rule)
}

func TestCountBySeverity(t *testing.T) {
	violations := []Violation{
		{Severity: SeverityBlocking},
		{Severity: SeverityBlocking},
		{Severity: SeverityWarning},
	}
	counts := CountBySeverity(violations)
	assert.Equal(t, 2, counts[SeverityBlocking])
	assert.Equal(t, 1, counts[SeverityWarning])
}
