package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrange/elkhorn/config"
	"github.com/openrange/elkhorn/star"
)

func testDetector() *Detector {
	return NewDetector(config.Anomaly{
		LargeDonationAmount:  10000,
		PopulationDeclinePct: 10,
		AtRiskStatuses:       []string{"At Risk"},
	})
}

func TestDonations(t *testing.T) {
	t.Run("amount over threshold emits exactly one flag", func(t *testing.T) {
		flags := testDetector().Donations([]star.Donation{
			{DonationID: "DN-1", Amount: 15000},
			{DonationID: "DN-2", Amount: 9999},
		})
		require.Len(t, flags, 1)
		assert.Equal(t, RuleLargeDonation, flags[0].Rule)
		assert.Equal(t, "DN-1", flags[0].Record)
		assert.Equal(t, 15000.0, flags[0].Observed)
		assert.Equal(t, 10000.0, flags[0].Threshold)
	})

	t.Run("amount exactly at threshold does not flag", func(t *testing.T) {
		flags := testDetector().Donations([]star.Donation{{DonationID: "DN-1", Amount: 10000}})
		assert.Empty(t, flags)
	})
}

func TestHabitats(t *testing.T) {
	flags := testDetector().Habitats([]star.Habitat{
		{HabitatID: "H-01", ConservationStatus: "At Risk"},
		{HabitatID: "H-02", ConservationStatus: "Stable"},
	})
	require.Len(t, flags, 1)
	assert.Equal(t, RuleHabitatAtRisk, flags[0].Rule)
	assert.Equal(t, "H-01", flags[0].Record)
}

func TestElkPopulations(t *testing.T) {
	t.Run("decline past threshold flags the later year only", func(t *testing.T) {
		// 500 -> 400 is a 20% decline against a 10% threshold.
		flags := testDetector().ElkPopulations([]star.ElkPopulation{
			{HabitatID: "H-01", Year: 2021, Count: 500, Change: 0, ChangePct: 0},
			{HabitatID: "H-01", Year: 2022, Count: 400, Change: -100, ChangePct: -20},
		})
		require.Len(t, flags, 1)
		assert.Equal(t, RulePopulationDecline, flags[0].Rule)
		assert.Equal(t, "H-01/2022", flags[0].Record)
		assert.Equal(t, -20.0, flags[0].Observed)
	})

	t.Run("decline within threshold does not flag", func(t *testing.T) {
		flags := testDetector().ElkPopulations([]star.ElkPopulation{
			{HabitatID: "H-01", Year: 2022, ChangePct: -5},
		})
		assert.Empty(t, flags)
	})

	t.Run("growth does not flag", func(t *testing.T) {
		flags := testDetector().ElkPopulations([]star.ElkPopulation{
			{HabitatID: "H-01", Year: 2022, ChangePct: 30},
		})
		assert.Empty(t, flags)
	})
}

func TestConservationMetrics(t *testing.T) {
	flags := testDetector().ConservationMetrics([]star.ConservationMetric{
		{ProjectID: "P-10", Budget: 100000, SpentToDate: 120000},
		{ProjectID: "P-11", Budget: 100000, SpentToDate: 100000},
	})
	require.Len(t, flags, 1)
	assert.Equal(t, RuleBudgetOverrun, flags[0].Rule)
	assert.Equal(t, "P-10", flags[0].Record)
}

func TestCountByRule(t *testing.T) {
	counts := CountByRule([]Flag{
		{Rule: RuleLargeDonation},
		{Rule: RuleLargeDonation},
		{Rule: RuleBudgetOverrun},
	})
	assert.Equal(t, 2, counts[RuleLargeDonation])
	assert.Equal(t, 1, counts[RuleBudgetOverrun])
}
