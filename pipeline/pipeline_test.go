package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrange/elkhorn/anomaly"
	"github.com/openrange/elkhorn/config"
	"github.com/openrange/elkhorn/db"
	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/star"
)

const donorsCSV = `donor_id,first_name,last_name,email,phone,address,city,state,zip_code,donor_type,join_date,membership_level
D-1,Walt,Prothero,walt@example.org,,,"Missoula",MT,59801,Individual,2019-04-12,Gold
D-2,June,Archer,june@example.org,,,"Bozeman",MT,59715,Individual,2021-08-03,Platinum
`

const campaignsCSV = `campaign_id,campaign_name,campaign_type,start_date,end_date,goal_amount,description,target_region,status
C-1,Banquet 2024,Event,2024-01-01,2024-06-30,250000,Annual banquet,Rocky Mountains,Active
`

const donationsCSV = `donation_id,donor_id,campaign_id,donation_date,amount,payment_method,is_recurring,notes
DN-1,D-1,C-1,2024-03-15,15000,Credit Card,True,major gift
DN-2,D-404,C-1,2024-03-16,200,Check,False,
DN-3,D-2,C-1,2024-03-17,150,Check,False,
`

const habitatsJSON = `[
  {
    "habitat_id": "H-1",
    "habitat_name": "Gravelly Range",
    "state": "MT",
    "region": "Rocky Mountains",
    "total_acres": 120000,
    "habitat_quality_score": 87,
    "conservation_status": "At Risk",
    "primary_threats": ["Development", "Drought"],
    "elk_population_2021": 500,
    "elk_population_2022": 400
  }
]`

const projectsJSON = `[
  {
    "project_id": "P-1",
    "project_name": "Gravelly Range Restoration",
    "project_type": "Habitat Restoration",
    "state": "MT",
    "county": "Madison",
    "status": "In Progress",
    "partner_organizations": ["USFS"],
    "description": "Aspen regeneration",
    "start_date": "2023-05-01",
    "budget": 100000,
    "spent_to_date": 120000,
    "acres_protected": 4200,
    "elk_population_impacted": 1800
  }
]`

const filingTxt = `Rocky Mountain Elk Foundation, Inc.
81-0421425
Form 990 (2022)
Total revenue 61,910,976.
Total expenses 46,105,636.
` + "\f" + `Part III
4a (Code: ) (Expenses $ 21,600,000 including grants of $ 3,100,000 ) (Revenue $ 5,200,000 )
`

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	writeFixture(t, filepath.Join(dir, "donors.csv"), donorsCSV)
	writeFixture(t, filepath.Join(dir, "campaigns.csv"), campaignsCSV)
	writeFixture(t, filepath.Join(dir, "donations.csv"), donationsCSV)
	writeFixture(t, filepath.Join(dir, "habitat_areas.json"), habitatsJSON)
	writeFixture(t, filepath.Join(dir, "conservation_projects.json"), projectsJSON)
	writeFixture(t, filepath.Join(dir, "filings", "form_990_2022.txt"), filingTxt)

	return &config.Config{
		Database: config.Database{Path: filepath.Join(dir, "elkhorn.db")},
		Sources: config.Sources{
			Donors:    filepath.Join(dir, "donors.csv"),
			Campaigns: filepath.Join(dir, "campaigns.csv"),
			Donations: filepath.Join(dir, "donations.csv"),
			Habitats:  filepath.Join(dir, "habitat_areas.json"),
			Projects:  filepath.Join(dir, "conservation_projects.json"),
			Filings:   filepath.Join(dir, "filings", "*.txt"),
		},
		Anomaly: config.Anomaly{
			LargeDonationAmount:  10000,
			PopulationDeclinePct: 10,
			AtRiskStatuses:       []string{"At Risk"},
		},
		Run: config.Run{
			EntityTimeoutSeconds: 30,
			LockPath:             filepath.Join(dir, ".elkhorn.lock"),
		},
	}
}

func entityResult(t *testing.T, report *Report, entity star.Entity) EntityResult {
	t.Helper()
	for _, e := range report.Entities {
		if e.Entity == entity {
			return e
		}
	}
	t.Fatalf("entity %s missing from report", entity)
	return EntityResult{}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	report, err := NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, StatusSuccess, report.Status)
	assert.NotEmpty(t, report.RunID)

	donors := entityResult(t, report, star.EntityDonor)
	assert.Equal(t, 2, donors.Read)
	assert.Equal(t, 2, donors.Loaded)

	// DN-2 references a donor that never conformed: blocked, counted,
	// run not aborted.
	donations := entityResult(t, report, star.EntityDonation)
	assert.Equal(t, 3, donations.Read)
	assert.Equal(t, 3, donations.Conformed)
	assert.Equal(t, 1, donations.Rejected)
	assert.Equal(t, 2, donations.Loaded)
	assert.Equal(t, 1, donations.Anomalies[anomaly.RuleLargeDonation])

	pops := entityResult(t, report, star.EntityElkPopulation)
	assert.Equal(t, 2, pops.Loaded)
	assert.Equal(t, 1, pops.Anomalies[anomaly.RulePopulationDecline])

	habitats := entityResult(t, report, star.EntityHabitat)
	assert.Equal(t, 1, habitats.Anomalies[anomaly.RuleHabitatAtRisk])

	metrics := entityResult(t, report, star.EntityConservationMetric)
	assert.Equal(t, 1, metrics.Anomalies[anomaly.RuleBudgetOverrun])

	filings := entityResult(t, report, star.EntityFinancialFiling)
	assert.Equal(t, 1, filings.Loaded)
	programs := entityResult(t, report, star.EntityProgramServiceLine)
	assert.Equal(t, 1, programs.Loaded)

	// The store reflects the report.
	store, err := db.Open(cfg.Database.Path, nil)
	require.NoError(t, err)
	defer store.Close()

	var factCount int
	require.NoError(t, store.QueryRow("SELECT COUNT(*) FROM fact_donation").Scan(&factCount))
	assert.Equal(t, 2, factCount)

	var minDate, maxDate int
	require.NoError(t, store.QueryRow("SELECT MIN(date_key), MAX(date_key) FROM dim_date").Scan(&minDate, &maxDate))
	assert.Equal(t, 20230501, minDate, "range starts at the earliest observed business date")
	assert.Equal(t, 20240317, maxDate)

	var flagged int
	require.NoError(t, store.QueryRow("SELECT COUNT(*) FROM anomaly_flag").Scan(&flagged))
	assert.Equal(t, 4, flagged)

	// Lock released on completion.
	_, statErr := os.Stat(cfg.Run.LockPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg)

	first, err := runner.Run(context.Background())
	require.NoError(t, err)
	second, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, second.Status)

	store, err := db.Open(cfg.Database.Path, nil)
	require.NoError(t, err)
	defer store.Close()

	var donorCount, factCount, flagCount int
	require.NoError(t, store.QueryRow("SELECT COUNT(*) FROM dim_donor").Scan(&donorCount))
	require.NoError(t, store.QueryRow("SELECT COUNT(*) FROM fact_donation").Scan(&factCount))
	require.NoError(t, store.QueryRow("SELECT COUNT(*) FROM anomaly_flag").Scan(&flagCount))
	assert.Equal(t, 2, donorCount)
	assert.Equal(t, 2, factCount)
	assert.Equal(t, 4, flagCount, "reruns replace flags instead of accumulating them")

	var key int64
	require.NoError(t, store.QueryRow("SELECT donor_key FROM dim_donor WHERE donor_id = ?", "D-1").Scan(&key))
	assert.Equal(t, star.SurrogateKey(star.EntityDonor, "D-1"), key, "surrogate keys survive reruns")

	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunLockContention(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Run.LockPath, []byte("someone-else\n"), 0o644))

	report, err := NewRunner(cfg).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, errors.ErrRunLocked))
	assert.True(t, errors.IsFatal(err))
}

func TestMissingSourceDegradesRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources.Donors = filepath.Join(t.TempDir(), "nope.csv")

	report, err := NewRunner(cfg).Run(context.Background())
	require.NoError(t, err, "a missing source is not fatal")
	assert.Equal(t, StatusDegraded, report.Status)

	donors := entityResult(t, report, star.EntityDonor)
	assert.True(t, donors.Failed())
	assert.Equal(t, 0, donors.Loaded)

	// Campaigns are independent and still load.
	campaigns := entityResult(t, report, star.EntityCampaign)
	assert.False(t, campaigns.Failed())
	assert.Equal(t, 1, campaigns.Loaded)

	// Every donation now fails referential integrity against the empty
	// donor lookup; they reject rather than abort.
	donations := entityResult(t, report, star.EntityDonation)
	assert.False(t, donations.Failed())
	assert.Equal(t, 3, donations.Rejected)
	assert.Equal(t, 0, donations.Loaded)
}

func TestCancelledRun(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewRunner(cfg).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, report.Status)
	for _, e := range report.Entities {
		assert.True(t, e.Failed())
	}

	// Lock still released after a cancelled run.
	_, statErr := os.Stat(cfg.Run.LockPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFailedLoadClearsAnomalyCounts(t *testing.T) {
	r := NewRunner(testConfig(t))
	report := &Report{}

	kept := runEntity(r, context.Background(), report, star.EntityDonation, readResult{},
		func(ctx context.Context, res *EntityResult) ([]star.Donation, error) {
			res.Anomalies = map[string]int{anomaly.RuleLargeDonation: 1}
			return nil, errors.Wrap(errors.ErrLoad, "insert failed")
		})

	assert.Empty(t, kept)
	require.Len(t, report.Entities, 1)
	res := report.Entities[0]
	assert.True(t, res.Failed())
	assert.Zero(t, res.Loaded)
	assert.Nil(t, res.Anomalies, "flags rolled back with the transaction")
}
