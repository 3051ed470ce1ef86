package star

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurrogateKey(t *testing.T) {
	t.Run("deterministic across calls", func(t *testing.T) {
		a := SurrogateKey(EntityDonor, "D0001")
		b := SurrogateKey(EntityDonor, "D0001")
		assert.Equal(t, a, b)
	})

	t.Run("entity-qualified", func(t *testing.T) {
		// Same natural key in different dimensions must not collide by
		// construction.
		donor := SurrogateKey(EntityDonor, "X1")
		habitat := SurrogateKey(EntityHabitat, "X1")
		assert.NotEqual(t, donor, habitat)
	})

	t.Run("always positive", func(t *testing.T) {
		for _, nk := range []string{"", "D0001", "H-42", "a very long natural key value"} {
			assert.GreaterOrEqual(t, SurrogateKey(EntityCampaign, nk), int64(0))
		}
	})
}

func TestDateKey(t *testing.T) {
	d := time.Date(2024, time.March, 7, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, 20240307, DateKey(d))
}

func TestLookup(t *testing.T) {
	l := Lookup{"D0001": 42}

	k, ok := l.Resolve("D0001")
	assert.True(t, ok)
	assert.Equal(t, int64(42), k)

	_, ok = l.Resolve("D9999")
	assert.False(t, ok)
}

func TestBuildDateDimension(t *testing.T) {
	t.Run("inclusive range, one row per day", func(t *testing.T) {
		min := time.Date(2024, time.January, 30, 11, 0, 0, 0, time.UTC)
		max := time.Date(2024, time.February, 2, 3, 0, 0, 0, time.UTC)

		dims := BuildDateDimension(min, max)
		require.Len(t, dims, 4)
		assert.Equal(t, 20240130, dims[0].Key)
		assert.Equal(t, 20240202, dims[3].Key)
	})

	t.Run("derived attributes", func(t *testing.T) {
		// Saturday, November 15 2025: Q4, fiscal year 2026 (Oct 1 start), fiscal Q1.
		day := time.Date(2025, time.November, 15, 0, 0, 0, 0, time.UTC)
		dims := BuildDateDimension(day, day)
		require.Len(t, dims, 1)

		d := dims[0]
		assert.Equal(t, 2025, d.Year)
		assert.Equal(t, 4, d.Quarter)
		assert.Equal(t, "November", d.MonthName)
		assert.Equal(t, 15, d.DayOfMonth)
		assert.Equal(t, "Saturday", d.DayName)
		assert.True(t, d.IsWeekend)
		assert.Equal(t, 2026, d.FiscalYear)
		assert.Equal(t, 1, d.FiscalQuarter)
	})

	t.Run("fiscal quarters roll through the year", func(t *testing.T) {
		cases := map[time.Month]int{
			time.October: 1, time.December: 1,
			time.January: 2, time.March: 2,
			time.April: 3, time.June: 3,
			time.July: 4, time.September: 4,
		}
		for month, want := range cases {
			day := time.Date(2024, month, 10, 0, 0, 0, 0, time.UTC)
			dims := BuildDateDimension(day, day)
			require.Len(t, dims, 1)
			assert.Equal(t, want, dims[0].FiscalQuarter, "month %s", month)
		}
	})

	t.Run("inverted range yields nothing", func(t *testing.T) {
		min := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
		max := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		assert.Nil(t, BuildDateDimension(min, max))
	})
}

func TestStagedRecordRef(t *testing.T) {
	r := StagedRecord{Source: "donors.csv", Position: 14}
	assert.Equal(t, "donors.csv:14", r.Ref())
}

func TestEntityTable(t *testing.T) {
	assert.Equal(t, "dim_donor", EntityDonor.Table())
	assert.Equal(t, "fact_elk_population", EntityElkPopulation.Table())
	assert.True(t, EntityDate.IsDimension())
	assert.False(t, EntityDonation.IsDimension())
}
