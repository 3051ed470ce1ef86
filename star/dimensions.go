package star

import "time"

// Donor is the conformed donor/member dimension record.
type Donor struct {
	Key             int64
	DonorID         string // natural key
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Address         string
	City            string
	State           string
	ZipCode         string
	DonorType       string // Individual, Corporate, Foundation
	JoinDate        *time.Time
	MembershipLevel string // Bronze, Silver, Gold, Platinum
}

// Campaign is the conformed fundraising campaign dimension record.
type Campaign struct {
	Key          int64
	CampaignID   string // natural key
	Name         string
	CampaignType string
	StartDate    *time.Time
	EndDate      *time.Time
	GoalAmount   float64
	Description  string
	TargetRegion string
	Status       string // Active, Completed, Cancelled, Planned
}

// Habitat is the conformed habitat area dimension record.
type Habitat struct {
	Key                 int64
	HabitatID           string // natural key
	Name                string
	State               string
	Region              string
	TotalAcres          int64
	QualityScore        int64 // 0..100
	ConservationStatus  string
	PrimaryThreatsJSON  string // JSON array of threat names
}

// Project is the conformed conservation project dimension record.
type Project struct {
	Key              int64
	ProjectID        string // natural key
	Name             string
	ProjectType      string
	State            string
	County           string
	Status           string
	PartnerOrgsJSON  string // JSON array of partner organizations
	Description      string
}

// NaturalKey implementations let generic validation rules treat all
// dimensions uniformly.

func (d Donor) NaturalKey() string    { return d.DonorID }
func (c Campaign) NaturalKey() string { return c.CampaignID }
func (h Habitat) NaturalKey() string  { return h.HabitatID }
func (p Project) NaturalKey() string  { return p.ProjectID }

// DateDim is one day in the generated date dimension. Regenerated in full
// on every run from the observed fact date range.
type DateDim struct {
	Key           int // YYYYMMDD
	FullDate      time.Time
	Year          int
	Quarter       int
	Month         int
	MonthName     string
	Week          int // ISO week
	DayOfMonth    int
	DayOfWeek     int // Sunday = 0
	DayName       string
	IsWeekend     bool
	FiscalYear    int // fiscal year starts October 1
	FiscalQuarter int
}
