package star

import "time"

// Donation is the conformed donation fact.
type Donation struct {
	RowID         string // synthetic uuid, assigned at load
	DonationID    string // natural key from the source system
	DonorID       string // natural FK, kept for integrity diagnostics
	CampaignID    string // natural FK
	DonorKey      int64
	CampaignKey   int64
	DateKey       int
	Amount        float64
	PaymentMethod string
	IsRecurring   bool
	Notes         string
	Date          time.Time // business date, feeds the date dimension range
}

// ElkPopulation is the conformed per-habitat per-year population fact.
// Change and ChangePct are derived against the prior year during
// conformance and may be negative.
type ElkPopulation struct {
	RowID      string
	HabitatID  string // natural FK
	HabitatKey int64
	Year       int
	Count      int64
	Change     int64
	ChangePct  float64
}

// ConservationMetric is the conformed project metric fact.
type ConservationMetric struct {
	RowID                 string
	ProjectID             string // natural FK
	HabitatID             string // natural FK, "" = no habitat association
	ProjectKey            int64
	HabitatKey            int64 // 0 = no habitat association
	DateKey               int
	Budget                float64
	SpentToDate           float64
	AcresProtected        int64
	ElkPopulationImpacted int64
	Date                  time.Time
}

// FinancialFiling is one fiscal year's extracted filing summary. Nil
// pointer measures mean the label was not found in the document; such
// fields load as NULL with a warning-level violation attached.
type FinancialFiling struct {
	RowID                  string
	FiscalYear             int // natural key
	EIN                    string
	OrganizationName       string
	ContributionsAndGrants *float64
	ProgramServiceRevenue  *float64
	InvestmentIncome       *float64
	OtherRevenue           *float64
	TotalRevenue           *float64
	GrantsAndSimilarPaid   *float64
	SalariesAndWages       *float64
	TotalExpenses          *float64
	RevenueLessExpenses    *float64
	TotalAssets            *float64
	TotalLiabilities       *float64
	NetAssets              *float64
	EmployeesCount         *int64
	VolunteersCount        *int64
}

// ProgramServiceLine is one named program service line extracted from a
// filing (expenses, grants included in expenses, and revenue).
type ProgramServiceLine struct {
	RowID       string
	FiscalYear  int
	ProgramName string
	Expenses    float64
	Grants      float64
	Revenue     float64
}
