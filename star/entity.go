// Package star defines the dimensional model for the conservation analytics
// store: staged records as produced by the source readers, the typed
// dimension and fact records the conformance layer emits, and the surrogate
// key scheme that makes full-refresh loads idempotent.
package star

// Entity identifies one dimension or fact table in the star schema.
type Entity string

// Dimension entities.
const (
	EntityDonor    Entity = "donor"
	EntityCampaign Entity = "campaign"
	EntityHabitat  Entity = "habitat"
	EntityProject  Entity = "project"
	EntityDate     Entity = "date"
)

// Fact entities.
const (
	EntityDonation           Entity = "donation"
	EntityElkPopulation      Entity = "elk_population"
	EntityConservationMetric Entity = "conservation_metric"
	EntityFinancialFiling    Entity = "financial_filing"
	EntityProgramServiceLine Entity = "program_service_line"
)

// DimensionOrder is the load order for dimensions. Dimensions have no
// cross-references, so the order only needs to be stable.
var DimensionOrder = []Entity{
	EntityDonor,
	EntityCampaign,
	EntityHabitat,
	EntityProject,
}

// FactOrder is the load order for facts. All dimensions must be loaded
// first because facts resolve foreign keys against the dimension lookups.
var FactOrder = []Entity{
	EntityDonation,
	EntityElkPopulation,
	EntityConservationMetric,
	EntityFinancialFiling,
	EntityProgramServiceLine,
}

// IsDimension reports whether e is a dimension entity.
func (e Entity) IsDimension() bool {
	switch e {
	case EntityDonor, EntityCampaign, EntityHabitat, EntityProject, EntityDate:
		return true
	}
	return false
}

// Table returns the store table name for the entity.
func (e Entity) Table() string {
	switch e {
	case EntityDonor:
		return "dim_donor"
	case EntityCampaign:
		return "dim_campaign"
	case EntityHabitat:
		return "dim_habitat"
	case EntityProject:
		return "dim_project"
	case EntityDate:
		return "dim_date"
	case EntityDonation:
		return "fact_donation"
	case EntityElkPopulation:
		return "fact_elk_population"
	case EntityConservationMetric:
		return "fact_conservation"
	case EntityFinancialFiling:
		return "fact_filing"
	case EntityProgramServiceLine:
		return "fact_program_service"
	}
	return string(e)
}
