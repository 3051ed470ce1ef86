package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// LabelStrategy locates labeled values in filing page text. Filing layouts
// drift across years, so extraction is heuristic and pluggable: strategies
// may carry label synonyms, positional rules, or anything else that maps a
// field name to a value on a page.
type LabelStrategy interface {
	// ExtractAmount returns the numeric value nearest a label for field,
	// or ok=false if no label matched on any page.
	ExtractAmount(pages []string, field string) (value float64, ok bool)

	// AmountFields lists every numeric field the strategy knows how to
	// extract, in a stable order.
	AmountFields() []string

	// ProgramSections maps filing section markers (4a, 4b, ...) to program
	// names for program service line extraction.
	ProgramSections() map[string]string
}

// Filing field names shared by the reader and the conformance layer.
const (
	FieldFiscalYear       = "fiscal_year"
	FieldEIN              = "ein"
	FieldOrganizationName = "organization_name"
	FieldEmployeesCount   = "employees_count"
	FieldVolunteersCount  = "volunteers_count"
	FieldProgramServices  = "program_services"
	FieldMissingLabels    = "_missing_labels"
)

// SynonymLabels is the default LabelStrategy: per-field label synonyms
// matched case-insensitively, taking the first number that follows the
// label on the same line.
type SynonymLabels struct {
	Labels   map[string][]string // field -> label synonyms, tried in order
	Sections map[string]string   // section marker -> program name
	order    []string
}

// DefaultLabels covers the summary, balance sheet, and program service
// fields of recent filing years.
func DefaultLabels() *SynonymLabels {
	s := &SynonymLabels{
		Labels: map[string][]string{
			"contributions_and_grants": {"Contributions and grants"},
			"program_service_revenue":  {"Program service revenue"},
			"investment_income":        {"Investment income"},
			"other_revenue":            {"Other revenue"},
			"total_revenue":            {"Total revenue"},
			"grants_and_similar_paid":  {"Grants and similar amounts paid"},
			"salaries_and_wages":       {"Salaries, other compensation, employee benefits", "Salaries and wages"},
			"total_expenses":           {"Total expenses"},
			"revenue_less_expenses":    {"Revenue less expenses"},
			"total_assets":             {"Total assets"},
			"total_liabilities":        {"Total liabilities"},
			"net_assets":               {"Net assets or fund balances", "Net assets"},
		},
		Sections: map[string]string{
			"4a": "Land Protection & Access",
			"4b": "Hunting Heritage",
			"4c": "Habitat Stewardship",
		},
		order: []string{
			"contributions_and_grants",
			"program_service_revenue",
			"investment_income",
			"other_revenue",
			"total_revenue",
			"grants_and_similar_paid",
			"salaries_and_wages",
			"total_expenses",
			"revenue_less_expenses",
			"total_assets",
			"total_liabilities",
			"net_assets",
		},
	}
	return s
}

var amountTokenRe = regexp.MustCompile(`\(?\$?\d[\d,]*(?:\.\d+)?\.?\)?`)

// ExtractAmount implements LabelStrategy. Filing summary lines put the
// amount last, after any parenthesized form references, so the match is the
// last numeric token on the labeled line.
func (s *SynonymLabels) ExtractAmount(pages []string, field string) (float64, bool) {
	for _, label := range s.Labels[field] {
		lower := strings.ToLower(label)
		for _, page := range pages {
			for _, line := range strings.Split(page, "\n") {
				idx := strings.Index(strings.ToLower(line), lower)
				if idx < 0 {
					continue
				}
				tokens := amountTokenRe.FindAllString(line[idx+len(label):], -1)
				if len(tokens) == 0 {
					continue
				}
				if v, ok := CleanNumber(tokens[len(tokens)-1]); ok {
					return v, true
				}
			}
		}
	}
	return 0, false
}

// AmountFields implements LabelStrategy.
func (s *SynonymLabels) AmountFields() []string { return s.order }

// ProgramSections implements LabelStrategy.
func (s *SynonymLabels) ProgramSections() map[string]string { return s.Sections }

// CleanNumber converts a filing-style amount string to a float: commas,
// dollar signs, and whitespace are stripped, a trailing period dropped, and
// parentheses read as negative.
func CleanNumber(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, false
	}
	negative := strings.Contains(cleaned, "(") && strings.Contains(cleaned, ")")
	cleaned = strings.TrimSuffix(cleaned, ".")
	replacer := strings.NewReplacer(",", "", "$", "", " ", "", "(", "", ")", "")
	cleaned = replacer.Replace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}
