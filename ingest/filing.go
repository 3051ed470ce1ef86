package ingest

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/star"
)

var (
	einRe        = regexp.MustCompile(`(\d{2}-\d{7})`)
	formYearRe   = regexp.MustCompile(`Form\s+990\s*\((\d{4})\)`)
	fileYearRe   = regexp.MustCompile(`20(\d{2})`)
	employeesRe  = regexp.MustCompile(`(?im)Total\s+number\s+of\s+individuals\s+employed.*?(\d[\d,]*)\s*$`)
	volunteersRe = regexp.MustCompile(`(?im)Total\s+number\s+of\s+volunteers.*?(\d[\d,]*)\s*$`)
)

// FilingReader extracts a fixed set of labeled fields from financial filing
// documents: plain-text page dumps with pages separated by form feeds. The
// locator is a glob; each matching file stages one record. Filings are
// noisy, so a missing label never aborts a document — the field is emitted
// as nil and listed under FieldMissingLabels for quality review.
type FilingReader struct {
	Strategy LabelStrategy
	Logger   *zap.SugaredLogger
}

// Read stages one record per filing document matching the locator glob.
func (r *FilingReader) Read(ctx context.Context, locator string) ([]star.StagedRecord, ReadStats, error) {
	strategy := r.Strategy
	if strategy == nil {
		strategy = DefaultLabels()
	}

	paths, err := filepath.Glob(locator)
	if err != nil {
		return nil, ReadStats{}, errors.WrapSourceRead(err, "bad filing glob "+locator)
	}
	if len(paths) == 0 {
		return nil, ReadStats{}, errors.WrapSourceRead(errors.Newf("no filings match %s", locator), "locating filings")
	}
	sort.Strings(paths)

	var (
		records []star.StagedRecord
		stats   ReadStats
	)

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, stats, errors.Wrap(err, "filing read cancelled")
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			// One unreadable filing skips that document, not the batch.
			stats.Skipped++
			if r.Logger != nil {
				r.Logger.Warnw("Skipping unreadable filing", "path", path, "error", err.Error())
			}
			continue
		}

		fields := r.extract(string(raw), path, strategy)
		records = append(records, star.StagedRecord{
			Fields:   fields,
			Source:   path,
			Position: i + 1,
		})
		stats.Read++
	}

	return records, stats, nil
}

func (r *FilingReader) extract(text, path string, strategy LabelStrategy) map[string]any {
	pages := strings.Split(text, "\f")
	fields := make(map[string]any)
	var missing []string

	fields[FieldFiscalYear] = extractFiscalYear(text, path)
	fields[FieldOrganizationName] = extractOrganizationName(pages)

	if m := einRe.FindStringSubmatch(text); m != nil {
		fields[FieldEIN] = m[1]
	} else {
		fields[FieldEIN] = nil
		missing = append(missing, FieldEIN)
	}

	for _, field := range strategy.AmountFields() {
		if v, ok := strategy.ExtractAmount(pages, field); ok {
			fields[field] = v
		} else {
			fields[field] = nil
			missing = append(missing, field)
		}
	}

	fields[FieldEmployeesCount] = extractCount(employeesRe, text, &missing, FieldEmployeesCount)
	fields[FieldVolunteersCount] = extractCount(volunteersRe, text, &missing, FieldVolunteersCount)
	fields[FieldProgramServices] = extractProgramServices(text, strategy)
	fields[FieldMissingLabels] = missing

	if len(missing) > 0 && r.Logger != nil {
		r.Logger.Warnw("Filing labels not found, fields emitted as null",
			"path", path, "missing", missing)
	}

	return fields
}

// extractFiscalYear prefers the form's own year marker and falls back to a
// year in the file name.
func extractFiscalYear(text, path string) int {
	if m := formYearRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		return year
	}
	if m := fileYearRe.FindStringSubmatch(filepath.Base(path)); m != nil {
		year, _ := strconv.Atoi("20" + m[1])
		return year
	}
	return 0
}

func extractOrganizationName(pages []string) any {
	if len(pages) == 0 {
		return nil
	}
	for _, line := range strings.Split(pages[0], "\n") {
		line = strings.TrimSpace(line)
		// The organization name is the first line that isn't form boilerplate.
		if line == "" || strings.HasPrefix(line, "Form") || strings.HasPrefix(line, "OMB") ||
			strings.HasPrefix(line, "Department") || strings.HasPrefix(line, "Return of") ||
			strings.HasPrefix(line, "Under section") {
			continue
		}
		return line
	}
	return nil
}

func extractCount(re *regexp.Regexp, text string, missing *[]string, field string) any {
	if m := re.FindStringSubmatch(text); m != nil {
		n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
		if err == nil {
			return n
		}
	}
	*missing = append(*missing, field)
	return nil
}

// extractProgramServices pulls the per-program expense/grant/revenue lines
// out of the program service accomplishments section.
func extractProgramServices(text string, strategy LabelStrategy) []map[string]any {
	sections := strategy.ProgramSections()
	markers := make([]string, 0, len(sections))
	for marker := range sections {
		markers = append(markers, marker)
	}
	sort.Strings(markers)

	var programs []map[string]any
	for _, marker := range markers {
		re := regexp.MustCompile(`(?is)` + regexp.QuoteMeta(marker) +
			`.*?Expens\s*es\s*\$\s*([\d,]+).*?grants\s+of\s*\$\s*([\d,]+).*?Revenue\s*\$\s*([\d,]+)`)
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		expenses, _ := CleanNumber(m[1])
		grants, _ := CleanNumber(m[2])
		revenue, _ := CleanNumber(m[3])
		programs = append(programs, map[string]any{
			"name":     sections[marker],
			"expenses": expenses,
			"grants":   grants,
			"revenue":  revenue,
		})
	}
	return programs
}
