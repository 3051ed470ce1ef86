package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/star"
)

// TabularReader reads delimited files. The first row is the header and
// column names must match the staged field names exactly (case-sensitive).
type TabularReader struct {
	// Required lists the columns a row must populate to be staged.
	// Rows missing any required value are skipped, counted, and logged —
	// they do not abort the remaining rows.
	Required []string
	Logger   *zap.SugaredLogger
}

// Read stages every usable row of the file at locator.
func (r *TabularReader) Read(ctx context.Context, locator string) ([]star.StagedRecord, ReadStats, error) {
	f, err := openSource(locator)
	if err != nil {
		return nil, ReadStats{}, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true
	// Ragged rows are handled per-row below rather than failing the file.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, ReadStats{}, errors.WrapSourceRead(err, "reading header of "+locator)
	}

	var (
		records []star.StagedRecord
		stats   ReadStats
		rowNum  = 1 // header row
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, errors.Wrap(err, "tabular read cancelled")
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			// A structurally broken row is a row-level failure, not a file
			// failure.
			stats.Skipped++
			if r.Logger != nil {
				r.Logger.Warnw("Skipping unparseable row",
					"source", locator, "row", rowNum, "error", err.Error())
			}
			continue
		}

		fields := make(map[string]any, len(header))
		for i, name := range header {
			if i >= len(row) {
				break
			}
			value := strings.TrimSpace(row[i])
			if value == "" {
				fields[name] = nil
				continue
			}
			fields[name] = value
		}

		if missing := r.missingRequired(fields); len(missing) > 0 {
			stats.Skipped++
			if r.Logger != nil {
				r.Logger.Warnw("Skipping row below required column minimum",
					"source", locator, "row", rowNum, "missing", missing)
			}
			continue
		}

		records = append(records, star.StagedRecord{
			Fields:   fields,
			Source:   locator,
			Position: rowNum,
		})
		stats.Read++
	}

	return records, stats, nil
}

func (r *TabularReader) missingRequired(fields map[string]any) []string {
	var missing []string
	for _, name := range r.Required {
		if v, ok := fields[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}
	return missing
}
