package ingest

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/star"
)

// Field names injected into flattened child records.
const (
	FieldParentKey   = "_parent_key"
	FieldCollection  = "_collection"
	FieldSeriesKey   = "_series_key"
	FieldSeriesValue = "_series_value"
)

// DocumentReader reads structured-document files: a top-level JSON array of
// objects, each carrying a natural key field. One level of nested
// one-to-many structure is flattened into repeated child records sharing
// the parent's natural key:
//
//   - every array-of-objects field named in ChildCollections becomes one
//     child record per element;
//   - every scalar field starting with SeriesPrefix (e.g.
//     "elk_population_2021") becomes one child record with the suffix and
//     value split out.
//
// The parent object itself is always staged as one record.
type DocumentReader struct {
	NaturalKeyField  string
	ChildCollections []string
	SeriesPrefix     string
}

// Read stages the document at locator.
func (r *DocumentReader) Read(ctx context.Context, locator string) ([]star.StagedRecord, ReadStats, error) {
	f, err := openSource(locator)
	if err != nil {
		return nil, ReadStats{}, err
	}
	defer f.Close()

	var docs []map[string]any
	if err := json.NewDecoder(f).Decode(&docs); err != nil {
		return nil, ReadStats{}, errors.WrapSourceRead(err, "decoding document "+locator)
	}

	var (
		records []star.StagedRecord
		stats   ReadStats
	)

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, stats, errors.Wrap(err, "document read cancelled")
		}

		position := i + 1
		records = append(records, star.StagedRecord{
			Fields:   doc,
			Source:   locator,
			Position: position,
		})
		stats.Read++

		naturalKey, _ := doc[r.NaturalKeyField].(string)

		for _, collection := range r.ChildCollections {
			children, ok := doc[collection].([]any)
			if !ok {
				continue
			}
			for _, child := range children {
				childObj, ok := child.(map[string]any)
				if !ok {
					stats.Skipped++
					continue
				}
				fields := make(map[string]any, len(childObj)+2)
				for k, v := range childObj {
					fields[k] = v
				}
				fields[FieldParentKey] = naturalKey
				fields[FieldCollection] = collection
				records = append(records, star.StagedRecord{
					Fields:   fields,
					Source:   locator,
					Position: position,
				})
				stats.Read++
			}
		}

		if r.SeriesPrefix != "" {
			for k, v := range doc {
				if !strings.HasPrefix(k, r.SeriesPrefix) {
					continue
				}
				records = append(records, star.StagedRecord{
					Fields: map[string]any{
						FieldParentKey:   naturalKey,
						FieldSeriesKey:   strings.TrimPrefix(k, r.SeriesPrefix),
						FieldSeriesValue: v,
					},
					Source:   locator,
					Position: position,
				})
				stats.Read++
			}
		}
	}

	return records, stats, nil
}

// IsChild reports whether a staged record is a flattened child (collection
// element or series point) rather than a parent object.
func IsChild(rec star.StagedRecord) bool {
	return rec.Has(FieldCollection) || rec.Has(FieldSeriesKey)
}
