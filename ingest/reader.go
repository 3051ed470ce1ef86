// Package ingest implements the source readers: one per source format,
// each producing staged records from a source locator. Readers are
// best-effort — a malformed row is skipped and counted, a malformed file
// fails the entity with a source-read error, and the run carries on either
// way.
package ingest

import (
	"context"
	"os"

	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/star"
)

// ReadStats counts what a reader did with a source.
type ReadStats struct {
	Read    int // staged records produced
	Skipped int // rows rejected at read time (counted in the run report)
}

// Reader extracts staged records from a source locator.
type Reader interface {
	Read(ctx context.Context, locator string) ([]star.StagedRecord, ReadStats, error)
}

func openSource(locator string) (*os.File, error) {
	f, err := os.Open(locator)
	if err != nil {
		return nil, errors.WrapSourceRead(err, "opening source "+locator)
	}
	return f, nil
}
