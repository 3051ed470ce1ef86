// Package load writes conformed batches to the analytics store. Dimensions
// upsert by natural key so surrogate keys stay stable across runs; facts
// and the date dimension are replaced in full, each inside a single
// transaction, so a failed load leaves the previous run's rows intact.
package load

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openrange/elkhorn/anomaly"
	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/star"
)

// Loader writes to one open analytics store. Safe for sequential use by a
// single run; the run lock guarantees there is never more than one.
type Loader struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// New builds a loader over an open store.
func New(db *sql.DB, logger *zap.SugaredLogger) *Loader {
	return &Loader{db: db, logger: logger}
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error. Failures come back wrapped as load errors so the
// coordinator can isolate them per entity.
func (l *Loader) withTx(ctx context.Context, entity star.Entity, fn func(tx *sql.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapLoad(err, "begin transaction for "+string(entity))
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && l.logger != nil {
			l.logger.Errorw("Rollback failed", "entity", entity, "error", rbErr.Error())
		}
		return errors.WrapLoad(err, "loading "+string(entity))
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapLoad(err, "commit "+string(entity))
	}
	return nil
}

// newRowID mints a synthetic row id for fact rows and flags.
func newRowID() string {
	return uuid.NewString()
}

// replace empties the entity's table within the transaction. Prior anomaly
// flags for the entity go with it so reruns do not accumulate stale flags.
func replace(tx *sql.Tx, entity star.Entity) error {
	if _, err := tx.Exec("DELETE FROM " + entity.Table()); err != nil {
		return errors.Wrap(err, "clearing "+entity.Table())
	}
	if _, err := tx.Exec("DELETE FROM anomaly_flag WHERE entity = ?", string(entity)); err != nil {
		return errors.Wrap(err, "clearing anomaly flags for "+string(entity))
	}
	return nil
}

// insertFlags persists anomaly flags inside the owning entity's
// transaction, so flags and facts commit or roll back together.
func insertFlags(tx *sql.Tx, flags []anomaly.Flag) error {
	if len(flags) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT INTO anomaly_flag
		(flag_id, entity, record_ref, rule, severity, observed, threshold)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing anomaly flag insert")
	}
	defer stmt.Close()

	for _, f := range flags {
		if _, err := stmt.Exec(newRowID(), string(f.Entity), f.Record, f.Rule, f.Severity, f.Observed, f.Threshold); err != nil {
			return errors.Wrapf(err, "inserting anomaly flag for %s", f.Record)
		}
	}
	return nil
}
