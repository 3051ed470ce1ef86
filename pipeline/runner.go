// Package pipeline coordinates a full ETL run: concurrent source reads,
// conformance and validation in dependency order, anomaly detection, and
// transactional loads, aggregated into a structured run report. One run at
// a time; a marker-file lock keeps overlapping runs out of the store.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/openrange/elkhorn/anomaly"
	"github.com/openrange/elkhorn/config"
	"github.com/openrange/elkhorn/conform"
	"github.com/openrange/elkhorn/db"
	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/ingest"
	"github.com/openrange/elkhorn/load"
	"github.com/openrange/elkhorn/logger"
	"github.com/openrange/elkhorn/quality"
	"github.com/openrange/elkhorn/star"
)

// Runner executes one pipeline run against the configured sources and
// store.
type Runner struct {
	cfg *config.Config
}

// NewRunner builds a runner. The configuration must already be validated.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg}
}

// readResult is one source read's outcome. Read errors are carried here
// rather than failing the group: a missing donors file must not cancel the
// campaigns read.
type readResult struct {
	staged []star.StagedRecord
	stats  ingest.ReadStats
	err    error
}

// sourceReads holds every source's staged records. Habitat and project
// documents feed both a dimension and a fact, so their reads are shared.
type sourceReads struct {
	donors    readResult
	campaigns readResult
	habitats  readResult
	projects  readResult
	donations readResult
	filings   readResult
}

// Run executes the pipeline and returns the run report. Only lock
// contention and an unreachable store are fatal; every other failure is
// isolated to its entity and surfaces in the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	started := time.Now().UTC()
	runID := uuid.NewString()
	logger.Infow("Starting pipeline run", "run_id", runID)

	lock := &runLock{path: r.cfg.Run.LockPath, logger: logger.Logger}
	if err := lock.acquire(runID); err != nil {
		return nil, err
	}
	defer lock.release()

	store, err := db.OpenWithMigrations(r.cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, errors.Wrap(errors.ErrFatalConfig, err.Error())
	}
	defer store.Close()

	loader := load.New(store, logger.Logger)
	detector := anomaly.NewDetector(r.cfg.Anomaly)
	report := &Report{RunID: runID}

	reads := r.readAll(ctx)

	// Dimensions first; facts resolve foreign keys against their lookups.
	donors := runEntity(r, ctx, report, star.EntityDonor, reads.donors,
		func(ctx context.Context, res *EntityResult) ([]star.Donor, error) {
			batch, violations := conform.Donors(reads.donors.staged)
			violations = append(violations, quality.Donors(batch)...)
			kept := account(res, batch, violations)
			return kept, loader.Donors(ctx, kept)
		})

	campaigns := runEntity(r, ctx, report, star.EntityCampaign, reads.campaigns,
		func(ctx context.Context, res *EntityResult) ([]star.Campaign, error) {
			batch, violations := conform.Campaigns(reads.campaigns.staged)
			violations = append(violations, quality.Campaigns(batch)...)
			kept := account(res, batch, violations)
			return kept, loader.Campaigns(ctx, kept)
		})

	habitats := runEntity(r, ctx, report, star.EntityHabitat, reads.habitats,
		func(ctx context.Context, res *EntityResult) ([]star.Habitat, error) {
			batch, violations := conform.Habitats(reads.habitats.staged)
			violations = append(violations, quality.Habitats(batch)...)
			kept := account(res, batch, violations)
			flags := detector.Habitats(kept)
			res.Anomalies = anomaly.CountByRule(flags)
			return kept, loader.Habitats(ctx, kept, flags)
		})

	projects := runEntity(r, ctx, report, star.EntityProject, reads.projects,
		func(ctx context.Context, res *EntityResult) ([]star.Project, error) {
			batch, violations := conform.Projects(reads.projects.staged)
			violations = append(violations, quality.Projects(batch)...)
			kept := account(res, batch, violations)
			return kept, loader.Projects(ctx, kept)
		})

	// Lookups reflect what actually loaded; a blocked donor must not
	// satisfy a donation's foreign key.
	lookups := quality.Lookups{
		Donors:    conform.DonorLookup(donors),
		Campaigns: conform.CampaignLookup(campaigns),
		Habitats:  conform.HabitatLookup(habitats),
		Projects:  conform.ProjectLookup(projects),
	}

	var dates conform.DateRange

	runEntity(r, ctx, report, star.EntityDonation, reads.donations,
		func(ctx context.Context, res *EntityResult) ([]star.Donation, error) {
			batch, violations := conform.Donations(reads.donations.staged, &dates)
			violations = append(violations, quality.Donations(batch, lookups)...)
			kept := account(res, batch, violations)
			flags := detector.Donations(kept)
			res.Anomalies = anomaly.CountByRule(flags)
			return kept, loader.Donations(ctx, kept, flags)
		})

	runEntity(r, ctx, report, star.EntityElkPopulation, reads.habitats,
		func(ctx context.Context, res *EntityResult) ([]star.ElkPopulation, error) {
			batch, violations := conform.ElkPopulations(reads.habitats.staged)
			violations = append(violations, quality.ElkPopulations(batch, lookups)...)
			kept := account(res, batch, violations)
			flags := detector.ElkPopulations(kept)
			res.Anomalies = anomaly.CountByRule(flags)
			return kept, loader.ElkPopulations(ctx, kept, flags)
		})

	runEntity(r, ctx, report, star.EntityConservationMetric, reads.projects,
		func(ctx context.Context, res *EntityResult) ([]star.ConservationMetric, error) {
			batch, violations := conform.ConservationMetrics(reads.projects.staged, &dates)
			violations = append(violations, quality.ConservationMetrics(batch, lookups)...)
			kept := account(res, batch, violations)
			flags := detector.ConservationMetrics(kept)
			res.Anomalies = anomaly.CountByRule(flags)
			return kept, loader.ConservationMetrics(ctx, kept, flags)
		})

	runEntity(r, ctx, report, star.EntityFinancialFiling, reads.filings,
		func(ctx context.Context, res *EntityResult) ([]star.FinancialFiling, error) {
			batch, violations := conform.FinancialFilings(reads.filings.staged)
			violations = append(violations, quality.FinancialFilings(batch)...)
			kept := account(res, batch, violations)
			return kept, loader.FinancialFilings(ctx, kept)
		})

	runEntity(r, ctx, report, star.EntityProgramServiceLine, reads.filings,
		func(ctx context.Context, res *EntityResult) ([]star.ProgramServiceLine, error) {
			batch, violations := conform.ProgramServiceLines(reads.filings.staged)
			violations = append(violations, quality.ProgramServiceLines(batch)...)
			kept := account(res, batch, violations)
			return kept, loader.ProgramServiceLines(ctx, kept)
		})

	// The date dimension spans every business date observed while the
	// facts conformed, regenerated in full each run.
	runEntity(r, ctx, report, star.EntityDate, readResult{},
		func(ctx context.Context, res *EntityResult) ([]star.DateDim, error) {
			batch := dates.Dates()
			res.Conformed = len(batch)
			res.Loaded = len(batch)
			return batch, loader.Dates(ctx, batch)
		})

	report.finish(started)
	logger.Infow("Pipeline run finished",
		"run_id", runID,
		"status", report.Status,
		"elapsed_ms", report.ElapsedMS,
	)
	return report, nil
}

// readAll reads every source concurrently. Reads share no mutable state, so
// they parallelize freely; each result carries its own error and the group
// itself never fails.
func (r *Runner) readAll(ctx context.Context) *sourceReads {
	reads := &sourceReads{}
	src := r.cfg.Sources

	g, gctx := errgroup.WithContext(ctx)
	read := func(dst *readResult, reader ingest.Reader, locator string) {
		g.Go(func() error {
			rctx, cancel := r.entityContext(gctx)
			defer cancel()
			dst.staged, dst.stats, dst.err = reader.Read(rctx, locator)
			return nil
		})
	}

	read(&reads.donors, &ingest.TabularReader{
		Required: []string{"donor_id"},
		Logger:   logger.Logger,
	}, src.Donors)
	read(&reads.campaigns, &ingest.TabularReader{
		Required: []string{"campaign_id", "campaign_name"},
		Logger:   logger.Logger,
	}, src.Campaigns)
	read(&reads.donations, &ingest.TabularReader{
		Required: []string{"donation_id", "donor_id", "campaign_id", "donation_date", "amount"},
		Logger:   logger.Logger,
	}, src.Donations)
	read(&reads.habitats, &ingest.DocumentReader{
		NaturalKeyField: "habitat_id",
		SeriesPrefix:    "elk_population_",
	}, src.Habitats)
	read(&reads.projects, &ingest.DocumentReader{
		NaturalKeyField: "project_id",
	}, src.Projects)
	read(&reads.filings, &ingest.FilingReader{
		Logger: logger.Logger,
	}, src.Filings)

	_ = g.Wait()
	return reads
}

// entityContext bounds one entity's read or load by the configured timeout.
func (r *Runner) entityContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(r.cfg.Run.EntityTimeoutSeconds) * time.Second
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// runEntity drives one entity through its conform/validate/load closure and
// records the outcome. Cancellation is honored at the entity boundary:
// a cancelled context fails this entity without touching completed ones.
// The returned batch is what actually loaded (empty on any failure), which
// is what downstream lookups must see.
func runEntity[T any](r *Runner, ctx context.Context, report *Report, entity star.Entity, read readResult,
	fn func(ctx context.Context, res *EntityResult) ([]T, error)) []T {

	start := time.Now()
	res := EntityResult{
		Entity:  entity,
		Read:    read.stats.Read,
		Skipped: read.stats.Skipped,
	}

	var kept []T
	switch {
	case ctx.Err() != nil:
		res.Err = errors.Wrap(ctx.Err(), "run cancelled").Error()
		logger.Warnw("Skipping entity, run cancelled", "entity", entity)
	case read.err != nil:
		res.Err = read.err.Error()
		logger.Errorw("Source read failed, entity skipped",
			"entity", entity, "error", read.err.Error())
	default:
		ectx, cancel := r.entityContext(ctx)
		batch, err := fn(ectx, &res)
		cancel()
		if err != nil {
			res.Err = err.Error()
			res.Loaded = 0
			// Flags persist in the entity's transaction; a failed load
			// rolled them back.
			res.Anomalies = nil
			logger.Errorw("Entity load failed, prior state preserved",
				"entity", entity, "error", err.Error())
		} else {
			kept = batch
		}
	}

	res.ElapsedMS = time.Since(start).Milliseconds()
	report.Entities = append(report.Entities, res)
	return kept
}

// account records conformance and validation outcomes on the entity result,
// logs every violation, and returns the batch with blocking-violation
// records filtered out.
func account[T any](res *EntityResult, batch []T, violations []quality.Violation) []T {
	res.Conformed = len(batch)
	if len(violations) > 0 {
		res.Violations = quality.CountBySeverity(violations)
		logViolations(violations)
	}

	blocked := quality.BlockedIndexes(violations)
	kept := batch
	if len(blocked) > 0 {
		kept = make([]T, 0, len(batch))
		for i, rec := range batch {
			if !blocked[i] {
				kept = append(kept, rec)
			}
		}
	}
	res.Rejected = len(batch) - len(kept)
	res.Loaded = len(kept)
	return kept
}

func logViolations(violations []quality.Violation) {
	for _, v := range violations {
		if v.Severity == quality.SeverityBlocking {
			logger.Warnw("Blocking violation, record excluded from load",
				"entity", v.Entity, "record", v.Record, "rule", v.Rule, "message", v.Message)
		} else {
			logger.Infow("Warning violation, record still loads",
				"entity", v.Entity, "record", v.Record, "rule", v.Rule, "message", v.Message)
		}
	}
}
