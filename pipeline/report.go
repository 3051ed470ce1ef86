package pipeline

import (
	"encoding/json"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/quality"
	"github.com/openrange/elkhorn/star"
)

// Run status values, the single failure surface consumed by alerting.
const (
	StatusSuccess  = "success"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

// EntityResult is the per-entity accounting in the run report. Every read,
// skipped, rejected, and loaded record is counted; nothing is silently
// dropped.
type EntityResult struct {
	Entity     star.Entity              `json:"entity"`
	Read       int                      `json:"read"`
	Skipped    int                      `json:"skipped"`
	Conformed  int                      `json:"conformed"`
	Rejected   int                      `json:"rejected"`
	Loaded     int                      `json:"loaded"`
	Violations map[quality.Severity]int `json:"violations,omitempty"`
	Anomalies  map[string]int           `json:"anomalies,omitempty"`
	Err        string                   `json:"error,omitempty"`
	ElapsedMS  int64                    `json:"elapsed_ms"`
}

// Failed reports whether the entity's load was aborted.
func (r EntityResult) Failed() bool {
	return r.Err != ""
}

// MemorySnapshot is the process memory footprint at report time.
type MemorySnapshot struct {
	RSSMB uint64 `json:"rss_mb"`
	VMSMB uint64 `json:"vms_mb"`
}

// Report is the structured run summary.
type Report struct {
	RunID      string         `json:"run_id"`
	Status     string         `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	ElapsedMS  int64          `json:"elapsed_ms"`
	Entities   []EntityResult `json:"entities"`
	Memory     MemorySnapshot `json:"memory"`
}

// finish computes the overall status and closes the timings. Degraded means
// at least one entity's load aborted while others succeeded; failed means
// nothing loaded.
func (r *Report) finish(started time.Time) {
	r.StartedAt = started
	r.FinishedAt = time.Now().UTC()
	r.ElapsedMS = r.FinishedAt.Sub(started).Milliseconds()
	r.Memory = snapshotMemory()

	failed, succeeded := 0, 0
	for _, e := range r.Entities {
		if e.Failed() {
			failed++
		} else {
			succeeded++
		}
	}
	switch {
	case failed == 0:
		r.Status = StatusSuccess
	case succeeded == 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusDegraded
	}
}

// Healthy reports whether the run completed without any aborted entity.
func (r *Report) Healthy() bool {
	return r.Status == StatusSuccess
}

// JSON renders the report for the alerting collaborator.
func (r *Report) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshaling run report")
	}
	return b, nil
}

// Write persists the report to a file.
func (r *Report) Write(path string) error {
	b, err := r.JSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "writing run report to %s", path)
	}
	return nil
}

func snapshotMemory() MemorySnapshot {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return MemorySnapshot{}
	}
	info, err := proc.MemoryInfo()
	if err != nil || info == nil {
		return MemorySnapshot{}
	}
	return MemorySnapshot{
		RSSMB: info.RSS / (1024 * 1024),
		VMSMB: info.VMS / (1024 * 1024),
	}
}
