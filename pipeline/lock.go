package pipeline

import (
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/openrange/elkhorn/errors"
)

// runLock is a marker-file advisory lock. Only one run may execute at a
// time because the per-entity full-replace transactions assume no
// concurrent writer; the lock file records the holder's run ID for
// diagnosis.
type runLock struct {
	path   string
	logger *zap.SugaredLogger
}

// acquire creates the marker file exclusively. A pre-existing marker means
// another run holds the store (or died without releasing); the error is
// fatal and carries the holder's run ID.
func (l *runLock) acquire(runID string) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			holder := "unknown"
			if raw, readErr := os.ReadFile(l.path); readErr == nil {
				holder = strings.TrimSpace(string(raw))
			}
			return errors.WithHint(
				errors.Wrapf(errors.ErrRunLocked, "run %s holds %s", holder, l.path),
				"remove the lock file if the previous run is no longer running")
		}
		return errors.Wrapf(err, "creating run lock %s", l.path)
	}
	defer f.Close()

	if _, err := f.WriteString(runID + "\n"); err != nil {
		os.Remove(l.path)
		return errors.Wrap(err, "writing run lock")
	}
	return nil
}

// release removes the marker. Called on completion and on failure alike.
func (l *runLock) release() {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) && l.logger != nil {
		l.logger.Warnw("Failed to release run lock", "path", l.path, "error", err.Error())
	}
}
