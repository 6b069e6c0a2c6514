package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

const (
	stateFileName = "state.json"
	lockFileName  = "lock"
)

// Tracker persists step execution records under a state directory. Every Mark
// rewrites the full state file via write-to-temp-then-rename, so a crash
// between steps never leaves a half-written record. A lock file guards
// against concurrent orchestrator instances.
type Tracker struct {
	mu       sync.Mutex
	dir      string
	path     string
	lockPath string
	locked   bool
	state    *State
}

// Open prepares the state directory, acquires the run lock, and loads any
// prior state. Lock contention yields ConcurrentRunError before any state is
// touched; a malformed state file yields StateCorruptionError.
func Open(dir string) (*Tracker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	t := &Tracker{
		dir:      dir,
		path:     filepath.Join(dir, stateFileName),
		lockPath: filepath.Join(dir, lockFileName),
	}

	if err := t.acquireLock(); err != nil {
		return nil, err
	}

	if err := t.load(); err != nil {
		t.releaseLock()
		return nil, err
	}

	return t, nil
}

func (t *Tracker) acquireLock() error {
	f, err := os.OpenFile(t.lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			holder := ""
			if data, readErr := os.ReadFile(t.lockPath); readErr == nil {
				holder = strings.TrimSpace(string(data))
			}
			return gwerrors.NewConcurrentRunError(t.lockPath, holder)
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	fmt.Fprintf(f, "pid %d\n", os.Getpid())
	if err := f.Close(); err != nil {
		os.Remove(t.lockPath)
		return fmt.Errorf("failed to write lock file: %w", err)
	}

	t.locked = true
	return nil
}

func (t *Tracker) releaseLock() {
	if !t.locked {
		return
	}
	os.Remove(t.lockPath)
	t.locked = false
}

// load reads the state file, starting empty when none exists. Records left in
// "running" by an interrupted run are demoted to failed in memory so the
// orchestrator re-executes those steps; the demotion is persisted by the next
// Mark.
func (t *Tracker) load() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			t.state = newState()
			return nil
		}
		return gwerrors.NewStateCorruptionError(t.path, err)
	}

	var loaded State
	if err := json.Unmarshal(data, &loaded); err != nil {
		return gwerrors.NewStateCorruptionError(t.path, err)
	}
	if loaded.Records == nil {
		loaded.Records = make(map[string]Record)
	}

	for id, rec := range loaded.Records {
		if rec.Status == StatusRunning {
			rec.Status = StatusFailed
			rec.Message = "interrupted: found running at startup"
			loaded.Records[id] = rec
		}
	}

	t.state = &loaded
	return nil
}

// Mark persists the record durably before returning. A subsequent Load on a
// fresh tracker observes the write.
func (t *Tracker) Mark(rec Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Records[rec.StepID] = rec
	return t.save()
}

func (t *Tracker) save() error {
	data, err := json.MarshalIndent(t.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpPath := t.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}

	if err := os.Rename(tmpPath, t.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary state file: %w", err)
	}

	return nil
}

// IsComplete reports whether the step has a succeeded record.
func (t *Tracker) IsComplete(stepID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.state.Records[stepID]
	return ok && rec.Complete()
}

// Record returns the persisted record for a step, if any.
func (t *Tracker) Record(stepID string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.state.Records[stepID]
	return rec, ok
}

// Records returns all persisted records sorted by step id.
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Record, 0, len(t.state.Records))
	for _, rec := range t.state.Records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepID < out[j].StepID })
	return out
}

// Reset discards all records and persists the empty state, forcing a clean
// re-run of every step.
func (t *Tracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = newState()
	return t.save()
}

// Path returns the location of the state file.
func (t *Tracker) Path() string {
	return t.path
}

// Close releases the run lock. The state file is left in place for resume.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.releaseLock()
	return nil
}

// Inspect loads the persisted state read-only, without acquiring the run
// lock. Used by the status command; a missing file yields an empty state.
func Inspect(dir string) (*State, error) {
	path := filepath.Join(dir, stateFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newState(), nil
		}
		return nil, gwerrors.NewStateCorruptionError(path, err)
	}

	var loaded State
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, gwerrors.NewStateCorruptionError(path, err)
	}
	if loaded.Records == nil {
		loaded.Records = make(map[string]Record)
	}
	return &loaded, nil
}
