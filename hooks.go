package xtsmerge

import (
	"sync"

	"github.com/agentstation/xtsmerge/pkg/reconciler"
)

// Hook function types for merge events. Hooks run on the goroutine that
// called Merge, after every suite directory has been processed, in the
// order the directories were discovered.
type (
	// RunDroppedHook is called when a report is excluded because it failed
	// to parse or verify
	RunDroppedHook func(source string, err error)

	// SuiteReconciledHook is called for every suite that enters the bundle
	SuiteReconciledHook func(dir string, suite *reconciler.Suite)

	// SuiteSkippedHook is called when a suite directory yields no suite,
	// either because no run survived or a newer directory won its identity
	SuiteSkippedHook func(dir string, err error)
)

// hooks manages event callbacks for a Merger
type hooks struct {
	mu                sync.RWMutex
	onRunDropped      []RunDroppedHook
	onSuiteReconciled []SuiteReconciledHook
	onSuiteSkipped    []SuiteSkippedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnRunDropped registers a callback for dropped reports
func (h *hooks) OnRunDropped(fn RunDroppedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRunDropped = append(h.onRunDropped, fn)
}

// OnSuiteReconciled registers a callback for reconciled suites
func (h *hooks) OnSuiteReconciled(fn SuiteReconciledHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSuiteReconciled = append(h.onSuiteReconciled, fn)
}

// OnSuiteSkipped registers a callback for skipped suite directories
func (h *hooks) OnSuiteSkipped(fn SuiteSkippedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSuiteSkipped = append(h.onSuiteSkipped, fn)
}

// trigger replays the outcome of each suite directory to the registered hooks.
func (h *hooks) trigger(outcomes []dirOutcome) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, out := range outcomes {
		for _, d := range out.dropped {
			for _, fn := range h.onRunDropped {
				fn(d.Source, d.err)
			}
		}
		switch {
		case out.skipErr != nil:
			for _, fn := range h.onSuiteSkipped {
				fn(out.dir, out.skipErr)
			}
		case out.suite != nil:
			for _, fn := range h.onSuiteReconciled {
				fn(out.dir, out.suite)
			}
		}
	}
}
