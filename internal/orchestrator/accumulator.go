package orchestrator

import (
	"sync"
	"time"

	"github.com/aleister1102/robotswatch/internal/models"
)

// runAccumulator collects counters and digest entries for one run.
// Sites may be processed concurrently, so every mutation takes the lock.
type runAccumulator struct {
	mu      sync.Mutex
	summary models.RunSummary
}

func newRunAccumulator(summary models.RunSummary) *runAccumulator {
	return &runAccumulator{summary: summary}
}

func (a *runAccumulator) record(kind models.OutcomeKind) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch kind {
	case models.OutcomeNoChange:
		a.summary.NoChange++
	case models.OutcomeChanged:
		a.summary.Changed++
	case models.OutcomeFirstObservation:
		a.summary.FirstRun++
	default:
		a.summary.Errors++
	}
}

func (a *runAccumulator) addDigest(messages ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.Digest = append(a.summary.Digest, messages...)
}

func (a *runAccumulator) markInterrupted() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.Interrupted = true
}

func (a *runAccumulator) finish(at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.FinishedAt = at
}

func (a *runAccumulator) snapshot() models.RunSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.summary
	out.Digest = append([]string(nil), a.summary.Digest...)
	return out
}
