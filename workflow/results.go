package workflow

import "sync"

// Results is the read view of step outcomes finished so far in a run.
// Operations and conditions receive it; a nil *Results is empty.
type Results struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]StepResult
}

func newResults() *Results {
	return &Results{byName: make(map[string]StepResult)}
}

func (r *Results) add(sr StepResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[sr.Step]; !ok {
		r.order = append(r.order, sr.Step)
	}
	r.byName[sr.Step] = sr
}

// Get returns the result recorded for step.
func (r *Results) Get(step string) (StepResult, bool) {
	if r == nil {
		return StepResult{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	sr, ok := r.byName[step]
	return sr, ok
}

// Payload returns the payload of step, or nil.
func (r *Results) Payload(step string) any {
	sr, _ := r.Get(step)
	return sr.Payload
}

// Succeeded reports whether step ran and succeeded.
func (r *Results) Succeeded(step string) bool {
	sr, ok := r.Get(step)
	return ok && sr.Status == StatusSucceeded
}

// Failed reports whether step ran and failed.
func (r *Results) Failed(step string) bool {
	sr, ok := r.Get(step)
	return ok && sr.Status == StatusFailed
}

// Skipped reports whether step was skipped by its condition.
func (r *Results) Skipped(step string) bool {
	sr, ok := r.Get(step)
	return ok && sr.Status == StatusSkipped
}

// AnyFailed reports whether any recorded step failed.
func (r *Results) AnyFailed() bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sr := range r.byName {
		if sr.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Names returns recorded step names in completion order.
func (r *Results) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of recorded steps.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
