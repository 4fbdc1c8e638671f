package records

import (
	"context"
	"sync"
	"time"
)

type pairKey struct{ learnerID, courseID string }

type resultKey struct{ learnerID, courseID, moduleID, subUnitID string }

// MemoryStore keeps all learner state behind one lock so CommitCompletion
// is atomic the same way the SQL transaction is. Used by tests and the
// offline profile.
type MemoryStore struct {
	mu          sync.Mutex
	progress    map[pairKey]ProgressRecord
	completions map[pairKey]CompletionRecord
	results     map[resultKey]AttemptResult

	// Now is overridable in tests.
	Now func() time.Time
	// FailNextCommit makes the next CommitCompletion fail before writing,
	// simulating store unavailability.
	FailNextCommit error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		progress:    map[pairKey]ProgressRecord{},
		completions: map[pairKey]CompletionRecord{},
		results:     map[resultKey]AttemptResult{},
		Now:         time.Now,
	}
}

func (m *MemoryStore) Enroll(_ context.Context, learnerID, courseID string) (ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey{learnerID, courseID}
	if p, ok := m.progress[k]; ok {
		return p, nil
	}
	now := m.Now().Unix()
	p := ProgressRecord{LearnerID: learnerID, CourseID: courseID, Progress: 0, EnrolledAt: now, LastUpdated: now}
	m.progress[k] = p
	m.completions[k] = CompletionRecord{LearnerID: learnerID, CourseID: courseID, Completed: map[string]CompletionEntry{}}
	return p, nil
}

func (m *MemoryStore) GetProgress(_ context.Context, learnerID, courseID string) (ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[pairKey{learnerID, courseID}]
	if !ok {
		return ProgressRecord{}, ErrNotEnrolled
	}
	return p, nil
}

func (m *MemoryStore) GetCompletion(_ context.Context, learnerID, courseID string) (CompletionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.completions[pairKey{learnerID, courseID}]
	if !ok {
		return CompletionRecord{}, ErrNotEnrolled
	}
	return copyCompletion(c), nil
}

func (m *MemoryStore) GetAttemptResult(_ context.Context, learnerID, courseID, moduleID, subUnitID string) (AttemptResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[resultKey{learnerID, courseID, moduleID, subUnitID}]
	if !ok {
		return AttemptResult{}, ErrNoResult
	}
	return r, nil
}

func (m *MemoryStore) PutAttemptResult(_ context.Context, r AttemptResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[resultKey{r.LearnerID, r.CourseID, r.ModuleID, r.SubUnitID}] = r
	return nil
}

func (m *MemoryStore) CommitCompletion(_ context.Context, c Completion) (ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailNextCommit; err != nil {
		m.FailNextCommit = nil
		return ProgressRecord{}, err
	}
	r := c.Result
	k := pairKey{r.LearnerID, r.CourseID}
	comp, ok := m.completions[k]
	if !ok {
		return ProgressRecord{}, ErrNotEnrolled
	}
	prog, ok := m.progress[k]
	if !ok {
		return ProgressRecord{}, ErrNotEnrolled
	}

	now := m.Now().Unix()
	comp = copyCompletion(comp)
	comp.Completed[SubUnitKey(r.ModuleID, r.SubUnitID)] = CompletionEntry{
		CompletedAt: now,
		Score:       r.Score,
		Attempts:    r.Attempts,
	}
	if comp.FirstCompletedAt == 0 {
		comp.FirstCompletedAt = now
	}

	prog.Progress = ProgressPercent(len(comp.Completed), c.TotalSubUnits)
	prog.LastUpdated = now

	m.completions[k] = comp
	m.progress[k] = prog
	m.results[resultKey{r.LearnerID, r.CourseID, r.ModuleID, r.SubUnitID}] = r
	return prog, nil
}

func (m *MemoryStore) Recompute(_ context.Context, learnerID, courseID string, totalSubUnits int) (ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey{learnerID, courseID}
	comp, ok := m.completions[k]
	if !ok {
		return ProgressRecord{}, ErrNotEnrolled
	}
	prog, ok := m.progress[k]
	if !ok {
		return ProgressRecord{}, ErrNotEnrolled
	}
	prog.Progress = ProgressPercent(len(comp.Completed), totalSubUnits)
	prog.LastUpdated = m.Now().Unix()
	m.progress[k] = prog
	return prog, nil
}

func (m *MemoryStore) StampVerification(_ context.Context, learnerID, courseID, verificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey{learnerID, courseID}
	comp, ok := m.completions[k]
	if !ok {
		return ErrNotEnrolled
	}
	comp.VerificationID = verificationID
	m.completions[k] = comp
	return nil
}

func copyCompletion(c CompletionRecord) CompletionRecord {
	out := c
	out.Completed = make(map[string]CompletionEntry, len(c.Completed))
	for k, v := range c.Completed {
		out.Completed[k] = v
	}
	return out
}
