// Package wizard drives a step catalog one answer at a time.
//
// An Engine owns the answers and the position within the effective catalog.
// Every public method takes the engine lock, so an engine can be shared by a
// UI goroutine and background callers, but there is exactly one writer at a
// time. Drafts are written in the background and never block a commit.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/draft"
	"github.com/propertyshodh/shodh/pkg/logger"
)

var (
	// ErrComplete is returned by step operations once every step is answered.
	ErrComplete = errors.New("wizard complete")
	// ErrNotMultiSelect is returned by ToggleOption on other step kinds.
	ErrNotMultiSelect = errors.New("current step is not a multi-select")
	// ErrUnknownOption is returned when a toggled value is not offered.
	ErrUnknownOption = errors.New("not one of the available options")
)

// Status classifies the result of a commit.
type Status int

const (
	Advanced Status = iota
	Completed
	Invalid
)

func (s Status) String() string {
	switch s {
	case Advanced:
		return "advanced"
	case Completed:
		return "completed"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome is returned by SubmitAnswer and ConfirmMultiSelect. Step is the
// step now current: the rejected step for Invalid, the next step for
// Advanced and nil for Completed.
type Outcome struct {
	Status Status
	Reason string
	Step   *catalog.Step
}

// PersistenceWarning records a draft write that failed. The session keeps
// working; the warning is only surfaced.
type PersistenceWarning struct {
	Key string
	Err error
	At  time.Time
}

func (w PersistenceWarning) Error() string {
	return fmt.Sprintf("draft %s not saved: %v", w.Key, w.Err)
}

func (w PersistenceWarning) Unwrap() error { return w.Err }

// Engine is a wizard session over one catalog.
type Engine struct {
	mu         sync.Mutex
	cat        *catalog.Catalog
	answers    catalog.Answers
	steps      []*catalog.Step
	index      int
	pending    []string
	pendingFor string

	store  draft.Store
	writer *draft.Async
	key    string
	log    *logger.Logger
	now    func() time.Time

	warnMu   sync.Mutex
	warnings []PersistenceWarning
}

// Option configures an Engine.
type Option func(*Engine)

// WithDrafts persists every state change to store under key. Writes go
// through a background writer owned by the engine; call Close to drain it.
func WithDrafts(store draft.Store, key string) Option {
	return func(e *Engine) {
		e.store = store
		e.key = key
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides time.Now for snapshots.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func newEngine(cat *catalog.Catalog, opts []Option) *Engine {
	e := &Engine{
		cat:     cat,
		answers: catalog.Answers{},
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.With("catalog", cat.Name())
	if e.store != nil {
		e.writer = draft.NewAsync(e.store, draft.OnError(e.warn))
	}
	return e
}

// New starts an empty session.
func New(cat *catalog.Catalog, opts ...Option) *Engine {
	e := newEngine(cat, opts)
	e.steps = cat.Compute(e.answers)
	return e
}

// Resume rebuilds a session from a snapshot. Answers the catalog no longer
// supports are dropped. An index past the end of the recomputed catalog
// lands on its last step; an index equal to its length stays complete.
func Resume(cat *catalog.Catalog, snap *draft.Snapshot, opts ...Option) *Engine {
	e := newEngine(cat, opts)
	if snap == nil {
		e.steps = cat.Compute(e.answers)
		return e
	}
	if snap.Catalog != "" && snap.Catalog != cat.Name() {
		e.log.Warn("draft belongs to another catalog", "draft_catalog", snap.Catalog)
	}
	restored, dropped := cat.Restore(snap.Answers)
	if len(dropped) > 0 {
		e.log.Debug("dropped unusable draft answers", "steps", dropped)
	}
	e.answers = cat.Prune(restored)
	e.steps = cat.Compute(e.answers)
	e.index = resumeIndex(snap.CurrentIndex, len(e.steps))
	return e
}

// Open resumes the draft stored under key, or starts fresh when there is
// none or it cannot be read. The bool reports whether a draft was resumed.
func Open(ctx context.Context, cat *catalog.Catalog, store draft.Store, key string, opts ...Option) (*Engine, bool) {
	opts = append(opts, WithDrafts(store, key))
	snap, err := store.Load(ctx, key)
	if err != nil {
		e := New(cat, opts...)
		if !errors.Is(err, draft.ErrNotFound) {
			e.warn(key, fmt.Errorf("load: %w", err))
		}
		return e, false
	}
	return Resume(cat, snap, opts...), true
}

func resumeIndex(i, n int) int {
	switch {
	case i < 0:
		return 0
	case i > n:
		return max(0, n-1)
	}
	return i
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// CurrentStep returns the step awaiting an answer. The bool is false once
// the wizard is complete.
func (e *Engine) CurrentStep() (*catalog.Step, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current()
}

func (e *Engine) current() (*catalog.Step, bool) {
	if e.index >= len(e.steps) {
		return nil, false
	}
	return e.steps[e.index], true
}

// Options returns the choices for the current step.
func (e *Engine) Options() []catalog.Choice {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.current()
	if !ok {
		return nil
	}
	return s.Options(e.answers)
}

// SubmitAnswer validates v against the current step and commits it. An
// invalid answer changes nothing.
func (e *Engine) SubmitAnswer(v any) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.current()
	if !ok {
		return Outcome{Status: Completed}
	}
	return e.commit(s, v)
}

func (e *Engine) commit(s *catalog.Step, raw any) Outcome {
	var value any
	if s.Kind != catalog.KindDerivedSummary {
		norm, err := s.Normalize(raw, e.answers)
		if err != nil {
			reason := s.Message
			if reason == "" {
				reason = err.Error()
			}
			e.log.Debug("answer rejected", "step", s.ID, "reason", reason)
			return Outcome{Status: Invalid, Reason: reason, Step: s}
		}
		if res := s.Validate(norm, e.answers); !res.OK {
			e.log.Debug("answer rejected", "step", s.ID, "reason", res.Reason)
			return Outcome{Status: Invalid, Reason: res.Reason, Step: s}
		}
		value = norm
	}

	next := e.answers.Clone()
	old := next[s.ID]
	if value == nil || catalog.IsEmpty(value) {
		delete(next, s.ID)
		value = nil
	} else {
		next[s.ID] = value
	}
	if !reflect.DeepEqual(old, value) {
		for _, dep := range e.cat.OptionDependents(s.ID) {
			delete(next, dep)
		}
	}
	next = e.cat.Prune(next)
	steps := e.cat.Compute(next)

	pos := catalog.IndexOf(steps, s.ID)
	if pos < 0 {
		// The committed step vanished; stay at the same position.
		e.log.Warn("committed step left the catalog", "step", s.ID)
		pos = e.index - 1
	}
	e.answers = next
	e.steps = steps
	e.index = clamp(pos+1, len(steps))
	e.pending, e.pendingFor = nil, ""
	e.persist()

	if cur, ok := e.current(); ok {
		return Outcome{Status: Advanced, Step: cur}
	}
	e.log.Info("wizard complete", "answers", len(e.answers))
	return Outcome{Status: Completed}
}

// GoBack moves to the previous step. It reports false at the first step.
func (e *Engine) GoBack() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index == 0 {
		return false
	}
	e.index--
	e.pending, e.pendingFor = nil, ""
	e.persist()
	return true
}

// Reset discards every answer and clears the stored draft.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.answers = catalog.Answers{}
	e.steps = e.cat.Compute(e.answers)
	e.index = 0
	e.pending, e.pendingFor = nil, ""
	if e.writer != nil {
		if err := e.writer.Clear(context.Background(), e.key); err != nil {
			e.warn(e.key, err)
		}
	}
}

// ToggleOption adds or removes v from the pending selection of the current
// multi-select step. Nothing is committed until ConfirmMultiSelect.
func (e *Engine) ToggleOption(v string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.multiStep()
	if err != nil {
		return err
	}
	c, ok := catalog.MatchChoice(s.Options(e.answers), v)
	if !ok {
		return fmt.Errorf("%q: %w", v, ErrUnknownOption)
	}
	val := c.Val()
	for i, p := range e.pending {
		if p == val {
			e.pending = append(e.pending[:i:i], e.pending[i+1:]...)
			return nil
		}
	}
	e.pending = append(e.pending, val)
	return nil
}

// Pending returns the pending selection in option order.
func (e *Engine) Pending() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.multiStep()
	if err != nil {
		return nil
	}
	return e.orderedPending(s)
}

// ConfirmMultiSelect commits the pending selection of the current step.
func (e *Engine) ConfirmMultiSelect() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.multiStep()
	if errors.Is(err, ErrComplete) {
		return Outcome{Status: Completed}
	}
	if err != nil {
		cur, _ := e.current()
		return Outcome{Status: Invalid, Reason: err.Error(), Step: cur}
	}
	return e.commit(s, e.orderedPending(s))
}

// multiStep returns the current step when it is a multi-select, seeding the
// pending set from its committed answer the first time it is touched.
func (e *Engine) multiStep() (*catalog.Step, error) {
	s, ok := e.current()
	if !ok {
		return nil, ErrComplete
	}
	if s.Kind != catalog.KindMultiSelect {
		return nil, ErrNotMultiSelect
	}
	if e.pendingFor != s.ID {
		e.pendingFor = s.ID
		e.pending = nil
		if prev, ok := e.answers[s.ID].([]string); ok {
			e.pending = append([]string(nil), prev...)
		}
	}
	return s, nil
}

func (e *Engine) orderedPending(s *catalog.Step) []string {
	picked := make(map[string]bool, len(e.pending))
	for _, p := range e.pending {
		picked[p] = true
	}
	out := []string{}
	for _, o := range s.Options(e.answers) {
		if picked[o.Val()] {
			out = append(out, o.Val())
		}
	}
	return out
}

// Snapshot returns the persistable state.
func (e *Engine) Snapshot() *draft.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Engine) snapshot() *draft.Snapshot {
	return &draft.Snapshot{
		Version:      draft.SnapshotVersion,
		Catalog:      e.cat.Name(),
		Answers:      e.answers.Clone(),
		CurrentIndex: e.index,
		SavedAt:      e.now().UTC(),
	}
}

func (e *Engine) persist() {
	if e.writer == nil {
		return
	}
	if err := e.writer.Save(context.Background(), e.key, e.snapshot()); err != nil {
		e.warn(e.key, err)
	}
}

func (e *Engine) warn(key string, err error) {
	w := PersistenceWarning{Key: key, Err: err, At: e.now()}
	e.log.Warn("draft persistence failed", "key", key, "error", err)
	e.warnMu.Lock()
	e.warnings = append(e.warnings, w)
	e.warnMu.Unlock()
}

// Warnings returns and forgets the persistence warnings collected so far.
func (e *Engine) Warnings() []PersistenceWarning {
	e.warnMu.Lock()
	defer e.warnMu.Unlock()
	out := e.warnings
	e.warnings = nil
	return out
}

// Answers returns a copy of the committed answers.
func (e *Engine) Answers() catalog.Answers {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.answers.Clone()
}

// Answer returns the committed answer for id.
func (e *Engine) Answer(id string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.answers[id]
	return v, ok
}

// Steps returns the effective catalog.
func (e *Engine) Steps() []*catalog.Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*catalog.Step(nil), e.steps...)
}

// Catalog returns the catalog definition the session runs on.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Index returns the current position; len(Steps()) means complete.
func (e *Engine) Index() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// Complete reports whether every step has been passed.
func (e *Engine) Complete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index >= len(e.steps)
}

// DraftKey returns the key drafts are written under, if any.
func (e *Engine) DraftKey() string { return e.key }

// Flush waits for queued draft writes.
func (e *Engine) Flush(ctx context.Context) error {
	if e.writer == nil {
		return nil
	}
	return e.writer.Flush(ctx)
}

// Close drains queued draft writes and stops the writer.
func (e *Engine) Close() error {
	if e.writer == nil {
		return nil
	}
	return e.writer.Close()
}
