// SPDX-License-Identifier: MIT
package scheduler

import (
	"strconv"
	"sync"
	"sync/atomic"

	"mayaflux/internal/clock"
	"mayaflux/internal/log"
	"mayaflux/internal/tokens"
)

// TokenProcessor lets a caller install a custom scheduling algorithm for
// a domain instead of the default sequential try_resume sweep (spec
// §4.2's register_token_processor — e.g. batched dispatch for graphics).
type TokenProcessor func(routines []*Routine, units uint64)

type taskEntry struct {
	routine *Routine
	name    string
}

// TaskScheduler holds every live routine and resumes each at the right
// position of its domain's clock (spec §4.2).
type TaskScheduler struct {
	mu         sync.Mutex
	clocks     map[tokens.TaskToken]clock.Clock
	rates      map[tokens.TaskToken]uint32
	processors map[tokens.TaskToken]TokenProcessor
	tasks      []taskEntry

	cleanupThreshold  uint32
	ticksSinceCleanup uint64
	nextTaskID        atomic.Uint64
}

// NewTaskScheduler builds a scheduler with the two built-in domains
// pre-wired: SAMPLE_ACCURATE on a SampleClock at defaultSampleRate, and
// FRAME_ACCURATE on a FrameClock at defaultFrameRate. Other domains are
// created lazily via EnsureDomain the first time a routine targets them.
func NewTaskScheduler(defaultSampleRate, defaultFrameRate uint32) *TaskScheduler {
	s := &TaskScheduler{
		clocks:           make(map[tokens.TaskToken]clock.Clock),
		rates:            make(map[tokens.TaskToken]uint32),
		processors:       make(map[tokens.TaskToken]TokenProcessor),
		cleanupThreshold: 256,
	}
	s.clocks[tokens.SampleAccurate] = clock.NewSampleClock(defaultSampleRate)
	s.rates[tokens.SampleAccurate] = defaultSampleRate
	s.clocks[tokens.FrameAccurate] = clock.NewFrameClock(defaultFrameRate)
	s.rates[tokens.FrameAccurate] = defaultFrameRate
	return s
}

// EnsureDomain creates a CustomClock for token at rate if one doesn't
// already exist, for ON_DEMAND/EVENT_DRIVEN/CUSTOM routines.
func (s *TaskScheduler) EnsureDomain(token tokens.TaskToken, rate uint64, unitName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clocks[token]; ok {
		return
	}
	s.clocks[token] = clock.NewCustomClock(rate, unitName)
	s.rates[token] = uint32(rate)
}

// AddTask attaches routine to the scheduler under an optional name. If
// initialize is true, try_resume is called once immediately at the
// domain's current position.
func (s *TaskScheduler) AddTask(r *Routine, name string, initialize bool) {
	if name == "" {
		name = s.autoGenerateName(r)
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, taskEntry{routine: r, name: name})
	s.mu.Unlock()

	if initialize {
		r.TryResume(s.CurrentUnits(r.Token))
	}
}

func (s *TaskScheduler) autoGenerateName(r *Routine) string {
	id := s.nextTaskID.Add(1)
	return "task-" + r.Token.String() + "-" + strconv.FormatUint(id, 10)
}

// GetTask returns the named routine, or nil if not found.
func (s *TaskScheduler) GetTask(name string) *Routine {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.name == name {
			return t.routine
		}
	}
	return nil
}

// CancelTask marks the named routine terminated and removes it from the
// scheduler, returning false if no such task exists.
func (s *TaskScheduler) CancelTask(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.name == name {
			t.routine.ShouldTerminate()
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// CancelRoutine is the pointer-identity variant of CancelTask.
func (s *TaskScheduler) CancelRoutine(r *Routine) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.routine == r {
			t.routine.ShouldTerminate()
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// RestartTask resets the named routine to position zero and Ready.
func (s *TaskScheduler) RestartTask(name string) bool {
	if r := s.GetTask(name); r != nil {
		r.Restart()
		return true
	}
	return false
}

// GetTasksForToken returns every live routine bound to token.
func (s *TaskScheduler) GetTasksForToken(token tokens.TaskToken) []*Routine {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Routine
	for _, t := range s.tasks {
		if t.routine.Token == token {
			out = append(out, t.routine)
		}
	}
	return out
}

// ProcessToken advances token's clock by units and resumes every ready
// routine in that domain, via the registered TokenProcessor if one
// exists, or the default sequential sweep otherwise (spec §4.2).
func (s *TaskScheduler) ProcessToken(token tokens.TaskToken, units uint64) {
	s.mu.Lock()
	c, ok := s.clocks[token]
	proc, hasProc := s.processors[token]
	s.mu.Unlock()
	if !ok {
		log.Warnf("scheduler: ProcessToken called for unregistered domain %s", token)
		return
	}
	c.Tick(units)
	routines := s.GetTasksForToken(token)

	if hasProc {
		proc(routines, units)
	} else {
		s.processDefault(routines, c.Position())
	}
	s.cleanupCompletedTasks(units)
}

func (s *TaskScheduler) processDefault(routines []*Routine, currentUnits uint64) {
	for _, r := range routines {
		if r.IsActive() {
			r.TryResume(currentUnits)
		}
	}
}

// ProcessAllTokens advances every registered domain by its default unit
// count (1) and resumes its routines.
func (s *TaskScheduler) ProcessAllTokens() {
	s.mu.Lock()
	tks := make([]tokens.TaskToken, 0, len(s.clocks))
	for t := range s.clocks {
		tks = append(tks, t)
	}
	s.mu.Unlock()
	for _, t := range tks {
		s.ProcessToken(t, 1)
	}
}

// RegisterTokenProcessor installs a custom scheduling algorithm for a
// domain, replacing the default sequential try_resume sweep.
func (s *TaskScheduler) RegisterTokenProcessor(token tokens.TaskToken, proc TokenProcessor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processors[token] = proc
}

// GetClock returns the clock backing token, or nil if the domain hasn't
// been created yet.
func (s *TaskScheduler) GetClock(token tokens.TaskToken) clock.Clock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clocks[token]
}

// CurrentUnits returns token's domain's current clock position.
func (s *TaskScheduler) CurrentUnits(token tokens.TaskToken) uint64 {
	c := s.GetClock(token)
	if c == nil {
		return 0
	}
	return c.Position()
}

// SecondsToUnits converts a duration in seconds to token's domain units.
func (s *TaskScheduler) SecondsToUnits(seconds float64, token tokens.TaskToken) uint64 {
	c := s.GetClock(token)
	if c == nil || seconds <= 0 {
		return 0
	}
	return uint64(seconds * float64(c.Rate()))
}

// GetRate returns token's domain's processing rate.
func (s *TaskScheduler) GetRate(token tokens.TaskToken) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rates[token]
}

// UpdateTaskParams merges params into the named task's state store.
func (s *TaskScheduler) UpdateTaskParams(name string, params map[string]Value) bool {
	r := s.GetTask(name)
	if r == nil || !r.IsActive() {
		return false
	}
	for k, v := range params {
		r.SetState(k, v)
	}
	return true
}

// HasActiveTasks reports whether token's domain has any non-Done routine.
func (s *TaskScheduler) HasActiveTasks(token tokens.TaskToken) bool {
	for _, r := range s.GetTasksForToken(token) {
		if r.IsActive() {
			return true
		}
	}
	return false
}

// GetTaskNames returns every registered task's name.
func (s *TaskScheduler) GetTaskNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		names[i] = t.name
	}
	return names
}

// PauseAllTasks is a no-op placeholder for parity with the original
// engine's pause/resume pair: this engine has no intermediate paused
// state distinct from simply not calling ProcessToken for a domain, so
// pausing is a caller-level decision (stop driving that token).
func (s *TaskScheduler) PauseAllTasks() {}

// ResumeAllTasks mirrors PauseAllTasks; see its comment.
func (s *TaskScheduler) ResumeAllTasks() {}

// TerminateAllTasks marks every routine Done and clears the task list.
func (s *TaskScheduler) TerminateAllTasks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		t.routine.ShouldTerminate()
	}
	s.tasks = nil
}

// cleanupCompletedTasks accumulates units processed since the last sweep
// and, once that reaches cleanupThreshold processing units (spec §4.2,
// original_source Scheduler.hpp's m_cleanup_threshold comment: "how many
// processing units must pass before the scheduler cleans up completed
// tasks"), drops every Done routine from the task list and resets the
// counter. This is a tick-based amortization, not a task-count gate: a
// scheduler with only a handful of live routines still sweeps on
// schedule instead of never sweeping at all.
func (s *TaskScheduler) cleanupCompletedTasks(units uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticksSinceCleanup += units
	if s.ticksSinceCleanup < uint64(s.cleanupThreshold) {
		return
	}
	s.ticksSinceCleanup = 0
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if t.routine.IsActive() {
			live = append(live, t)
		}
	}
	s.tasks = live
}

// GetCleanupThreshold returns how many processing units must elapse
// between sweeps of completed routines.
func (s *TaskScheduler) GetCleanupThreshold() uint32 { return s.cleanupThreshold }

// SetCleanupThreshold changes the cleanup sweep's unit threshold.
func (s *TaskScheduler) SetCleanupThreshold(threshold uint32) { s.cleanupThreshold = threshold }
