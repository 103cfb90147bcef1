package timer

import (
	"strconv"
	"sync"
	"time"

	"oposita/internal/store"
)

// Phase is one stage of the Pomodoro cycle.
type Phase int

const (
	PhaseWork Phase = iota
	PhaseBreak
	PhaseLongBreak
)

func (p Phase) String() string {
	switch p {
	case PhaseBreak:
		return "break"
	case PhaseLongBreak:
		return "long_break"
	default:
		return "work"
	}
}

// Config holds the Pomodoro schedule.
type Config struct {
	WorkMinutes             int
	BreakMinutes            int
	LongBreakMinutes        int
	SessionsBeforeLongBreak int
}

func DefaultConfig() Config {
	return Config{
		WorkMinutes:             50,
		BreakMinutes:            10,
		LongBreakMinutes:        30,
		SessionsBeforeLongBreak: 4,
	}
}

// ConfigFromSettings loads the schedule from the settings table, falling
// back to defaults for missing or malformed keys.
func ConfigFromSettings(s *store.Store) Config {
	cfg := DefaultConfig()
	cfg.WorkMinutes = settingInt(s, "pomodoro_work", cfg.WorkMinutes)
	cfg.BreakMinutes = settingInt(s, "pomodoro_break", cfg.BreakMinutes)
	cfg.LongBreakMinutes = settingInt(s, "pomodoro_long_break", cfg.LongBreakMinutes)
	cfg.SessionsBeforeLongBreak = settingInt(s, "pomodoro_count", cfg.SessionsBeforeLongBreak)
	return cfg
}

func settingInt(s *store.Store, key string, fallback int) int {
	v, err := s.GetSetting(key)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Snapshot is a point-in-time view of the timer for callers.
type Snapshot struct {
	Running         bool
	Paused          bool
	Pomodoro        bool
	Phase           Phase
	TopicID         *int64
	ElapsedMs       int64
	CompletedCycles int
}

// Tick is pushed to tick subscribers. RemainingMs is the time left in the
// current Pomodoro phase, 0 in plain stopwatch mode.
type Tick struct {
	ElapsedMs   int64
	Pomodoro    bool
	Phase       Phase
	RemainingMs int64
}

// Timer is the stopwatch / Pomodoro state machine. One timer drives one
// session at a time; stopping it commits the measured minutes through the
// store. All methods are safe for concurrent use.
type Timer struct {
	store *store.Store

	mu  sync.Mutex
	cfg Config
	now func() time.Time

	running  bool
	paused   bool
	pomodoro bool
	topicID  *int64

	startTime   time.Time
	pausedAt    time.Time
	totalPaused time.Duration

	phase           Phase
	phaseStart      time.Time
	completedCycles int

	interval time.Duration
	done     chan struct{}

	nextSub   int
	tickSubs  map[int]func(Tick)
	phaseSubs map[int]func(prev, next Phase)
	stopSubs  map[int]func(minutes int)
}

func New(s *store.Store, cfg Config) *Timer {
	return &Timer{
		store:     s,
		cfg:       cfg,
		now:       time.Now,
		interval:  100 * time.Millisecond,
		tickSubs:  make(map[int]func(Tick)),
		phaseSubs: make(map[int]func(prev, next Phase)),
		stopSubs:  make(map[int]func(minutes int)),
	}
}

// Config returns the current Pomodoro schedule.
func (t *Timer) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg
}

// SetConfig replaces the Pomodoro schedule. Takes effect on the next phase
// duration lookup; an in-flight phase keeps counting against the new value.
func (t *Timer) SetConfig(cfg Config) {
	t.mu.Lock()
	t.cfg = cfg
	t.mu.Unlock()
}

// OnTick registers a tick subscriber and returns its cancel func. Ticks
// are notifications only; no state changes happen in subscribers' hands.
func (t *Timer) OnTick(fn func(Tick)) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSub
	t.nextSub++
	t.tickSubs[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.tickSubs, id)
		t.mu.Unlock()
	}
}

// OnPhaseComplete registers a subscriber for Pomodoro phase transitions.
func (t *Timer) OnPhaseComplete(fn func(prev, next Phase)) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSub
	t.nextSub++
	t.phaseSubs[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.phaseSubs, id)
		t.mu.Unlock()
	}
}

// OnStop registers a subscriber called with the committed minute count
// (0 when the run was too short to commit).
func (t *Timer) OnStop(fn func(minutes int)) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSub
	t.nextSub++
	t.stopSubs[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.stopSubs, id)
		t.mu.Unlock()
	}
}

// Start begins measuring, in plain stopwatch mode or as a Pomodoro work
// phase. Starting an already-running timer is a no-op.
func (t *Timer) Start(topicID *int64, pomodoro bool) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	now := t.now()
	t.running = true
	t.paused = false
	t.pomodoro = pomodoro
	t.topicID = topicID
	t.startTime = now
	t.pausedAt = time.Time{}
	t.totalPaused = 0
	t.phase = PhaseWork
	t.phaseStart = now
	t.completedCycles = 0

	var done chan struct{}
	if t.interval > 0 {
		done = make(chan struct{})
		t.done = done
	}
	t.mu.Unlock()

	if done != nil {
		go t.loop(done)
	}
}

func (t *Timer) loop(done chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			t.TickNow()
		}
	}
}

// Pause freezes the clock. No-op unless running and not already paused.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || t.paused {
		return
	}
	t.paused = true
	t.pausedAt = t.now()
}

// Resume folds the pause gap into the running total. No-op unless paused.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || !t.paused {
		return
	}
	t.totalPaused += t.now().Sub(t.pausedAt)
	t.paused = false
	t.pausedAt = time.Time{}
}

// Stop ends the run, commits a session when at least one whole minute
// elapsed, and resets to idle no matter what. The minute count is returned
// even when the commit errored; the error tells the caller the aggregates
// were not written.
func (t *Timer) Stop() (int, error) {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return 0, nil
	}

	now := t.now()
	elapsed := t.elapsedLocked(now)
	minutes := int(elapsed / time.Minute)

	sess := &store.StudySession{
		StartTime:       t.startTime.UnixMilli(),
		EndTime:         now.UnixMilli(),
		DurationMinutes: minutes,
		TopicID:         t.topicID,
		Date:            store.DayString(t.startTime),
	}
	if t.pomodoro {
		sess.IsPomodoroSession = true
		sess.PomodoroWorkMinutes = t.cfg.WorkMinutes
		sess.PomodoroBreakMinutes = t.cfg.BreakMinutes
	}

	if t.done != nil {
		close(t.done)
		t.done = nil
	}
	t.running = false
	t.paused = false
	t.pomodoro = false
	t.topicID = nil
	t.startTime = time.Time{}
	t.pausedAt = time.Time{}
	t.totalPaused = 0
	t.phase = PhaseWork
	t.completedCycles = 0

	subs := make([]func(int), 0, len(t.stopSubs))
	for _, fn := range t.stopSubs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	var err error
	if minutes > 0 {
		_, err = t.store.CommitSession(sess)
	}
	for _, fn := range subs {
		fn(minutes)
	}
	return minutes, err
}

// SkipPhase forces the current Pomodoro phase to complete immediately.
// No-op in stopwatch mode or when idle.
func (t *Timer) SkipPhase() {
	t.mu.Lock()
	if !t.running || !t.pomodoro {
		t.mu.Unlock()
		return
	}
	prev, next, subs := t.advancePhaseLocked()
	t.mu.Unlock()

	for _, fn := range subs {
		fn(prev, next)
	}
}

// TickNow recomputes elapsed and remaining time, advances the Pomodoro
// phase when its time is up, and notifies tick subscribers. The internal
// ticker calls this every 100ms; tests may call it directly.
func (t *Timer) TickNow() {
	t.mu.Lock()
	if !t.running || t.paused {
		t.mu.Unlock()
		return
	}

	now := t.now()
	tick := Tick{ElapsedMs: t.elapsedLocked(now).Milliseconds()}

	var prev, next Phase
	var phaseSubs []func(prev, next Phase)
	if t.pomodoro {
		tick.Pomodoro = true
		tick.Phase = t.phase
		phaseElapsed := now.Sub(t.phaseStart) - t.totalPaused
		remaining := t.phaseDuration(t.phase) - phaseElapsed
		if remaining < 0 {
			remaining = 0
		}
		tick.RemainingMs = remaining.Milliseconds()
		if remaining == 0 {
			prev, next, phaseSubs = t.advancePhaseLocked()
		}
	}

	tickSubs := make([]func(Tick), 0, len(t.tickSubs))
	for _, fn := range t.tickSubs {
		tickSubs = append(tickSubs, fn)
	}
	t.mu.Unlock()

	for _, fn := range tickSubs {
		fn(tick)
	}
	for _, fn := range phaseSubs {
		fn(prev, next)
	}
}

// advancePhaseLocked applies the cycle rule and returns the transition
// plus the subscribers to notify once the lock is released. Cycle rule:
// work goes to break, or to long_break (resetting the counter) once
// enough work phases completed; any break goes back to work. The counter
// moves only on the work-completion edge.
func (t *Timer) advancePhaseLocked() (prev, next Phase, subs []func(prev, next Phase)) {
	prev = t.phase
	if t.phase == PhaseWork {
		t.completedCycles++
		if t.completedCycles >= t.cfg.SessionsBeforeLongBreak {
			t.phase = PhaseLongBreak
			t.completedCycles = 0
		} else {
			t.phase = PhaseBreak
		}
	} else {
		t.phase = PhaseWork
	}
	t.phaseStart = t.now()
	next = t.phase

	subs = make([]func(prev, next Phase), 0, len(t.phaseSubs))
	for _, fn := range t.phaseSubs {
		subs = append(subs, fn)
	}
	return prev, next, subs
}

func (t *Timer) phaseDuration(p Phase) time.Duration {
	switch p {
	case PhaseBreak:
		return time.Duration(t.cfg.BreakMinutes) * time.Minute
	case PhaseLongBreak:
		return time.Duration(t.cfg.LongBreakMinutes) * time.Minute
	default:
		return time.Duration(t.cfg.WorkMinutes) * time.Minute
	}
}

// Elapsed returns the time measured so far, pause gaps excluded.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0
	}
	return t.elapsedLocked(t.now())
}

func (t *Timer) elapsedLocked(now time.Time) time.Duration {
	elapsed := now.Sub(t.startTime) - t.totalPaused
	if t.paused {
		elapsed -= now.Sub(t.pausedAt)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}

// State returns a consistent snapshot of the timer.
func (t *Timer) State() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := Snapshot{
		Running:         t.running,
		Paused:          t.paused,
		Pomodoro:        t.pomodoro,
		Phase:           t.phase,
		TopicID:         t.topicID,
		CompletedCycles: t.completedCycles,
	}
	if t.running {
		snap.ElapsedMs = t.elapsedLocked(t.now()).Milliseconds()
	}
	return snap
}

// Remaining returns the time left in the current Pomodoro phase, or 0 in
// stopwatch mode.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || !t.pomodoro {
		return 0
	}
	now := t.now()
	phaseElapsed := now.Sub(t.phaseStart) - t.totalPaused
	if t.paused {
		phaseElapsed -= now.Sub(t.pausedAt)
	}
	remaining := t.phaseDuration(t.phase) - phaseElapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
