package progress

import (
	"sync"

	"backend-trailforge/internal/route"
)

// Status of one in-flight upload as reported to subscribers.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Update is a full snapshot of an upload's progress, re-sent on every
// change rather than as a diff, so late subscribers catch up from the
// latest one alone.
type Update struct {
	Status      Status                `json:"status"`
	Progress    int                   `json:"progress"`
	CurrentTask string                `json:"currentTask"`
	Errors      []string              `json:"errors,omitempty"`
	Result      *route.ProcessedRoute `json:"result,omitempty"`
}

// Terminal reports whether no further updates can follow this one.
func (u Update) Terminal() bool {
	return u.Status == StatusComplete || u.Status == StatusError
}

// Partial carries the fields an Update merge should touch; nil fields
// keep their current value.
type Partial struct {
	Status      *Status
	Progress    *int
	CurrentTask *string
	Errors      []string
	Result      *route.ProcessedRoute
}

// Subscriber receives snapshots on C from the moment of subscription
// until Unsubscribe or a terminal update, whichever comes first. C is
// closed at terminal, so ranging over it ends cleanly.
type Subscriber struct {
	C chan Update
	t *Tracker
}

func (s *Subscriber) Unsubscribe() {
	s.t.unsubscribe(s)
}

// Tracker is the observable state machine for one upload. It holds the
// latest snapshot and fans updates out to any number of subscribers.
// Delivery is non-blocking: a slow subscriber drops frames rather than
// stalling the pipeline.
type Tracker struct {
	mu       sync.RWMutex
	current  Update
	subs     map[*Subscriber]struct{}
	terminal bool
}

func NewTracker() *Tracker {
	return &Tracker{
		current: Update{
			Status:      StatusProcessing,
			Progress:    0,
			CurrentTask: "Starting GPX processing",
		},
		subs: map[*Subscriber]struct{}{},
	}
}

// Snapshot returns the latest merged update.
func (t *Tracker) Snapshot() Update {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Terminal reports whether the tracker reached complete or error.
func (t *Tracker) Terminal() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.terminal
}

// Subscribe registers a new listener. Subscribing to an already
// terminal tracker returns a closed channel; callers read the sticky
// snapshot via Snapshot instead.
func (t *Tracker) Subscribe() *Subscriber {
	s := &Subscriber{C: make(chan Update, 16), t: t}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.terminal {
		close(s.C)
		return s
	}
	t.subs[s] = struct{}{}
	return s
}

func (t *Tracker) unsubscribe(s *Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subs[s]; ok {
		delete(t.subs, s)
		close(s.C)
	}
}

// Update merges the partial into the current snapshot and notifies all
// subscribers with the merged result. Terminal states are sticky:
// updates after complete or error are ignored. Progress never moves
// backwards before a terminal state; a lower value is clamped to the
// current one.
func (t *Tracker) Update(p Partial) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.terminal {
		return
	}

	if p.Status != nil {
		t.current.Status = *p.Status
	}
	if p.Progress != nil && *p.Progress > t.current.Progress {
		t.current.Progress = *p.Progress
	}
	if p.CurrentTask != nil {
		t.current.CurrentTask = *p.CurrentTask
	}
	if len(p.Errors) > 0 {
		t.current.Errors = append(t.current.Errors, p.Errors...)
	}
	if p.Result != nil {
		t.current.Result = p.Result
	}

	snapshot := t.current
	for s := range t.subs {
		select {
		case s.C <- snapshot:
		default:
		}
	}

	if snapshot.Terminal() {
		t.terminal = true
		for s := range t.subs {
			close(s.C)
		}
		t.subs = map[*Subscriber]struct{}{}
	}
}

// Helpers for building partials at call sites.

func StatusOf(s Status) *Status { return &s }
func ProgressOf(p int) *int     { return &p }
func TaskOf(task string) *string {
	return &task
}
