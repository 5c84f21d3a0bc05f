package widget

import (
	"sync"
	"time"
)

// Scheduler runs delayed tasks that die with their owner. After Stop no
// pending task runs and new tasks are ignored.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[uint64]*time.Timer
	next    uint64
	stopped bool
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[uint64]*time.Timer)}
}

// Task is a handle to one scheduled function.
type Task struct {
	s  *Scheduler
	id uint64
}

// After runs fn on its own goroutine once d has elapsed.
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return &Task{s: s}
	}

	s.next++
	id := s.next
	s.tasks[id] = time.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.tasks[id]
		delete(s.tasks, id)
		s.mu.Unlock()

		if live {
			fn()
		}
	})
	return &Task{s: s, id: id}
}

// Cancel prevents the task from running. It reports whether it was pending.
func (t *Task) Cancel() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	timer, ok := t.s.tasks[t.id]
	if !ok {
		return false
	}
	delete(t.s.tasks, t.id)
	timer.Stop()
	return true
}

// Pending returns the number of tasks not yet run.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels every pending task.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, timer := range s.tasks {
		timer.Stop()
		delete(s.tasks, id)
	}
}
