// Package sched implements the serialized execution context that owns all
// mutable controller state. Tasks run one at a time on a single goroutine;
// delayed tasks return cancellation tokens so a newer event can supersede a
// pending one before it fires.
package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// queueSize bounds the task backlog. Pointer-move events arrive at display
// refresh rate; the buffer absorbs bursts without blocking the tap callback.
const queueSize = 256

// Loop is a single-goroutine serialized execution context.
type Loop struct {
	tasks   chan func()
	stop    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup

	dropped atomic.Int64
}

// New creates a loop. Call Start before posting tasks.
func New() *Loop {
	return &Loop{
		tasks: make(chan func(), queueSize),
		stop:  make(chan struct{}),
	}
}

// Start begins executing posted tasks.
func (l *Loop) Start() {
	l.wg.Add(1)
	go l.run()
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.stop:
			return
		}
	}
}

// Stop halts the loop. Pending tasks are discarded; Stop is idempotent and
// waits for the in-flight task to finish.
func (l *Loop) Stop() {
	l.stopped.Do(func() { close(l.stop) })
	l.wg.Wait()
}

// Do posts fn for serialized execution. Non-blocking: if the queue is full
// the task is dropped and counted, which only ever sheds stale pointer-move
// work.
func (l *Loop) Do(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.stop:
	default:
		l.dropped.Add(1)
	}
}

// Dropped returns how many tasks were shed due to backlog.
func (l *Loop) Dropped() int64 {
	return l.dropped.Load()
}

// Token cancels a scheduled task. A nil token is a valid no-op, so callers
// can unconditionally cancel whatever they hold before rescheduling.
type Token struct {
	canceled atomic.Bool
	timer    *time.Timer
	stop     chan struct{}
	once     sync.Once
}

// Cancel prevents the task from running if it has not started yet.
func (t *Token) Cancel() {
	if t == nil {
		return
	}
	t.canceled.Store(true)
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.stop != nil {
		t.once.Do(func() { close(t.stop) })
	}
}

// Canceled reports whether Cancel was called.
func (t *Token) Canceled() bool {
	return t != nil && t.canceled.Load()
}

// After schedules fn to run on the loop after d. The returned token cancels
// it; a task that still fires must re-validate its target state itself.
func (l *Loop) After(d time.Duration, fn func()) *Token {
	t := &Token{}
	t.timer = time.AfterFunc(d, func() {
		l.Do(func() {
			if t.canceled.Load() {
				return
			}
			fn()
		})
	})
	return t
}

// Every schedules fn to run on the loop every interval until the token is
// canceled or the loop stops.
func (l *Loop) Every(interval time.Duration, fn func()) *Token {
	t := &Token{stop: make(chan struct{})}
	ticker := time.NewTicker(interval)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Do(func() {
					if t.canceled.Load() {
						return
					}
					fn()
				})
			case <-t.stop:
				return
			case <-l.stop:
				return
			}
		}
	}()
	return t
}
