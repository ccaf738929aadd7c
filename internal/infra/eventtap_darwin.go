//go:build darwin

package infra

/*
// Definitions live in eventtap_impl_darwin.go; this file carries the
// exported Go callback, so its preamble holds declarations only.
extern int tap_install(void);
extern void tap_run(void);
extern void tap_shutdown(void);
extern int tap_is_enabled(void);
*/
import "C"

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
)

// The OS delivers tap callbacks through one process-global C callback, so
// a single tap instance owns the stream.
var (
	tapMu      sync.Mutex
	tapHandler func(domain.PointerEvent)
)

//export goTapEvent
func goTapEvent(kind C.int, x, y C.double, clickCount C.long) {
	tapMu.Lock()
	h := tapHandler
	tapMu.Unlock()
	if h == nil {
		return
	}
	h(domain.PointerEvent{
		Kind:       domain.EventKind(kind),
		Location:   domain.Point{X: float64(x), Y: float64(y)},
		ClickCount: int(clickCount),
		At:         time.Now(),
	})
}

// CGEventTap implements domain.EventTap over a listen-only Quartz event
// tap. The tap's run loop runs on a dedicated locked OS thread.
type CGEventTap struct {
	mu      sync.Mutex
	running bool
}

// NewCGEventTap creates the global pointer-event tap.
func NewCGEventTap() *CGEventTap {
	return &CGEventTap{}
}

func (t *CGEventTap) Start(handler func(domain.PointerEvent)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return errors.New("event tap already running")
	}

	tapMu.Lock()
	tapHandler = handler
	tapMu.Unlock()

	installed := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if C.tap_install() != 0 {
			installed <- errors.New("event tap creation failed; input monitoring permission missing")
			return
		}
		installed <- nil
		C.tap_run()
	}()

	if err := <-installed; err != nil {
		tapMu.Lock()
		tapHandler = nil
		tapMu.Unlock()
		return err
	}
	t.running = true
	return nil
}

func (t *CGEventTap) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	C.tap_shutdown()
	t.running = false

	tapMu.Lock()
	tapHandler = nil
	tapMu.Unlock()
}

func (t *CGEventTap) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return false
	}
	return C.tap_is_enabled() != 0
}

var _ domain.EventTap = (*CGEventTap)(nil)
