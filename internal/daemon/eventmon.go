// Package daemon wires the event monitor, health watchdogs, and process
// lifecycle around the selection controller.
package daemon

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
	"github.com/LimTec-de/dockapptoggler/internal/sched"
)

// EventMonitorConfig holds input-monitor configuration.
type EventMonitorConfig struct {
	// LivenessWindow is the longest tolerated silence on the event stream
	// before the tap is presumed dead.
	LivenessWindow time.Duration

	// RestartSettle is the pause between tearing the tap down and
	// recreating it.
	RestartSettle time.Duration
}

// DefaultEventMonitorConfig returns default event monitor configuration.
func DefaultEventMonitorConfig() EventMonitorConfig {
	return EventMonitorConfig{
		LivenessWindow: 5 * time.Second,
		RestartSettle:  250 * time.Millisecond,
	}
}

// EventMonitor owns the global event tap. The raw callback only timestamps
// and forwards; recovery (tap disabled by the OS, or prolonged silence)
// tears the tap down, resets all transient interaction state, and recreates
// it after a settle delay - at most once per breach.
type EventMonitor struct {
	config   EventMonitorConfig
	tap      domain.EventTap
	loop     *sched.Loop
	dispatch func(domain.PointerEvent)
	onReset  func()
	logger   *zap.Logger

	lastEvent atomic.Int64 // unix nanos of the newest observed event

	// loop-confined
	running       bool
	reinitPending bool
	reinitCount   int
}

// NewEventMonitor creates an event monitor. dispatch receives every
// captured event; onReset is invoked before the tap is recreated.
func NewEventMonitor(
	config EventMonitorConfig,
	tap domain.EventTap,
	loop *sched.Loop,
	dispatch func(domain.PointerEvent),
	onReset func(),
	logger *zap.Logger,
) *EventMonitor {
	return &EventMonitor{
		config:   config,
		tap:      tap,
		loop:     loop,
		dispatch: dispatch,
		onReset:  onReset,
		logger:   logger,
	}
}

// Start installs the tap. Loop context only.
func (m *EventMonitor) Start() error {
	if m.running {
		return nil
	}
	if err := m.tap.Start(m.handleRaw); err != nil {
		return err
	}
	m.running = true
	m.lastEvent.Store(time.Now().UnixNano())
	m.logger.Info("input event monitor started")
	return nil
}

// Stop tears the tap down. Loop context only.
func (m *EventMonitor) Stop() {
	if !m.running {
		return
	}
	m.tap.Stop()
	m.running = false
	m.logger.Info("input event monitor stopped")
}

// Running reports whether the tap is installed. Loop context only.
func (m *EventMonitor) Running() bool {
	return m.running
}

// ReinitCount returns how many recoveries have run. Loop context only.
func (m *EventMonitor) ReinitCount() int {
	return m.reinitCount
}

// handleRaw runs on the OS callback thread and must return in
// microseconds: it records the event time and enqueues, nothing else.
func (m *EventMonitor) handleRaw(ev domain.PointerEvent) {
	m.lastEvent.Store(ev.At.UnixNano())
	m.dispatch(ev)
}

// SinceLastEvent returns the silence duration on the event stream.
func (m *EventMonitor) SinceLastEvent() time.Duration {
	last := m.lastEvent.Load()
	if last == 0 {
		return 0
	}
	return time.Since(time.Unix(0, last))
}

// CheckLiveness is the heartbeat hook: it reinitializes the monitor when
// the OS disabled the tap or the stream has been silent past the liveness
// window. While a reinit is in flight further breaches are ignored, so a
// breach triggers exactly one recovery. A monitor left down by a failed
// recreation is retried on every heartbeat until the tap comes back.
// Loop context only.
func (m *EventMonitor) CheckLiveness() {
	if m.reinitPending {
		return
	}
	if !m.running {
		if err := m.Start(); err != nil {
			m.logger.Error("event tap restart failed", zap.Error(err))
		}
		return
	}
	if m.tap.Enabled() && m.SinceLastEvent() <= m.config.LivenessWindow {
		return
	}
	m.Reinit()
}

// Reinit tears the tap down, resets transient interaction state, and
// recreates the tap after the settle delay. Loop context only.
func (m *EventMonitor) Reinit() {
	if m.reinitPending {
		return
	}
	m.logger.Warn("reinitializing input event monitor",
		zap.Duration("silence", m.SinceLastEvent()),
		zap.Bool("tap_enabled", m.tap.Enabled()))

	m.reinitPending = true
	m.reinitCount++
	if m.running {
		m.tap.Stop()
		m.running = false
	}
	if m.onReset != nil {
		m.onReset()
	}

	m.loop.After(m.config.RestartSettle, func() {
		m.reinitPending = false
		if err := m.Start(); err != nil {
			m.logger.Error("event tap recreation failed", zap.Error(err))
			return
		}
		// A fresh liveness window starts now; the same breach can not
		// trigger a second recovery.
		m.lastEvent.Store(time.Now().UnixNano())
	})
}
