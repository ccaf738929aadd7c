package daemon

import (
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
	"github.com/LimTec-de/dockapptoggler/internal/sched"
)

// HealthConfig holds watchdog configuration.
type HealthConfig struct {
	HeartbeatInterval    time.Duration // event-stream liveness check cadence
	SessionCheckInterval time.Duration // chooser-session watchdog cadence
	SessionIdleTimeout   time.Duration // force-close an untouched session after this
	MemoryCheckInterval  time.Duration // memory watchdog cadence

	// Ascending resident-memory thresholds in MB.
	ElevatedMB float64
	CriticalMB float64
	RestartMB  float64
}

// DefaultHealthConfig returns default watchdog configuration.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		HeartbeatInterval:    1 * time.Second,
		SessionCheckInterval: 5 * time.Second,
		SessionIdleTimeout:   30 * time.Second,
		MemoryCheckInterval:  15 * time.Second,
		ElevatedMB:           250,
		CriticalMB:           400,
		RestartMB:            600,
	}
}

// SessionHandle is the controller surface the watchdogs act on.
type SessionHandle interface {
	// SessionIdleSince reports the open session's last interaction time,
	// false when no session is open.
	SessionIdleSince() (time.Time, bool)

	// ForceCloseSession closes the chooser and releases its resources.
	ForceCloseSession()

	// DropCaches clears TTL caches; routine cleanup.
	DropCaches()
}

// HealthMonitor runs the three watchdogs on the controller loop: the
// heartbeat that keeps the input monitor alive, the session watchdog that
// reaps abandoned choosers, and the tiered memory watchdog whose last
// resort is a process restart.
type HealthMonitor struct {
	config  HealthConfig
	loop    *sched.Loop
	events  *EventMonitor
	session SessionHandle
	sampler domain.MemorySampler
	logger  *zap.Logger

	// onRestart is invoked when the restart tier is crossed; the runner
	// performs the actual re-exec.
	onRestart func()

	// loop-confined
	lastTier domain.MemoryTier
	tokens   []*sched.Token
	now      func() time.Time
}

// NewHealthMonitor creates the watchdog set.
func NewHealthMonitor(
	config HealthConfig,
	loop *sched.Loop,
	events *EventMonitor,
	session SessionHandle,
	sampler domain.MemorySampler,
	onRestart func(),
	logger *zap.Logger,
) *HealthMonitor {
	return &HealthMonitor{
		config:    config,
		loop:      loop,
		events:    events,
		session:   session,
		sampler:   sampler,
		onRestart: onRestart,
		logger:    logger,
		lastTier:  domain.TierNominal,
		now:       time.Now,
	}
}

// Start schedules the watchdog ticks.
func (h *HealthMonitor) Start() {
	h.tokens = []*sched.Token{
		h.loop.Every(h.config.HeartbeatInterval, h.heartbeatTick),
		h.loop.Every(h.config.SessionCheckInterval, h.sessionTick),
		h.loop.Every(h.config.MemoryCheckInterval, h.memoryTick),
	}
	h.logger.Info("health monitor started",
		zap.Duration("heartbeat", h.config.HeartbeatInterval),
		zap.Duration("session_check", h.config.SessionCheckInterval),
		zap.Duration("memory_check", h.config.MemoryCheckInterval))
}

// Stop cancels the watchdog ticks.
func (h *HealthMonitor) Stop() {
	for _, t := range h.tokens {
		t.Cancel()
	}
	h.tokens = nil
}

func (h *HealthMonitor) heartbeatTick() {
	h.events.CheckLiveness()
}

func (h *HealthMonitor) sessionTick() {
	idleSince, ok := h.session.SessionIdleSince()
	if !ok {
		return
	}
	idle := h.now().Sub(idleSince)
	if idle <= h.config.SessionIdleTimeout {
		return
	}
	h.logger.Info("closing abandoned chooser session", zap.Duration("idle", idle))
	h.session.ForceCloseSession()
}

func (h *HealthMonitor) memoryTick() {
	sample, err := h.sampler.Sample()
	if err != nil {
		h.logger.Warn("memory sample failed", zap.Error(err))
		return
	}
	tier := sample.Tier(h.config.ElevatedMB, h.config.CriticalMB, h.config.RestartMB)

	if tier < h.lastTier {
		// Pressure receded; re-arm the higher tiers.
		h.lastTier = tier
		return
	}
	if tier == h.lastTier {
		return
	}
	// Fire each newly crossed tier exactly once, in order.
	for t := h.lastTier + 1; t <= tier; t++ {
		h.escalate(t, sample)
	}
	h.lastTier = tier
}

func (h *HealthMonitor) escalate(tier domain.MemoryTier, sample domain.HealthSample) {
	h.logger.Warn("memory threshold crossed",
		zap.String("tier", tier.String()),
		zap.Float64("resident_mb", sample.ResidentMB),
		zap.Float64("virtual_gb", sample.VirtualGB))

	switch tier {
	case domain.TierElevated:
		h.session.DropCaches()

	case domain.TierCritical:
		h.session.DropCaches()
		h.session.ForceCloseSession()
		debug.FreeOSMemory()

	case domain.TierRestart:
		if h.onRestart != nil {
			h.onRestart()
		}
	}
}
