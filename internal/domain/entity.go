// Package domain contains core entities and interfaces.
// This is the innermost layer - no external dependencies.
package domain

import "time"

// Point is a screen coordinate in global display space.
type Point struct {
	X float64
	Y float64
}

// Rect is a screen rectangle in global display space.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Contains reports whether p lies inside r, inflated by margin on all sides.
// Edges are inclusive.
func (r Rect) Contains(p Point, margin float64) bool {
	return p.X >= r.X-margin && p.X <= r.X+r.Width+margin &&
		p.Y >= r.Y-margin && p.Y <= r.Y+r.Height+margin
}

// EventKind identifies a pointer event type.
type EventKind int

const (
	EventMouseMoved EventKind = iota
	EventLeftDown
	EventLeftUp
	EventRightDown
	EventRightUp
)

func (k EventKind) String() string {
	switch k {
	case EventMouseMoved:
		return "moved"
	case EventLeftDown:
		return "left_down"
	case EventLeftUp:
		return "left_up"
	case EventRightDown:
		return "right_down"
	case EventRightUp:
		return "right_up"
	default:
		return "unknown"
	}
}

// PointerEvent is one captured global pointer event. The tap callback fills
// it in and hands off immediately; everything else happens on the run loop.
type PointerEvent struct {
	Kind       EventKind
	Location   Point
	ClickCount int
	At         time.Time
}

// Element is an opaque handle to an OS UI-introspection element. Concrete
// values are owned by the Introspector implementation; they are only valid
// while the owning application is alive.
type Element interface{}

// WindowDescriptor describes one window of an application.
// IsPlaceholder marks a synthetic entry standing in for "the application
// itself" when no real windows are enumerable.
type WindowDescriptor struct {
	Element       Element
	Title         string
	IsPlaceholder bool
	WindowID      uint32 // low-level window id, 0 when unknown
	Frame         *Rect  // cached position/size, nil when never read
}

// WindowRecord is a snapshot of one window taken before hiding.
// StackRank is the inverse of the window's front-to-back position at
// snapshot time; larger means more front.
type WindowRecord struct {
	Window     WindowDescriptor
	WasVisible bool
	StackRank  int
}

// AppSnapshot is the per-process hide/restore cache entry. At most one live
// entry exists per PID; it is created by a snapshot-and-hide and destroyed
// by the matching restore or by app termination.
type AppSnapshot struct {
	PID     int
	Records []WindowRecord // sorted by StackRank ascending (back to front)
	TakenAt time.Time
}

// AppInfo identifies a running application from the process registry.
type AppInfo struct {
	PID        int
	BundleID   string
	Name       string
	BundlePath string
	Active     bool
	Hidden     bool
}

// DockIconHit is a resolved dock icon: the owning application, the icon's
// anchor point (top-center, used for chooser placement) and the icon's
// source URL. Ephemeral; recomputed on every hit-test.
type DockIconHit struct {
	App       AppInfo
	Anchor    Point
	IconFrame Rect
	SourceURL string
}

// WindowAction is what the chooser UI asks the controller to do with a
// selected window.
type WindowAction int

const (
	WindowActionRaise WindowAction = iota
	WindowActionHide
)

// ChooserSession is the state of one open window chooser. At most one
// session exists at any instant; it is owned by the selection controller.
type ChooserSession struct {
	App               AppInfo
	Windows           []WindowDescriptor
	Anchor            Point
	CreatedAt         time.Time
	LastInteractionAt time.Time
}

// MemoryTier is the severity bucket of a health sample.
type MemoryTier int

const (
	TierNominal MemoryTier = iota
	TierElevated
	TierCritical
	TierRestart
)

func (t MemoryTier) String() string {
	switch t {
	case TierNominal:
		return "nominal"
	case TierElevated:
		return "elevated"
	case TierCritical:
		return "critical"
	case TierRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// HealthSample is one memory-watchdog measurement. Produced each tick and
// discarded.
type HealthSample struct {
	ResidentMB   float64
	VirtualGB    float64
	CompressedMB float64 // 0 when the platform does not report it
}

// Tier classifies the sample against ascending resident-memory thresholds.
func (s HealthSample) Tier(elevatedMB, criticalMB, restartMB float64) MemoryTier {
	switch {
	case s.ResidentMB >= restartMB:
		return TierRestart
	case s.ResidentMB >= criticalMB:
		return TierCritical
	case s.ResidentMB >= elevatedMB:
		return TierElevated
	default:
		return TierNominal
	}
}

// RegistryEntry stores daemon liveness state for the status command.
// Persisted to a hidden file for cross-process discovery.
type RegistryEntry struct {
	Version       int    `json:"version"`
	PID           int    `json:"pid"`
	StartedAt     int64  `json:"started_at"`
	LastHeartbeat int64  `json:"last_heartbeat"`
	AppVersion    string `json:"app_version,omitempty"`
}
