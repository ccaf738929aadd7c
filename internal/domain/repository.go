package domain

// AttrStatus tags the outcome of an introspection query. Every query is
// fallible; callers branch on the status instead of handling errors.
type AttrStatus int

const (
	// AttrOK means the value was read successfully.
	AttrOK AttrStatus = iota
	// AttrAbsent means the element is alive but does not carry the attribute.
	AttrAbsent
	// ElementInvalid means the element handle no longer refers to anything
	// (window closed, app terminated).
	ElementInvalid
)

// Well-known introspection attribute and action names. The darwin adapter
// maps these onto the corresponding AX constants.
const (
	AttrTitle     = "title"
	AttrRole      = "role"
	AttrSubrole   = "subrole"
	AttrPosition  = "position"
	AttrSize      = "size"
	AttrURL       = "url"
	AttrMinimized = "minimized"
	AttrHidden    = "hidden"
	AttrMain      = "main"
	AttrFocused   = "focused"
	ActionRaise   = "raise"
	ActionPress   = "press"
)

// Introspector is the typed capability adapter over the OS UI-introspection
// layer. Implementations never panic; a failed query is reported through the
// returned AttrStatus.
type Introspector interface {
	// ElementAtPoint resolves the UI element under a global screen point.
	ElementAtPoint(p Point) (Element, bool)

	// ElementPID returns the process id owning the element.
	ElementPID(el Element) (int, bool)

	// StringAttr reads a string attribute.
	StringAttr(el Element, attr string) (string, AttrStatus)

	// BoolAttr reads a boolean attribute.
	BoolAttr(el Element, attr string) (bool, AttrStatus)

	// PointAttr reads a position attribute.
	PointAttr(el Element, attr string) (Point, AttrStatus)

	// SizeAttr reads a size attribute; returned as a Rect with zero origin.
	SizeAttr(el Element, attr string) (Rect, AttrStatus)

	// URLAttr reads a file-URL attribute as a path string.
	URLAttr(el Element, attr string) (string, AttrStatus)

	// SetBoolAttr writes a boolean attribute (e.g. minimized, hidden).
	SetBoolAttr(el Element, attr string, value bool) AttrStatus

	// Perform issues an accessibility action on the element.
	Perform(el Element, action string) AttrStatus

	// AppWindows returns the application's window elements, front to back.
	AppWindows(pid int) ([]Element, AttrStatus)

	// WindowID returns the low-level window id for a window element, 0 if
	// unavailable.
	WindowID(el Element) uint32

	// OnScreenWindowCount counts the process's window-server windows. Used
	// to detect apps that expose only low-level, non-introspectable windows.
	OnScreenWindowCount(pid int) int

	// ScreenFrame returns the main display's bounds in global coordinates.
	ScreenFrame() Rect

	// Trusted reports whether the process is authorized for introspection.
	// With prompt true, the one-time OS permission dialog is raised.
	Trusted(prompt bool) bool
}

// ProcessRegistry abstracts the OS application registry.
type ProcessRegistry interface {
	// RunningApplications lists all running user applications.
	RunningApplications() ([]AppInfo, error)

	// ApplicationForBundleID resolves an exact bundle identifier.
	ApplicationForBundleID(bundleID string) (AppInfo, bool)

	// ApplicationForPID resolves a process id.
	ApplicationForPID(pid int) (AppInfo, bool)

	// FrontmostApplication returns the currently active application.
	FrontmostApplication() (AppInfo, bool)

	// Activate brings the application to the front.
	Activate(pid int) error

	// Hide hides the whole application.
	Hide(pid int) error

	// Unhide reverses a whole-application hide.
	Unhide(pid int) error

	// Launch opens the application at the given bundle path.
	Launch(bundlePath string) error

	// DockPID returns the launcher shell's process id, 0 when not running.
	DockPID() int

	// WatchTerminations registers a callback invoked with the PID of every
	// application that terminates. Used to drop stale snapshot entries.
	WatchTerminations(fn func(pid int))
}

// EventTap is the raw global pointer-event stream. The handler runs on the
// OS callback thread and must return in microseconds; implementations
// deliver only the narrow event set the controller consumes.
type EventTap interface {
	// Start installs the tap and begins delivering events to handler.
	Start(handler func(PointerEvent)) error

	// Stop tears the tap down and releases its resources.
	Stop()

	// Enabled reports whether the OS still has the tap enabled; the OS may
	// disable it on timeout or user-input override.
	Enabled() bool
}

// ChooserUI is the window-chooser popup, consumed as an external
// collaborator. The controller owns the UI; the UI never holds a reference
// back into the controller (callbacks only).
type ChooserUI interface {
	// Present shows the chooser for a new session.
	Present(session ChooserSession)

	// Update replaces the window list and anchor of the open chooser in
	// place, without recreating it.
	Update(windows []WindowDescriptor, anchor Point)

	// Reposition moves the open chooser to a new anchor.
	Reposition(anchor Point)

	// Dismiss closes the chooser and fully releases its resources.
	Dismiss()

	// ContainsPoint reports whether p lies within the chooser's on-screen
	// rect inflated by margin. Stateless; safe to call when closed (false).
	ContainsPoint(p Point, margin float64) bool

	// OnWindowSelected registers the window-row click callback.
	OnWindowSelected(fn func(desc WindowDescriptor, action WindowAction))

	// OnDismissedByUser registers the user-dismissal callback.
	OnDismissedByUser(fn func())
}

// MemorySampler measures the current process's memory footprint.
type MemorySampler interface {
	// Sample returns a point-in-time health sample.
	Sample() (HealthSample, error)
}

// Relauncher restarts the process by re-executing the current binary.
type Relauncher interface {
	// Relaunch spawns a detached replacement process with extra arguments
	// appended (e.g. flags suppressing the next update check).
	Relaunch(extraArgs ...string) error
}

// DaemonRegistry provides daemon discovery and heartbeat for the status
// command. Implementation: hidden JSON file in /var/tmp.
type DaemonRegistry interface {
	// Register saves the current daemon's PID and start time.
	Register(pid int, version string) error

	// UpdateHeartbeat updates the liveness timestamp.
	UpdateHeartbeat() error

	// Get returns the full registry state, nil when absent.
	Get() (*RegistryEntry, error)

	// Clear removes the registry file.
	Clear() error
}
