package usecase

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
	"github.com/LimTec-de/dockapptoggler/internal/sched"
)

// ControllerState is the selection controller's interaction phase.
type ControllerState int

const (
	StateIdle ControllerState = iota
	StateHovering
	StateChooserOpen
	StateClickPending
	StateContextMenuSuppressed
)

func (s ControllerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHovering:
		return "hovering"
	case StateChooserOpen:
		return "chooser_open"
	case StateClickPending:
		return "click_pending"
	case StateContextMenuSuppressed:
		return "context_menu_suppressed"
	default:
		return "unknown"
	}
}

// ControllerConfig holds selection controller tunables.
type ControllerConfig struct {
	// HoverDebounce is how long the pointer must dwell on an icon before
	// the chooser opens or retargets.
	HoverDebounce time.Duration

	// LeaveDebounce is how long the pointer must stay outside the icon
	// band and the chooser before the chooser closes.
	LeaveDebounce time.Duration

	// DismissalMargin inflates the chooser rect for the leave check,
	// giving hysteresis across the visual gap between icon and popup.
	DismissalMargin float64

	// MinClickInterval debounces primary clicks.
	MinClickInterval time.Duration

	// MenuSettleDelay is the pause after the native context menu closes
	// before hover handling resumes.
	MenuSettleDelay time.Duration

	// MenuSuppressTimeout is the self-heal bound on suppression in case
	// the menu-close signal never arrives.
	MenuSuppressTimeout time.Duration

	// WindowListTTL bounds how long a per-app window list is served from
	// cache while dwelling on one icon.
	WindowListTTL time.Duration

	// WindowListCacheSize caps the number of cached per-app lists.
	WindowListCacheSize int
}

// DefaultControllerConfig returns default controller configuration.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		HoverDebounce:       60 * time.Millisecond,
		LeaveDebounce:       120 * time.Millisecond,
		DismissalMargin:     24,
		MinClickInterval:    150 * time.Millisecond,
		MenuSettleDelay:     300 * time.Millisecond,
		MenuSuppressTimeout: 5 * time.Second,
		WindowListTTL:       2 * time.Second,
		WindowListCacheSize: 32,
	}
}

// Controller turns the raw pointer-event stream into chooser lifecycle and
// click-resolution decisions. It owns the single ChooserSession and all
// debounce timers; every method body runs on the controller loop.
type Controller struct {
	config   ControllerConfig
	loop     *sched.Loop
	hit      *HitTester
	windows  *WindowService
	ui       domain.ChooserUI
	registry domain.ProcessRegistry
	logger   *zap.Logger

	state       ControllerState
	hoverApp    domain.AppInfo
	session     *domain.ChooserSession
	clickHit    *domain.DockIconHit
	lastClickAt time.Time
	lastPointer domain.Point

	// lastHighlighted remembers, per PID, the window the user last picked
	// in the chooser; restores raise it frontmost.
	lastHighlighted map[int]uint32

	hoverToken *sched.Token
	leaveToken *sched.Token
	menuToken  *sched.Token

	winlist *expirable.LRU[int, []domain.WindowDescriptor]
	now     func() time.Time
}

// NewController creates the selection controller and registers itself for
// the chooser UI's callbacks.
func NewController(
	config ControllerConfig,
	loop *sched.Loop,
	hit *HitTester,
	windows *WindowService,
	ui domain.ChooserUI,
	registry domain.ProcessRegistry,
	logger *zap.Logger,
) *Controller {
	c := &Controller{
		config:          config,
		loop:            loop,
		hit:             hit,
		windows:         windows,
		ui:              ui,
		registry:        registry,
		logger:          logger,
		state:           StateIdle,
		lastHighlighted: make(map[int]uint32),
		winlist: expirable.NewLRU[int, []domain.WindowDescriptor](
			config.WindowListCacheSize, nil, config.WindowListTTL),
		now: time.Now,
	}
	ui.OnWindowSelected(func(desc domain.WindowDescriptor, action domain.WindowAction) {
		loop.Do(func() { c.onWindowSelected(desc, action) })
	})
	ui.OnDismissedByUser(func() {
		loop.Do(c.onUserDismissed)
	})
	return c
}

// Dispatch hands a raw pointer event to the controller loop. Safe to call
// from the tap callback thread; it only enqueues.
func (c *Controller) Dispatch(ev domain.PointerEvent) {
	c.loop.Do(func() { c.handle(ev) })
}

// State returns the current interaction phase (loop context only).
func (c *Controller) State() ControllerState {
	return c.state
}

// Session returns the open chooser session, nil when closed (loop context
// only).
func (c *Controller) Session() *domain.ChooserSession {
	return c.session
}

func (c *Controller) handle(ev domain.PointerEvent) {
	c.lastPointer = ev.Location
	switch ev.Kind {
	case domain.EventMouseMoved:
		c.handleMove(ev.Location)
	case domain.EventLeftDown:
		if c.state == StateContextMenuSuppressed {
			// While the native menu is up, a primary press either picks
			// an item or dismisses the menu; both close it.
			c.menuClosed()
			return
		}
		c.handleLeftDown(ev)
	case domain.EventLeftUp:
		c.handleLeftUp()
	case domain.EventRightDown:
		c.handleRightDown(ev.Location)
	case domain.EventRightUp:
		// The native menu owns the interaction until its close signal.
	}
}

func (c *Controller) handleMove(p domain.Point) {
	if c.state == StateContextMenuSuppressed || c.state == StateClickPending {
		return
	}

	hit, ok := c.hit.HitTest(p)
	if !ok {
		c.handleMoveOffIcons(p)
		return
	}

	c.leaveToken.Cancel()
	c.leaveToken = nil
	if c.session != nil {
		c.session.LastInteractionAt = c.now()
	}

	if c.state == StateChooserOpen && c.session != nil && c.session.App.PID == hit.App.PID {
		// Dwelling on the already-targeted icon.
		c.hoverApp = hit.App
		return
	}
	if c.state == StateHovering && c.hoverApp.PID == hit.App.PID {
		// Debounce timer for this icon is already pending.
		return
	}

	// New hover target supersedes whatever was pending.
	c.hoverToken.Cancel()
	c.hoverApp = hit.App
	if c.state != StateChooserOpen {
		c.state = StateHovering
	}
	target := hit
	c.hoverToken = c.loop.After(c.config.HoverDebounce, func() {
		c.hoverElapsed(target)
	})
}

func (c *Controller) handleMoveOffIcons(p domain.Point) {
	if c.session != nil {
		if c.ui.ContainsPoint(p, c.config.DismissalMargin) {
			c.session.LastInteractionAt = c.now()
			c.leaveToken.Cancel()
			c.leaveToken = nil
			return
		}
		if c.leaveToken == nil || c.leaveToken.Canceled() {
			c.leaveToken = c.loop.After(c.config.LeaveDebounce, c.leaveElapsed)
		}
		return
	}
	if c.state == StateHovering {
		c.hoverToken.Cancel()
		c.hoverToken = nil
		c.state = StateIdle
	}
}

// hoverElapsed fires after the hover debounce; the pointer may have moved
// on, so it re-validates the target before acting.
func (c *Controller) hoverElapsed(hit domain.DockIconHit) {
	if c.state != StateHovering && c.state != StateChooserOpen {
		return
	}
	if c.hoverApp.PID != hit.App.PID {
		return
	}
	c.openOrRetarget(hit, true)
}

// openOrRetarget surfaces the chooser for the hit app. When a chooser is
// already open for the same app it is updated in place, which avoids
// flicker; a chooser for another app is fully dismissed first.
func (c *Controller) openOrRetarget(hit domain.DockIconHit, fromHover bool) {
	windows := c.windowList(hit.App)
	if len(windows) == 0 {
		// A windowless target never keeps another app's chooser alive:
		// the dwell has moved on, so the old session ends here.
		if c.session != nil {
			c.closeSession()
			if fromHover {
				c.state = StateHovering
			}
		}
		return
	}
	now := c.now()

	if c.session != nil && c.session.App.PID == hit.App.PID {
		c.session.Windows = windows
		c.session.Anchor = hit.Anchor
		c.session.LastInteractionAt = now
		c.ui.Update(windows, hit.Anchor)
		if fromHover {
			c.state = StateChooserOpen
		}
		return
	}

	if c.session != nil {
		c.ui.Dismiss()
		c.session = nil
	}

	session := domain.ChooserSession{
		App:               hit.App,
		Windows:           windows,
		Anchor:            hit.Anchor,
		CreatedAt:         now,
		LastInteractionAt: now,
	}
	c.session = &session
	if fromHover {
		c.state = StateChooserOpen
	}
	c.ui.Present(session)
}

// leaveElapsed fires after the leave debounce and re-verifies the pointer
// is still outside both the icon band and the inflated chooser rect.
func (c *Controller) leaveElapsed() {
	c.leaveToken = nil
	if c.session == nil {
		return
	}
	p := c.lastPointer
	if c.hit.InBand(p) || c.ui.ContainsPoint(p, c.config.DismissalMargin) {
		return
	}
	c.closeSession()
	c.state = StateIdle
}

func (c *Controller) handleLeftDown(ev domain.PointerEvent) {
	hit, ok := c.hit.HitTest(ev.Location)
	if !ok {
		// Clicks inside the chooser belong to the UI surface.
		return
	}
	now := c.now()
	if now.Sub(c.lastClickAt) < c.config.MinClickInterval {
		return
	}
	c.lastClickAt = now

	c.hoverToken.Cancel()
	c.hoverToken = nil
	c.clickHit = &hit
	c.state = StateClickPending
	// Eagerly surface the chooser so the window list is visible during
	// the press.
	c.openOrRetarget(hit, false)
}

func (c *Controller) handleLeftUp() {
	if c.state != StateClickPending || c.clickHit == nil {
		if c.state == StateClickPending {
			c.state = StateIdle
		}
		return
	}
	hit := *c.clickHit
	c.clickHit = nil

	c.resolveAndExecute(hit)

	c.winlist.Remove(hit.App.PID)
	c.refreshChooserFor(hit.App)

	if c.session != nil {
		c.state = StateChooserOpen
	} else {
		c.state = StateIdle
	}
}

func (c *Controller) handleRightDown(p domain.Point) {
	if _, ok := c.hit.HitTest(p); !ok {
		return
	}
	// The native context menu takes precedence over the chooser.
	c.hoverToken.Cancel()
	c.hoverToken = nil
	c.leaveToken.Cancel()
	c.leaveToken = nil
	c.closeSession()
	c.state = StateContextMenuSuppressed

	c.menuToken.Cancel()
	c.menuToken = c.loop.After(c.config.MenuSuppressTimeout, func() {
		if c.state == StateContextMenuSuppressed {
			c.logger.Debug("context menu close signal never arrived, self-healing")
			c.state = StateIdle
		}
	})
}

// menuClosed runs when the native context menu's close signal arrives.
// Hover handling resumes after a short settle delay. Loop context only.
func (c *Controller) menuClosed() {
	if c.state != StateContextMenuSuppressed {
		return
	}
	c.menuToken.Cancel()
	c.menuToken = c.loop.After(c.config.MenuSettleDelay, func() {
		if c.state == StateContextMenuSuppressed {
			c.state = StateIdle
		}
	})
}

// resolveAndExecute runs the ordered click-resolution algorithm against
// live state and applies the chosen action.
func (c *Controller) resolveAndExecute(hit domain.DockIconHit) {
	app := hit.App
	// The hit carries registry state from hover time; refresh it.
	if cur, ok := c.registry.ApplicationForPID(app.PID); ok {
		app = cur
	}

	real := c.realWindows(app)
	visible := 0
	for _, w := range real {
		if c.windows.IsWindowVisible(w.Element) {
			visible++
		}
	}

	facts := ClickFacts{
		Active:              app.Active,
		IsFileManager:       app.BundleID == FileManagerBundleID,
		OnlyLowLevelWindows: len(real) == 0 && c.windows.HasOnlyLowLevelWindows(app),
		TotalWindows:        len(real),
		VisibleWindows:      visible,
		SingleMinimized:     len(real) == 1 && c.windows.IsWindowMinimized(real[0].Element),
	}
	decision := ResolveClick(facts)
	c.logger.Debug("click resolved",
		zap.String("app", app.Name),
		zap.Int("pid", app.PID),
		zap.String("decision", decision.String()),
		zap.Int("windows", facts.TotalWindows),
		zap.Int("visible", facts.VisibleWindows))

	switch decision {
	case DecisionToggleAppHide:
		if app.Hidden {
			c.registry.Unhide(app.PID)
			c.registry.Activate(app.PID)
		} else {
			c.registry.Hide(app.PID)
		}

	case DecisionFileManager:
		c.execFileManager(app, real)

	case DecisionLaunch:
		if err := c.registry.Activate(app.PID); err != nil && app.BundlePath != "" {
			c.registry.Launch(app.BundlePath)
		}

	case DecisionUnminimizeRaise:
		c.windows.Raise(real[0], app)

	case DecisionSnapshotHide:
		c.windows.SnapshotAndHide(app)
		c.registry.Hide(app.PID)

	case DecisionRestore:
		c.registry.Unhide(app.PID)
		c.registry.Activate(app.PID)
		preferred := c.preferredWindow(app.PID, real)
		if c.windows.HasSnapshot(app.PID) {
			c.windows.Restore(app, preferred)
		} else {
			c.windows.ShowAll(app, real, preferred)
		}

	case DecisionActivate:
		c.registry.Activate(app.PID)
	}
}

// execFileManager implements the file-manager special case: hide when a
// standard window is showing, otherwise bring everything back, falling back
// to opening a default location when no windows exist at all.
func (c *Controller) execFileManager(app domain.AppInfo, real []domain.WindowDescriptor) {
	if !app.Hidden && c.windows.StandardVisibleWindowCount(app) > 0 {
		c.windows.SnapshotAndHide(app)
		c.registry.Hide(app.PID)
		return
	}
	c.registry.Unhide(app.PID)
	c.registry.Activate(app.PID)
	if len(real) == 0 {
		if app.BundlePath != "" {
			c.registry.Launch(app.BundlePath)
		}
		return
	}
	preferred := c.preferredWindow(app.PID, real)
	if c.windows.HasSnapshot(app.PID) {
		c.windows.Restore(app, preferred)
	} else {
		c.windows.ShowAll(app, real, preferred)
	}
}

// refreshChooserFor re-enumerates the clicked app and updates or closes the
// open chooser so it never shows a stale list.
func (c *Controller) refreshChooserFor(app domain.AppInfo) {
	if c.session == nil || c.session.App.PID != app.PID {
		return
	}
	windows := c.windowList(app)
	if len(windows) == 0 {
		c.closeSession()
		return
	}
	c.session.Windows = windows
	c.ui.Update(windows, c.session.Anchor)
}

func (c *Controller) onWindowSelected(desc domain.WindowDescriptor, action domain.WindowAction) {
	if c.session == nil {
		return
	}
	app := c.session.App
	c.session.LastInteractionAt = c.now()
	switch action {
	case domain.WindowActionRaise:
		if desc.WindowID != 0 {
			c.lastHighlighted[app.PID] = desc.WindowID
		}
		c.windows.Raise(desc, app)
	case domain.WindowActionHide:
		c.windows.HideWindow(desc, app)
	}
	c.winlist.Remove(app.PID)
	c.refreshChooserFor(app)
}

func (c *Controller) onUserDismissed() {
	if c.session == nil {
		return
	}
	// The surface already dismissed itself; Dismiss is idempotent and
	// releases whatever is left.
	c.ui.Dismiss()
	c.session = nil
	if c.state == StateChooserOpen {
		c.state = StateIdle
	}
}

// closeSession dismisses the chooser and releases the session. Dismiss must
// fully release the UI surface's resources before any new session is
// presented.
func (c *Controller) closeSession() {
	if c.session == nil {
		return
	}
	c.ui.Dismiss()
	c.session = nil
}

// SessionIdleSince reports the open session's last interaction time, false
// when no session is open. Used by the session watchdog.
func (c *Controller) SessionIdleSince() (time.Time, bool) {
	if c.session == nil {
		return time.Time{}, false
	}
	return c.session.LastInteractionAt, true
}

// ForceCloseSession closes the chooser regardless of pointer position.
func (c *Controller) ForceCloseSession() {
	c.closeSession()
	if c.state == StateChooserOpen {
		c.state = StateIdle
	}
}

// DropCaches clears the window-list TTL cache; routine memory cleanup.
func (c *Controller) DropCaches() {
	c.winlist.Purge()
}

// ResetTransientState cancels every pending timer, closes the session, and
// returns to Idle. Called when the input monitor is reinitialized.
func (c *Controller) ResetTransientState() {
	c.hoverToken.Cancel()
	c.hoverToken = nil
	c.leaveToken.Cancel()
	c.leaveToken = nil
	c.menuToken.Cancel()
	c.menuToken = nil
	c.clickHit = nil
	c.closeSession()
	c.state = StateIdle
	c.winlist.Purge()
}

// HandleAppTermination drops every piece of state tied to a terminated
// process: its snapshot, its cached window list, and its open session.
func (c *Controller) HandleAppTermination(pid int) {
	c.windows.OnAppTerminated(pid)
	c.winlist.Remove(pid)
	delete(c.lastHighlighted, pid)
	if c.session != nil && c.session.App.PID == pid {
		c.closeSession()
		if c.state == StateChooserOpen {
			c.state = StateIdle
		}
	}
}

// windowList serves the per-app window list through a short TTL cache so
// dwelling on one icon does not re-query the introspection tree on every
// pointer-move tick.
func (c *Controller) windowList(app domain.AppInfo) []domain.WindowDescriptor {
	if ws, ok := c.winlist.Get(app.PID); ok {
		return ws
	}
	ws := c.windows.EnumerateWindows(app)
	c.winlist.Add(app.PID, ws)
	return ws
}

// realWindows returns the app's non-placeholder windows, bypassing the
// chooser cache; click resolution always works from live state.
func (c *Controller) realWindows(app domain.AppInfo) []domain.WindowDescriptor {
	all := c.windows.EnumerateWindows(app)
	real := make([]domain.WindowDescriptor, 0, len(all))
	for _, w := range all {
		if !w.IsPlaceholder {
			real = append(real, w)
		}
	}
	return real
}

// preferredWindow returns the descriptor of the last-highlighted window for
// the PID when it is still present, nil otherwise.
func (c *Controller) preferredWindow(pid int, windows []domain.WindowDescriptor) *domain.WindowDescriptor {
	id, ok := c.lastHighlighted[pid]
	if !ok || id == 0 {
		return nil
	}
	for i := range windows {
		if windows[i].WindowID == id {
			return &windows[i]
		}
	}
	return nil
}
