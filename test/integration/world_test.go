//go:build integration

package integration

import (
	"fmt"
	"sync"
	"time"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
	"github.com/LimTec-de/dockapptoggler/internal/usecase"
)

// The fake desktop world the scenarios run against: a screen, a strip of
// dock icons, per-app window stacks, and a recording chooser.

type fakeWindow struct {
	id        uint32
	title     string
	subrole   string
	minimized bool
	hidden    bool
	frame     domain.Rect
	valid     bool
}

type fakeIcon struct {
	frame    domain.Rect
	url      string
	subrole  string
	ownerPID int
}

type world struct {
	mu sync.Mutex

	screen     domain.Rect
	icons      []*fakeIcon
	appWindows map[int][]*fakeWindow
	onscreen   map[int]int

	raiseLog []uint32
}

func newWorld() *world {
	return &world{
		screen:     domain.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
		appWindows: make(map[int][]*fakeWindow),
		onscreen:   make(map[int]int),
	}
}

func (w *world) addIcon(ownerPID int, url string, frame domain.Rect) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.icons = append(w.icons, &fakeIcon{
		frame: frame, url: url, subrole: usecase.DockItemSubrole, ownerPID: ownerPID,
	})
}

func (w *world) addWindow(pid int, id uint32, title string) *fakeWindow {
	w.mu.Lock()
	defer w.mu.Unlock()
	win := &fakeWindow{
		id: id, title: title, subrole: usecase.StandardWindowSubrole, valid: true,
		frame: domain.Rect{X: 100, Y: 100, Width: 640, Height: 480},
	}
	w.appWindows[pid] = append(w.appWindows[pid], win)
	return win
}

func (w *world) setOnScreen(pid, count int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onscreen[pid] = count
}

func (w *world) visibleWindowIDs(pid int) []uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ids []uint32
	for _, win := range w.appWindows[pid] {
		if win.valid && !win.minimized && !win.hidden {
			ids = append(ids, win.id)
		}
	}
	return ids
}

func (w *world) raises() []uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]uint32(nil), w.raiseLog...)
}

func (w *world) ElementAtPoint(p domain.Point) (domain.Element, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, icon := range w.icons {
		if icon.frame.Contains(p, 0) {
			return icon, true
		}
	}
	return nil, false
}

func (w *world) ElementPID(el domain.Element) (int, bool) {
	if icon, ok := el.(*fakeIcon); ok {
		return icon.ownerPID, true
	}
	return 0, false
}

func (w *world) StringAttr(el domain.Element, attr string) (string, domain.AttrStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch v := el.(type) {
	case *fakeIcon:
		if attr == domain.AttrSubrole {
			return v.subrole, domain.AttrOK
		}
	case *fakeWindow:
		if !v.valid {
			return "", domain.ElementInvalid
		}
		switch attr {
		case domain.AttrTitle:
			return v.title, domain.AttrOK
		case domain.AttrSubrole:
			return v.subrole, domain.AttrOK
		}
	}
	return "", domain.AttrAbsent
}

func (w *world) BoolAttr(el domain.Element, attr string) (bool, domain.AttrStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	win, ok := el.(*fakeWindow)
	if !ok {
		return false, domain.AttrAbsent
	}
	if !win.valid {
		return false, domain.ElementInvalid
	}
	switch attr {
	case domain.AttrMinimized:
		return win.minimized, domain.AttrOK
	case domain.AttrHidden:
		return win.hidden, domain.AttrOK
	}
	return false, domain.AttrAbsent
}

func (w *world) PointAttr(el domain.Element, attr string) (domain.Point, domain.AttrStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch v := el.(type) {
	case *fakeIcon:
		return domain.Point{X: v.frame.X, Y: v.frame.Y}, domain.AttrOK
	case *fakeWindow:
		return domain.Point{X: v.frame.X, Y: v.frame.Y}, domain.AttrOK
	}
	return domain.Point{}, domain.AttrAbsent
}

func (w *world) SizeAttr(el domain.Element, attr string) (domain.Rect, domain.AttrStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch v := el.(type) {
	case *fakeIcon:
		return domain.Rect{Width: v.frame.Width, Height: v.frame.Height}, domain.AttrOK
	case *fakeWindow:
		return domain.Rect{Width: v.frame.Width, Height: v.frame.Height}, domain.AttrOK
	}
	return domain.Rect{}, domain.AttrAbsent
}

func (w *world) URLAttr(el domain.Element, attr string) (string, domain.AttrStatus) {
	if icon, ok := el.(*fakeIcon); ok && icon.url != "" {
		return icon.url, domain.AttrOK
	}
	return "", domain.AttrAbsent
}

func (w *world) SetBoolAttr(el domain.Element, attr string, value bool) domain.AttrStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	win, ok := el.(*fakeWindow)
	if !ok {
		return domain.AttrAbsent
	}
	if !win.valid {
		return domain.ElementInvalid
	}
	switch attr {
	case domain.AttrMinimized:
		win.minimized = value
	case domain.AttrHidden:
		win.hidden = value
	default:
		return domain.AttrAbsent
	}
	return domain.AttrOK
}

func (w *world) Perform(el domain.Element, action string) domain.AttrStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	win, ok := el.(*fakeWindow)
	if !ok {
		return domain.AttrAbsent
	}
	if !win.valid {
		return domain.ElementInvalid
	}
	if action == domain.ActionRaise {
		w.raiseLog = append(w.raiseLog, win.id)
		return domain.AttrOK
	}
	return domain.AttrAbsent
}

func (w *world) AppWindows(pid int) ([]domain.Element, domain.AttrStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	els := make([]domain.Element, 0, len(w.appWindows[pid]))
	for _, win := range w.appWindows[pid] {
		if win.valid {
			els = append(els, win)
		}
	}
	return els, domain.AttrOK
}

func (w *world) WindowID(el domain.Element) uint32 {
	if win, ok := el.(*fakeWindow); ok {
		return win.id
	}
	return 0
}

func (w *world) OnScreenWindowCount(pid int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.onscreen[pid]
}

func (w *world) ScreenFrame() domain.Rect {
	return w.screen
}

func (w *world) Trusted(prompt bool) bool {
	return true
}

var _ domain.Introspector = (*world)(nil)

// apps implements domain.ProcessRegistry over the world's app table.
type apps struct {
	mu      sync.Mutex
	table   map[int]domain.AppInfo
	dockPID int
}

func newApps() *apps {
	return &apps{table: make(map[int]domain.AppInfo), dockPID: 77}
}

func (a *apps) add(app domain.AppInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.table[app.PID] = app
}

func (a *apps) get(pid int) domain.AppInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table[pid]
}

func (a *apps) RunningApplications() ([]domain.AppInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AppInfo, 0, len(a.table))
	for _, app := range a.table {
		out = append(out, app)
	}
	return out, nil
}

func (a *apps) ApplicationForBundleID(bundleID string) (domain.AppInfo, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, app := range a.table {
		if app.BundleID == bundleID {
			return app, true
		}
	}
	return domain.AppInfo{}, false
}

func (a *apps) ApplicationForPID(pid int) (domain.AppInfo, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	app, ok := a.table[pid]
	return app, ok
}

func (a *apps) FrontmostApplication() (domain.AppInfo, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, app := range a.table {
		if app.Active {
			return app, true
		}
	}
	return domain.AppInfo{}, false
}

func (a *apps) Activate(pid int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	app, ok := a.table[pid]
	if !ok {
		return fmt.Errorf("no app with pid %d", pid)
	}
	for other, o := range a.table {
		o.Active = other == pid
		a.table[other] = o
	}
	app.Active = true
	app.Hidden = false
	a.table[pid] = app
	return nil
}

func (a *apps) Hide(pid int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	app := a.table[pid]
	app.Hidden = true
	app.Active = false
	a.table[pid] = app
	return nil
}

func (a *apps) Unhide(pid int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	app := a.table[pid]
	app.Hidden = false
	a.table[pid] = app
	return nil
}

func (a *apps) Launch(bundlePath string) error {
	return nil
}

func (a *apps) DockPID() int {
	return a.dockPID
}

func (a *apps) WatchTerminations(fn func(pid int)) {}

var _ domain.ProcessRegistry = (*apps)(nil)

// chooser implements domain.ChooserUI and records its lifecycle.
type chooser struct {
	mu         sync.Mutex
	open       bool
	rect       domain.Rect
	presented  int
	dismissals int
	lastPID    int
	onSelect   func(domain.WindowDescriptor, domain.WindowAction)
	onDismiss  func()
}

func (c *chooser) Present(session domain.ChooserSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.presented++
	c.lastPID = session.App.PID
	c.rect = domain.Rect{X: session.Anchor.X - 100, Y: session.Anchor.Y - 150, Width: 200, Height: 150}
}

func (c *chooser) Update(windows []domain.WindowDescriptor, anchor domain.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rect = domain.Rect{X: anchor.X - 100, Y: anchor.Y - 150, Width: 200, Height: 150}
}

func (c *chooser) Reposition(anchor domain.Point) {}

func (c *chooser) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		c.dismissals++
	}
	c.open = false
}

func (c *chooser) ContainsPoint(p domain.Point, margin float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open && c.rect.Contains(p, margin)
}

func (c *chooser) OnWindowSelected(fn func(domain.WindowDescriptor, domain.WindowAction)) {
	c.onSelect = fn
}

func (c *chooser) OnDismissedByUser(fn func()) {
	c.onDismiss = fn
}

func (c *chooser) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *chooser) presentedFor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPID
}

var _ domain.ChooserUI = (*chooser)(nil)

// tap implements domain.EventTap; scenarios push synthetic events.
type tap struct {
	mu      sync.Mutex
	handler func(domain.PointerEvent)
	enabled bool
	starts  int
}

func (t *tap) Start(handler func(domain.PointerEvent)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
	t.enabled = true
	t.starts++
	return nil
}

func (t *tap) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = nil
	t.enabled = false
}

func (t *tap) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *tap) disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
}

func (t *tap) emit(kind domain.EventKind, p domain.Point) {
	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()
	if h != nil {
		h(domain.PointerEvent{Kind: kind, Location: p, ClickCount: 1, At: time.Now()})
	}
}

var _ domain.EventTap = (*tap)(nil)
