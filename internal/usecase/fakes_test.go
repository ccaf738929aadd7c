package usecase

import (
	"fmt"
	"sync"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
	"github.com/LimTec-de/dockapptoggler/internal/sched"
)

// fakeWindow is one window in the fake introspection world.
type fakeWindow struct {
	id        uint32
	title     string
	subrole   string
	minimized bool
	hidden    bool
	frame     domain.Rect
	valid     bool
}

// fakeIcon is one dock icon in the fake introspection world.
type fakeIcon struct {
	frame    domain.Rect
	url      string
	subrole  string
	ownerPID int
}

// fakeAX implements domain.Introspector against an in-memory world.
// All mutation happens on the controller loop in tests, so a single mutex
// is enough for cross-goroutine assertions.
type fakeAX struct {
	mu sync.Mutex

	screen     domain.Rect
	icons      []*fakeIcon
	appWindows map[int][]*fakeWindow // front to back
	onscreen   map[int]int
	trusted    bool

	raiseLog []uint32 // window ids in raise order
}

func newFakeAX() *fakeAX {
	return &fakeAX{
		screen:     domain.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
		appWindows: make(map[int][]*fakeWindow),
		onscreen:   make(map[int]int),
		trusted:    true,
	}
}

func (f *fakeAX) addIcon(ownerPID int, url string, frame domain.Rect) *fakeIcon {
	icon := &fakeIcon{frame: frame, url: url, subrole: DockItemSubrole, ownerPID: ownerPID}
	f.icons = append(f.icons, icon)
	return icon
}

func (f *fakeAX) addWindow(pid int, id uint32, title string) *fakeWindow {
	w := &fakeWindow{
		id: id, title: title, subrole: StandardWindowSubrole, valid: true,
		frame: domain.Rect{X: 100, Y: 100, Width: 640, Height: 480},
	}
	f.appWindows[pid] = append(f.appWindows[pid], w)
	return w
}

func (f *fakeAX) ElementAtPoint(p domain.Point) (domain.Element, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, icon := range f.icons {
		if icon.frame.Contains(p, 0) {
			return icon, true
		}
	}
	return nil, false
}

func (f *fakeAX) ElementPID(el domain.Element) (int, bool) {
	if icon, ok := el.(*fakeIcon); ok {
		return icon.ownerPID, true
	}
	return 0, false
}

func (f *fakeAX) StringAttr(el domain.Element, attr string) (string, domain.AttrStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
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

func (f *fakeAX) BoolAttr(el domain.Element, attr string) (bool, domain.AttrStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := el.(*fakeWindow)
	if !ok {
		return false, domain.AttrAbsent
	}
	if !w.valid {
		return false, domain.ElementInvalid
	}
	switch attr {
	case domain.AttrMinimized:
		return w.minimized, domain.AttrOK
	case domain.AttrHidden:
		return w.hidden, domain.AttrOK
	}
	return false, domain.AttrAbsent
}

func (f *fakeAX) PointAttr(el domain.Element, attr string) (domain.Point, domain.AttrStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := el.(type) {
	case *fakeIcon:
		return domain.Point{X: v.frame.X, Y: v.frame.Y}, domain.AttrOK
	case *fakeWindow:
		if !v.valid {
			return domain.Point{}, domain.ElementInvalid
		}
		return domain.Point{X: v.frame.X, Y: v.frame.Y}, domain.AttrOK
	}
	return domain.Point{}, domain.AttrAbsent
}

func (f *fakeAX) SizeAttr(el domain.Element, attr string) (domain.Rect, domain.AttrStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := el.(type) {
	case *fakeIcon:
		return domain.Rect{Width: v.frame.Width, Height: v.frame.Height}, domain.AttrOK
	case *fakeWindow:
		if !v.valid {
			return domain.Rect{}, domain.ElementInvalid
		}
		return domain.Rect{Width: v.frame.Width, Height: v.frame.Height}, domain.AttrOK
	}
	return domain.Rect{}, domain.AttrAbsent
}

func (f *fakeAX) URLAttr(el domain.Element, attr string) (string, domain.AttrStatus) {
	if icon, ok := el.(*fakeIcon); ok && icon.url != "" {
		return icon.url, domain.AttrOK
	}
	return "", domain.AttrAbsent
}

func (f *fakeAX) SetBoolAttr(el domain.Element, attr string, value bool) domain.AttrStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := el.(*fakeWindow)
	if !ok {
		return domain.AttrAbsent
	}
	if !w.valid {
		return domain.ElementInvalid
	}
	switch attr {
	case domain.AttrMinimized:
		w.minimized = value
	case domain.AttrHidden:
		w.hidden = value
	default:
		return domain.AttrAbsent
	}
	return domain.AttrOK
}

func (f *fakeAX) Perform(el domain.Element, action string) domain.AttrStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := el.(*fakeWindow)
	if !ok {
		return domain.AttrAbsent
	}
	if !w.valid {
		return domain.ElementInvalid
	}
	if action == domain.ActionRaise {
		f.raiseLog = append(f.raiseLog, w.id)
		return domain.AttrOK
	}
	return domain.AttrAbsent
}

func (f *fakeAX) AppWindows(pid int) ([]domain.Element, domain.AttrStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wins := f.appWindows[pid]
	els := make([]domain.Element, 0, len(wins))
	for _, w := range wins {
		if w.valid {
			els = append(els, w)
		}
	}
	return els, domain.AttrOK
}

func (f *fakeAX) WindowID(el domain.Element) uint32 {
	if w, ok := el.(*fakeWindow); ok {
		return w.id
	}
	return 0
}

func (f *fakeAX) OnScreenWindowCount(pid int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.onscreen[pid]
}

func (f *fakeAX) ScreenFrame() domain.Rect {
	return f.screen
}

func (f *fakeAX) Trusted(prompt bool) bool {
	return f.trusted
}

func (f *fakeAX) raises() []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint32(nil), f.raiseLog...)
}

// fakeRegistry implements domain.ProcessRegistry over a static app table.
type fakeRegistry struct {
	mu sync.Mutex

	apps    map[int]domain.AppInfo
	dockPID int
	termFn  func(pid int)

	activated []int
	hiddenLog []int
	unhidden  []int
	launched  []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{apps: make(map[int]domain.AppInfo), dockPID: 77}
}

func (r *fakeRegistry) addApp(app domain.AppInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[app.PID] = app
}

func (r *fakeRegistry) RunningApplications() ([]domain.AppInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apps := make([]domain.AppInfo, 0, len(r.apps))
	for _, a := range r.apps {
		apps = append(apps, a)
	}
	return apps, nil
}

func (r *fakeRegistry) ApplicationForBundleID(bundleID string) (domain.AppInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apps {
		if a.BundleID == bundleID {
			return a, true
		}
	}
	return domain.AppInfo{}, false
}

func (r *fakeRegistry) ApplicationForPID(pid int) (domain.AppInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[pid]
	return a, ok
}

func (r *fakeRegistry) FrontmostApplication() (domain.AppInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apps {
		if a.Active {
			return a, true
		}
	}
	return domain.AppInfo{}, false
}

func (r *fakeRegistry) Activate(pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[pid]
	if !ok {
		return fmt.Errorf("no app with pid %d", pid)
	}
	for other, o := range r.apps {
		o.Active = other == pid
		r.apps[other] = o
	}
	a.Active = true
	r.apps[pid] = a
	r.activated = append(r.activated, pid)
	return nil
}

func (r *fakeRegistry) Hide(pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.apps[pid]
	a.Hidden = true
	a.Active = false
	r.apps[pid] = a
	r.hiddenLog = append(r.hiddenLog, pid)
	return nil
}

func (r *fakeRegistry) Unhide(pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.apps[pid]
	a.Hidden = false
	r.apps[pid] = a
	r.unhidden = append(r.unhidden, pid)
	return nil
}

func (r *fakeRegistry) Launch(bundlePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.launched = append(r.launched, bundlePath)
	return nil
}

func (r *fakeRegistry) DockPID() int {
	return r.dockPID
}

func (r *fakeRegistry) WatchTerminations(fn func(pid int)) {
	r.termFn = fn
}

// fakeChooser implements domain.ChooserUI and records lifecycle calls.
type fakeChooser struct {
	mu sync.Mutex

	open       bool
	rect       domain.Rect
	sessions   []domain.ChooserSession
	updates    int
	dismissals int

	onSelect  func(domain.WindowDescriptor, domain.WindowAction)
	onDismiss func()
}

func newFakeChooser() *fakeChooser {
	return &fakeChooser{}
}

func (u *fakeChooser) Present(session domain.ChooserSession) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.open = true
	// A fixed-size popup hanging above the anchor.
	u.rect = domain.Rect{X: session.Anchor.X - 100, Y: session.Anchor.Y - 150, Width: 200, Height: 150}
	u.sessions = append(u.sessions, session)
}

func (u *fakeChooser) Update(windows []domain.WindowDescriptor, anchor domain.Point) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.updates++
	u.rect = domain.Rect{X: anchor.X - 100, Y: anchor.Y - 150, Width: 200, Height: 150}
}

func (u *fakeChooser) Reposition(anchor domain.Point) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rect = domain.Rect{X: anchor.X - 100, Y: anchor.Y - 150, Width: 200, Height: 150}
}

func (u *fakeChooser) Dismiss() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.open {
		u.dismissals++
	}
	u.open = false
}

func (u *fakeChooser) ContainsPoint(p domain.Point, margin float64) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.open && u.rect.Contains(p, margin)
}

func (u *fakeChooser) OnWindowSelected(fn func(domain.WindowDescriptor, domain.WindowAction)) {
	u.onSelect = fn
}

func (u *fakeChooser) OnDismissedByUser(fn func()) {
	u.onDismiss = fn
}

func (u *fakeChooser) isOpen() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.open
}

func (u *fakeChooser) presentedCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.sessions)
}

// onLoop runs fn on the controller loop and returns its result, so tests
// read loop-confined state without races.
func onLoop[T any](l *sched.Loop, fn func() T) T {
	ch := make(chan T, 1)
	l.Do(func() { ch <- fn() })
	return <-ch
}

// settle waits until the loop has drained the work posted before it.
func settle(l *sched.Loop) {
	ch := make(chan struct{})
	l.Do(func() { close(ch) })
	<-ch
}
