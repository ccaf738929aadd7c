package usecase

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
	"github.com/LimTec-de/dockapptoggler/internal/sched"
)

// StandardWindowSubrole is the introspection subrole of a normal document
// window, as opposed to the desktop or panels.
const StandardWindowSubrole = "AXStandardWindow"

// WindowServiceConfig tunes hide/restore pacing. The introspection tree is
// eventually consistent; batches and settle delays bound worst-case latency
// for large window counts.
type WindowServiceConfig struct {
	// RaiseSettleDelay separates consecutive raises during restore.
	RaiseSettleDelay time.Duration

	// BatchSize caps how many windows are mutated per scheduled step.
	BatchSize int

	// BatchDelay separates consecutive hide batches.
	BatchDelay time.Duration
}

// DefaultWindowServiceConfig returns default window service configuration.
func DefaultWindowServiceConfig() WindowServiceConfig {
	return WindowServiceConfig{
		RaiseSettleDelay: 50 * time.Millisecond,
		BatchSize:        8,
		BatchDelay:       30 * time.Millisecond,
	}
}

// WindowService enumerates, hides, and restores an application's windows
// with z-order fidelity. All methods must run on the controller loop; the
// snapshot map is confined to it.
type WindowService struct {
	config   WindowServiceConfig
	ax       domain.Introspector
	registry domain.ProcessRegistry
	loop     *sched.Loop
	logger   *zap.Logger

	// snapshots holds at most one live entry per PID, created by
	// SnapshotAndHide and destroyed by Restore or app termination.
	snapshots map[int]*domain.AppSnapshot
}

// NewWindowService creates a window state service.
func NewWindowService(
	config WindowServiceConfig,
	ax domain.Introspector,
	registry domain.ProcessRegistry,
	loop *sched.Loop,
	logger *zap.Logger,
) *WindowService {
	return &WindowService{
		config:    config,
		ax:        ax,
		registry:  registry,
		loop:      loop,
		logger:    logger,
		snapshots: make(map[int]*domain.AppSnapshot),
	}
}

// EnumerateWindows returns the application's windows, front to back. When
// the app is eligible to be shown (active, on-screen presence, or any
// window at all) but exposes none through introspection, a single
// placeholder descriptor stands in for the application itself.
func (s *WindowService) EnumerateWindows(app domain.AppInfo) []domain.WindowDescriptor {
	els, st := s.ax.AppWindows(app.PID)
	if st == domain.AttrOK && len(els) > 0 {
		descs := make([]domain.WindowDescriptor, 0, len(els))
		for _, el := range els {
			descs = append(descs, s.describe(el, app))
		}
		return descs
	}

	eligible := app.Active || s.ax.OnScreenWindowCount(app.PID) > 0
	if eligible {
		return []domain.WindowDescriptor{{
			Title:         app.Name,
			IsPlaceholder: true,
		}}
	}
	return nil
}

func (s *WindowService) describe(el domain.Element, app domain.AppInfo) domain.WindowDescriptor {
	desc := domain.WindowDescriptor{Element: el}
	if title, st := s.ax.StringAttr(el, domain.AttrTitle); st == domain.AttrOK && title != "" {
		desc.Title = title
	} else {
		desc.Title = app.Name
	}
	desc.WindowID = s.ax.WindowID(el)
	if pos, st := s.ax.PointAttr(el, domain.AttrPosition); st == domain.AttrOK {
		if size, st := s.ax.SizeAttr(el, domain.AttrSize); st == domain.AttrOK {
			desc.Frame = &domain.Rect{X: pos.X, Y: pos.Y, Width: size.Width, Height: size.Height}
		}
	}
	return desc
}

// IsWindowVisible applies the visibility predicate: not minimized and not
// per-window hidden. Failed reads count as not visible.
func (s *WindowService) IsWindowVisible(el domain.Element) bool {
	if min, st := s.ax.BoolAttr(el, domain.AttrMinimized); st != domain.AttrOK || min {
		return false
	}
	if hidden, st := s.ax.BoolAttr(el, domain.AttrHidden); st == domain.AttrOK && hidden {
		return false
	}
	return true
}

// IsWindowMinimized reads the minimized attribute; absent reads count as
// not minimized.
func (s *WindowService) IsWindowMinimized(el domain.Element) bool {
	min, st := s.ax.BoolAttr(el, domain.AttrMinimized)
	return st == domain.AttrOK && min
}

// HasSnapshot reports whether a live hide snapshot exists for the PID.
func (s *WindowService) HasSnapshot(pid int) bool {
	_, ok := s.snapshots[pid]
	return ok
}

// SnapshotAndHide records each window's visibility and stack rank, then
// hides every window that was visible. A second call while a live entry
// exists is a no-op, so an "already hidden" state never overwrites the
// original snapshot. With exactly one window already minimized there is
// nothing to preserve and the call does nothing.
func (s *WindowService) SnapshotAndHide(app domain.AppInfo) {
	if _, ok := s.snapshots[app.PID]; ok {
		s.logger.Debug("snapshot already live, keeping it", zap.Int("pid", app.PID))
		return
	}

	els, st := s.ax.AppWindows(app.PID)
	if st != domain.AttrOK || len(els) == 0 {
		return
	}

	if len(els) == 1 && s.IsWindowMinimized(els[0]) {
		return
	}

	// els is front to back; rank is inverted so larger = more front.
	n := len(els)
	records := make([]domain.WindowRecord, 0, n)
	for i, el := range els {
		records = append(records, domain.WindowRecord{
			Window:     s.describe(el, app),
			WasVisible: s.IsWindowVisible(el),
			StackRank:  n - 1 - i,
		})
	}
	sort.SliceStable(records, func(a, b int) bool {
		return records[a].StackRank < records[b].StackRank
	})

	s.snapshots[app.PID] = &domain.AppSnapshot{
		PID:     app.PID,
		Records: records,
		TakenAt: time.Now(),
	}

	var toHide []domain.WindowRecord
	for _, rec := range records {
		if rec.WasVisible {
			toHide = append(toHide, rec)
		}
	}
	s.hideBatch(toHide, 0)
}

// hideBatch hides up to BatchSize windows, then schedules the remainder
// after BatchDelay.
func (s *WindowService) hideBatch(records []domain.WindowRecord, start int) {
	end := start + s.config.BatchSize
	if end > len(records) {
		end = len(records)
	}
	for _, rec := range records[start:end] {
		if st := s.ax.SetBoolAttr(rec.Window.Element, domain.AttrHidden, true); st == domain.ElementInvalid {
			s.logger.Debug("window vanished while hiding", zap.String("title", rec.Window.Title))
		}
	}
	if end < len(records) {
		s.loop.After(s.config.BatchDelay, func() {
			s.hideBatch(records, end)
		})
	}
}

// Restore reverses a SnapshotAndHide: pass 1 unhides and unminimizes every
// recorded visible window immediately; pass 2 re-raises them back to front
// with a settle delay between raises so the final front-to-back order
// matches the original. With raiseLast set, that window is raised after all
// others regardless of its recorded rank. A restore with no live snapshot
// is a no-op. The cache entry is cleared when the last raise completes.
func (s *WindowService) Restore(app domain.AppInfo, raiseLast *domain.WindowDescriptor) {
	snap, ok := s.snapshots[app.PID]
	if !ok {
		return
	}

	var visible []domain.WindowRecord
	for _, rec := range snap.Records {
		if !rec.WasVisible {
			continue
		}
		s.ax.SetBoolAttr(rec.Window.Element, domain.AttrHidden, false)
		s.ax.SetBoolAttr(rec.Window.Element, domain.AttrMinimized, false)
		visible = append(visible, rec)
	}

	if raiseLast != nil {
		visible = moveToEnd(visible, raiseLast.WindowID)
	}

	if len(visible) <= 1 {
		if len(visible) == 1 {
			s.Raise(visible[0].Window, app)
		}
		delete(s.snapshots, app.PID)
		return
	}

	s.raiseStep(app, visible, 0)
}

// raiseStep raises one window and schedules the next after the settle
// delay; the snapshot entry is cleared after the final step.
func (s *WindowService) raiseStep(app domain.AppInfo, records []domain.WindowRecord, idx int) {
	if idx >= len(records) {
		delete(s.snapshots, app.PID)
		return
	}
	s.Raise(records[idx].Window, app)
	s.loop.After(s.config.RaiseSettleDelay, func() {
		s.raiseStep(app, records, idx+1)
	})
}

// Raise activates the owning application and then raises the window.
// Activation must come first or the raise is unreliable.
func (s *WindowService) Raise(win domain.WindowDescriptor, app domain.AppInfo) {
	if err := s.registry.Activate(app.PID); err != nil {
		s.logger.Debug("activate failed", zap.Int("pid", app.PID), zap.Error(err))
	}
	if win.IsPlaceholder || win.Element == nil {
		return
	}
	s.ax.SetBoolAttr(win.Element, domain.AttrMinimized, false)
	if st := s.ax.Perform(win.Element, domain.ActionRaise); st == domain.ElementInvalid {
		s.logger.Debug("raise target vanished", zap.String("title", win.Title))
	}
}

// HideWindow sets the window's hidden attribute directly, independent of a
// whole-application hide.
func (s *WindowService) HideWindow(win domain.WindowDescriptor, app domain.AppInfo) {
	if win.IsPlaceholder || win.Element == nil {
		return
	}
	s.ax.SetBoolAttr(win.Element, domain.AttrHidden, true)
}

// StandardVisibleWindowCount counts visible, non-minimized windows with the
// standard subrole. The desktop and panels do not count; used for the
// file-manager click special case.
func (s *WindowService) StandardVisibleWindowCount(app domain.AppInfo) int {
	els, st := s.ax.AppWindows(app.PID)
	if st != domain.AttrOK {
		return 0
	}
	count := 0
	for _, el := range els {
		if sub, st := s.ax.StringAttr(el, domain.AttrSubrole); st != domain.AttrOK || sub != StandardWindowSubrole {
			continue
		}
		if s.IsWindowVisible(el) {
			count++
		}
	}
	return count
}

// HasOnlyLowLevelWindows reports whether the app owns window-server
// windows while exposing none through introspection. Such apps can only be
// toggled with a whole-application hide.
func (s *WindowService) HasOnlyLowLevelWindows(app domain.AppInfo) bool {
	els, st := s.ax.AppWindows(app.PID)
	if st == domain.AttrOK && len(els) > 0 {
		return false
	}
	return s.ax.OnScreenWindowCount(app.PID) > 0
}

// ShowAll unhides and unminimizes the given windows and raises the
// preferred one last (or the frontmost when none is preferred). Used on
// restore paths that have no snapshot to replay.
func (s *WindowService) ShowAll(app domain.AppInfo, windows []domain.WindowDescriptor, raiseLast *domain.WindowDescriptor) {
	var last *domain.WindowDescriptor
	for i := range windows {
		win := &windows[i]
		if win.IsPlaceholder || win.Element == nil {
			continue
		}
		s.ax.SetBoolAttr(win.Element, domain.AttrHidden, false)
		s.ax.SetBoolAttr(win.Element, domain.AttrMinimized, false)
		if raiseLast != nil && win.WindowID != 0 && win.WindowID == raiseLast.WindowID {
			last = win
		} else if last == nil && raiseLast == nil {
			last = win
		}
	}
	if last != nil {
		s.Raise(*last, app)
	} else if err := s.registry.Activate(app.PID); err != nil {
		s.logger.Debug("activate failed", zap.Int("pid", app.PID), zap.Error(err))
	}
}

// OnAppTerminated drops the snapshot for a terminated process; the
// descriptors inside it are invalid from this point.
func (s *WindowService) OnAppTerminated(pid int) {
	if _, ok := s.snapshots[pid]; ok {
		s.logger.Debug("clearing snapshot for terminated app", zap.Int("pid", pid))
		delete(s.snapshots, pid)
	}
}

// moveToEnd moves the record with the given window id to the end of the
// slice, preserving the order of the rest.
func moveToEnd(records []domain.WindowRecord, windowID uint32) []domain.WindowRecord {
	if windowID == 0 {
		return records
	}
	for i, rec := range records {
		if rec.Window.WindowID == windowID {
			out := make([]domain.WindowRecord, 0, len(records))
			out = append(out, records[:i]...)
			out = append(out, records[i+1:]...)
			return append(out, rec)
		}
	}
	return records
}
