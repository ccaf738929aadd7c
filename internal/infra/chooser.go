package infra

import (
	"sync"

	"go.uber.org/zap"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
)

// Default chooser panel geometry in points. The panel grows with the row
// count up to a cap.
const (
	chooserWidth     = 260.0
	chooserRowHeight = 28.0
	chooserMaxRows   = 12
	chooserPadding   = 12.0
)

// PanelChooser implements domain.ChooserUI. It tracks the panel geometry
// and session state and hands rendering to a platform presenter; with the
// nil presenter it degrades to a logged no-op, which keeps the daemon
// functional for click handling on systems without the panel bridge.
type PanelChooser struct {
	mu        sync.Mutex
	logger    *zap.Logger
	presenter PanelPresenter

	open     bool
	frame    domain.Rect
	onSelect func(domain.WindowDescriptor, domain.WindowAction)
	onClose  func()
}

// PanelPresenter is the rendering half of the chooser. Implementations draw
// and tear down the panel; all decisions stay in PanelChooser.
type PanelPresenter interface {
	Show(frame domain.Rect, windows []domain.WindowDescriptor)
	Move(frame domain.Rect)
	Hide()
}

// NewPanelChooser creates a chooser. presenter may be nil.
func NewPanelChooser(presenter PanelPresenter, logger *zap.Logger) *PanelChooser {
	return &PanelChooser{presenter: presenter, logger: logger}
}

// Present shows the chooser for a new session.
func (p *PanelChooser) Present(session domain.ChooserSession) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.open = true
	p.frame = panelFrame(session.Anchor, len(session.Windows))
	p.logger.Debug("chooser presented",
		zap.Int("pid", session.App.PID),
		zap.Int("windows", len(session.Windows)))
	if p.presenter != nil {
		p.presenter.Show(p.frame, session.Windows)
	}
}

// Update replaces the window list and anchor of the open chooser in place.
func (p *PanelChooser) Update(windows []domain.WindowDescriptor, anchor domain.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return
	}

	p.frame = panelFrame(anchor, len(windows))
	if p.presenter != nil {
		p.presenter.Show(p.frame, windows)
	}
}

// Reposition moves the open chooser to a new anchor.
func (p *PanelChooser) Reposition(anchor domain.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return
	}

	p.frame.X = anchor.X - p.frame.Width/2
	p.frame.Y = anchor.Y - p.frame.Height
	if p.presenter != nil {
		p.presenter.Move(p.frame)
	}
}

// Dismiss closes the chooser and releases its resources.
func (p *PanelChooser) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return
	}

	p.open = false
	p.logger.Debug("chooser dismissed")
	if p.presenter != nil {
		p.presenter.Hide()
	}
}

// ContainsPoint reports whether pt lies within the panel inflated by margin.
func (p *PanelChooser) ContainsPoint(pt domain.Point, margin float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return false
	}
	return p.frame.Contains(pt, margin)
}

// OnWindowSelected registers the window-row click callback.
func (p *PanelChooser) OnWindowSelected(fn func(domain.WindowDescriptor, domain.WindowAction)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSelect = fn
}

// OnDismissedByUser registers the user-dismissal callback.
func (p *PanelChooser) OnDismissedByUser(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClose = fn
}

// SelectWindow is invoked by the presenter when a row is clicked.
func (p *PanelChooser) SelectWindow(desc domain.WindowDescriptor, action domain.WindowAction) {
	p.mu.Lock()
	fn := p.onSelect
	p.mu.Unlock()
	if fn != nil {
		fn(desc, action)
	}
}

// NotifyDismissed is invoked by the presenter when the user closes the panel.
func (p *PanelChooser) NotifyDismissed() {
	p.mu.Lock()
	p.open = false
	fn := p.onClose
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// panelFrame computes the panel rect above the anchor, centered on it.
func panelFrame(anchor domain.Point, rows int) domain.Rect {
	if rows < 1 {
		rows = 1
	}
	if rows > chooserMaxRows {
		rows = chooserMaxRows
	}
	height := float64(rows)*chooserRowHeight + 2*chooserPadding
	return domain.Rect{
		X:      anchor.X - chooserWidth/2,
		Y:      anchor.Y - height,
		Width:  chooserWidth,
		Height: height,
	}
}

var _ domain.ChooserUI = (*PanelChooser)(nil)
