// Package usecase contains the application business logic: dock hit-testing,
// window state snapshots, and the selection controller.
package usecase

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
)

// DockItemSubrole is the introspection subrole of an application icon in
// the launcher strip.
const DockItemSubrole = "AXApplicationDockItem"

// HitTesterConfig tunes the icon-band guard.
type HitTesterConfig struct {
	// IconBandHeight is the launcher strip height in points, before
	// magnification.
	IconBandHeight float64

	// MagnificationScale inflates the band when icon magnification is
	// active (1.0 = off).
	MagnificationScale float64

	// BandMargin is extra slack above the band.
	BandMargin float64
}

// DefaultHitTesterConfig returns default hit-tester configuration.
func DefaultHitTesterConfig() HitTesterConfig {
	return HitTesterConfig{
		IconBandHeight:     76,
		MagnificationScale: 2.0,
		BandMargin:         20,
	}
}

// HitTester resolves a screen point to the dock icon under it and the
// running application that icon stands for. Stateless between calls; every
// result is recomputed.
type HitTester struct {
	config   HitTesterConfig
	ax       domain.Introspector
	registry domain.ProcessRegistry
	logger   *zap.Logger
}

// NewHitTester creates a hit tester.
func NewHitTester(
	config HitTesterConfig,
	ax domain.Introspector,
	registry domain.ProcessRegistry,
	logger *zap.Logger,
) *HitTester {
	return &HitTester{
		config:   config,
		ax:       ax,
		registry: registry,
		logger:   logger,
	}
}

// BandTop returns the Y coordinate of the icon band's upper edge for the
// given screen. Points with Y >= BandTop are inside the band; the boundary
// itself is inclusive.
func (h *HitTester) BandTop(screen domain.Rect) float64 {
	band := h.config.IconBandHeight*h.config.MagnificationScale + h.config.BandMargin
	return screen.Y + screen.Height - band
}

// HitTest resolves p to a dock icon hit. It never errors: any failed stage
// yields (zero, false).
func (h *HitTester) HitTest(p domain.Point) (domain.DockIconHit, bool) {
	screen := h.ax.ScreenFrame()
	if p.Y < h.BandTop(screen) {
		return domain.DockIconHit{}, false
	}

	el, ok := h.ax.ElementAtPoint(p)
	if !ok {
		return domain.DockIconHit{}, false
	}

	// Anti-spoofing: only trust elements owned by the launcher shell.
	pid, ok := h.ax.ElementPID(el)
	if !ok {
		return domain.DockIconHit{}, false
	}
	dockPID := h.registry.DockPID()
	if dockPID == 0 || pid != dockPID {
		return domain.DockIconHit{}, false
	}

	if sub, st := h.ax.StringAttr(el, domain.AttrSubrole); st == domain.AttrOK && sub != DockItemSubrole {
		return domain.DockIconHit{}, false
	}

	pos, st := h.ax.PointAttr(el, domain.AttrPosition)
	if st != domain.AttrOK {
		return domain.DockIconHit{}, false
	}
	size, st := h.ax.SizeAttr(el, domain.AttrSize)
	if st != domain.AttrOK {
		return domain.DockIconHit{}, false
	}
	frame := domain.Rect{X: pos.X, Y: pos.Y, Width: size.Width, Height: size.Height}

	url, st := h.ax.URLAttr(el, domain.AttrURL)
	if st != domain.AttrOK || url == "" {
		return domain.DockIconHit{}, false
	}

	app, ok := h.resolveApp(url)
	if !ok {
		h.logger.Debug("dock icon has no running application", zap.String("url", url))
		return domain.DockIconHit{}, false
	}

	return domain.DockIconHit{
		App:       app,
		Anchor:    domain.Point{X: frame.X + frame.Width/2, Y: frame.Y},
		IconFrame: frame,
		SourceURL: url,
	}, true
}

// InBand reports whether p lies within the icon band. Used by the
// controller's leave hysteresis.
func (h *HitTester) InBand(p domain.Point) bool {
	return p.Y >= h.BandTop(h.ax.ScreenFrame())
}

// resolveApp maps an icon's source URL to a running application. Exact
// bundle-path match wins, then exact process-name match (covers
// compatibility-layer executables without a bundle identity), then
// substring match.
func (h *HitTester) resolveApp(url string) (domain.AppInfo, bool) {
	apps, err := h.registry.RunningApplications()
	if err != nil {
		h.logger.Debug("listing running applications failed", zap.Error(err))
		return domain.AppInfo{}, false
	}

	for _, app := range apps {
		if app.BundlePath != "" && app.BundlePath == url {
			return app, true
		}
	}

	name := strings.TrimSuffix(filepath.Base(url), ".app")
	for _, app := range apps {
		if strings.EqualFold(app.Name, name) {
			return app, true
		}
	}

	lower := strings.ToLower(name)
	for _, app := range apps {
		if strings.Contains(strings.ToLower(app.Name), lower) {
			return app, true
		}
	}

	return domain.AppInfo{}, false
}
