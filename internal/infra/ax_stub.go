//go:build !darwin

package infra

import "github.com/LimTec-de/dockapptoggler/internal/domain"

// AXIntrospector is the non-darwin placeholder; every query fails. The
// daemon only ships for darwin, the stub keeps the package building and
// testable elsewhere.
type AXIntrospector struct{}

func NewAXIntrospector() *AXIntrospector {
	return &AXIntrospector{}
}

func (a *AXIntrospector) ElementAtPoint(domain.Point) (domain.Element, bool) {
	return nil, false
}

func (a *AXIntrospector) ElementPID(domain.Element) (int, bool) {
	return 0, false
}

func (a *AXIntrospector) StringAttr(domain.Element, string) (string, domain.AttrStatus) {
	return "", domain.ElementInvalid
}

func (a *AXIntrospector) BoolAttr(domain.Element, string) (bool, domain.AttrStatus) {
	return false, domain.ElementInvalid
}

func (a *AXIntrospector) PointAttr(domain.Element, string) (domain.Point, domain.AttrStatus) {
	return domain.Point{}, domain.ElementInvalid
}

func (a *AXIntrospector) SizeAttr(domain.Element, string) (domain.Rect, domain.AttrStatus) {
	return domain.Rect{}, domain.ElementInvalid
}

func (a *AXIntrospector) URLAttr(domain.Element, string) (string, domain.AttrStatus) {
	return "", domain.ElementInvalid
}

func (a *AXIntrospector) SetBoolAttr(domain.Element, string, bool) domain.AttrStatus {
	return domain.ElementInvalid
}

func (a *AXIntrospector) Perform(domain.Element, string) domain.AttrStatus {
	return domain.ElementInvalid
}

func (a *AXIntrospector) AppWindows(int) ([]domain.Element, domain.AttrStatus) {
	return nil, domain.ElementInvalid
}

func (a *AXIntrospector) WindowID(domain.Element) uint32 {
	return 0
}

func (a *AXIntrospector) OnScreenWindowCount(int) int {
	return 0
}

func (a *AXIntrospector) ScreenFrame() domain.Rect {
	return domain.Rect{}
}

func (a *AXIntrospector) Trusted(bool) bool {
	return false
}

var _ domain.Introspector = (*AXIntrospector)(nil)
