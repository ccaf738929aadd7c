//go:build !darwin

package infra

import (
	"errors"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
)

// CGEventTap is the non-darwin placeholder; Start always fails.
type CGEventTap struct{}

func NewCGEventTap() *CGEventTap {
	return &CGEventTap{}
}

func (t *CGEventTap) Start(func(domain.PointerEvent)) error {
	return errors.New("global event tap unsupported on this platform")
}

func (t *CGEventTap) Stop() {}

func (t *CGEventTap) Enabled() bool {
	return false
}

var _ domain.EventTap = (*CGEventTap)(nil)
