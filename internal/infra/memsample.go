// Package infra implements the platform adapters (introspection, process
// registry, event tap, memory sampling, daemon registry).
package infra

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
)

const (
	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * 1024 * 1024
)

// ProcessMemorySampler implements domain.MemorySampler using gopsutil
// against the current process.
type ProcessMemorySampler struct {
	pid int32
}

// NewProcessMemorySampler creates a sampler for the current process.
func NewProcessMemorySampler() *ProcessMemorySampler {
	return &ProcessMemorySampler{pid: int32(os.Getpid())}
}

// Sample returns a point-in-time health sample. Compressed memory is not
// exposed by the kernel accounting gopsutil reads, so it is reported as 0
// and the watchdog thresholds work from resident size alone.
func (s *ProcessMemorySampler) Sample() (domain.HealthSample, error) {
	p, err := process.NewProcess(s.pid)
	if err != nil {
		return domain.HealthSample{}, err
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		return domain.HealthSample{}, err
	}

	return domain.HealthSample{
		ResidentMB: float64(mem.RSS) / bytesPerMB,
		VirtualGB:  float64(mem.VMS) / bytesPerGB,
	}, nil
}

var _ domain.MemorySampler = (*ProcessMemorySampler)(nil)
