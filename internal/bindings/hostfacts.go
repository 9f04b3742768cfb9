package bindings

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// GopsutilHostFacts implements HostFacts over github.com/shirou/gopsutil/v4,
// the same library the teacher uses for its own host-resource sampling.
type GopsutilHostFacts struct{}

func (GopsutilHostFacts) CPUCount() (int, error) {
	counts, err := cpu.Counts(true)
	if err != nil {
		return 0, err
	}
	return counts, nil
}

func (GopsutilHostFacts) MemoryTotalBytes() (uint64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return v.Total, nil
}
