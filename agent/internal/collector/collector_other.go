//go:build !linux

package collector

import "runtime"

// Without a portable system API only the Go heap is reported as memory use.
func sampleSystem(s *Snapshot, _ string) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s.RAM = percent(float64(m.HeapInuse), float64(m.Sys))
}
