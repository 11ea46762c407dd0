//go:build linux

package collector

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func sampleSystem(s *Snapshot, diskPath string) {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err == nil {
		unit := float64(si.Unit)
		if unit == 0 {
			unit = 1
		}
		total := float64(si.Totalram) * unit
		free := float64(si.Freeram+si.Bufferram) * unit
		s.RAM = percent(total-free, total)
		s.UptimeSec = int64(si.Uptime)
		// loads are fixed-point with 16 fractional bits
		load1 := float64(si.Loads[0]) / 65536
		s.CPU = round1(load1 / float64(runtime.NumCPU()) * 100)
	}
	if diskPath == "" {
		diskPath = "/"
	}
	var st unix.Statfs_t
	if err := unix.Statfs(diskPath, &st); err == nil {
		bsize := float64(st.Bsize)
		total := float64(st.Blocks) * bsize
		avail := float64(st.Bavail) * bsize
		s.Disk = percent(total-avail, total)
	}
}
