package collector

import (
	"math"
	"os"
	"runtime"

	"fleetpulse/agent/internal/state"
)

// Snapshot is the metrics object sent with every heartbeat.
type Snapshot struct {
	Hostname  string  `json:"hostname"`
	CPU       float64 `json:"cpu"`
	RAM       float64 `json:"ram"`
	Disk      float64 `json:"disk"`
	UptimeSec int64   `json:"uptime_sec"`
	OS        string  `json:"os"`
	Arch      string  `json:"arch"`
	Status    string  `json:"status"`
	LastError string  `json:"last_error,omitempty"`
}

// Collect never fails; figures the platform cannot provide are left at zero.
func Collect(diskPath string) Snapshot {
	host, _ := os.Hostname()
	s := Snapshot{
		Hostname: host,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		Status:   "ok",
	}
	sampleSystem(&s, diskPath)
	if msg := state.GetLastError(); msg != "" {
		s.Status = "error"
		s.LastError = msg
	}
	return s
}

func percent(used, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return round1(used / total * 100)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
