package state

import (
	"sync/atomic"
	"time"
)

// Process-wide agent state shared by the loop and the command handlers.
type appState struct {
	DeviceID  atomic.Value // string
	LastError atomic.Value // string
	Interval  atomic.Int64 // time.Duration
}

var s appState

func SetDeviceID(id string) { s.DeviceID.Store(id) }
func GetDeviceID() string {
	if v, ok := s.DeviceID.Load().(string); ok {
		return v
	}
	return ""
}

// SetLastError records the most recent failure; "" clears it.
func SetLastError(msg string) { s.LastError.Store(msg) }
func GetLastError() string {
	if v, ok := s.LastError.Load().(string); ok {
		return v
	}
	return ""
}

func SetInterval(d time.Duration) { s.Interval.Store(int64(d)) }
func GetInterval() time.Duration  { return time.Duration(s.Interval.Load()) }
