package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/models"
)

const threshold = 30 * time.Second

func TestStatus(t *testing.T) {
	seen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		elapsed time.Duration
		want    models.DeviceStatus
	}{
		{0, models.StatusOnline},
		{threshold / 2, models.StatusOnline},
		{threshold, models.StatusOnline},
		{threshold + time.Nanosecond, models.StatusOffline},
		{2 * threshold, models.StatusOffline},
		{-time.Minute, models.StatusOnline},
	}
	for _, c := range cases {
		if got := Status(seen, seen.Add(c.elapsed), threshold); got != c.want {
			t.Errorf("Status(+%v) = %s, want %s", c.elapsed, got, c.want)
		}
	}
}

func TestHeartbeatThenGetTracksThreshold(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	svc := NewDeviceService(newMemStore(), threshold).WithClock(clk.Now)

	v, err := svc.RecordHeartbeat(ctx, HeartbeatReport{DeviceID: "demo-002", Version: "1.2.0"})
	if err != nil {
		t.Fatalf("RecordHeartbeat: %v", err)
	}
	if v.Status != models.StatusOnline || v.Version != "1.2.0" {
		t.Fatalf("view = %+v", v)
	}
	if string(v.LastMetrics) != "{}" {
		t.Fatalf("metrics = %s, want {}", v.LastMetrics)
	}

	clk.Advance(threshold / 2)
	if v, _ = svc.Get(ctx, "demo-002"); v.Status != models.StatusOnline {
		t.Fatalf("at T+threshold/2 status = %s", v.Status)
	}
	clk.Advance(threshold + threshold/2)
	if v, _ = svc.Get(ctx, "demo-002"); v.Status != models.StatusOffline {
		t.Fatalf("at T+2*threshold status = %s", v.Status)
	}

	// a new heartbeat brings it straight back
	v, err = svc.RecordHeartbeat(ctx, HeartbeatReport{DeviceID: "demo-002", Version: "1.2.1"})
	if err != nil || v.Status != models.StatusOnline {
		t.Fatalf("after re-heartbeat: %+v, %v", v, err)
	}
}

func TestGetUnknownDevice(t *testing.T) {
	svc := NewDeviceService(newMemStore(), threshold)
	_, err := svc.Get(context.Background(), "ghost")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListComputesStatusPerDevice(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	svc := NewDeviceService(newMemStore(), threshold).WithClock(clk.Now)

	if _, err := svc.RecordHeartbeat(ctx, HeartbeatReport{DeviceID: "old"}); err != nil {
		t.Fatal(err)
	}
	clk.Advance(time.Minute)
	if _, err := svc.RecordHeartbeat(ctx, HeartbeatReport{DeviceID: "fresh"}); err != nil {
		t.Fatal(err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].DeviceID != "old" || list[1].DeviceID != "fresh" {
		t.Fatalf("list = %+v", list)
	}
	if list[0].Status != models.StatusOffline || list[1].Status != models.StatusOnline {
		t.Fatalf("statuses = %s, %s", list[0].Status, list[1].Status)
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	svc := NewDeviceService(newMemStore(), threshold).WithClock(clk.Now)

	if _, err := svc.History(ctx, "ghost", 10); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown device err = %v", err)
	}
	for _, v := range []string{"1", "2", "3"} {
		if _, err := svc.RecordHeartbeat(ctx, HeartbeatReport{DeviceID: "d", Version: v}); err != nil {
			t.Fatal(err)
		}
		clk.Advance(time.Second)
	}
	hb, err := svc.History(ctx, "d", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hb) != 2 || hb[0].Version != "3" || hb[1].Version != "2" {
		t.Fatalf("history = %+v", hb)
	}
	if _, err := svc.History(ctx, "d", -1); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("negative limit err = %v", err)
	}
}

func TestRecordHeartbeatStorageFailure(t *testing.T) {
	store := newMemStore()
	store.failNext = apperr.Storage(errors.New("disk full"))
	svc := NewDeviceService(store, threshold)

	_, err := svc.RecordHeartbeat(context.Background(), HeartbeatReport{DeviceID: "d"})
	if !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	if _, err := svc.Get(context.Background(), "d"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("failed heartbeat left a device behind: %v", err)
	}
}
