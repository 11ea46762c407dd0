package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/models"

	"gorm.io/datatypes"
)

func enqueue(t *testing.T, r *AgentCommandRepository, deviceID, name string) *models.AgentCommand {
	t.Helper()
	cmd := &models.AgentCommand{DeviceID: deviceID, Command: name, Args: datatypes.JSON(`{"now":true}`)}
	if err := r.Create(context.Background(), cmd); err != nil {
		t.Fatalf("create: %v", err)
	}
	return cmd
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	r := NewAgentCommandRepository(setupTestDB(t))

	a := enqueue(t, r, "demo-001", "restart")
	b := enqueue(t, r, "demo-002", "restart")
	c := enqueue(t, r, "demo-001", "update")
	if !(a.ID < b.ID && b.ID < c.ID) {
		t.Errorf("ids not increasing: %d %d %d", a.ID, b.ID, c.ID)
	}
	if a.Status != models.CommandPending {
		t.Errorf("status = %q, want pending", a.Status)
	}
}

func TestNextPendingIsLowestID(t *testing.T) {
	r := NewAgentCommandRepository(setupTestDB(t))
	ctx := context.Background()

	none, err := r.NextPending(ctx, "demo-001")
	if err != nil || none != nil {
		t.Fatalf("empty queue: got %v, %v", none, err)
	}

	first := enqueue(t, r, "demo-001", "one")
	enqueue(t, r, "demo-002", "other")
	second := enqueue(t, r, "demo-001", "two")

	next, err := r.NextPending(ctx, "demo-001")
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != first.ID {
		t.Fatalf("next = %d, want %d", next.ID, first.ID)
	}
	// Polling does not consume.
	again, _ := r.NextPending(ctx, "demo-001")
	if again.ID != first.ID {
		t.Errorf("repeated next = %d, want %d", again.ID, first.ID)
	}

	if _, err := r.Ack(ctx, "demo-001", first.ID, true, "done", t0); err != nil {
		t.Fatal(err)
	}
	next, _ = r.NextPending(ctx, "demo-001")
	if next == nil || next.ID != second.ID {
		t.Fatalf("after ack next = %v, want %d", next, second.ID)
	}
}

func TestAckTransitionsOnce(t *testing.T) {
	r := NewAgentCommandRepository(setupTestDB(t))
	ctx := context.Background()
	cmd := enqueue(t, r, "demo-001", "restart")

	acked, err := r.Ack(ctx, "demo-001", cmd.ID, true, "executed", t0)
	if err != nil {
		t.Fatalf("ack: %v", err)
	}
	if acked.Status != models.CommandAcked || acked.Success == nil || !*acked.Success || acked.Message != "executed" {
		t.Errorf("unexpected acked row %+v", acked)
	}

	_, err = r.Ack(ctx, "demo-001", cmd.ID, false, "second", t0.Add(time.Second))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second ack: expected conflict, got %v", err)
	}

	rows, _ := r.ListByDevice(ctx, "demo-001", "")
	if len(rows) != 1 || rows[0].Message != "executed" || !*rows[0].Success {
		t.Errorf("first result overwritten: %+v", rows)
	}
}

func TestAckUnknownOrForeignCommand(t *testing.T) {
	r := NewAgentCommandRepository(setupTestDB(t))
	ctx := context.Background()
	cmd := enqueue(t, r, "demo-001", "restart")

	if _, err := r.Ack(ctx, "demo-001", cmd.ID+100, true, "", t0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown id: expected not found, got %v", err)
	}
	if _, err := r.Ack(ctx, "demo-002", cmd.ID, true, "", t0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign device: expected not found, got %v", err)
	}
	next, _ := r.NextPending(ctx, "demo-001")
	if next == nil || next.ID != cmd.ID {
		t.Error("rejected ack must leave the command pending")
	}
}

func TestConcurrentAcksExactlyOneWins(t *testing.T) {
	r := NewAgentCommandRepository(setupTestDB(t))
	ctx := context.Background()
	cmd := enqueue(t, r, "demo-001", "restart")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Ack(ctx, "demo-001", cmd.ID, true, "executed", t0)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, apperr.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || conflicts != workers-1 {
		t.Errorf("wins=%d conflicts=%d, want 1 and %d", wins, conflicts, workers-1)
	}
}

func TestListByDeviceFilters(t *testing.T) {
	r := NewAgentCommandRepository(setupTestDB(t))
	ctx := context.Background()
	a := enqueue(t, r, "d", "a")
	enqueue(t, r, "d", "b")
	if _, err := r.Ack(ctx, "d", a.ID, false, "boom", t0); err != nil {
		t.Fatal(err)
	}

	all, _ := r.ListByDevice(ctx, "d", "")
	pending, _ := r.ListByDevice(ctx, "d", models.CommandPending)
	acked, _ := r.ListByDevice(ctx, "d", models.CommandAcked)
	if len(all) != 2 || len(pending) != 1 || len(acked) != 1 {
		t.Errorf("all=%d pending=%d acked=%d", len(all), len(pending), len(acked))
	}
	if all[0].ID > all[1].ID {
		t.Error("list not in id order")
	}
}
