package health

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestMonitor_Update(t *testing.T) {
	monitor := NewMonitor()

	// The stored component name follows the key, not the Status field.
	monitor.Update("stream", Status{
		Component: "something-else",
		Healthy:   true,
		Status:    StateHealthy,
		Message:   "connected",
	})

	status, ok := monitor.Get("stream")
	if !ok {
		t.Fatal("expected status for stream component")
	}
	if status.Component != "stream" {
		t.Errorf("expected component name stream, got %s", status.Component)
	}
	if status.Timestamp.IsZero() {
		t.Error("expected zero timestamp to be stamped on update")
	}

	// An explicit timestamp is preserved.
	stamped := time.Now().Add(-time.Hour)
	monitor.Update("cache", Status{Status: StateHealthy, Timestamp: stamped})
	status, _ = monitor.Get("cache")
	if !status.Timestamp.Equal(stamped) {
		t.Errorf("expected timestamp %v to be preserved, got %v", stamped, status.Timestamp)
	}
}

func TestMonitor_ConvenienceMethods(t *testing.T) {
	tests := []struct {
		name        string
		update      func(m *Monitor)
		wantState   string
		wantHealthy bool
	}{
		{
			name:        "healthy",
			update:      func(m *Monitor) { m.UpdateHealthy("comp", "all good") },
			wantState:   StateHealthy,
			wantHealthy: true,
		},
		{
			name:        "degraded",
			update:      func(m *Monitor) { m.UpdateDegraded("comp", "slow responses") },
			wantState:   StateDegraded,
			wantHealthy: false,
		},
		{
			name:        "unhealthy",
			update:      func(m *Monitor) { m.UpdateUnhealthy("comp", "connection lost") },
			wantState:   StateUnhealthy,
			wantHealthy: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := NewMonitor()
			tt.update(monitor)

			status, ok := monitor.Get("comp")
			if !ok {
				t.Fatal("expected status for comp")
			}
			if status.Status != tt.wantState {
				t.Errorf("expected state %s, got %s", tt.wantState, status.Status)
			}
			if status.Healthy != tt.wantHealthy {
				t.Errorf("expected healthy=%v, got %v", tt.wantHealthy, status.Healthy)
			}
		})
	}
}

func TestMonitor_UpdateSnapshot(t *testing.T) {
	monitor := NewMonitor()

	monitor.UpdateSnapshot("stream", Snapshot{
		Healthy:   false,
		LastError: "dial ws://feed.example.com:8080 refused",
		Uptime:    2 * time.Minute,
	})

	status, ok := monitor.Get("stream")
	if !ok {
		t.Fatal("expected status for stream component")
	}
	if !status.IsUnhealthy() {
		t.Errorf("expected unhealthy state, got %s", status.Status)
	}
	if status.Message == "" {
		t.Error("expected error message from snapshot")
	}
	// The probe error passes through sanitization before reaching the status.
	if strings.Contains(status.Message, "feed.example.com") {
		t.Errorf("expected URL to be sanitized, got %q", status.Message)
	}

	monitor.UpdateSnapshot("stream", Snapshot{Healthy: true, Uptime: time.Hour})
	status, _ = monitor.Get("stream")
	if !status.IsHealthy() {
		t.Errorf("expected healthy state after recovery, got %s", status.Status)
	}
}

func TestMonitor_Get(t *testing.T) {
	monitor := NewMonitor()

	if _, ok := monitor.Get("nonexistent"); ok {
		t.Error("expected no status for unknown component")
	}

	monitor.UpdateHealthy("rpc", "responsive")
	if _, ok := monitor.Get("rpc"); !ok {
		t.Error("expected status for tracked component")
	}
}

func TestMonitor_Statuses(t *testing.T) {
	monitor := NewMonitor()

	if len(monitor.Statuses()) != 0 {
		t.Error("expected empty map for new monitor")
	}

	monitor.UpdateHealthy("sdk", "running")
	monitor.UpdateUnhealthy("stream", "disconnected")
	monitor.UpdateDegraded("plugin:metrics", "init pending")

	all := monitor.Statuses()
	if len(all) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(all))
	}
	for _, name := range []string{"sdk", "stream", "plugin:metrics"} {
		if _, ok := all[name]; !ok {
			t.Errorf("expected %s in statuses", name)
		}
	}

	// Mutating the returned map must not touch the monitor.
	delete(all, "sdk")
	if _, ok := monitor.Get("sdk"); !ok {
		t.Error("expected Statuses to return a copy")
	}
}

func TestMonitor_Remove(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("plugin:logging", "loaded")

	monitor.Remove("plugin:logging")
	if _, ok := monitor.Get("plugin:logging"); ok {
		t.Error("expected component to be gone after remove")
	}
	if monitor.Count() != 0 {
		t.Errorf("expected count 0, got %d", monitor.Count())
	}

	// Removing an unknown component is a no-op.
	monitor.Remove("nonexistent")
}

func TestMonitor_AggregateHealth(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(m *Monitor)
		wantState   string
		wantMessage string
		wantSubs    int
	}{
		{
			name:        "empty monitor is healthy",
			setup:       func(m *Monitor) {},
			wantState:   StateHealthy,
			wantMessage: "no components tracked",
			wantSubs:    0,
		},
		{
			name: "all healthy",
			setup: func(m *Monitor) {
				m.UpdateHealthy("sdk", "running")
				m.UpdateHealthy("stream", "connected")
			},
			wantState:   StateHealthy,
			wantMessage: "all 2 components healthy",
			wantSubs:    2,
		},
		{
			name: "degraded component degrades the system",
			setup: func(m *Monitor) {
				m.UpdateHealthy("sdk", "running")
				m.UpdateDegraded("plugin:metrics", "init pending")
			},
			wantState:   StateDegraded,
			wantMessage: "1 of 2 components degraded",
			wantSubs:    2,
		},
		{
			name: "unhealthy outranks degraded",
			setup: func(m *Monitor) {
				m.UpdateHealthy("sdk", "running")
				m.UpdateDegraded("plugin:metrics", "init pending")
				m.UpdateUnhealthy("stream", "disconnected")
			},
			wantState:   StateUnhealthy,
			wantMessage: "1 of 3 components unhealthy",
			wantSubs:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := NewMonitor()
			tt.setup(monitor)

			agg := monitor.AggregateHealth("hypersim")
			if agg.Component != "hypersim" {
				t.Errorf("expected component hypersim, got %s", agg.Component)
			}
			if agg.Status != tt.wantState {
				t.Errorf("expected state %s, got %s", tt.wantState, agg.Status)
			}
			if agg.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, agg.Message)
			}
			if len(agg.SubStatuses) != tt.wantSubs {
				t.Errorf("expected %d sub-statuses, got %d", tt.wantSubs, len(agg.SubStatuses))
			}
		})
	}
}

func TestMonitor_AggregateHealthRecovery(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("sdk", "running")
	monitor.UpdateUnhealthy("stream", "reconnecting")

	if agg := monitor.AggregateHealth("hypersim"); !agg.IsUnhealthy() {
		t.Errorf("expected unhealthy aggregate, got %s", agg.Status)
	}

	monitor.UpdateHealthy("stream", "connected")
	if agg := monitor.AggregateHealth("hypersim"); !agg.IsHealthy() {
		t.Errorf("expected healthy aggregate after recovery, got %s", agg.Status)
	}
}

func TestMonitor_ConcurrentAccess(t *testing.T) {
	monitor := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			name := fmt.Sprintf("comp-%d", id)
			for j := 0; j < 100; j++ {
				if j%2 == 0 {
					monitor.UpdateHealthy(name, "healthy")
				} else {
					monitor.UpdateUnhealthy(name, "unhealthy")
				}
				monitor.Get(name)
				monitor.AggregateHealth("system")
				_ = monitor.Statuses()
			}
		}(i)
	}
	wg.Wait()

	if monitor.Count() != 10 {
		t.Errorf("expected 10 components after concurrent updates, got %d", monitor.Count())
	}
}
