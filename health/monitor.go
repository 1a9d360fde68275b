package health

import (
	"fmt"
	"sync"
	"time"
)

// Monitor collects per-component statuses and rolls them up into a single
// SDK health report. The facade rebuilds one on each Health call, feeding
// it the pipeline's plugin probes and the stream manager's snapshot.
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		statuses: make(map[string]Status),
	}
}

// Update records the status for a component. The status is stored under
// name regardless of its Component field; a missing timestamp is stamped
// with the current time.
func (m *Monitor) Update(name string, status Status) {
	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[name] = status
}

// UpdateHealthy records a component as healthy.
func (m *Monitor) UpdateHealthy(name, message string) {
	m.Update(name, NewStatus(name, StateHealthy, message))
}

// UpdateDegraded records a component as degraded.
func (m *Monitor) UpdateDegraded(name, message string) {
	m.Update(name, NewStatus(name, StateDegraded, message))
}

// UpdateUnhealthy records a component as unhealthy.
func (m *Monitor) UpdateUnhealthy(name, message string) {
	m.Update(name, NewStatus(name, StateUnhealthy, message))
}

// UpdateSnapshot records a component from its raw probe output. The
// snapshot's last error is sanitized before it becomes the status message.
func (m *Monitor) UpdateSnapshot(name string, snap Snapshot) {
	m.Update(name, FromSnapshot(name, snap))
}

// Get returns the recorded status for a component.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statuses[name]
	return status, ok
}

// Statuses returns a copy of every recorded status, keyed by component.
func (m *Monitor) Statuses() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Status, len(m.statuses))
	for name, status := range m.statuses {
		out[name] = status
	}
	return out
}

// Remove drops a component from the monitor.
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, name)
}

// Count returns the number of tracked components.
func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.statuses)
}

// AggregateHealth rolls every tracked component into one status for the
// named system. The worst component state wins: any unhealthy component
// makes the system unhealthy, otherwise any degraded component makes it
// degraded. An empty monitor reports healthy.
func (m *Monitor) AggregateHealth(system string) Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs := make([]Status, 0, len(m.statuses))
	unhealthy, degraded := 0, 0
	for _, status := range m.statuses {
		subs = append(subs, status)
		switch {
		case status.IsUnhealthy():
			unhealthy++
		case status.IsDegraded():
			degraded++
		}
	}

	var agg Status
	switch {
	case len(subs) == 0:
		agg = NewStatus(system, StateHealthy, "no components tracked")
	case unhealthy > 0:
		agg = NewStatus(system, StateUnhealthy,
			fmt.Sprintf("%d of %d components unhealthy", unhealthy, len(subs)))
	case degraded > 0:
		agg = NewStatus(system, StateDegraded,
			fmt.Sprintf("%d of %d components degraded", degraded, len(subs)))
	default:
		agg = NewStatus(system, StateHealthy,
			fmt.Sprintf("all %d components healthy", len(subs)))
	}
	agg.SubStatuses = subs
	return agg
}
