package services

import (
	"sync"
	"time"

	"school-bus-trip-service/internal/domain"
)

// SnapshotCache holds the latest decoded schedule snapshot per kind.
// The lock covers only the copy in Get and the replace in Refresh.
type SnapshotCache struct {
	mu        sync.Mutex
	snapshots map[domain.SnapshotKind]domain.ScheduleSnapshot
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{snapshots: make(map[domain.SnapshotKind]domain.ScheduleSnapshot)}
}

// Get returns a copy of the snapshot for kind and whether one has been loaded.
func (c *SnapshotCache) Get(kind domain.SnapshotKind) (domain.ScheduleSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.snapshots[kind]
	if !ok {
		return domain.ScheduleSnapshot{}, false
	}
	return s.Clone(), true
}

// Refresh replaces the snapshot for kind. The cache keeps its own copy.
func (c *SnapshotCache) Refresh(kind domain.SnapshotKind, snap domain.ScheduleSnapshot) {
	snap = snap.Clone()
	snap.Kind = kind

	c.mu.Lock()
	c.snapshots[kind] = snap
	c.mu.Unlock()
}

// SnapshotStatus describes a cached snapshot for health reporting.
type SnapshotStatus struct {
	Loaded    bool
	Rows      int
	FetchedAt time.Time
	Error     string
}

// Status reports every known kind without copying rows.
func (c *SnapshotCache) Status() map[domain.SnapshotKind]SnapshotStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := map[domain.SnapshotKind]SnapshotStatus{
		domain.SnapshotCurrent:    {},
		domain.SnapshotHistorical: {},
	}
	for kind, s := range c.snapshots {
		st := SnapshotStatus{Loaded: true, Rows: len(s.Rows), FetchedAt: s.FetchedAt}
		if s.SchemaErr != nil {
			st.Error = s.SchemaErr.Error()
		}
		out[kind] = st
	}
	return out
}
