package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"school-bus-trip-service/internal/domain"
	"school-bus-trip-service/internal/platform/obs"
	"school-bus-trip-service/internal/ports"
)

// SnapshotRefresher keeps a SnapshotCache filled from a ScheduleSource.
// Each kind is fetched once at start and then on its own interval;
// a kind with a zero interval is loaded once.
type SnapshotRefresher struct {
	Source    ports.ScheduleSource
	Cache     *SnapshotCache
	Intervals map[domain.SnapshotKind]time.Duration
	Now       func() time.Time
}

// RefreshOnce fetches, decodes and stores one snapshot.
// A failed fetch leaves the previous snapshot in place. A schema mismatch
// replaces it, so lookups report the problem instead of serving stale rows.
func (r *SnapshotRefresher) RefreshOnce(ctx context.Context, kind domain.SnapshotKind) (err error) {
	defer obs.Time(ctx, "snapshot.refresh."+string(kind))(&err)

	table, err := r.Source.FetchSchedule(ctx, kind)
	if err != nil {
		obs.SnapshotRefreshes.WithLabelValues(string(kind), "fetch_error").Inc()
		return fmt.Errorf("refresh %s snapshot: %w", kind, err)
	}

	snap, err := DecodeSchedule(kind, table, r.now())
	if err != nil {
		var mismatch *domain.SchemaMismatchError
		if !errors.As(err, &mismatch) {
			obs.SnapshotRefreshes.WithLabelValues(string(kind), "fetch_error").Inc()
			return fmt.Errorf("refresh %s snapshot: %w", kind, err)
		}
		obs.SnapshotRefreshes.WithLabelValues(string(kind), "schema_mismatch").Inc()
		r.Cache.Refresh(kind, snap)
		return fmt.Errorf("refresh %s snapshot: %w", kind, err)
	}

	if snap.Malformed > 0 {
		obs.MalformedRows.WithLabelValues("schedule_" + string(kind)).Add(float64(snap.Malformed))
	}
	for _, w := range snap.Warnings {
		log.Printf("snapshot warning kind=%s msg=%q", kind, w)
	}

	r.Cache.Refresh(kind, snap)
	obs.SnapshotRefreshes.WithLabelValues(string(kind), "ok").Inc()
	obs.SnapshotRows.WithLabelValues(string(kind)).Set(float64(len(snap.Rows)))
	log.Printf("snapshot refreshed kind=%s rows=%d malformed=%d", kind, len(snap.Rows), snap.Malformed)

	return nil
}

// Run refreshes every configured kind until ctx is cancelled.
func (r *SnapshotRefresher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for kind, interval := range r.Intervals {
		wg.Add(1)
		go func(kind domain.SnapshotKind, interval time.Duration) {
			defer wg.Done()
			r.loop(ctx, kind, interval)
		}(kind, interval)
	}
	wg.Wait()
}

func (r *SnapshotRefresher) loop(ctx context.Context, kind domain.SnapshotKind, interval time.Duration) {
	if err := r.RefreshOnce(ctx, kind); err != nil {
		log.Printf("snapshot refresh failed kind=%s err=%v", kind, err)
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.RefreshOnce(ctx, kind); err != nil {
				log.Printf("snapshot refresh failed kind=%s err=%v", kind, err)
			}
		case <-ctx.Done():
			log.Printf("snapshot refresher stopping kind=%s", kind)
			return
		}
	}
}

func (r *SnapshotRefresher) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
