package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"school-bus-trip-service/internal/domain"
)

func TestSnapshotCacheReturnsCopies(t *testing.T) {
	cache := NewSnapshotCache()
	src := domain.ScheduleSnapshot{Rows: []domain.ScheduleRow{{Route: "B12"}}}
	cache.Refresh(domain.SnapshotCurrent, src)

	src.Rows[0].Route = "mutated by producer"

	got, ok := cache.Get(domain.SnapshotCurrent)
	if !ok {
		t.Fatal("Get() ok = false after Refresh")
	}
	if got.Rows[0].Route != "B12" {
		t.Fatalf("Route = %q, want B12", got.Rows[0].Route)
	}
	if got.Kind != domain.SnapshotCurrent {
		t.Errorf("Kind = %q, want current", got.Kind)
	}

	got.Rows[0].Route = "mutated by reader"
	again, _ := cache.Get(domain.SnapshotCurrent)
	if again.Rows[0].Route != "B12" {
		t.Errorf("reader mutation leaked into cache: %q", again.Rows[0].Route)
	}

	if _, ok := cache.Get(domain.SnapshotHistorical); ok {
		t.Error("Get(historical) ok = true, want false before any refresh")
	}
}

func TestSnapshotCacheConcurrentAccess(t *testing.T) {
	cache := NewSnapshotCache()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			rows := make([]domain.ScheduleRow, n+1)
			for j := range rows {
				rows[j] = domain.ScheduleRow{Route: "R"}
			}
			cache.Refresh(domain.SnapshotCurrent, domain.ScheduleSnapshot{Rows: rows})
		}(i)
		go func() {
			defer wg.Done()
			if s, ok := cache.Get(domain.SnapshotCurrent); ok {
				for _, r := range s.Rows {
					if r.Route != "R" {
						t.Errorf("partial snapshot observed: %+v", r)
					}
				}
			}
		}()
	}
	wg.Wait()

	st := cache.Status()
	if !st[domain.SnapshotCurrent].Loaded || st[domain.SnapshotHistorical].Loaded {
		t.Errorf("status = %+v", st)
	}
}

type fakeScheduleSource struct {
	mu     sync.Mutex
	tables map[domain.SnapshotKind]domain.Table
	err    error
	calls  map[domain.SnapshotKind]int
}

func (f *fakeScheduleSource) FetchSchedule(_ context.Context, kind domain.SnapshotKind) (domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[domain.SnapshotKind]int{}
	}
	f.calls[kind]++
	if f.err != nil {
		return domain.Table{}, f.err
	}
	return f.tables[kind], nil
}

func (f *fakeScheduleSource) count(kind domain.SnapshotKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

func TestRefreshOnceStoresDecodedSnapshot(t *testing.T) {
	src := &fakeScheduleSource{tables: map[domain.SnapshotKind]domain.Table{
		domain.SnapshotCurrent: {
			Header: currentHeader,
			Rows:   [][]string{{"Wednesday-14", "B12", "AM", "123", "Jane", "1", "Zerega"}},
		},
	}}
	cache := NewSnapshotCache()
	r := &SnapshotRefresher{Source: src, Cache: cache, Now: func() time.Time { return testNow }}

	if err := r.RefreshOnce(context.Background(), domain.SnapshotCurrent); err != nil {
		t.Fatalf("RefreshOnce() error = %v", err)
	}

	snap, ok := cache.Get(domain.SnapshotCurrent)
	if !ok || len(snap.Rows) != 1 || !snap.FetchedAt.Equal(testNow) {
		t.Fatalf("snapshot = %+v, ok = %v", snap, ok)
	}
}

func TestRefreshOnceKeepsPreviousOnFetchError(t *testing.T) {
	cache := NewSnapshotCache()
	cache.Refresh(domain.SnapshotCurrent, domain.ScheduleSnapshot{Rows: []domain.ScheduleRow{{Route: "B12"}}})

	src := &fakeScheduleSource{err: errors.New("sheets down")}
	r := &SnapshotRefresher{Source: src, Cache: cache}

	if err := r.RefreshOnce(context.Background(), domain.SnapshotCurrent); err == nil {
		t.Fatal("RefreshOnce() error = nil, want fetch error")
	}
	snap, _ := cache.Get(domain.SnapshotCurrent)
	if len(snap.Rows) != 1 {
		t.Errorf("rows = %d, want previous snapshot kept", len(snap.Rows))
	}
}

func TestRefreshOnceStoresSchemaMismatch(t *testing.T) {
	src := &fakeScheduleSource{tables: map[domain.SnapshotKind]domain.Table{
		domain.SnapshotHistorical: {Header: []string{"Route", "Date"}, Rows: [][]string{{"B12", "x"}}},
	}}
	cache := NewSnapshotCache()
	r := &SnapshotRefresher{Source: src, Cache: cache}

	err := r.RefreshOnce(context.Background(), domain.SnapshotHistorical)
	var mismatch *domain.SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want SchemaMismatchError", err)
	}
	snap, ok := cache.Get(domain.SnapshotHistorical)
	if !ok || snap.SchemaErr == nil {
		t.Errorf("snapshot = %+v, want stored with SchemaErr", snap)
	}
}

func TestRunRefreshesOnInterval(t *testing.T) {
	src := &fakeScheduleSource{tables: map[domain.SnapshotKind]domain.Table{
		domain.SnapshotCurrent:    {Header: currentHeader},
		domain.SnapshotHistorical: {Header: historicalHeader},
	}}
	r := &SnapshotRefresher{
		Source: src,
		Cache:  NewSnapshotCache(),
		Intervals: map[domain.SnapshotKind]time.Duration{
			domain.SnapshotCurrent:    10 * time.Millisecond,
			domain.SnapshotHistorical: 0,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for src.count(domain.SnapshotCurrent) < 3 {
		select {
		case <-deadline:
			t.Fatalf("current refreshed %d times, want >= 3", src.count(domain.SnapshotCurrent))
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if got := src.count(domain.SnapshotHistorical); got != 1 {
		t.Errorf("historical refreshed %d times, want 1", got)
	}
}
