package segments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"routeboard/internal/models"
)

// fakeBackend records routing and visual calls. When gate is non-nil every
// CreateRouteSegment announces itself on started and then blocks until a
// value arrives on gate, which lets tests pin the drain loop mid-call.
type fakeBackend struct {
	mu      sync.Mutex
	calls   []string
	fail    map[string]error
	started chan string
	gate    chan struct{}

	nextHandle int
	draws      map[string]models.RouteSegment // handle -> segment at draw time
	updates    []models.RouteSegment
	removed    []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		fail:  make(map[string]error),
		draws: make(map[string]models.RouteSegment),
	}
}

func (f *fakeBackend) CreateRouteSegment(ctx context.Context, from, to models.SegmentStop) (*models.RouteData, error) {
	key := models.SegmentID(from.ID, to.ID)
	if f.started != nil {
		f.started <- key
	}
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	f.calls = append(f.calls, key)
	err := f.fail[key]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &models.RouteData{
		Polyline:        "poly-" + key,
		DistanceMeters:  1200,
		DurationSeconds: 240,
	}, nil
}

func (f *fakeBackend) DrawRouteSegment(seg models.RouteSegment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextHandle++
	handle := fmt.Sprintf("h%d", f.nextHandle)
	f.draws[handle] = seg
	return handle, nil
}

func (f *fakeBackend) UpdateRouteSegment(handle string, seg models.RouteSegment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, seg)
	return nil
}

func (f *fakeBackend) RemoveRouteSegment(handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, handle)
	return nil
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func stop(id string, lat, lng float64) models.SegmentStop {
	return models.SegmentStop{ID: id, Location: models.GeoPoint{Latitude: lat, Longitude: lng}}
}

func TestUpsertResolvesToSameIDAndMergesInPlace(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(backend)

	first := m.Upsert(stop("X", 1, 1), stop("Y", 2, 2))
	m.Wait()

	second := m.Upsert(stop("X", 1.5, 1.5), stop("Y", 2, 2))
	m.Wait()

	if first.ID != second.ID || first.ID != "X-Y" {
		t.Fatalf("ids differ: %q vs %q", first.ID, second.ID)
	}
	if got := len(m.ListAll()); got != 1 {
		t.Fatalf("expected a single segment record, got %d", got)
	}
	seg, _ := m.Get("X-Y")
	if seg.From.Location.Latitude != 1.5 {
		t.Fatalf("upsert did not merge new stop payload: %+v", seg.From)
	}
	// The merge itself must not trigger a second calculation.
	if calls := backend.callLog(); len(calls) != 1 {
		t.Fatalf("expected 1 backend call, got %v", calls)
	}
}

func TestCalculationPopulatesSegment(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(backend)

	m.Upsert(stop("A", 10, 20), stop("B", 11, 21))
	m.Wait()

	seg, ok := m.Get("A-B")
	if !ok {
		t.Fatal("segment missing after upsert")
	}
	if seg.Status != models.SegmentCalculated {
		t.Fatalf("status = %q, want calculated", seg.Status)
	}
	if seg.DistanceMeters != 1200 || seg.DurationSeconds != 240 {
		t.Fatalf("metrics not stored: %+v", seg)
	}
	// The fake returns no geometry, so the segment falls back to a
	// straight line between its stops.
	if len(seg.Geometry) != 2 || seg.Geometry[0].Latitude != 10 || seg.Geometry[1].Latitude != 11 {
		t.Fatalf("straight-line fallback missing: %+v", seg.Geometry)
	}
	if seg.CreatedAt.IsZero() || seg.UpdatedAt.Before(seg.CreatedAt) {
		t.Fatalf("timestamps not maintained: created=%v updated=%v", seg.CreatedAt, seg.UpdatedAt)
	}
}

func TestSingleFlightQueueDeduplicates(t *testing.T) {
	backend := newFakeBackend()
	backend.started = make(chan string, 8)
	backend.gate = make(chan struct{})
	m := NewManager(backend)

	// Pin the drain loop on X-Y so later enqueues stay queued.
	m.Upsert(stop("X", 0, 0), stop("Y", 1, 1))
	<-backend.started

	m.Upsert(stop("A", 2, 2), stop("B", 3, 3))
	m.Recalculate("A-B")
	m.Recalculate("A-B")

	if !m.IsCalculating("X-Y") {
		t.Fatal("segment with an in-flight call must report calculating")
	}
	if !m.IsCalculating("A-B") {
		t.Fatal("queued segment must report calculating")
	}

	backend.gate <- struct{}{} // release X-Y
	<-backend.started          // A-B begins exactly once
	backend.gate <- struct{}{}
	m.Wait()

	calls := backend.callLog()
	if len(calls) != 2 || calls[0] != "X-Y" || calls[1] != "A-B" {
		t.Fatalf("call log = %v, want [X-Y A-B]", calls)
	}
	if m.IsCalculating("A-B") {
		t.Fatal("drained segment still reports calculating")
	}
}

func TestRemoveExcisesQueuedWork(t *testing.T) {
	backend := newFakeBackend()
	backend.started = make(chan string, 8)
	backend.gate = make(chan struct{})
	m := NewManager(backend)

	m.Upsert(stop("X", 0, 0), stop("Y", 1, 1))
	<-backend.started

	m.Upsert(stop("A", 2, 2), stop("B", 3, 3))
	m.Remove("A-B")

	backend.gate <- struct{}{}
	m.Wait()

	for _, call := range backend.callLog() {
		if call == "A-B" {
			t.Fatal("queued work for a removed segment must never execute")
		}
	}
}

func TestRemoveDuringFlightDiscardsLateResult(t *testing.T) {
	backend := newFakeBackend()
	backend.started = make(chan string, 8)
	backend.gate = make(chan struct{})
	m := NewManager(backend)

	m.Upsert(stop("A", 0, 0), stop("B", 1, 1))
	<-backend.started

	m.Remove("A-B")
	backend.gate <- struct{}{}
	m.Wait()

	if _, ok := m.Get("A-B"); ok {
		t.Fatal("removed segment reappeared from a late backend result")
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.draws) != 0 {
		t.Fatalf("late result must not be drawn, got %d draws", len(backend.draws))
	}
}

func TestFailureLandsOnSegmentAndIsReenterable(t *testing.T) {
	backend := newFakeBackend()
	backend.fail["A-B"] = errors.New("no route between points")
	m := NewManager(backend)

	m.Upsert(stop("A", 0, 0), stop("B", 1, 1))
	m.Wait()

	seg, _ := m.Get("A-B")
	if seg.Status != models.SegmentFailed {
		t.Fatalf("status = %q, want failed", seg.Status)
	}
	if seg.Error != "no route between points" {
		t.Fatalf("error message not stored: %q", seg.Error)
	}
	if !seg.Style.Dashed {
		t.Fatal("failed segments must carry the distinct failed style")
	}

	// No automatic retry: the segment stays failed until asked again.
	backend.mu.Lock()
	delete(backend.fail, "A-B")
	backend.mu.Unlock()

	m.Recalculate("A-B")
	m.Wait()

	seg, _ = m.Get("A-B")
	if seg.Status != models.SegmentCalculated || seg.Error != "" {
		t.Fatalf("recalculate after failure: status=%q err=%q", seg.Status, seg.Error)
	}
	if seg.Style != models.DefaultSegmentStyle() {
		t.Fatalf("recovered segment keeps the failed style: %+v", seg.Style)
	}
}

func TestFailureWhileHighlightedWinsOverRestore(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(backend)

	m.Upsert(stop("A", 0, 0), stop("B", 1, 1))
	m.Wait()

	m.Highlight("A-B")

	backend.mu.Lock()
	backend.fail["A-B"] = errors.New("no route between points")
	backend.mu.Unlock()

	m.Recalculate("A-B")
	m.Wait()

	seg, _ := m.Get("A-B")
	if seg.Style != models.FailedSegmentStyle() {
		t.Fatalf("failure under highlight: style = %+v, want failed", seg.Style)
	}

	// The snapshot was reconciled, so unhighlighting must not bring back
	// the healthy pre-highlight style.
	m.Unhighlight("A-B")
	seg, _ = m.Get("A-B")
	if seg.Style != models.FailedSegmentStyle() {
		t.Fatalf("unhighlight hid the failure: style = %+v", seg.Style)
	}
}

func TestRecoveryWhileHighlightedRebasesSnapshot(t *testing.T) {
	backend := newFakeBackend()
	backend.fail["A-B"] = errors.New("boom")
	m := NewManager(backend)

	m.Upsert(stop("A", 0, 0), stop("B", 1, 1))
	m.Wait()

	m.Highlight("A-B")

	backend.mu.Lock()
	delete(backend.fail, "A-B")
	backend.mu.Unlock()

	m.Recalculate("A-B")
	m.Wait()

	seg, _ := m.Get("A-B")
	if seg.Style != models.HighlightSegmentStyle() {
		t.Fatalf("highlight lost across recovery: %+v", seg.Style)
	}

	m.Unhighlight("A-B")
	seg, _ = m.Get("A-B")
	if seg.Style != models.DefaultSegmentStyle() {
		t.Fatalf("unhighlight after recovery: style = %+v, want default", seg.Style)
	}
}

func TestHighlightRoundTripRestoresOriginalStyle(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(backend)

	m.Upsert(stop("A", 0, 0), stop("B", 1, 1))
	m.Wait()

	before, _ := m.Get("A-B")

	m.Highlight("A-B")
	mid, _ := m.Get("A-B")
	if mid.Style == before.Style {
		t.Fatal("highlight did not change the style")
	}

	// A second highlight must not overwrite the snapshot with the
	// highlight style itself.
	m.Highlight("A-B")

	m.Unhighlight("A-B")
	after, _ := m.Get("A-B")
	if after.Style != before.Style {
		t.Fatalf("style not restored: got %+v, want %+v", after.Style, before.Style)
	}

	// Unpaired unhighlight is a no-op.
	m.Unhighlight("A-B")
	again, _ := m.Get("A-B")
	if again.Style != before.Style {
		t.Fatalf("unpaired unhighlight changed the style: %+v", again.Style)
	}
}

func TestListByStatus(t *testing.T) {
	backend := newFakeBackend()
	backend.fail["C-D"] = errors.New("boom")
	m := NewManager(backend)

	m.Upsert(stop("A", 0, 0), stop("B", 1, 1))
	m.Upsert(stop("C", 2, 2), stop("D", 3, 3))
	m.Wait()

	calculated := m.ListByStatus(models.SegmentCalculated)
	failed := m.ListByStatus(models.SegmentFailed)
	if len(calculated) != 1 || calculated[0].ID != "A-B" {
		t.Fatalf("calculated = %+v", calculated)
	}
	if len(failed) != 1 || failed[0].ID != "C-D" {
		t.Fatalf("failed = %+v", failed)
	}
	if got := len(m.ListAll()); got != 2 {
		t.Fatalf("ListAll = %d, want 2", got)
	}
}

func TestRecalculateUnknownSegment(t *testing.T) {
	m := NewManager(newFakeBackend())
	if seg := m.Recalculate("nope"); seg.ID != "" {
		t.Fatalf("recalculate of unknown id returned %+v", seg)
	}
}

func TestRedrawReplacesPreviousVisual(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(backend)

	m.Upsert(stop("A", 0, 0), stop("B", 1, 1))
	m.Wait()
	m.Recalculate("A-B")
	m.Wait()

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.removed) != 1 || backend.removed[0] != "h1" {
		t.Fatalf("first visual not discarded before redraw: removed=%v", backend.removed)
	}
	if len(backend.draws) != 2 {
		t.Fatalf("expected 2 draws, got %d", len(backend.draws))
	}
}
