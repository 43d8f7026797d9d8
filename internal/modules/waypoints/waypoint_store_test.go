package waypoints

import (
	"errors"
	"testing"
	"time"

	"routeboard/internal/models"
)

func intPtr(v int) *int { return &v }

func orderIDs(wps []models.Waypoint) []string {
	out := make([]string, 0, len(wps))
	for _, wp := range wps {
		out = append(out, wp.OrderID)
	}
	return out
}

func assertSequence(t *testing.T, wps []models.Waypoint, want ...string) {
	t.Helper()
	if len(wps) != len(want) {
		t.Fatalf("got %d waypoints %v, want %d", len(wps), orderIDs(wps), len(want))
	}
	for i, wp := range wps {
		if wp.OrderID != want[i] {
			t.Fatalf("position %d = %q, want %q (full order %v)", i, wp.OrderID, want[i], orderIDs(wps))
		}
		if wp.Sequence != i {
			t.Fatalf("waypoint %q sequence = %d, want %d", wp.OrderID, wp.Sequence, i)
		}
	}
}

func TestStoreAddAppendsAndInserts(t *testing.T) {
	s := NewStore()

	if _, err := s.Add("R1", "O1", nil); err != nil {
		t.Fatalf("add O1: %v", err)
	}
	if _, err := s.Add("R1", "O2", nil); err != nil {
		t.Fatalf("add O2: %v", err)
	}
	wp, err := s.Add("R1", "O3", intPtr(1))
	if err != nil {
		t.Fatalf("add O3 at 1: %v", err)
	}
	if wp.Sequence != 1 {
		t.Fatalf("inserted sequence = %d, want 1", wp.Sequence)
	}
	if wp.Status != models.WaypointPending {
		t.Fatalf("new waypoint status = %q, want pending", wp.Status)
	}

	assertSequence(t, s.ListByRoute("R1"), "O1", "O3", "O2")
}

func TestStoreAddClampsInsertIndex(t *testing.T) {
	s := NewStore()
	s.Add("R1", "O1", nil)
	s.Add("R1", "O2", nil)

	if _, err := s.Add("R1", "O3", intPtr(99)); err != nil {
		t.Fatalf("add with large index: %v", err)
	}
	if _, err := s.Add("R1", "O4", intPtr(-5)); err != nil {
		t.Fatalf("add with negative index: %v", err)
	}

	assertSequence(t, s.ListByRoute("R1"), "O4", "O1", "O2", "O3")
}

func TestStoreDuplicateMembership(t *testing.T) {
	s := NewStore()
	if _, err := s.Add("R1", "O1", nil); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := s.Add("R1", "O1", nil); !errors.Is(err, models.ErrDuplicateMembership) {
		t.Fatalf("second add on same route = %v, want ErrDuplicateMembership", err)
	}
	// The same order on a different route is fine.
	if _, err := s.Add("R2", "O1", nil); err != nil {
		t.Fatalf("add on second route: %v", err)
	}
}

func TestStoreRemoveClosesGaps(t *testing.T) {
	s := NewStore()
	s.Add("R1", "A", nil)
	s.Add("R1", "B", nil)
	s.Add("R1", "C", nil)

	if err := s.Remove("R1", "B"); err != nil {
		t.Fatalf("remove B: %v", err)
	}
	assertSequence(t, s.ListByRoute("R1"), "A", "C")

	if err := s.Remove("R1", "B"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("remove missing = %v, want ErrNotFound", err)
	}
}

func TestStoreReorderIsMoveNotSwap(t *testing.T) {
	s := NewStore()
	s.Add("R1", "A", nil)
	s.Add("R1", "B", nil)
	s.Add("R1", "C", nil)

	got, err := s.Reorder("R1", 0, 2)
	if err != nil {
		t.Fatalf("reorder 0->2: %v", err)
	}
	assertSequence(t, got, "B", "C", "A")

	// Undo by moving it back to the front.
	got, err = s.Reorder("R1", 2, 0)
	if err != nil {
		t.Fatalf("reorder 2->0: %v", err)
	}
	assertSequence(t, got, "A", "B", "C")
}

func TestStoreReorderRejectsOutOfRange(t *testing.T) {
	s := NewStore()
	s.Add("R1", "A", nil)
	s.Add("R1", "B", nil)

	for _, pair := range [][2]int{{-1, 0}, {0, 2}, {2, 0}, {0, -1}} {
		if _, err := s.Reorder("R1", pair[0], pair[1]); !errors.Is(err, models.ErrIndexOutOfRange) {
			t.Fatalf("reorder(%d, %d) = %v, want ErrIndexOutOfRange", pair[0], pair[1], err)
		}
	}
}

func TestStoreContiguityAfterMixedMutations(t *testing.T) {
	s := NewStore()
	s.Add("R1", "A", nil)
	s.Add("R1", "B", nil)
	s.Add("R1", "C", nil)
	s.Add("R1", "D", intPtr(0))
	s.Remove("R1", "B")
	s.Reorder("R1", 2, 0)
	s.Add("R1", "E", intPtr(2))

	wps := s.ListByRoute("R1")
	for i, wp := range wps {
		if wp.Sequence != i {
			t.Fatalf("sequence drifted: %v", wps)
		}
	}
}

func TestStoreSeedHealsGapsAndIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Seed([]models.Waypoint{
		{RouteID: "R1", OrderID: "C", Sequence: 7},
		{RouteID: "R1", OrderID: "A", Sequence: 0},
		{RouteID: "R1", OrderID: "B", Sequence: 3},
		{RouteID: "R2", OrderID: "A", Sequence: 1},
	})

	assertSequence(t, s.ListByRoute("R1"), "A", "B", "C")
	assertSequence(t, s.ListByRoute("R2"), "A")

	// Renumbering an already contiguous route changes nothing.
	before := s.ListByRoute("R1")
	s.mu.Lock()
	s.resequence("R1")
	s.mu.Unlock()
	after := s.ListByRoute("R1")
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("resequence not idempotent: %v != %v", before[i], after[i])
		}
	}
}

func TestStoreRoutesForOrder(t *testing.T) {
	s := NewStore()
	s.Add("R2", "O1", nil)
	s.Add("R1", "O1", nil)
	s.Add("R1", "O2", nil)

	got := s.RoutesForOrder("O1")
	if len(got) != 2 || got[0] != "R1" || got[1] != "R2" {
		t.Fatalf("RoutesForOrder(O1) = %v, want [R1 R2]", got)
	}
	if got := s.RoutesForOrder("O3"); len(got) != 0 {
		t.Fatalf("RoutesForOrder(O3) = %v, want empty", got)
	}
}

func TestStoreUpdateStatusStampsDeliveredAt(t *testing.T) {
	s := NewStore()
	s.Add("R1", "O1", nil)

	wp, ok := s.UpdateStatus("R1", "O1", models.WaypointInTransit, nil)
	if !ok {
		t.Fatal("update on existing pair reported not found")
	}
	if wp.DeliveredAt != nil {
		t.Fatal("in-transit must not stamp DeliveredAt")
	}

	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	wp, ok = s.UpdateStatus("R1", "O1", models.WaypointDelivered, &at)
	if !ok || wp.DeliveredAt == nil || !wp.DeliveredAt.Equal(at) {
		t.Fatalf("delivered with explicit time: got %+v", wp.DeliveredAt)
	}

	wp, ok = s.UpdateStatus("R1", "O1", models.WaypointDelivered, nil)
	if !ok || wp.DeliveredAt == nil || wp.DeliveredAt.Equal(at) {
		t.Fatal("delivered without explicit time must stamp now")
	}

	if _, ok := s.UpdateStatus("R1", "O9", models.WaypointDelivered, nil); ok {
		t.Fatal("update on missing pair must degrade to not-found, not panic")
	}
}

func TestStoreUpdatePatchLeavesIdentityAlone(t *testing.T) {
	s := NewStore()
	s.Add("R1", "O1", nil)
	s.Add("R1", "O2", nil)

	notes := "gate code 4711"
	est := 12
	status := models.WaypointInTransit
	wp, ok := s.UpdatePatch("R1", "O2", models.WaypointPatch{
		Status:            &status,
		Notes:             &notes,
		DriveTimeEstimate: &est,
	})
	if !ok {
		t.Fatal("patch on existing pair reported not found")
	}
	if wp.Notes != notes || wp.Status != status || wp.DriveTimeEstimate == nil || *wp.DriveTimeEstimate != est {
		t.Fatalf("patch not applied: %+v", wp)
	}
	if wp.RouteID != "R1" || wp.OrderID != "O2" || wp.Sequence != 1 {
		t.Fatalf("identity fields changed: %+v", wp)
	}

	if _, ok := s.UpdatePatch("R1", "O9", models.WaypointPatch{Notes: &notes}); ok {
		t.Fatal("patch on missing pair must report not found")
	}
}

func TestStoreListByRouteReturnsSnapshot(t *testing.T) {
	s := NewStore()
	s.Add("R1", "O1", nil)

	wps := s.ListByRoute("R1")
	wps[0].OrderID = "tampered"
	wps[0].Sequence = 99

	again := s.ListByRoute("R1")
	if again[0].OrderID != "O1" || again[0].Sequence != 0 {
		t.Fatalf("snapshot mutation leaked into store: %+v", again[0])
	}
}
