package waypoints

import (
	"sort"
	"sync"
	"time"

	"routeboard/internal/models"
)

// Store is the canonical in-memory relation between routes and orders. It
// owns waypoint sequencing: after any mutation, every route's sequence
// values are exactly 0..n-1 with no gaps or duplicates. An order appears at
// most once per route but may appear on any number of routes.
//
// The store is seeded from durable state at startup and mutated only
// through its own methods; persistence is the caller's concern.
type Store struct {
	mu      sync.RWMutex
	byRoute map[string][]*models.Waypoint
	now     func() time.Time
}

// NewStore creates an empty waypoint store.
func NewStore() *Store {
	return &Store{
		byRoute: make(map[string][]*models.Waypoint),
		now:     time.Now,
	}
}

// Seed replaces the store's contents with the given canonical rows. Rows are
// grouped by route and resequenced, so gaps in persisted sequences heal on
// load.
func (s *Store) Seed(rows []models.Waypoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byRoute = make(map[string][]*models.Waypoint)
	for i := range rows {
		wp := rows[i]
		s.byRoute[wp.RouteID] = append(s.byRoute[wp.RouteID], &wp)
	}
	for routeID, wps := range s.byRoute {
		sort.SliceStable(wps, func(i, j int) bool {
			return wps[i].Sequence < wps[j].Sequence
		})
		s.resequence(routeID)
	}
}

// ListByRoute returns the route's waypoints as a snapshot sorted by
// sequence. The result is a copy; mutating it does not touch the store.
func (s *Store) ListByRoute(routeID string) []models.Waypoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotRoute(routeID)
}

// RoutesForOrder returns the ids of every route the order is assigned to,
// sorted for deterministic output.
func (s *Store) RoutesForOrder(orderID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var routes []string
	for routeID, wps := range s.byRoute {
		for _, wp := range wps {
			if wp.OrderID == orderID {
				routes = append(routes, routeID)
				break
			}
		}
	}
	sort.Strings(routes)
	return routes
}

// Get returns the waypoint for the pair, or false when the order is not on
// the route.
func (s *Store) Get(routeID, orderID string) (models.Waypoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wp := s.find(routeID, orderID)
	if wp == nil {
		return models.Waypoint{}, false
	}
	return *wp, true
}

// Add assigns the order to the route. When atIndex is non-nil the stop is
// inserted at that position (clamped to the valid insert range), otherwise
// it is appended. Returns ErrDuplicateMembership when the pair already
// exists.
func (s *Store) Add(routeID, orderID string, atIndex *int) (models.Waypoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(routeID, orderID) != nil {
		return models.Waypoint{}, models.ErrDuplicateMembership
	}

	wps := s.byRoute[routeID]
	pos := len(wps)
	if atIndex != nil {
		pos = *atIndex
		if pos < 0 {
			pos = 0
		}
		if pos > len(wps) {
			pos = len(wps)
		}
	}

	wp := &models.Waypoint{
		RouteID:  routeID,
		OrderID:  orderID,
		Sequence: pos,
		Status:   models.WaypointPending,
	}

	wps = append(wps, nil)
	copy(wps[pos+1:], wps[pos:])
	wps[pos] = wp
	s.byRoute[routeID] = wps

	s.resequence(routeID)
	return *wp, nil
}

// Remove deletes the order's waypoint from the route and closes the gap its
// removal leaves in the sequence. Returns ErrNotFound for an unknown pair.
func (s *Store) Remove(routeID, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wps := s.byRoute[routeID]
	idx := -1
	for i, wp := range wps {
		if wp.OrderID == orderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.ErrNotFound
	}

	s.byRoute[routeID] = append(wps[:idx], wps[idx+1:]...)
	if len(s.byRoute[routeID]) == 0 {
		delete(s.byRoute, routeID)
	} else {
		s.resequence(routeID)
	}
	return nil
}

// Reorder moves the stop at fromIndex to toIndex and returns the route's new
// ordering. This is a remove-then-reinsert move: reordering [A,B,C] from 0
// to 2 yields [B,C,A]. Both indices must address existing stops.
func (s *Store) Reorder(routeID string, fromIndex, toIndex int) ([]models.Waypoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wps := s.byRoute[routeID]
	if fromIndex < 0 || fromIndex >= len(wps) || toIndex < 0 || toIndex >= len(wps) {
		return nil, models.ErrIndexOutOfRange
	}

	moved := wps[fromIndex]
	wps = append(wps[:fromIndex], wps[fromIndex+1:]...)
	wps = append(wps, nil)
	copy(wps[toIndex+1:], wps[toIndex:])
	wps[toIndex] = moved
	s.byRoute[routeID] = wps

	s.resequence(routeID)
	return s.snapshotRoute(routeID), nil
}

// UpdateStatus sets the waypoint's delivery status. Setting "delivered"
// stamps DeliveredAt with the supplied time, or now when omitted; other
// statuses leave DeliveredAt untouched. Returns false when the pair does
// not exist.
func (s *Store) UpdateStatus(routeID, orderID string, status models.WaypointStatus, deliveredAt *time.Time) (models.Waypoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wp := s.find(routeID, orderID)
	if wp == nil {
		return models.Waypoint{}, false
	}

	wp.Status = status
	if status == models.WaypointDelivered {
		at := s.now()
		if deliveredAt != nil {
			at = *deliveredAt
		}
		wp.DeliveredAt = &at
	}
	return *wp, true
}

// UpdatePatch applies the non-nil fields of the patch. Route, order and
// sequence are not part of WaypointPatch, so identity and ordering cannot
// drift through this path. Returns false when the pair does not exist.
func (s *Store) UpdatePatch(routeID, orderID string, patch models.WaypointPatch) (models.Waypoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wp := s.find(routeID, orderID)
	if wp == nil {
		return models.Waypoint{}, false
	}

	if patch.Status != nil {
		wp.Status = *patch.Status
	}
	if patch.DeliveredAt != nil {
		at := *patch.DeliveredAt
		wp.DeliveredAt = &at
	}
	if patch.Notes != nil {
		wp.Notes = *patch.Notes
	}
	if patch.DriveTimeEstimate != nil {
		est := *patch.DriveTimeEstimate
		wp.DriveTimeEstimate = &est
	}
	if patch.DriveTimeActual != nil {
		act := *patch.DriveTimeActual
		wp.DriveTimeActual = &act
	}
	return *wp, true
}

// find returns the live waypoint record for the pair. Callers must hold the
// lock.
func (s *Store) find(routeID, orderID string) *models.Waypoint {
	for _, wp := range s.byRoute[routeID] {
		if wp.OrderID == orderID {
			return wp
		}
	}
	return nil
}

// resequence overwrites every sequence on the route with its list position.
// Route slices are kept in stop order by each mutation, so renumbering by
// position closes any gap a removal or insertion left. Running it twice in
// a row produces the same result as running it once. Callers must hold the
// lock.
func (s *Store) resequence(routeID string) {
	for i, wp := range s.byRoute[routeID] {
		wp.Sequence = i
	}
}

func (s *Store) snapshotRoute(routeID string) []models.Waypoint {
	wps := s.byRoute[routeID]
	out := make([]models.Waypoint, 0, len(wps))
	for _, wp := range wps {
		out = append(out, *wp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}
