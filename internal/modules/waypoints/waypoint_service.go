package waypoints

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"routeboard/internal/models"
	"routeboard/pkg/email"
)

// LedgerInterface is the slice of the optimistic-update ledger the waypoint
// service records into. Every route mutation is written here as pending
// before it is persisted and marked settled afterwards.
type LedgerInterface interface {
	RecordAssignment(ctx context.Context, routeID, orderID string, action models.AssignmentAction) error
	MarkAssignmentCompleted(ctx context.Context, routeID, orderID string) error
	MarkAssignmentFailed(ctx context.Context, routeID, orderID string) error
	RecordOrderField(ctx context.Context, orderID string, fields map[string]any) error
	MarkOrderFieldCompleted(ctx context.Context, orderID string) error
	MarkOrderFieldFailed(ctx context.Context, orderID string) error
	ListPending(ctx context.Context) (*models.PendingUpdates, error)
}

// SegmentPlannerInterface is the slice of the segment manager the waypoint
// service drives: upserting the consecutive stop pairs of a route and
// removing pairs that a mutation made stale.
type SegmentPlannerInterface interface {
	Upsert(from, to models.SegmentStop) models.RouteSegment
	Remove(id string)
}

// OrderDirectoryInterface resolves order snapshots for segment planning and
// delivery notifications.
type OrderDirectoryInterface interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	LocateOrders(ctx context.Context, orderIDs []string) (map[string]models.GeoPoint, error)
}

// ServiceInterface defines the contract for the waypoint service.
type ServiceInterface interface {
	Load(ctx context.Context) error
	ListRoute(ctx context.Context, routeID string) ([]models.Waypoint, error)
	RoutesForOrder(ctx context.Context, orderID string) ([]string, error)
	Assign(ctx context.Context, routeID string, req models.AssignWaypointRequest) (*models.Waypoint, error)
	Unassign(ctx context.Context, routeID, orderID string) error
	Reorder(ctx context.Context, routeID string, fromIndex, toIndex int) ([]models.Waypoint, error)
	UpdateStatus(ctx context.Context, routeID, orderID string, req models.UpdateWaypointStatusRequest) (*models.Waypoint, error)
	UpdatePatch(ctx context.Context, routeID, orderID string, patch models.WaypointPatch) (*models.Waypoint, error)
	RefreshSegments(ctx context.Context, routeID string) error
	Overlay(ctx context.Context, routeID string) (*models.RouteOverlay, error)
}

// Service implements the waypoint service logic: it owns the sequence of
// mutations around the in-memory store so that every change follows the same
// protocol — mutate the store, record the pending update, persist, settle
// the update, then rebuild the route's segments.
type Service struct {
	store    *Store
	repo     RepositoryInterface
	ledger   LedgerInterface
	segments SegmentPlannerInterface
	orders   OrderDirectoryInterface

	emailService email.ServiceInterface
	templates    *email.TemplateManager

	// tracked remembers which segment ids each route currently owns so a
	// refresh can diff-remove the pairs a mutation broke apart.
	trackedLock sync.Mutex
	tracked     map[string][]string
}

// NewService creates a new waypoint service.
func NewService(
	store *Store,
	repo RepositoryInterface,
	ledger LedgerInterface,
	segments SegmentPlannerInterface,
	orders OrderDirectoryInterface,
	emailService email.ServiceInterface,
	templates *email.TemplateManager,
) *Service {
	return &Service{
		store:        store,
		repo:         repo,
		ledger:       ledger,
		segments:     segments,
		orders:       orders,
		emailService: emailService,
		templates:    templates,
		tracked:      make(map[string][]string),
	}
}

// Load seeds the in-memory store from the repository. Called once at
// startup; the store is authoritative afterwards.
func (s *Service) Load(ctx context.Context) error {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("service.Load: %w", err)
	}
	s.store.Seed(rows)
	return nil
}

// ListRoute returns the route's waypoints in sequence order.
func (s *Service) ListRoute(ctx context.Context, routeID string) ([]models.Waypoint, error) {
	return s.store.ListByRoute(routeID), nil
}

// RoutesForOrder returns the ids of every route the order is assigned to.
func (s *Service) RoutesForOrder(ctx context.Context, orderID string) ([]string, error) {
	return s.store.RoutesForOrder(orderID), nil
}

// Assign adds an order to a route, optionally at a specific position.
func (s *Service) Assign(ctx context.Context, routeID string, req models.AssignWaypointRequest) (*models.Waypoint, error) {
	// Resolve the order up front: an unknown id must not reach the store.
	if _, err := s.orders.LocateOrders(ctx, []string{req.OrderID}); err != nil {
		return nil, fmt.Errorf("service.Assign: %w", err)
	}

	wp, err := s.store.Add(routeID, req.OrderID, req.AtIndex)
	if err != nil {
		return nil, fmt.Errorf("service.Assign: %w", err)
	}

	if err := s.settleAssignment(ctx, routeID, req.OrderID, models.AssignmentAdd); err != nil {
		return nil, fmt.Errorf("service.Assign: %w", err)
	}
	s.refreshBestEffort(ctx, routeID)
	return &wp, nil
}

// Unassign removes an order from a route.
func (s *Service) Unassign(ctx context.Context, routeID, orderID string) error {
	if err := s.store.Remove(routeID, orderID); err != nil {
		return fmt.Errorf("service.Unassign: %w", err)
	}

	if err := s.settleAssignment(ctx, routeID, orderID, models.AssignmentRemove); err != nil {
		return fmt.Errorf("service.Unassign: %w", err)
	}
	s.refreshBestEffort(ctx, routeID)
	return nil
}

// Reorder moves the stop at fromIndex to toIndex within the route. The
// moved order keys the ledger entry, so a failed persistence surfaces
// through the pending overlay like any other assignment change.
func (s *Service) Reorder(ctx context.Context, routeID string, fromIndex, toIndex int) ([]models.Waypoint, error) {
	wps, err := s.store.Reorder(routeID, fromIndex, toIndex)
	if err != nil {
		return nil, fmt.Errorf("service.Reorder: %w", err)
	}
	movedID := wps[toIndex].OrderID

	if err := s.settleAssignment(ctx, routeID, movedID, models.AssignmentMove); err != nil {
		return nil, fmt.Errorf("service.Reorder: %w", err)
	}
	s.refreshBestEffort(ctx, routeID)
	return wps, nil
}

// settleAssignment runs the optimistic-update protocol for one add/remove:
// record pending, persist the whole route, then mark the entry completed or
// failed. A ledger write failure is logged but never blocks the mutation.
func (s *Service) settleAssignment(ctx context.Context, routeID, orderID string, action models.AssignmentAction) error {
	if err := s.ledger.RecordAssignment(ctx, routeID, orderID, action); err != nil {
		log.Printf("waypoints: record assignment %s/%s: %v", routeID, orderID, err)
	}

	if err := s.repo.ReplaceRoute(ctx, routeID, s.store.ListByRoute(routeID)); err != nil {
		if lerr := s.ledger.MarkAssignmentFailed(ctx, routeID, orderID); lerr != nil {
			log.Printf("waypoints: mark assignment failed %s/%s: %v", routeID, orderID, lerr)
		}
		return err
	}

	if err := s.ledger.MarkAssignmentCompleted(ctx, routeID, orderID); err != nil {
		log.Printf("waypoints: mark assignment completed %s/%s: %v", routeID, orderID, err)
	}
	return nil
}

// UpdateStatus transitions one waypoint's delivery status. Delivered and
// failed transitions trigger a notification email when the order carries a
// contact address.
func (s *Service) UpdateStatus(ctx context.Context, routeID, orderID string, req models.UpdateWaypointStatusRequest) (*models.Waypoint, error) {
	wp, ok := s.store.UpdateStatus(routeID, orderID, req.Status, req.DeliveredAt)
	if !ok {
		return nil, models.ErrNotFound
	}

	if err := s.repo.UpdateWaypoint(ctx, wp); err != nil {
		return nil, fmt.Errorf("service.UpdateStatus: %w", err)
	}

	switch wp.Status {
	case models.WaypointDelivered, models.WaypointFailed:
		s.notifyStatus(ctx, wp)
	}
	return &wp, nil
}

// UpdatePatch applies a partial update to one waypoint and records the
// changed fields as a pending order-field update in the ledger.
func (s *Service) UpdatePatch(ctx context.Context, routeID, orderID string, patch models.WaypointPatch) (*models.Waypoint, error) {
	wp, ok := s.store.UpdatePatch(routeID, orderID, patch)
	if !ok {
		return nil, models.ErrNotFound
	}

	fields := patchFields(patch)
	if len(fields) > 0 {
		if err := s.ledger.RecordOrderField(ctx, orderID, fields); err != nil {
			log.Printf("waypoints: record order fields %s: %v", orderID, err)
		}
	}

	if err := s.repo.UpdateWaypoint(ctx, wp); err != nil {
		if len(fields) > 0 {
			if lerr := s.ledger.MarkOrderFieldFailed(ctx, orderID); lerr != nil {
				log.Printf("waypoints: mark order fields failed %s: %v", orderID, lerr)
			}
		}
		return nil, fmt.Errorf("service.UpdatePatch: %w", err)
	}

	if len(fields) > 0 {
		if err := s.ledger.MarkOrderFieldCompleted(ctx, orderID); err != nil {
			log.Printf("waypoints: mark order fields completed %s: %v", orderID, err)
		}
	}
	return &wp, nil
}

// patchFields flattens the non-nil patch fields into the map the ledger
// records.
func patchFields(patch models.WaypointPatch) map[string]any {
	fields := make(map[string]any)
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	if patch.DeliveredAt != nil {
		fields["delivered_at"] = *patch.DeliveredAt
	}
	if patch.Notes != nil {
		fields["notes"] = *patch.Notes
	}
	if patch.DriveTimeEstimate != nil {
		fields["drive_time_estimate"] = *patch.DriveTimeEstimate
	}
	if patch.DriveTimeActual != nil {
		fields["drive_time_actual"] = *patch.DriveTimeActual
	}
	return fields
}

// Overlay returns the route's canonical waypoints together with the
// unconfirmed ledger intent that touches the route, so a reader sees
// in-flight mutations before the backend confirms them.
func (s *Service) Overlay(ctx context.Context, routeID string) (*models.RouteOverlay, error) {
	wps := s.store.ListByRoute(routeID)

	pending, err := s.ledger.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.Overlay: %w", err)
	}

	members := make(map[string]struct{}, len(wps))
	for _, wp := range wps {
		members[wp.OrderID] = struct{}{}
	}

	overlay := &models.RouteOverlay{RouteID: routeID, Waypoints: wps}
	for _, a := range pending.Assignments {
		if a.RouteID == routeID {
			overlay.PendingAssignments = append(overlay.PendingAssignments, a)
		}
	}
	for _, f := range pending.OrderFields {
		if _, onRoute := members[f.OrderID]; onRoute {
			overlay.PendingOrderFields = append(overlay.PendingOrderFields, f)
		}
	}
	return overlay, nil
}

// RefreshSegments rebuilds the route's consecutive stop pairs in the segment
// manager and removes the pairs the last mutation made stale. Upserted pairs
// that are new enter the calculation queue automatically.
func (s *Service) RefreshSegments(ctx context.Context, routeID string) error {
	wps := s.store.ListByRoute(routeID)

	orderIDs := make([]string, len(wps))
	for i, wp := range wps {
		orderIDs[i] = wp.OrderID
	}

	locations, err := s.orders.LocateOrders(ctx, orderIDs)
	if err != nil {
		return fmt.Errorf("service.RefreshSegments: %w", err)
	}

	next := make(map[string]struct{}, len(wps))
	nextIDs := make([]string, 0, len(wps))
	for i := 0; i+1 < len(wps); i++ {
		from := models.SegmentStop{ID: wps[i].OrderID, Location: locations[wps[i].OrderID]}
		to := models.SegmentStop{ID: wps[i+1].OrderID, Location: locations[wps[i+1].OrderID]}
		seg := s.segments.Upsert(from, to)
		next[seg.ID] = struct{}{}
		nextIDs = append(nextIDs, seg.ID)
	}

	s.trackedLock.Lock()
	prev := s.tracked[routeID]
	if len(nextIDs) == 0 {
		delete(s.tracked, routeID)
	} else {
		s.tracked[routeID] = nextIDs
	}
	for _, old := range prev {
		if _, keep := next[old]; keep {
			continue
		}
		// The same order pair can sit consecutively on two routes, and they
		// share one segment record. Only the last route to let go removes it.
		if s.segmentStillTracked(old) {
			continue
		}
		s.segments.Remove(old)
	}
	s.trackedLock.Unlock()
	return nil
}

// segmentStillTracked reports whether any route currently lists the segment
// id. Caller holds trackedLock.
func (s *Service) segmentStillTracked(id string) bool {
	for _, ids := range s.tracked {
		for _, tracked := range ids {
			if tracked == id {
				return true
			}
		}
	}
	return false
}

// TrackedSegments returns the segment ids a route currently owns, in stop
// order.
func (s *Service) TrackedSegments(routeID string) []string {
	s.trackedLock.Lock()
	defer s.trackedLock.Unlock()
	out := make([]string, len(s.tracked[routeID]))
	copy(out, s.tracked[routeID])
	return out
}

// TrackedRoutes returns the ids of routes that currently own segments.
func (s *Service) TrackedRoutes() []string {
	s.trackedLock.Lock()
	defer s.trackedLock.Unlock()
	out := make([]string, 0, len(s.tracked))
	for routeID := range s.tracked {
		out = append(out, routeID)
	}
	sort.Strings(out)
	return out
}

func (s *Service) refreshBestEffort(ctx context.Context, routeID string) {
	if err := s.RefreshSegments(ctx, routeID); err != nil {
		log.Printf("waypoints: refresh segments %s: %v", routeID, err)
	}
}

// notifyStatus emails the order's contact about a delivered or failed stop.
// Notification failures never fail the status update.
func (s *Service) notifyStatus(ctx context.Context, wp models.Waypoint) {
	if s.emailService == nil || s.templates == nil {
		return
	}

	order, err := s.orders.GetOrder(ctx, wp.OrderID)
	if err != nil || order.Contact == "" {
		return
	}

	data := email.TemplateData{
		OrderID: wp.OrderID,
		RouteID: wp.RouteID,
		Notes:   wp.Notes,
	}
	if wp.DeliveredAt != nil {
		data.DeliveredAt = wp.DeliveredAt.Format(time.RFC1123)
	}

	var subject, html string
	if wp.Status == models.WaypointDelivered {
		subject = fmt.Sprintf("Your order %s has been delivered", wp.OrderID)
		html, err = s.templates.GenerateOrderDeliveredEmailHTML(data)
	} else {
		subject = fmt.Sprintf("Delivery attempt for order %s failed", wp.OrderID)
		html, err = s.templates.GenerateDeliveryFailedEmailHTML(data)
	}
	if err != nil {
		log.Printf("waypoints: render status email for %s: %v", wp.OrderID, err)
		return
	}

	if err := s.emailService.SendEmail(ctx, order.Contact, subject, subject, html); err != nil {
		log.Printf("waypoints: send status email for %s: %v", wp.OrderID, err)
	}
}
