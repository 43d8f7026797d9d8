package models

import "time"

// UpdateStatus is the confirmation state of an optimistic update.
type UpdateStatus string

const (
	UpdatePending   UpdateStatus = "pending"
	UpdateCompleted UpdateStatus = "completed"
	UpdateFailed    UpdateStatus = "failed"
)

// AssignmentAction describes the intent of a route-assignment update.
type AssignmentAction string

const (
	AssignmentAdd    AssignmentAction = "add"
	AssignmentRemove AssignmentAction = "remove"
	AssignmentMove   AssignmentAction = "move"
)

// AssignmentUpdate records an in-flight add/remove of an order on a route.
// At most one entry exists per (RouteID, OrderID) pair; recording again for
// the same pair replaces the earlier entry.
type AssignmentUpdate struct {
	RouteID   string           `json:"route_id"`
	OrderID   string           `json:"order_id"`
	Action    AssignmentAction `json:"action"`
	Timestamp time.Time        `json:"timestamp"`
	Status    UpdateStatus     `json:"status"`
}

// OrderFieldUpdate records an in-flight field delta on an order, keyed by
// order id alone.
type OrderFieldUpdate struct {
	OrderID   string         `json:"order_id"`
	Fields    map[string]any `json:"fields"`
	Timestamp time.Time      `json:"timestamp"`
	Status    UpdateStatus   `json:"status"`
}

// PendingUpdates is the overlay read model: every update that has not yet
// been confirmed or rejected by the backend.
type PendingUpdates struct {
	Assignments []AssignmentUpdate `json:"assignments"`
	OrderFields []OrderFieldUpdate `json:"order_fields"`
}

// RouteOverlay is one route's canonical waypoints with the unconfirmed
// intent that touches them layered alongside, so a reader can render
// in-flight state distinctly.
type RouteOverlay struct {
	RouteID            string             `json:"route_id"`
	Waypoints          []Waypoint         `json:"waypoints"`
	PendingAssignments []AssignmentUpdate `json:"pending_assignments"`
	PendingOrderFields []OrderFieldUpdate `json:"pending_order_fields"`
}
