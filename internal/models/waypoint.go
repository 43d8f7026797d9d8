package models

import "time"

// WaypointStatus tracks the delivery progress of one stop.
type WaypointStatus string

const (
	WaypointPending   WaypointStatus = "pending"
	WaypointInTransit WaypointStatus = "in-transit"
	WaypointDelivered WaypointStatus = "delivered"
	WaypointFailed    WaypointStatus = "failed"
)

// ValidWaypointStatus reports whether s is one of the known statuses.
func ValidWaypointStatus(s WaypointStatus) bool {
	switch s {
	case WaypointPending, WaypointInTransit, WaypointDelivered, WaypointFailed:
		return true
	}
	return false
}

// Waypoint is one order's placement inside one route. Sequence is the
// zero-based position within the route and is owned exclusively by the
// waypoint store; routes always hold the contiguous set 0..n-1.
type Waypoint struct {
	RouteID           string         `json:"route_id"`
	OrderID           string         `json:"order_id"`
	Sequence          int            `json:"sequence"`
	Status            WaypointStatus `json:"status"`
	DeliveredAt       *time.Time     `json:"delivered_at,omitempty"`
	Notes             string         `json:"notes,omitempty"`
	DriveTimeEstimate *int           `json:"drive_time_estimate,omitempty"` // minutes from the previous stop
	DriveTimeActual   *int           `json:"drive_time_actual,omitempty"`
}

// WaypointPatch carries a partial update for a waypoint. Only non-nil fields
// are applied. RouteID, OrderID and Sequence are deliberately absent: they
// cannot be rewritten through a patch.
type WaypointPatch struct {
	Status            *WaypointStatus `json:"status,omitempty" validate:"omitempty,oneof=pending in-transit delivered failed"`
	DeliveredAt       *time.Time      `json:"delivered_at,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
	DriveTimeEstimate *int            `json:"drive_time_estimate,omitempty"`
	DriveTimeActual   *int            `json:"drive_time_actual,omitempty"`
}

// AssignWaypointRequest is the input for adding an order to a route.
type AssignWaypointRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	// AtIndex inserts the new stop at this position; omitted means append.
	// Out-of-range values are clamped to the valid insert range.
	AtIndex *int `json:"at_index,omitempty"`
}

// ReorderWaypointsRequest moves the stop at FromIndex to ToIndex. This is a
// single-element move, not a swap.
type ReorderWaypointsRequest struct {
	FromIndex *int `json:"from_index" validate:"required"`
	ToIndex   *int `json:"to_index" validate:"required"`
}

// UpdateWaypointStatusRequest sets a stop's delivery status. DeliveredAt is
// honored only when the status is "delivered" and defaults to now.
type UpdateWaypointStatusRequest struct {
	Status      WaypointStatus `json:"status" validate:"required,oneof=pending in-transit delivered failed"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
}
