package models

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateMembership is returned when an order is added to a route
	// it already belongs to. The same order may still appear on other routes.
	ErrDuplicateMembership = errors.New("order is already assigned to this route")

	// ErrIndexOutOfRange is returned when a reorder operation references a
	// position outside the route's current stop list.
	ErrIndexOutOfRange = errors.New("waypoint index is out of range")

	// ErrBackendFailure is returned when the routing backend rejects a call
	// or answers with an error payload.
	ErrBackendFailure = errors.New("routing backend call failed")
)

// ErrorResponse is the standard JSON error body returned by the API.
type ErrorResponse struct {
	Message string `json:"message"`
}
