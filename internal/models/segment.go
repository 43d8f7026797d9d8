package models

import "time"

// SegmentStatus is the calculation state of a route segment.
type SegmentStatus string

const (
	SegmentIdle        SegmentStatus = "idle"
	SegmentCalculating SegmentStatus = "calculating"
	SegmentCalculated  SegmentStatus = "calculated"
	SegmentFailed      SegmentStatus = "failed"
)

// ValidSegmentStatus reports whether s is one of the known statuses.
func ValidSegmentStatus(s SegmentStatus) bool {
	switch s {
	case SegmentIdle, SegmentCalculating, SegmentCalculated, SegmentFailed:
		return true
	}
	return false
}

// GeoPoint is a geographic coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoBounds is the bounding box of a segment's geometry.
type GeoBounds struct {
	Northeast GeoPoint `json:"northeast"`
	Southwest GeoPoint `json:"southwest"`
}

// SegmentStop identifies one endpoint of a segment: a stop's identity plus
// its location snapshot at the time the segment was built.
type SegmentStop struct {
	ID       string   `json:"id" validate:"required"`
	Location GeoPoint `json:"location"`
}

// SegmentStyle is the visual style a drawn segment is rendered with.
type SegmentStyle struct {
	Color   string  `json:"color"`
	Weight  int     `json:"weight"`
	Opacity float64 `json:"opacity"`
	Dashed  bool    `json:"dashed"`
}

// DefaultSegmentStyle is applied to newly created segments.
func DefaultSegmentStyle() SegmentStyle {
	return SegmentStyle{Color: "#3388ff", Weight: 4, Opacity: 0.8}
}

// HighlightSegmentStyle is the fixed style applied while a segment is
// highlighted.
func HighlightSegmentStyle() SegmentStyle {
	return SegmentStyle{Color: "#ff6600", Weight: 6, Opacity: 1.0}
}

// FailedSegmentStyle marks segments whose calculation failed so clients can
// render them distinctly.
func FailedSegmentStyle() SegmentStyle {
	return SegmentStyle{Color: "#cc0000", Weight: 4, Opacity: 0.8, Dashed: true}
}

// RouteData is the payload returned by the routing backend for one
// origin/destination pair.
type RouteData struct {
	Polyline        string     `json:"polyline,omitempty"`
	Geometry        []GeoPoint `json:"geometry,omitempty"`
	DistanceMeters  int        `json:"distance_meters"`
	DurationSeconds int        `json:"duration_seconds"`
	Bounds          *GeoBounds `json:"bounds,omitempty"`
}

// RouteSegment is the computed travel cost between two consecutive stops.
// Its ID is a pure function of the ordered stop pair, so recomputing the
// same pair always updates the existing record.
type RouteSegment struct {
	ID              string        `json:"id"`
	From            SegmentStop   `json:"from"`
	To              SegmentStop   `json:"to"`
	Polyline        string        `json:"polyline,omitempty"`
	Geometry        []GeoPoint    `json:"geometry,omitempty"`
	DistanceMeters  int           `json:"distance_meters"`
	DurationSeconds int           `json:"duration_seconds"`
	Bounds          *GeoBounds    `json:"bounds,omitempty"`
	Style           SegmentStyle  `json:"style"`
	Status          SegmentStatus `json:"status"`
	Error           string        `json:"error,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// SegmentID derives the deterministic segment key for an ordered stop pair.
func SegmentID(fromID, toID string) string {
	return fromID + "-" + toID
}

// UpsertSegmentRequest is the input for creating or refreshing a segment.
type UpsertSegmentRequest struct {
	From SegmentStop `json:"from" validate:"required"`
	To   SegmentStop `json:"to" validate:"required"`
}
