package models

import "time"

// Order is the read-only snapshot of a delivery order that route planning
// needs: identity, drop-off location and status. The order domain itself
// (items, pricing, customers) lives elsewhere; the waypoint store never
// treats this payload as authoritative.
type Order struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Contact   string    `json:"contact,omitempty"`
	Location  GeoPoint  `json:"location"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
