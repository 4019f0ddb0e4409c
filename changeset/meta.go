package changeset

import "time"

// Meta is the metadata of a changeset as returned by the OSM API
// /changeset/{id} call.
type Meta struct {
	ID        string            `json:"id"`
	UID       string            `json:"uid"`
	User      string            `json:"user"`
	CreatedAt time.Time         `json:"created_at"`
	ClosedAt  time.Time         `json:"closed_at,omitempty"`
	Open      bool              `json:"open"`
	Comment   string            `json:"comment"`
	MinLat    float64           `json:"min_lat"`
	MaxLat    float64           `json:"max_lat"`
	MinLon    float64           `json:"min_lon"`
	MaxLon    float64           `json:"max_lon"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// HasBounds returns false for changesets without a bounding box (e.g.
// empty changesets or changesets that only touched relations).
func (m *Meta) HasBounds() bool {
	return m.MinLat != 0 || m.MaxLat != 0 || m.MinLon != 0 || m.MaxLon != 0
}

// Center returns the lat/lon center of the bounding box.
func (m *Meta) Center() (lat, lon float64) {
	return (m.MinLat + m.MaxLat) / 2, (m.MinLon + m.MaxLon) / 2
}
