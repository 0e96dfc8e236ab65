package site

import "time"

// Site is a named work location employees visit. The label is what
// visits reference; coordinates drive distance-from-site on dashboards.
type Site struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Address   string    `json:"address"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"created_at"`
}
