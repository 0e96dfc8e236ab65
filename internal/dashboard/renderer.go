package dashboard

// Position is the only shape the map collaborator ever sees.
type Position struct {
	Lat float64
	Lng float64
}

// MapRenderer is the external map widget. The aggregator never learns
// anything about the provider behind it.
type MapRenderer interface {
	Render(pos Position, label string, isStale bool)
}
