package domain

// Default polyline color for routes without a tram line.
const DefaultRouteColor = "#d32f2f"

// TramLine is display metadata for a public transport line.
type TramLine struct {
	ID     string
	Number string
	Name   string
	Color  string
}
