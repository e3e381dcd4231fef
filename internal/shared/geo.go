package shared

// Point is a geographic coordinate as exposed on the wire.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Equal reports whether two optional points carry the same coordinates.
func (p *Point) Equal(other *Point) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Latitude == other.Latitude && p.Longitude == other.Longitude
}
