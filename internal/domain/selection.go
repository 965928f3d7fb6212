package domain

// NoSelection marks an unset index in a Position.
const NoSelection = -1

// Position is a drill-down position in the catalog, held as indexes into
// Catalog.FirstGroups and FirstGroups[First].Groups.
type Position struct {
	First  int `json:"first"`
	Second int `json:"second"`
}

// EmptyPosition is the position of a session that selected nothing yet.
func EmptyPosition() Position {
	return Position{First: NoSelection, Second: NoSelection}
}

func (p Position) IsEmpty() bool {
	return p.First == NoSelection
}
