package controller

import (
	"fmt"

	"github.com/forgebots/station"
)

// Plate is one of the two marked plates being relocated
type Plate struct {
	// Marker is the ArUco ID expected on this plate
	Marker int
	Target station.Cell
	Placed bool
}

// Reached reports whether the gantry position matches the target exactly.
// The grid is discrete so there is no tolerance band.
func (p Plate) Reached(pos station.Cell) bool {
	return pos == p.Target
}

// PlateSet holds the two plates for a run, built once from the 4-digit
// target code
type PlateSet struct {
	plates [2]Plate
}

// NewPlateSet decodes a 4-digit code into the two targets. Digit pairs are
// (col,row) and 1-based: "5432" puts plate 1 at row 3, col 4 and plate 2 at
// row 1, col 2 (0-based).
func NewPlateSet(code string, markers [2]int) (PlateSet, error) {
	if len(code) != 4 {
		return PlateSet{}, fmt.Errorf("target code must be 4 digits, got %q", code)
	}

	digits := make([]int, 4)
	for i, r := range code {
		if r < '1' || r > '0'+station.GridSize {
			return PlateSet{}, fmt.Errorf("target code digit %d out of range 1-%d: %q", i, station.GridSize, code)
		}
		digits[i] = int(r - '0')
	}

	return PlateSet{plates: [2]Plate{
		{Marker: markers[0], Target: station.Cell{Row: digits[1] - 1, Col: digits[0] - 1}},
		{Marker: markers[1], Target: station.Cell{Row: digits[3] - 1, Col: digits[2] - 1}},
	}}, nil
}

// Plate returns a snapshot of plate i (0 or 1)
func (ps *PlateSet) Plate(i int) Plate {
	return ps.plates[i]
}

// UpdateTarget overrides a plate's target from a protocol event. The caller
// is responsible for only doing this before the plate begins transit.
func (ps *PlateSet) UpdateTarget(i, row, col int) error {
	cell := station.Cell{Row: row, Col: col}
	if !cell.In() {
		return fmt.Errorf("target (%d,%d) outside %dx%d grid", row, col, station.GridSize, station.GridSize)
	}
	ps.plates[i].Target = cell
	return nil
}

// MarkPlaced flips the plate to placed; it never flips back within a run
func (ps *PlateSet) MarkPlaced(i int) {
	ps.plates[i].Placed = true
}

// Swap exchanges the two plate records so whichever plate the operator
// presents first maps to the active slot
func (ps *PlateSet) Swap() {
	ps.plates[0], ps.plates[1] = ps.plates[1], ps.plates[0]
}
