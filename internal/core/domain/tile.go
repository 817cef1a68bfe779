package domain

import "fmt"

// TileAddress identifies one raster tile in a z/x/y pyramid.
type TileAddress struct {
	Z uint32 `json:"z"`
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

func (a TileAddress) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Z, a.X, a.Y)
}

// TileRun is a maximal contiguous slice of densified points served by one tile.
// Points and Native share backing arrays with the plan that produced them.
type TileRun struct {
	Address TileAddress `json:"address"`
	// Start is the index of the first point of the run in the densified line.
	Start  int           `json:"start"`
	Points []GeoPoint    `json:"points"`
	Native []PlanarPoint `json:"native"` // raster-native (EPSG:3857) coordinates
}

// Len returns the number of points in the run.
func (r TileRun) Len() int { return len(r.Points) }

// RunResult holds the elevations sampled for one run, or the reason it failed.
type RunResult struct {
	Run        int    `json:"run"`
	Elevations []int  `json:"elevations,omitempty"`
	Err        error  `json:"-"`
	Reason     string `json:"reason,omitempty"`
}

// FailedRun builds a RunResult for a run that produced no samples.
func FailedRun(run int, err error) RunResult {
	return RunResult{Run: run, Err: err, Reason: err.Error()}
}

// Failed reports whether the run produced no samples.
func (r RunResult) Failed() bool {
	return r.Err != nil || r.Reason != ""
}
