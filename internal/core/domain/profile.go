package domain

import (
	"encoding/json"
	"time"
)

// Marker is a POI or segment end point to be referenced onto the line.
// Segments are identified by their ending coordinate.
type Marker struct {
	Category string          `json:"category"`
	Label    string          `json:"label"`
	Location GeoPoint        `json:"location"`
	Feature  json.RawMessage `json:"feature,omitempty"` // original input, passed through unmodified
}

// ProfileRequest is the input of one profile computation.
// A zero Step or a nil Zoom falls back to the configured default.
type ProfileRequest struct {
	Path        Path            `json:"path"`
	LineFeature json.RawMessage `json:"line_feature,omitempty"`
	POIs        []Marker        `json:"pois,omitempty"`
	Segments    []Marker        `json:"segments,omitempty"`
	Step        float64         `json:"step,omitempty"`
	Zoom        *int            `json:"zoom,omitempty"`
}

// MPoint is a densified coordinate with its calibrated distance along the line.
type MPoint struct {
	M      float64    `json:"m"`
	Coords [2]float64 `json:"coords"`
}

// ElevationSample is a calibrated distance and its elevation. Z is nil inside a gap.
type ElevationSample struct {
	M float64 `json:"m"`
	Z *int    `json:"z"`
}

// ReferencedPoint is a marker projected onto the densified line.
type ReferencedPoint struct {
	M        float64 `json:"m"`
	Category string  `json:"category"`
	Label    string  `json:"label"`
}

// Gap describes a contiguous range of missing elevation samples.
type Gap struct {
	Tile   string  `json:"tile"`
	MFrom  float64 `json:"m_from"`
	MTo    float64 `json:"m_to"`
	Count  int     `json:"count"`
	Reason string  `json:"reason"`
}

// Plan is everything derived from a request before any tile is opened.
type Plan struct {
	Step      float64           `json:"step"`
	Zoom      int               `json:"zoom"`
	Length    float64           `json:"length"` // planar length of the source path
	Line      []PlanarPoint     `json:"line"`
	Points    []GeoPoint        `json:"points"`
	Distances []float64         `json:"distances"`
	Runs      []TileRun         `json:"runs"`
	POIs      []ReferencedPoint `json:"pois"`
	Segments  []ReferencedPoint `json:"segments"`
	Bounds    [4]float64        `json:"bounds"`
}

// Profile is the terminal, linear-referenced output artifact.
type Profile struct {
	ID              string            `json:"id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Step            float64           `json:"step"`
	Zoom            int               `json:"zoom"`
	Length          float64           `json:"length"`
	GroundLength    float64           `json:"ground_length"`
	Bounds          [4]float64        `json:"bounds"`
	LineFeature     json.RawMessage   `json:"line_feature,omitempty"`
	POIFeatures     []json.RawMessage `json:"poi_features"`
	SegmentFeatures []json.RawMessage `json:"segment_features"`
	MPoints         []MPoint          `json:"mpoints"`
	MElevations     []ElevationSample `json:"melevations"`
	MPOIs           []ReferencedPoint `json:"mpois"`
	MSegments       []ReferencedPoint `json:"msegments"`
	Gaps            []Gap             `json:"gaps,omitempty"`
}

// Summary returns the listing view of the profile.
func (p *Profile) Summary() ProfileSummary {
	missing := 0
	for _, g := range p.Gaps {
		missing += g.Count
	}
	return ProfileSummary{
		ID:        p.ID,
		CreatedAt: p.CreatedAt,
		Step:      p.Step,
		Zoom:      p.Zoom,
		Length:    p.Length,
		Points:    len(p.MPoints),
		Missing:   missing,
		Bounds:    p.Bounds,
	}
}

// ProfileSummary is the listing / event view of a stored profile.
type ProfileSummary struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Step      float64    `json:"step"`
	Zoom      int        `json:"zoom"`
	Length    float64    `json:"length"`
	Points    int        `json:"points"`
	Missing   int        `json:"missing"`
	Bounds    [4]float64 `json:"bounds"`
}

// ProfileJob is an asynchronous profile request.
type ProfileJob struct {
	ID      string         `json:"id"`
	Request ProfileRequest `json:"request"`
}
