// Package geojson reads profile inputs from GeoJSON documents.
package geojson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// ErrMalformed wraps every decoding failure.
var ErrMalformed = errors.New("malformed geojson")

// RequestDocument is the JSON body accepted by the profile API.
type RequestDocument struct {
	Line     json.RawMessage `json:"line"`
	POIs     json.RawMessage `json:"pois,omitempty"`
	Segments json.RawMessage `json:"segments,omitempty"`
	Step     float64         `json:"step,omitempty"`
	Zoom     *int            `json:"zoom,omitempty"`
}

// DecodeRequest parses a RequestDocument into a profile request.
func DecodeRequest(data []byte) (domain.ProfileRequest, error) {
	var doc RequestDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.ProfileRequest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(doc.Line) == 0 {
		return domain.ProfileRequest{}, fmt.Errorf("%w: line is required", ErrMalformed)
	}
	return buildRequest(doc.Line, doc.POIs, doc.Segments, doc.Step, doc.Zoom)
}

// ReadRequestFiles loads a request from GeoJSON files. poisPath and
// segmentsPath may be empty, and a nil zoom leaves the default in place.
func ReadRequestFiles(linePath, poisPath, segmentsPath string, step float64, zoom *int) (domain.ProfileRequest, error) {
	read := func(path string) ([]byte, error) {
		if path == "" {
			return nil, nil
		}
		return os.ReadFile(path)
	}
	line, err := read(linePath)
	if err != nil {
		return domain.ProfileRequest{}, err
	}
	pois, err := read(poisPath)
	if err != nil {
		return domain.ProfileRequest{}, err
	}
	segments, err := read(segmentsPath)
	if err != nil {
		return domain.ProfileRequest{}, err
	}
	return buildRequest(line, pois, segments, step, zoom)
}

func buildRequest(line, pois, segments []byte, step float64, zoom *int) (domain.ProfileRequest, error) {
	path, feature, err := ParseLine(line)
	if err != nil {
		return domain.ProfileRequest{}, err
	}
	req := domain.ProfileRequest{Path: path, LineFeature: feature, Step: step, Zoom: zoom}
	if len(pois) > 0 {
		if req.POIs, err = ParseMarkers(pois); err != nil {
			return domain.ProfileRequest{}, fmt.Errorf("pois: %w", err)
		}
	}
	if len(segments) > 0 {
		if req.Segments, err = ParseMarkers(segments); err != nil {
			return domain.ProfileRequest{}, fmt.Errorf("segments: %w", err)
		}
	}
	return req, nil
}

type typed struct {
	Type string `json:"type"`
}

// rawCollection keeps the source bytes of every feature.
type rawCollection struct {
	Features []json.RawMessage `json:"features"`
}

// rawFeature wraps a bare geometry, keeping the geometry bytes as given.
type rawFeature struct {
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// ParseLine reads a LineString from a bare geometry, a Feature or the first
// feature of a FeatureCollection. It returns the path and the source feature
// bytes; a bare geometry is wrapped in a Feature without properties.
func ParseLine(data []byte) (domain.Path, json.RawMessage, error) {
	var t typed
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var (
		f   *geojson.Feature
		raw json.RawMessage
	)
	switch t.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		var rc rawCollection
		if err := json.Unmarshal(data, &rc); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(fc.Features) == 0 {
			return nil, nil, fmt.Errorf("%w: feature collection is empty", ErrMalformed)
		}
		if len(rc.Features) != len(fc.Features) {
			return nil, nil, fmt.Errorf("%w: decoded %d of %d features", ErrMalformed, len(fc.Features), len(rc.Features))
		}
		f, raw = fc.Features[0], rc.Features[0]
	case "Feature":
		var err error
		if f, err = geojson.UnmarshalFeature(data); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		f = geojson.NewFeature(g.Geometry())
		raw, err = json.Marshal(rawFeature{
			Type:       "Feature",
			Properties: json.RawMessage("null"),
			Geometry:   bytes.TrimSpace(data),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	ls, ok := f.Geometry.(orb.LineString)
	if !ok {
		return nil, nil, fmt.Errorf("%w: line must be a LineString, got %s", ErrMalformed, geometryType(f.Geometry))
	}
	path := make(domain.Path, len(ls))
	for i, p := range ls {
		path[i] = domain.GeoPoint{Lon: p.Lon(), Lat: p.Lat()}
	}
	return path, raw, nil
}

// ParseMarkers reads a FeatureCollection of markers. Features without a
// geometry are skipped. A Point is used as is; for a LineString the ending
// coordinate marks the position. category and label come from properties.
// Each marker keeps its feature exactly as it appears in data.
func ParseMarkers(data []byte) ([]domain.Marker, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var rc rawCollection
	if err := json.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(rc.Features) != len(fc.Features) {
		return nil, fmt.Errorf("%w: decoded %d of %d features", ErrMalformed, len(fc.Features), len(rc.Features))
	}

	markers := make([]domain.Marker, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		var loc orb.Point
		switch g := f.Geometry.(type) {
		case orb.Point:
			loc = g
		case orb.LineString:
			if len(g) == 0 {
				continue
			}
			loc = g[len(g)-1]
		default:
			return nil, fmt.Errorf("%w: feature %d: unsupported marker geometry %s", ErrMalformed, i, geometryType(f.Geometry))
		}

		markers = append(markers, domain.Marker{
			Category: f.Properties.MustString("category", ""),
			Label:    f.Properties.MustString("label", ""),
			Location: domain.GeoPoint{Lon: loc.Lon(), Lat: loc.Lat()},
			Feature:  rc.Features[i],
		})
	}
	return markers, nil
}

func geometryType(g orb.Geometry) string {
	if g == nil {
		return "null"
	}
	return g.GeoJSONType()
}
