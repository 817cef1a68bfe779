package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Typed errors below unwrap to one of these.
var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrDegenerateLine    = errors.New("degenerate line")
	ErrTileUnavailable   = errors.New("tile unavailable")
	ErrSampleOutOfBounds = errors.New("sample out of bounds")
	ErrInvalidSettings   = errors.New("invalid profile settings")
	ErrNotFound          = errors.New("not found")
)

// CoordinateError names the stage and the offending input coordinate.
type CoordinateError struct {
	Stage string
	Index int
	Point GeoPoint
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("%s: invalid coordinate #%d %s", e.Stage, e.Index, e.Point)
}

func (e *CoordinateError) Unwrap() error { return ErrInvalidCoordinate }

// LineError reports a zero-length or under-sampled line.
type LineError struct {
	Stage  string
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s: degenerate line: %s", e.Stage, e.Reason)
}

func (e *LineError) Unwrap() error { return ErrDegenerateLine }

// TileError is returned when a tile resource cannot be opened.
type TileError struct {
	Address TileAddress
	Err     error
}

func (e *TileError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tile %s unavailable", e.Address)
	}
	return fmt.Sprintf("tile %s unavailable: %v", e.Address, e.Err)
}

func (e *TileError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTileUnavailable}
	}
	return []error{ErrTileUnavailable, e.Err}
}

// SampleError is returned when a pixel lies outside an opened raster.
type SampleError struct {
	Address TileAddress
	Row     int
	Col     int
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("tile %s: pixel (row %d, col %d) outside raster", e.Address, e.Row, e.Col)
}

func (e *SampleError) Unwrap() error { return ErrSampleOutOfBounds }

// IsInputError reports whether err is caused by structurally invalid input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidCoordinate) ||
		errors.Is(err, ErrDegenerateLine) ||
		errors.Is(err, ErrInvalidSettings)
}
