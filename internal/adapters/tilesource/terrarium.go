package tilesource

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/tiles"
)

// TerrariumRaster is a decoded terrarium tile. Elevation in meters is
// R*256 + G + B/256 - 32768.
type TerrariumRaster struct {
	addr domain.TileAddress
	img  image.Image
	gt   tiles.GeoTransform
	w, h int
}

// DecodeTerrarium decodes PNG bytes for addr.
func DecodeTerrarium(addr domain.TileAddress, data []byte) (*TerrariumRaster, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode terrarium png: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode terrarium png: empty image")
	}
	return &TerrariumRaster{
		addr: addr,
		img:  img,
		gt:   tiles.TileTransform(addr, b.Dx(), b.Dy()),
		w:    b.Dx(),
		h:    b.Dy(),
	}, nil
}

// RowCol maps a web mercator coordinate to a pixel of this tile.
func (r *TerrariumRaster) RowCol(p domain.PlanarPoint) (int, int) {
	return r.gt.Index(p)
}

// ElevationAt decodes the pixel at row/col.
func (r *TerrariumRaster) ElevationAt(row, col int) (float64, error) {
	if row < 0 || row >= r.h || col < 0 || col >= r.w {
		return 0, &domain.SampleError{Address: r.addr, Row: row, Col: col}
	}
	b := r.img.Bounds()
	c := color.NRGBAModel.Convert(r.img.At(b.Min.X+col, b.Min.Y+row)).(color.NRGBA)
	return TerrariumElevation(c.R, c.G, c.B), nil
}

// Close releases the decoded image.
func (r *TerrariumRaster) Close() error {
	r.img = nil
	return nil
}

// TerrariumElevation decodes one terrarium pixel.
func TerrariumElevation(red, green, blue uint8) float64 {
	return float64(red)*256 + float64(green) + float64(blue)/256 - 32768
}

// EncodeTerrarium is the inverse of TerrariumElevation, rounded to 1/256 m.
func EncodeTerrarium(elev float64) (red, green, blue uint8) {
	v := elev + 32768
	if v < 0 {
		v = 0
	}
	whole := int(v)
	frac := int((v - float64(whole)) * 256)
	return uint8(whole / 256), uint8(whole % 256), uint8(frac)
}
