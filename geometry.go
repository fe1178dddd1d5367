// seehuhn.de/go/clahe - contrast-limited adaptive histogram equalization
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package clahe

import (
	"image"
	"math"
)

// Geometry describes how an image is divided into tiles.
//
// Every tile has the same size.  If the image dimensions are not multiples
// of the tile counts, the tiles are rounded up and together cover an area
// slightly larger than the image; the missing samples are supplied by
// mirroring the image at its right and bottom edges.
type Geometry struct {
	Width, Height int // size of the image
	TilesX        int // number of tile columns
	TilesY        int // number of tile rows
	TileWidth     int
	TileHeight    int
}

// NewGeometry computes the tile layout for an image of the given size.
// For an empty image the tile size is zero.
func NewGeometry(width, height, tilesX, tilesY int) (Geometry, error) {
	if tilesX < 1 {
		return Geometry{}, invalidArgument("TilesX", tilesX)
	}
	if tilesY < 1 {
		return Geometry{}, invalidArgument("TilesY", tilesY)
	}
	if width < 0 {
		return Geometry{}, invalidArgument("Width", width)
	}
	if height < 0 {
		return Geometry{}, invalidArgument("Height", height)
	}

	g := Geometry{
		Width:      width,
		Height:     height,
		TilesX:     tilesX,
		TilesY:     tilesY,
		TileWidth:  (width + tilesX - 1) / tilesX,
		TileHeight: (height + tilesY - 1) / tilesY,
	}
	return g, nil
}

// TilePixels returns the number of samples in one tile.
func (g Geometry) TilePixels() int {
	return g.TileWidth * g.TileHeight
}

// Extended reports whether the tiles extend beyond the image, so that a
// mirrored copy of the image is needed to fill them.
func (g Geometry) Extended() bool {
	return g.TileWidth*g.TilesX != g.Width || g.TileHeight*g.TilesY != g.Height
}

// ClipLimit converts a relative clip factor into the absolute maximum
// count of a histogram bin, for histograms with depthMax bins.
//
// A clip factor of 1 corresponds to the count every bin would have if the
// tile samples were spread evenly over all values.  The result is 0 (no
// clipping) if clipFactor is not positive, and at least 1 otherwise.
func (g Geometry) ClipLimit(clipFactor float64, depthMax int) int {
	if !(clipFactor > 0) || depthMax <= 0 {
		return 0
	}
	n := g.TilePixels()
	limit := clipFactor * float64(n) / float64(depthMax)
	if limit >= float64(n) || math.IsInf(limit, 1) {
		// no bin can exceed the number of samples in the tile
		return max(n, 1)
	}
	return max(int(limit), 1)
}

// Region is a rectangle of the output image whose pixels are computed by
// blending the same four tile lookup tables.
//
// Left and Right are the tile columns, Top and Bottom the tile rows of the
// tiles whose centres surround the rectangle.  At the image border the
// indices are clamped, so that both indices of a pair refer to the same
// tile.
type Region struct {
	Rect image.Rectangle

	Left, Right int
	Top, Bottom int
}

// Regions divides the image into (TilesX+1)*(TilesY+1) interpolation
// regions.  Region (i, j) extends from the centre of tile (i-1, j-1) to the
// centre of tile (i, j), clipped to the image.  The regions are returned in
// row-major order and cover every pixel of the image exactly once.
// Regions at the image border can be empty.
func (g Geometry) Regions() []Region {
	res := make([]Region, 0, (g.TilesX+1)*(g.TilesY+1))
	for j := 0; j <= g.TilesY; j++ {
		y0 := clampInt((j-1)*g.TileHeight+g.TileHeight/2, 0, g.Height)
		y1 := clampInt(j*g.TileHeight+g.TileHeight/2, 0, g.Height)
		for i := 0; i <= g.TilesX; i++ {
			x0 := clampInt((i-1)*g.TileWidth+g.TileWidth/2, 0, g.Width)
			x1 := clampInt(i*g.TileWidth+g.TileWidth/2, 0, g.Width)
			res = append(res, Region{
				Rect:   image.Rectangle{Min: image.Pt(x0, y0), Max: image.Pt(x1, y1)},
				Left:   clampInt(i-1, 0, g.TilesX-1),
				Right:  clampInt(i, 0, g.TilesX-1),
				Top:    clampInt(j-1, 0, g.TilesY-1),
				Bottom: clampInt(j, 0, g.TilesY-1),
			})
		}
	}
	return res
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
