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

// buildLUT fills lut with the equalizing transfer function of a tile with
// the given histogram.  Entry i is the number of tile samples with value at
// most i, scaled so that the full tile maps to len(hist)-1.  The result is
// non-decreasing because histogram counts are non-negative.
//
// hist and lut must have the same length and tilePixels must be positive.
func buildLUT(hist, lut []uint32, tilePixels int) {
	top := uint64(len(hist) - 1)
	n := uint64(tilePixels)

	var sum uint64
	for i, c := range hist {
		sum += uint64(c)
		lut[i] = uint32(min(sum*top/n, top))
	}
}

// lutGrid stores one lookup table per tile.
// The tables share a single backing array, in row-major tile order.
type lutGrid struct {
	tilesX int
	tilesY int
	size   int // entries per table
	data   []uint32
}

func newLUTGrid(tilesX, tilesY, size int) *lutGrid {
	return &lutGrid{
		tilesX: tilesX,
		tilesY: tilesY,
		size:   size,
		data:   make([]uint32, tilesX*tilesY*size),
	}
}

// at returns the lookup table of tile (tx, ty).
func (l *lutGrid) at(tx, ty int) []uint32 {
	start := (ty*l.tilesX + tx) * l.size
	return l.data[start : start+l.size : start+l.size]
}
