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

// extend returns a grid covering all tiles of g.  Samples outside src are
// obtained by mirroring src at its last row and column, without repeating
// the edge sample.  If the tiles cover src exactly, src itself is returned.
func extend[T Sample](src *Grid[T], g Geometry) *Grid[T] {
	if !g.Extended() {
		return src
	}

	width := g.TileWidth * g.TilesX
	height := g.TileHeight * g.TilesY
	dst := NewGrid[T](width, height)

	xs := make([]int, width)
	for x := range xs {
		xs[x] = mirror(x, src.Width-1)
	}
	for y := range height {
		srcRow := src.Row(mirror(y, src.Height-1))
		dstRow := dst.Row(y)
		for x, sx := range xs {
			dstRow[x] = srcRow[sx]
		}
	}
	return dst
}

// mirror maps a non-negative coordinate c to the range [0, last] by
// reflecting at last: c is mapped to last - |c - last|.  The reflection
// is repeated, with period 2*last, for coordinates more than one image
// size beyond the edge.
func mirror(c, last int) int {
	if last <= 0 {
		return 0
	}
	period := 2 * last
	c %= period
	if c > last {
		c = period - c
	}
	return c
}
