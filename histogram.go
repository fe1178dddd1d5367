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

import "math"

// tileHistogram counts the sample values of tile (tx, ty) of src.
// The histogram must have one bin for every value of T.
// src must cover all tiles of g, see [extend].
func tileHistogram[T Sample](src *Grid[T], g Geometry, tx, ty int, hist []uint32) {
	clear(hist)

	x0 := tx * g.TileWidth
	y0 := ty * g.TileHeight
	for y := y0; y < y0+g.TileHeight; y++ {
		row := src.Row(y)[x0 : x0+g.TileWidth]
		for _, v := range row {
			hist[v]++
		}
	}
}

// clipHistogram limits every bin of hist to at most limit and spreads the
// removed counts over all bins, so that the total count is unchanged.
// The function returns the number of counts which were moved.
//
// The removed counts are first shared out evenly.  The remainder, which is
// smaller than the number of bins, is added one count at a time to bins
// spaced len(hist)/remainder apart, starting at bin 0.  After this, bins can
// again exceed the limit by a small amount.
//
// If limit is zero or negative, hist is left unchanged.
func clipHistogram(hist []uint32, limit int) int {
	if limit <= 0 || len(hist) == 0 {
		return 0
	}
	lim := uint32(min(uint64(limit), math.MaxUint32))

	clipped := 0
	for i, c := range hist {
		if c > lim {
			clipped += int(c - lim)
			hist[i] = lim
		}
	}

	n := len(hist)
	batch := clipped / n
	residual := clipped - batch*n
	if batch > 0 {
		for i := range hist {
			hist[i] += uint32(batch)
		}
	}

	if residual > 0 {
		step := max(n/residual, 1)
		for i := 0; i < n && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}

	return clipped
}
