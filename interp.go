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

// interpolate computes the output pixels of region r.
//
// Each pixel is looked up in the four lookup tables of the region and the
// results are blended with bilinear weights.  The weights depend on the
// offset of the pixel from the top-left corner of the region, measured in
// tile sizes.  The blended value is multiplied by scale, clamped to the
// range of Out and truncated.
func interpolate[In, Out Sample](dst *Grid[Out], src *Grid[In], luts *lutGrid, g Geometry, r Region, scale float64) {
	lut00 := luts.at(r.Left, r.Top)
	lut10 := luts.at(r.Right, r.Top)
	lut01 := luts.at(r.Left, r.Bottom)
	lut11 := luts.at(r.Right, r.Bottom)

	hi := float64(depthMax[Out]() - 1)
	tw := float64(g.TileWidth)
	th := float64(g.TileHeight)

	for y := r.Rect.Min.Y; y < r.Rect.Max.Y; y++ {
		yw := float64(y-r.Rect.Min.Y) / th
		srcRow := src.Row(y)
		dstRow := dst.Row(y)
		for x := r.Rect.Min.X; x < r.Rect.Max.X; x++ {
			xw := float64(x-r.Rect.Min.X) / tw
			p := srcRow[x]

			// This is the same as weighting the corners with (1-xw)(1-yw),
			// xw(1-yw), (1-xw)yw and xw*yw, but gives the exact table value
			// when all four tables agree.
			top := lerp(float64(lut00[p]), float64(lut10[p]), xw)
			bottom := lerp(float64(lut01[p]), float64(lut11[p]), xw)
			v := scale * lerp(top, bottom, yw)

			dstRow[x] = Out(clamp(v, 0, hi))
		}
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
