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

import "image"

// Sample is the set of types which can be stored in a [Grid].
// Histograms and lookup tables have one entry for every value of the
// sample type, so only 8-bit and 16-bit samples are supported.
type Sample interface {
	~uint8 | ~uint16
}

// depthMax returns the number of distinct values of the sample type T.
func depthMax[T Sample]() int {
	return int(^T(0)) + 1
}

// Grid is a single-channel image.
//
// Samples are stored in row-major order: the sample at (x, y) is
// Pix[y*Width+x].
type Grid[T Sample] struct {
	Width  int
	Height int
	Pix    []T
}

// NewGrid allocates a grid of the given size with all samples set to zero.
// Negative dimensions are treated as zero.
func NewGrid[T Sample](width, height int) *Grid[T] {
	width = max(width, 0)
	height = max(height, 0)
	return &Grid[T]{
		Width:  width,
		Height: height,
		Pix:    make([]T, width*height),
	}
}

// At returns the sample at position (x, y).
// The coordinates must be inside the grid.
func (g *Grid[T]) At(x, y int) T {
	return g.Pix[y*g.Width+x]
}

// Set changes the sample at position (x, y).
// The coordinates must be inside the grid.
func (g *Grid[T]) Set(x, y int, v T) {
	g.Pix[y*g.Width+x] = v
}

// Row returns the samples of row y.
func (g *Grid[T]) Row(y int) []T {
	start := y * g.Width
	return g.Pix[start : start+g.Width : start+g.Width]
}

// Bounds returns the rectangle covered by the grid.
func (g *Grid[T]) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Empty reports whether the grid has no samples.
func (g *Grid[T]) Empty() bool {
	return g.Width <= 0 || g.Height <= 0
}

// Clone returns a deep copy of the grid.
func (g *Grid[T]) Clone() *Grid[T] {
	res := &Grid[T]{
		Width:  g.Width,
		Height: g.Height,
		Pix:    make([]T, len(g.Pix)),
	}
	copy(res.Pix, g.Pix)
	return res
}

// valid checks that the sample slice is large enough for the dimensions.
func (g *Grid[T]) valid() bool {
	return g.Width >= 0 && g.Height >= 0 && len(g.Pix) >= g.Width*g.Height
}
