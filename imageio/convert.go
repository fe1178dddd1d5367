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

package imageio

import (
	"image"
	"image/color"
	"math"

	"seehuhn.de/go/clahe"
)

// FromImage8 converts an image to an 8-bit grid.
// Colour images are converted to gray using [color.GrayModel].
func FromImage8(img image.Image) *clahe.Grid[uint8] {
	b := img.Bounds()
	g := clahe.NewGrid[uint8](b.Dx(), b.Dy())

	if gray, ok := img.(*image.Gray); ok {
		for y := range g.Height {
			start := gray.PixOffset(b.Min.X, b.Min.Y+y)
			copy(g.Row(y), gray.Pix[start:start+g.Width])
		}
		return g
	}

	for y := range g.Height {
		row := g.Row(y)
		for x := range row {
			c := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			row[x] = c.Y
		}
	}
	return g
}

// FromImage16 converts an image to a 16-bit grid.
// Colour images are converted to gray using [color.Gray16Model].
func FromImage16(img image.Image) *clahe.Grid[uint16] {
	b := img.Bounds()
	g := clahe.NewGrid[uint16](b.Dx(), b.Dy())

	if gray, ok := img.(*image.Gray16); ok {
		for y := range g.Height {
			pix := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):]
			row := g.Row(y)
			for x := range row {
				row[x] = uint16(pix[2*x])<<8 | uint16(pix[2*x+1])
			}
		}
		return g
	}

	for y := range g.Height {
		row := g.Row(y)
		for x := range row {
			c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			row[x] = c.Y
		}
	}
	return g
}

// ToImage8 converts an 8-bit grid to an image.
func ToImage8(g *clahe.Grid[uint8]) *image.Gray {
	img := image.NewGray(g.Bounds())
	copy(img.Pix, g.Pix[:g.Width*g.Height])
	return img
}

// ToImage16 converts a 16-bit grid to an image.
func ToImage16(g *clahe.Grid[uint16]) *image.Gray16 {
	img := image.NewGray16(g.Bounds())
	for i, v := range g.Pix[:g.Width*g.Height] {
		img.Pix[2*i] = byte(v >> 8)
		img.Pix[2*i+1] = byte(v)
	}
	return img
}

// toImage converts a grid with any sample type to an image.
func toImage[T clahe.Sample](g *clahe.Grid[T]) image.Image {
	switch g := any(g).(type) {
	case *clahe.Grid[uint8]:
		return ToImage8(g)
	case *clahe.Grid[uint16]:
		return ToImage16(g)
	}

	// named sample types
	if int(^T(0)) == math.MaxUint8 {
		g8 := clahe.NewGrid[uint8](g.Width, g.Height)
		for i := range g8.Pix {
			g8.Pix[i] = uint8(g.Pix[i])
		}
		return ToImage8(g8)
	}
	g16 := clahe.NewGrid[uint16](g.Width, g.Height)
	for i := range g16.Pix {
		g16.Pix[i] = uint16(g.Pix[i])
	}
	return ToImage16(g16)
}
