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

// Package clahe implements contrast-limited adaptive histogram equalization
// (CLAHE) for grayscale images.
//
// The image is divided into a grid of tiles.  For every tile, the histogram
// of sample values is computed, bins above a clip limit are cut off and the
// excess is spread over all bins, and the cumulative histogram is turned
// into a lookup table.  Every output pixel is then obtained by bilinear
// interpolation between the lookup tables of the four tiles whose centres
// surround it, so that no seams are visible at tile boundaries.
//
// # Equalizing Images
//
// Images are represented as a [Grid] of 8-bit or 16-bit samples.  Use
// [EqualizeGray] for 8-bit images and [EqualizeGray16] to equalize a 16-bit
// image and reduce it to 8 bits at the same time:
//
//	out, err := clahe.EqualizeGray(img, 8, 8, 2.0)
//	if err != nil {
//	    // handle error
//	}
//
// The generic function [Equalize] allows any combination of input and
// output sample types and gives access to all parameters, including
// parallel execution and progress reporting:
//
//	p := clahe.DefaultParams()
//	p.Workers = 0 // use all CPUs
//	out, err := clahe.Equalize[uint16, uint16](img, p)
//
// The package only works on in-memory grids.  Reading and writing image
// files is handled by the subpackage seehuhn.de/go/clahe/imageio.
package clahe

import (
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Params holds the parameters of the equalization.
type Params struct {
	// TilesX and TilesY give the number of tile columns and rows.
	// Both must be at least 1.
	TilesX, TilesY int

	// ClipFactor controls the contrast limit.  Histogram bins are clipped
	// at ClipFactor times the average bin count of a tile.  A value of 0
	// disables clipping and gives plain adaptive histogram equalization.
	ClipFactor float64

	// Workers is the maximum number of goroutines used.  The value 1 runs
	// everything on the calling goroutine, 0 uses runtime.GOMAXPROCS(0).
	// The result does not depend on this setting.
	Workers int

	// Observer, if not nil, is called as the computation progresses.
	// If Workers is not 1, Observer may be called concurrently from
	// several goroutines.  A panic in Observer is passed on to the caller
	// of [Equalize] in either case.
	Observer func(Event)
}

// DefaultParams returns the parameters used if no parameters are given:
// 8x8 tiles, a clip factor of 2 and sequential execution.
func DefaultParams() *Params {
	return &Params{
		TilesX:     8,
		TilesY:     8,
		ClipFactor: 2,
		Workers:    1,
	}
}

func (p *Params) check() error {
	if p.TilesX < 1 {
		return invalidArgument("TilesX", p.TilesX)
	}
	if p.TilesY < 1 {
		return invalidArgument("TilesY", p.TilesY)
	}
	if math.IsNaN(p.ClipFactor) || math.IsInf(p.ClipFactor, 0) || p.ClipFactor < 0 {
		return invalidArgument("ClipFactor", p.ClipFactor)
	}
	if p.Workers < 0 {
		return invalidArgument("Workers", p.Workers)
	}
	return nil
}

func (p *Params) workers() int {
	if p.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return p.Workers
}

func (p *Params) notify(e Event) {
	if p.Observer != nil {
		p.Observer(e)
	}
}

// EqualizeGray applies CLAHE to an 8-bit image.
func EqualizeGray(in *Grid[uint8], tilesX, tilesY int, clipFactor float64) (*Grid[uint8], error) {
	return Equalize[uint8, uint8](in, &Params{
		TilesX:     tilesX,
		TilesY:     tilesY,
		ClipFactor: clipFactor,
		Workers:    1,
	})
}

// EqualizeGray16 applies CLAHE to a 16-bit image and returns an 8-bit image.
func EqualizeGray16(in *Grid[uint16], tilesX, tilesY int, clipFactor float64) (*Grid[uint8], error) {
	return Equalize[uint16, uint8](in, &Params{
		TilesX:     tilesX,
		TilesY:     tilesY,
		ClipFactor: clipFactor,
		Workers:    1,
	})
}

// Equalize applies CLAHE to the image in and returns a new image of the
// same size.  The lookup tables are computed in the value range of In, and
// the blended values are rescaled to the value range of Out.
//
// If p is nil, [DefaultParams] is used.  Invalid parameters give an error
// which wraps [ErrInvalidArgument].  An empty input image gives an empty
// output image.
func Equalize[In, Out Sample](in *Grid[In], p *Params) (*Grid[Out], error) {
	if p == nil {
		p = DefaultParams()
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, invalidArgument("image", nil)
	}
	if !in.valid() {
		return nil, invalidArgument("image size", fmt.Sprintf("%dx%d with %d samples", in.Width, in.Height, len(in.Pix)))
	}

	out := NewGrid[Out](in.Width, in.Height)
	if in.Empty() {
		return out, nil
	}

	g, err := NewGeometry(in.Width, in.Height, p.TilesX, p.TilesY)
	if err != nil {
		return nil, err
	}

	src := extend(in, g)
	if src != in {
		p.notify(Event{Kind: EventExtended, Bounds: src.Bounds()})
	}

	inMax := depthMax[In]()
	limit := g.ClipLimit(p.ClipFactor, inMax)
	luts := newLUTGrid(g.TilesX, g.TilesY, inMax)
	workers := p.workers()

	// Tiles only read src and each one writes its own table.
	forEach(workers, g.TilesX*g.TilesY, func(i int) {
		tx, ty := i%g.TilesX, i/g.TilesX
		hist := make([]uint32, inMax)
		tileHistogram(src, g, tx, ty, hist)
		clipped := clipHistogram(hist, limit)
		buildLUT(hist, luts.at(tx, ty), g.TilePixels())
		p.notify(Event{Kind: EventTile, TileX: tx, TileY: ty, Clipped: clipped})
	})

	// All tables are complete at this point.  Regions are disjoint, so
	// every region writes its own part of out.
	scale := float64(depthMax[Out]()) / float64(inMax)
	regions := g.Regions()
	forEach(workers, len(regions), func(i int) {
		r := regions[i]
		interpolate(out, in, luts, g, r, scale)
		p.notify(Event{Kind: EventRegion, Region: r})
	})

	return out, nil
}

// forEach calls fn(i) for i = 0, ..., n-1 using at most workers goroutines,
// and returns once all calls have completed.  With a single worker, the
// calls are made in order on the calling goroutine.
//
// If a call panics, the first panic value is re-raised on the calling
// goroutine after all goroutines have finished.
func forEach(workers, n int, fn func(i int)) {
	if workers <= 1 || n <= 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	var (
		eg       errgroup.Group
		once     sync.Once
		panicVal any
	)
	eg.SetLimit(workers)
	for i := range n {
		eg.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() { panicVal = r })
				}
			}()
			fn(i)
			return nil
		})
	}
	_ = eg.Wait()
	if panicVal != nil {
		panic(panicVal)
	}
}

// Event describes progress of the equalization.
type Event struct {
	Kind EventKind

	// Bounds is the size of the mirrored source image, for EventExtended.
	Bounds image.Rectangle

	// TileX and TileY identify the tile, for EventTile.
	TileX, TileY int

	// Clipped is the number of histogram counts which were above the clip
	// limit and have been redistributed, for EventTile.
	Clipped int

	// Region is the region which has been filled, for EventRegion.
	Region Region
}

// EventKind identifies the type of an [Event].
type EventKind int

// These are the possible event kinds.
const (
	EventExtended EventKind = iota + 1 // the image was mirrored to fill all tiles
	EventTile                          // the lookup table of a tile is complete
	EventRegion                        // an interpolation region has been filled
)

func (k EventKind) String() string {
	switch k {
	case EventExtended:
		return "extended"
	case EventTile:
		return "tile"
	case EventRegion:
		return "region"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// ErrInvalidArgument is returned (wrapped in an [*ArgumentError]) if the
// parameters or the image passed to [Equalize] are not valid.
var ErrInvalidArgument = errors.New("clahe: invalid argument")

// ArgumentError describes an invalid parameter value.
type ArgumentError struct {
	Name  string
	Value any
}

func invalidArgument(name string, value any) error {
	return &ArgumentError{Name: name, Value: value}
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("clahe: invalid argument: %s = %v", e.Name, e.Value)
}

// Unwrap allows to use errors.Is(err, ErrInvalidArgument).
func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}
