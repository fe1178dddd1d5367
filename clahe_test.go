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
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func randomGrid[T Sample](rng *rand.Rand, width, height int) *Grid[T] {
	g := NewGrid[T](width, height)
	n := depthMax[T]()
	for i := range g.Pix {
		g.Pix[i] = T(rng.IntN(n))
	}
	return g
}

func TestInvalidArguments(t *testing.T) {
	img := NewGrid[uint8](16, 16)
	tests := []struct {
		name string
		p    *Params
	}{
		{"TilesX", &Params{TilesX: 0, TilesY: 8}},
		{"TilesY", &Params{TilesX: 8, TilesY: 0}},
		{"negative tiles", &Params{TilesX: -1, TilesY: 8}},
		{"negative clip", &Params{TilesX: 8, TilesY: 8, ClipFactor: -1}},
		{"NaN clip", &Params{TilesX: 8, TilesY: 8, ClipFactor: math.NaN()}},
		{"infinite clip", &Params{TilesX: 8, TilesY: 8, ClipFactor: math.Inf(1)}},
		{"workers", &Params{TilesX: 8, TilesY: 8, Workers: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Equalize[uint8, uint8](img, tt.p)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
			var argErr *ArgumentError
			if !errors.As(err, &argErr) {
				t.Errorf("err = %v, want *ArgumentError", err)
			}
			if out != nil {
				t.Error("got an image together with an error")
			}
		})
	}

	_, err := EqualizeGray(img, 0, 8, 2)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("EqualizeGray with 0 tiles: err = %v", err)
	}

	short := &Grid[uint8]{Width: 4, Height: 4, Pix: make([]uint8, 15)}
	_, err = EqualizeGray(short, 2, 2, 0)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("short sample slice: err = %v", err)
	}

	_, err = EqualizeGray(nil, 2, 2, 0)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil image: err = %v", err)
	}
}

func TestEmptyInput(t *testing.T) {
	for _, size := range [][2]int{{0, 0}, {0, 10}, {10, 0}} {
		in := NewGrid[uint16](size[0], size[1])
		out, err := EqualizeGray16(in, 8, 8, 2)
		if err != nil {
			t.Errorf("%dx%d: %v", size[0], size[1], err)
			continue
		}
		if out.Width != size[0] || out.Height != size[1] || len(out.Pix) != 0 {
			t.Errorf("%dx%d: got %dx%d image with %d samples",
				size[0], size[1], out.Width, out.Height, len(out.Pix))
		}
	}
}

// TestGlobalEqualization checks that a single tile without clipping gives
// classical histogram equalization of the whole image.
func TestGlobalEqualization(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	in := randomGrid[uint8](rng, 37, 23)
	for i := range in.Pix {
		in.Pix[i] /= 4 // leave some bins empty
	}

	out, err := EqualizeGray(in, 1, 1, 0)
	if err != nil {
		t.Fatal(err)
	}

	var hist [256]int
	for _, v := range in.Pix {
		hist[v]++
	}
	N := len(in.Pix)
	var ref [256]uint8
	cdf := 0
	for i := range 256 {
		cdf += hist[i]
		ref[i] = uint8(math.Floor(float64(cdf) * 255 / float64(N)))
	}

	want := NewGrid[uint8](in.Width, in.Height)
	for i, v := range in.Pix {
		want.Pix[i] = ref[v]
	}
	if d := cmp.Diff(want, out); d != "" {
		t.Errorf("output differs from global equalization (-want +got):\n%s", d)
	}
}

func TestConstantImage(t *testing.T) {
	for _, tiles := range [][2]int{{1, 1}, {2, 2}, {4, 3}, {7, 5}, {16, 16}} {
		for _, clip := range []float64{0, 1, 2, 40} {
			in := NewGrid[uint8](50, 30)
			for i := range in.Pix {
				in.Pix[i] = 77
			}
			out, err := EqualizeGray(in, tiles[0], tiles[1], clip)
			if err != nil {
				t.Fatal(err)
			}
			for i, v := range out.Pix {
				if v != out.Pix[0] {
					t.Fatalf("tiles %v, clip %g: pixel %d = %d, pixel 0 = %d",
						tiles, clip, i, v, out.Pix[0])
				}
			}
		}
	}
}

// TestAllZero checks a 16x16 image of zeros with 2x2 tiles.  Every tile has
// all its samples in bin 0, so every table maps 0 to the top of the range:
// lut[0] = floor(cumsum[0]*255/N) = floor(N*255/N) = 255.
func TestAllZero(t *testing.T) {
	in := NewGrid[uint8](16, 16)
	out, err := EqualizeGray(in, 2, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out.Pix {
		if v != 255 {
			t.Fatalf("pixel %d = %d, want 255", i, v)
		}
	}
}

func TestDepthReduction(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	in := randomGrid[uint16](rng, 40, 33)

	p := &Params{TilesX: 3, TilesY: 5, ClipFactor: 1.5, Workers: 1}
	out8, err := Equalize[uint16, uint8](in, p)
	if err != nil {
		t.Fatal(err)
	}
	out16, err := Equalize[uint16, uint16](in, p)
	if err != nil {
		t.Fatal(err)
	}

	// the 8-bit result is the 16-bit result without its low byte
	for i := range out8.Pix {
		if want := uint8(out16.Pix[i] >> 8); out8.Pix[i] != want {
			t.Fatalf("pixel %d: 8-bit output %d, want %d", i, out8.Pix[i], want)
		}
	}

	white := NewGrid[uint16](9, 9)
	for i := range white.Pix {
		white.Pix[i] = math.MaxUint16
	}
	out, err := EqualizeGray16(white, 2, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out.Pix {
		if v != 255 {
			t.Fatalf("white image: pixel %d = %d, want 255", i, v)
		}
	}
}

func TestWorkers(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	in := randomGrid[uint8](rng, 101, 67)

	var results []*Grid[uint8]
	for _, workers := range []int{1, 0, 3, 16} {
		p := &Params{TilesX: 6, TilesY: 4, ClipFactor: 2, Workers: workers}
		out, err := Equalize[uint8, uint8](in, p)
		if err != nil {
			t.Fatal(err)
		}
		results = append(results, out)
	}
	for i := 1; i < len(results); i++ {
		if d := cmp.Diff(results[0], results[i]); d != "" {
			t.Errorf("result %d differs from sequential result (-want +got):\n%s", i, d)
		}
	}
}

// TestObserverPanic checks that a panic in the observer reaches the caller,
// also when it happens on a worker goroutine.
func TestObserverPanic(t *testing.T) {
	in := NewGrid[uint8](40, 40)
	for _, workers := range []int{1, 4} {
		p := &Params{
			TilesX:  4,
			TilesY:  4,
			Workers: workers,
			Observer: func(e Event) {
				if e.Kind == EventTile && e.TileX == 2 && e.TileY == 1 {
					panic("observer failed")
				}
			},
		}

		got := func() (r any) {
			defer func() { r = recover() }()
			_, _ = Equalize[uint8, uint8](in, p)
			return nil
		}()
		if got != "observer failed" {
			t.Errorf("workers=%d: recovered %v", workers, got)
		}
	}
}

func TestForEach(t *testing.T) {
	for _, workers := range []int{1, 3} {
		var mu sync.Mutex
		seen := make(map[int]int)
		forEach(workers, 50, func(i int) {
			mu.Lock()
			seen[i]++
			mu.Unlock()
		})
		if len(seen) != 50 {
			t.Errorf("workers=%d: %d distinct calls, want 50", workers, len(seen))
		}
		for i, c := range seen {
			if c != 1 {
				t.Errorf("workers=%d: fn(%d) called %d times", workers, i, c)
			}
		}
	}
}

func TestObserver(t *testing.T) {
	in := NewGrid[uint8](10, 10)

	for _, workers := range []int{1, 4} {
		var mu sync.Mutex
		count := make(map[EventKind]int)
		tiles := make(map[[2]int]bool)
		pixels := 0

		p := &Params{
			TilesX:  3,
			TilesY:  2,
			Workers: workers,
			Observer: func(e Event) {
				mu.Lock()
				defer mu.Unlock()
				count[e.Kind]++
				switch e.Kind {
				case EventTile:
					tiles[[2]int{e.TileX, e.TileY}] = true
				case EventRegion:
					pixels += e.Region.Rect.Dx() * e.Region.Rect.Dy()
				case EventExtended:
					if e.Bounds.Dx() != 12 || e.Bounds.Dy() != 10 {
						t.Errorf("extended bounds = %v, want 12x10", e.Bounds)
					}
				}
			},
		}
		if _, err := Equalize[uint8, uint8](in, p); err != nil {
			t.Fatal(err)
		}

		want := map[EventKind]int{EventExtended: 1, EventTile: 6, EventRegion: 12}
		if d := cmp.Diff(want, count); d != "" {
			t.Errorf("workers=%d: event counts (-want +got):\n%s", workers, d)
		}
		if len(tiles) != 6 {
			t.Errorf("workers=%d: %d distinct tiles reported, want 6", workers, len(tiles))
		}
		if pixels != 100 {
			t.Errorf("workers=%d: regions cover %d pixels, want 100", workers, pixels)
		}
	}
}

func TestTinyImages(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	for _, size := range [][2]int{{1, 1}, {1, 7}, {2, 3}, {5, 1}, {3, 3}} {
		in := randomGrid[uint8](rng, size[0], size[1])
		out, err := EqualizeGray(in, 8, 8, 2)
		if err != nil {
			t.Fatalf("%v: %v", size, err)
		}
		if out.Width != size[0] || out.Height != size[1] {
			t.Errorf("%v: output size %dx%d", size, out.Width, out.Height)
		}
	}
}

func TestInputUnchanged(t *testing.T) {
	rng := rand.New(rand.NewPCG(15, 16))
	in := randomGrid[uint8](rng, 30, 20)
	orig := in.Clone()

	if _, err := Equalize[uint8, uint8](in, nil); err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(orig, in); d != "" {
		t.Errorf("input was modified (-want +got):\n%s", d)
	}
}

func TestEventKindString(t *testing.T) {
	for k, want := range map[EventKind]string{
		EventExtended: "extended",
		EventTile:     "tile",
		EventRegion:   "region",
		EventKind(42): "EventKind(42)",
	} {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}

func FuzzEqualize(f *testing.F) {
	f.Add(uint8(16), uint8(16), uint8(2), uint8(2), 0.0, []byte{0})
	f.Add(uint8(5), uint8(3), uint8(8), uint8(8), 2.0, []byte{1, 2, 3, 200})
	f.Add(uint8(1), uint8(1), uint8(1), uint8(1), 1.0, []byte{255})
	f.Fuzz(func(t *testing.T, w, h, tx, ty uint8, clip float64, data []byte) {
		in := NewGrid[uint8](int(w)%64, int(h)%64)
		if len(data) > 0 {
			for i := range in.Pix {
				in.Pix[i] = data[i%len(data)]
			}
		}

		p := &Params{TilesX: int(tx) % 20, TilesY: int(ty) % 20, ClipFactor: clip, Workers: 1}
		out, err := Equalize[uint8, uint8](in, p)
		if err != nil {
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}
		if out.Width != in.Width || out.Height != in.Height || len(out.Pix) != len(in.Pix) {
			t.Fatalf("output %dx%d, input %dx%d", out.Width, out.Height, in.Width, in.Height)
		}
	})
}

func BenchmarkEqualizeGray(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	in := randomGrid[uint8](rng, 1024, 768)
	b.ResetTimer()
	for range b.N {
		_, _ = EqualizeGray(in, 8, 8, 2)
	}
}

func BenchmarkEqualizeGray16(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	in := randomGrid[uint16](rng, 1024, 768)
	b.ResetTimer()
	for range b.N {
		_, _ = EqualizeGray16(in, 8, 8, 0)
	}
}

func BenchmarkEqualizeParallel(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	in := randomGrid[uint16](rng, 1024, 768)
	p := &Params{TilesX: 8, TilesY: 8, Workers: 0}
	b.ResetTimer()
	for range b.N {
		_, _ = Equalize[uint16, uint8](in, p)
	}
}
