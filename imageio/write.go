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
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"seehuhn.de/go/clahe"
)

// ErrUnknownFormat is returned when no encoder exists for a file name
// extension.
var ErrUnknownFormat = errors.New("imageio: unknown image format")

type encodeFunc func(w io.Writer, img image.Image) error

// encoders maps lower-case file name extensions to image encoders.
var encoders = map[string]encodeFunc{
	".png":  png.Encode,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
	".bmp":  bmp.Encode,
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
}

func encodeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
}

// Formats returns the file name extensions supported by [WriteFile],
// in sorted order.
func Formats() []string {
	exts := maps.Keys(encoders)
	slices.Sort(exts)
	return exts
}

// Encode writes the grid to w, in the format implied by the file name
// extension ext (for example ".png").  8-bit grids are stored as 8-bit
// images, 16-bit grids as 16-bit images where the format allows this.
func Encode[T clahe.Sample](w io.Writer, ext string, g *clahe.Grid[T]) error {
	enc, ok := encoders[strings.ToLower(ext)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return enc(w, toImage(g))
}

// WriteFile writes the grid to an image file.  The format is chosen by the
// file name extension, see [Formats].
func WriteFile[T clahe.Sample](path string, g *clahe.Grid[T]) (err error) {
	ext := filepath.Ext(path)
	if _, ok := encoders[strings.ToLower(ext)]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}

	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err2 := fd.Close()
		if err == nil {
			err = err2
		}
	}()

	return Encode(fd, ext, g)
}
