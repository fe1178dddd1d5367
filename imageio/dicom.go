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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cocosip/go-dicom/pkg/dicom/parser"
	"github.com/cocosip/go-dicom/pkg/dicom/transfer"
	"github.com/cocosip/go-dicom/pkg/imaging"
	"github.com/cocosip/go-dicom/pkg/imaging/codec"

	"seehuhn.de/go/clahe"
)

// ErrUnsupportedDICOM is returned for DICOM files which do not contain a
// single-channel image.
var ErrUnsupportedDICOM = errors.New("imageio: unsupported DICOM image")

// readDICOM reads the first frame of a DICOM file.
//
// Compressed pixel data is converted to Explicit VR Little Endian first;
// this only works for transfer syntaxes with a registered codec.
func readDICOM(path string) (*clahe.Grid[uint16], error) {
	res, err := parser.ParseFile(path, parser.WithReadOption(parser.ReadAll))
	if err != nil {
		return nil, fmt.Errorf("imageio: %s: %w", path, err)
	}

	ds := res.Dataset
	if res.TransferSyntax != nil && res.TransferSyntax.IsEncapsulated() {
		tr := codec.NewTranscoder(res.TransferSyntax, transfer.ExplicitVRLittleEndian)
		ds, err = tr.Transcode(ds)
		if err != nil {
			return nil, fmt.Errorf("imageio: %s: %w", path, err)
		}
	}

	pd, err := imaging.CreatePixelData(ds)
	if err != nil {
		return nil, fmt.Errorf("imageio: %s: %w", path, err)
	}
	info := pd.Info
	if int(info.SamplesPerPixel) != 1 {
		return nil, fmt.Errorf("%w: %d samples per pixel", ErrUnsupportedDICOM, info.SamplesPerPixel)
	}
	frame, err := pd.GetFrame(0)
	if err != nil {
		return nil, fmt.Errorf("imageio: %s: %w", path, err)
	}

	return unpackSamples(frame, int(info.Width), int(info.Height),
		int(info.BitsAllocated), int(info.BitsStored), int(info.PixelRepresentation) != 0)
}

// unpackSamples converts little-endian DICOM pixel data to a 16-bit grid.
// The stored bits are scaled to the full 16-bit range, and signed samples
// are offset so that the most negative value maps to 0.
func unpackSamples(data []byte, width, height, bitsAllocated, bitsStored int, signed bool) (*clahe.Grid[uint16], error) {
	if bitsAllocated != 8 && bitsAllocated != 16 {
		return nil, fmt.Errorf("%w: %d bits allocated", ErrUnsupportedDICOM, bitsAllocated)
	}
	if bitsStored <= 0 || bitsStored > bitsAllocated {
		bitsStored = bitsAllocated
	}
	bytesPerSample := bitsAllocated / 8
	if width <= 0 || height <= 0 || len(data) < width*height*bytesPerSample {
		return nil, fmt.Errorf("%w: %dx%d image with %d bytes of pixel data",
			ErrUnsupportedDICOM, width, height, len(data))
	}

	shift := uint(16 - bitsStored)
	mask := uint32(1)<<bitsStored - 1
	half := uint32(1) << (bitsStored - 1)

	g := clahe.NewGrid[uint16](width, height)
	for i := range g.Pix {
		var u uint32
		if bytesPerSample == 2 {
			u = uint32(binary.LittleEndian.Uint16(data[2*i:]))
		} else {
			u = uint32(data[i])
		}
		u &= mask
		if signed {
			// flipping the sign bit maps two's complement to offset binary
			u ^= half
		}
		g.Pix[i] = uint16(u << shift)
	}
	return g, nil
}
