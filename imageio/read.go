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

// Package imageio reads and writes grayscale images for use with the clahe
// package.
//
// PNG, JPEG, TIFF and BMP files are decoded with the standard library and
// golang.org/x/image.  DICOM files are recognised by their preamble and
// read with github.com/cocosip/go-dicom.  Colour images are converted to
// gray on reading.
package imageio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"seehuhn.de/go/clahe"
)

// FormatDICOM is the format name reported for DICOM files.
const FormatDICOM = "dicom"

// Decode8 decodes an image and converts it to an 8-bit grid.
// The string returned is the format name, as reported by [image.Decode].
func Decode8(r io.Reader) (*clahe.Grid[uint8], string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("imageio: %w", err)
	}
	return FromImage8(img), format, nil
}

// Decode16 decodes an image and converts it to a 16-bit grid.
// The string returned is the format name, as reported by [image.Decode].
func Decode16(r io.Reader) (*clahe.Grid[uint16], string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("imageio: %w", err)
	}
	return FromImage16(img), format, nil
}

// ReadFile8 reads an image file as an 8-bit grid.
// 16-bit images, including DICOM files, keep their most significant byte.
func ReadFile8(path string) (*clahe.Grid[uint8], string, error) {
	g16, format, err := readDICOMFile(path)
	if err == nil {
		g := clahe.NewGrid[uint8](g16.Width, g16.Height)
		for i, v := range g16.Pix {
			g.Pix[i] = uint8(v >> 8)
		}
		return g, format, nil
	} else if !errors.Is(err, errNotDICOM) {
		return nil, "", err
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer fd.Close()
	return Decode8(bufio.NewReader(fd))
}

// ReadFile16 reads an image file as a 16-bit grid.
// 8-bit images are expanded to the full 16-bit range.
func ReadFile16(path string) (*clahe.Grid[uint16], string, error) {
	g, format, err := readDICOMFile(path)
	if err == nil {
		return g, format, nil
	} else if !errors.Is(err, errNotDICOM) {
		return nil, "", err
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer fd.Close()
	return Decode16(bufio.NewReader(fd))
}

// IsDICOM reports whether data starts with a DICOM preamble: 128 bytes
// followed by the magic "DICM".
func IsDICOM(data []byte) bool {
	return len(data) >= dicomHeaderSize && bytes.Equal(data[128:dicomHeaderSize], []byte("DICM"))
}

const dicomHeaderSize = 132

var errNotDICOM = errors.New("imageio: not a DICOM file")

func readDICOMFile(path string) (*clahe.Grid[uint16], string, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	hdr := make([]byte, dicomHeaderSize)
	_, err = io.ReadFull(fd, hdr)
	fd.Close()
	if err == io.EOF || err == io.ErrUnexpectedEOF || (err == nil && !IsDICOM(hdr)) {
		return nil, "", errNotDICOM
	} else if err != nil {
		return nil, "", err
	}

	g, err := readDICOM(path)
	if err != nil {
		return nil, "", err
	}
	return g, FormatDICOM, nil
}
