package dataset

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder reads an image file and resizes it to size x size.
type Decoder interface {
	Decode(path string, size int) (image.Image, error)
	Extensions() []string
}

type Interpolation string

const (
	Nearest  Interpolation = "nearest"
	Bilinear Interpolation = "bilinear"
	Bicubic  Interpolation = "bicubic"
	Lanczos  Interpolation = "lanczos"
)

func ParseInterpolation(s string) (Interpolation, error) {
	switch i := Interpolation(strings.ToLower(strings.TrimSpace(s))); i {
	case "":
		return Nearest, nil
	case Nearest, Bilinear, Bicubic, Lanczos:
		return i, nil
	}
	return "", fmt.Errorf("unsupported interpolation %q", s)
}

// NativeDecoder decodes with the image package and resizes with
// nfnt/resize. It needs no cgo.
type NativeDecoder struct {
	Interp Interpolation
}

func (NativeDecoder) Extensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
}

func (d NativeDecoder) Decode(path string, size int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	b := img.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return img, nil
	}
	return resize.Resize(uint(size), uint(size), img, d.function()), nil
}

func (d NativeDecoder) function() resize.InterpolationFunction {
	switch d.Interp {
	case Bilinear:
		return resize.Bilinear
	case Bicubic:
		return resize.Bicubic
	case Lanczos:
		return resize.Lanczos3
	}
	return resize.NearestNeighbor
}
