package imgproc

import (
	"errors"
	"fmt"
	"image"

	"OnnxRocEval/dataset"

	"gocv.io/x/gocv"
)

// Decoder reads images through OpenCV. IMRead yields BGR, which
// Mat.ToImage turns back into RGB.
type Decoder struct {
	Interp dataset.Interpolation
}

var _ dataset.Decoder = Decoder{}

func (Decoder) Extensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".bmp", ".ppm", ".pgm", ".tif", ".tiff", ".webp"}
}

func (d Decoder) Decode(path string, size int) (image.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("decode %s: %w", path, errors.New("empty or unsupported image"))
	}
	if mat.Cols() != size || mat.Rows() != size {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(mat, &resized, image.Pt(size, size), 0, 0, d.flag())
		if resized.Empty() {
			return nil, fmt.Errorf("resize %s failed", path)
		}
		return resized.ToImage()
	}
	return mat.ToImage()
}

func (d Decoder) flag() gocv.InterpolationFlags {
	switch d.Interp {
	case dataset.Bilinear:
		return gocv.InterpolationLinear
	case dataset.Bicubic:
		return gocv.InterpolationCubic
	case dataset.Lanczos:
		return gocv.InterpolationLanczos4
	}
	return gocv.InterpolationNearestNeighbor
}
