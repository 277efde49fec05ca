package dataset

import (
	"image"
	"image/color"

	iface "OnnxRocEval/interface"
)

// Tensor flattens img into RGB float32 values scaled by rescale. Alpha is
// dropped without premultiplying, grayscale is replicated to 3 channels.
func Tensor(img image.Image, layout iface.Layout, rescale float32) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	out := make([]float32, 3*plane)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			r := float32(c.R) * rescale
			g := float32(c.G) * rescale
			bl := float32(c.B) * rescale
			px := y*w + x
			if layout == iface.NCHW {
				out[px] = r
				out[plane+px] = g
				out[2*plane+px] = bl
			} else {
				out[3*px] = r
				out[3*px+1] = g
				out[3*px+2] = bl
			}
		}
	}
	return out
}
