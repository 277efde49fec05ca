package dataset

import (
	"fmt"
	"io"

	iface "OnnxRocEval/interface"
)

type LoaderOptions struct {
	Size    int
	Layout  iface.Layout
	Rescale float32
}

// Loader yields samples in dataset order, one tensor at a time.
type Loader struct {
	ds      *Dataset
	decoder Decoder
	opts    LoaderOptions
	pos     int
}

func NewLoader(ds *Dataset, decoder Decoder, opts LoaderOptions) *Loader {
	return &Loader{ds: ds, decoder: decoder, opts: opts}
}

func (l *Loader) Len() int { return len(l.ds.Samples) }

// Next returns io.EOF after the last sample.
func (l *Loader) Next() (Sample, []float32, error) {
	if l.pos >= len(l.ds.Samples) {
		return Sample{}, nil, io.EOF
	}
	s := l.ds.Samples[l.pos]
	l.pos++
	img, err := l.decoder.Decode(s.Path, l.opts.Size)
	if err != nil {
		return s, nil, err
	}
	if b := img.Bounds(); b.Dx() != l.opts.Size || b.Dy() != l.opts.Size {
		return s, nil, fmt.Errorf("%s: decoder returned %dx%d, want %dx%d",
			s.Path, b.Dx(), b.Dy(), l.opts.Size, l.opts.Size)
	}
	return s, Tensor(img, l.opts.Layout, l.opts.Rescale), nil
}
