package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"OnnxRocEval/config"
	"OnnxRocEval/dataset"
	"OnnxRocEval/engine"
	"OnnxRocEval/eval"
	"OnnxRocEval/imgproc"
	iface "OnnxRocEval/interface"
	"OnnxRocEval/logger"
	"OnnxRocEval/monitor"
	"OnnxRocEval/report"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultImageSize = 224

// newClassifier is swapped in tests.
var newClassifier = func(modelPath string, meta engine.Metadata, libraryPath string) (iface.Classifier, error) {
	return engine.NewClassifier(modelPath, meta, libraryPath)
}

func newDecoder(c config.Config) (dataset.Decoder, error) {
	interp, err := dataset.ParseInterpolation(c.Interpolation)
	if err != nil {
		return nil, err
	}
	if c.Decoder == config.DecoderOpenCV {
		return imgproc.Decoder{Interp: interp}, nil
	}
	return dataset.NativeDecoder{Interp: interp}, nil
}

// modelMetadata merges the sidecar with the configuration; the
// configuration wins.
func modelMetadata(c config.Config, meta engine.Metadata, classes *dataset.ClassIndex) engine.Metadata {
	meta.Classes = classes.Labels()
	if c.ImageSize > 0 {
		meta.ImageSize = c.ImageSize
	} else if meta.ImageSize == 0 && len(meta.InputShape) == 0 {
		meta.ImageSize = defaultImageSize
	}
	if c.Layout != "" {
		meta.Layout = c.Layout
	}
	if c.Softmax != nil {
		meta.Softmax = *c.Softmax
	}
	return meta
}

func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func evaluate(ctx context.Context, c config.Config, out io.Writer) (*eval.Result, error) {
	runID := uuid.NewString()
	log := logger.Log().With(zap.String("run", runID))

	sidecar, err := engine.LoadMetadata(c.Metadata, true)
	if err != nil {
		return nil, err
	}
	classes, err := dataset.ResolveClasses(c.ValidationDir, c.Classes, sidecar.Classes)
	if err != nil {
		return nil, err
	}
	meta := modelMetadata(c, sidecar, classes)

	log.Info("loading model", zap.String("model", c.Model), zap.Strings("classes", meta.Classes))
	clf, err := newClassifier(c.Model, meta, c.OnnxRuntimeLibrary)
	if err != nil {
		return nil, err
	}
	defer clf.Close()
	info := clf.Info()
	if info.ImageSize <= 0 {
		return nil, fmt.Errorf("%w: model reports image size %d", engine.ErrShapeMismatch, info.ImageSize)
	}

	decoder, err := newDecoder(c)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.Open(c.ValidationDir, classes, decoder.Extensions())
	if err != nil {
		return nil, err
	}
	log.Info("validation set",
		zap.String("dir", c.ValidationDir),
		zap.Int("images", len(ds.Samples)),
		zap.Ints("per_class", ds.Counts()),
		zap.Int("image_size", info.ImageSize),
		zap.String("layout", string(info.Layout)))

	loader := dataset.NewLoader(ds, decoder, dataset.LoaderOptions{
		Size:    info.ImageSize,
		Layout:  info.Layout,
		Rescale: float32(c.Rescale),
	})
	metrics := monitor.New(filepath.Base(c.Model))
	res, err := eval.Run(ctx, clf, loader, classes.Labels(), eval.Options{
		Softmax:       info.Softmax,
		Tolerance:     c.Tolerance,
		ProgressEvery: c.ProgressEvery,
		Observer:      metrics,
	})
	if err != nil {
		return nil, err
	}
	for _, curve := range res.Curves {
		if curve.Defined() {
			log.Info("class auc", zap.String("class", curve.Label), zap.Float64("auc", curve.AUC),
				zap.Int("positives", curve.Positives))
		}
	}

	if err := ensureDir(c.Output); err != nil {
		return nil, err
	}
	if err := report.Render(res.Curves, c.FigureOptions(), c.Output); err != nil {
		return nil, err
	}
	log.Info("figure written", zap.String("path", c.Output))

	if c.Summary != "" {
		s := report.NewSummary(runID, c.Model, c.ValidationDir, c.Output, res.Predictions.Rows(), res.Curves, res.MacroAUC)
		if err := ensureDir(c.Summary); err != nil {
			return nil, err
		}
		if err := report.WriteSummary(c.Summary, s); err != nil {
			return nil, err
		}
		log.Info("summary written", zap.String("path", c.Summary))
	}
	if c.MetricsFile != "" {
		metrics.Record(res.Predictions.Rows(), res.Curves, res.MacroAUC)
		if err := ensureDir(c.MetricsFile); err != nil {
			return nil, err
		}
		if err := metrics.WriteTextfile(c.MetricsFile); err != nil {
			return nil, fmt.Errorf("write metrics: %w", err)
		}
	}

	report.PrintTable(out, res.Curves, res.MacroAUC)
	if c.Show {
		if err := report.Open(c.Output); err != nil {
			log.Warn("could not open figure", zap.Error(err))
		}
	}
	return res, nil
}
