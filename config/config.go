package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"OnnxRocEval/dataset"
	"OnnxRocEval/engine"
	"OnnxRocEval/report"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

type Figure struct {
	Title           string   `yaml:"title"`
	XLabel          string   `yaml:"xLabel"`
	YLabel          string   `yaml:"yLabel"`
	Width           float64  `yaml:"width"`
	Height          float64  `yaml:"height"`
	DPI             int      `yaml:"dpi"`
	Palette         []string `yaml:"palette"`
	LineWidth       float64  `yaml:"lineWidth"`
	LegendLineWidth float64  `yaml:"legendLineWidth"`
	Grid            *bool    `yaml:"grid"`
}

type Config struct {
	BaseDir            string   `yaml:"baseDir"`
	Model              string   `yaml:"model"`
	Metadata           string   `yaml:"metadata"`
	OnnxRuntimeLibrary string   `yaml:"onnxruntimeLibrary"`
	ValidationDir      string   `yaml:"validationDir"`
	Output             string   `yaml:"output"`
	Summary            string   `yaml:"summary"`
	MetricsFile        string   `yaml:"metricsFile"`
	Classes            []string `yaml:"classes"`
	ImageSize          int      `yaml:"imageSize"`
	Layout             string   `yaml:"layout"`
	Interpolation      string   `yaml:"interpolation"`
	Decoder            string   `yaml:"decoder"`
	Rescale            float64  `yaml:"rescale"`
	Softmax            *bool    `yaml:"softmax"`
	Tolerance          float64  `yaml:"tolerance"`
	ProgressEvery      int      `yaml:"progressEvery"`
	Show               bool     `yaml:"show"`
	LogLevel           string   `yaml:"logLevel"`
	Figure             Figure   `yaml:"figure"`
}

const (
	DecoderNative = "native"
	DecoderOpenCV = "opencv"
)

// Default mirrors the layout of a Keras export directory.
func Default() Config {
	return Config{
		Model:         filepath.Join("ML_Model", "classifier.onnx"),
		Metadata:      filepath.Join("ML_Model", "classifier.json"),
		ValidationDir: "val",
		Output:        "roc_curve.png",
		Interpolation: string(dataset.Nearest),
		Decoder:       DecoderNative,
		Rescale:       1.0 / 255,
		Tolerance:     1e-3,
		ProgressEvery: 50,
		LogLevel:      "info",
	}
}

// Load reads path over Default and resolves relative paths against
// baseDir, or the config file's directory when baseDir is unset.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Dir(path)
	}
	cfg.resolvePaths()
	return cfg, cfg.Validate()
}

// LoadOrDefault falls back to Default when path does not exist.
func LoadOrDefault(path string) (Config, bool, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.resolvePaths()
		return cfg, false, cfg.Validate()
	}
	return cfg, err == nil, err
}

// Parse decodes YAML over Default. Unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolvePaths() {
	if c.BaseDir == "" {
		return
	}
	for _, p := range []*string{&c.Model, &c.Metadata, &c.OnnxRuntimeLibrary, &c.ValidationDir, &c.Output, &c.Summary, &c.MetricsFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(c.BaseDir, *p)
		}
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if c.ValidationDir == "" {
		errs = append(errs, errors.New("validationDir is required"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output is required"))
	} else if ext := strings.ToLower(filepath.Ext(c.Output)); ext != ".png" {
		errs = append(errs, fmt.Errorf("output must be a .png file, got %q", c.Output))
	}
	if c.ImageSize < 0 {
		errs = append(errs, fmt.Errorf("imageSize must not be negative, got %d", c.ImageSize))
	}
	if c.Layout != "" {
		if _, err := engine.ParseLayout(c.Layout); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := dataset.ParseInterpolation(c.Interpolation); err != nil {
		errs = append(errs, err)
	}
	switch c.Decoder {
	case DecoderNative, DecoderOpenCV:
	default:
		errs = append(errs, fmt.Errorf("decoder must be %q or %q, got %q", DecoderNative, DecoderOpenCV, c.Decoder))
	}
	if c.Rescale <= 0 {
		errs = append(errs, fmt.Errorf("rescale must be positive, got %v", c.Rescale))
	}
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		errs = append(errs, fmt.Errorf("tolerance must be in (0,1), got %v", c.Tolerance))
	}
	if c.Figure.Width < 0 || c.Figure.Height < 0 || c.Figure.DPI < 0 {
		errs = append(errs, errors.New("figure width, height and dpi must not be negative"))
	}
	for _, hex := range c.Figure.Palette {
		if _, err := report.ParseHexColor(hex); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FigureOptions overlays the configured figure fields on the defaults.
func (c Config) FigureOptions() report.FigureOptions {
	o := report.DefaultFigure()
	f := c.Figure
	if f.Title != "" {
		o.Title = f.Title
	}
	if f.XLabel != "" {
		o.XLabel = f.XLabel
	}
	if f.YLabel != "" {
		o.YLabel = f.YLabel
	}
	if f.Width > 0 {
		o.WidthInches = f.Width
	}
	if f.Height > 0 {
		o.HeightInches = f.Height
	}
	if f.DPI > 0 {
		o.DPI = f.DPI
	}
	if f.LineWidth > 0 {
		o.LineWidth = f.LineWidth
	}
	if f.LegendLineWidth > 0 {
		o.LegendLineWidth = f.LegendLineWidth
	}
	if f.Grid != nil {
		o.Grid = *f.Grid
	}
	if len(f.Palette) > 0 {
		o.Palette = o.Palette[:0:0]
		for _, hex := range f.Palette {
			col, _ := report.ParseHexColor(hex)
			o.Palette = append(o.Palette, col)
		}
	}
	return o
}
