package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"OnnxRocEval/roc"
)

type ClassSummary struct {
	Label     string   `json:"label"`
	Images    int      `json:"images"`
	Negatives int      `json:"negatives"`
	AUC       *float64 `json:"auc"`
	Error     string   `json:"error,omitempty"`
}

// Summary is the machine readable companion of the figure.
type Summary struct {
	RunID         string         `json:"run_id"`
	CreatedAt     time.Time      `json:"created_at"`
	Model         string         `json:"model"`
	ValidationDir string         `json:"validation_dir"`
	Figure        string         `json:"figure"`
	Images        int            `json:"images"`
	Classes       []ClassSummary `json:"classes"`
	MacroAUC      *float64       `json:"macro_auc"`
}

func NewSummary(runID, model, valDir, figure string, images int, curves []roc.Curve, macro float64) Summary {
	s := Summary{
		RunID:         runID,
		CreatedAt:     time.Now().UTC(),
		Model:         model,
		ValidationDir: valDir,
		Figure:        figure,
		Images:        images,
		Classes:       make([]ClassSummary, len(curves)),
		MacroAUC:      finite(macro),
	}
	for i, c := range curves {
		cs := ClassSummary{Label: c.Label, Images: c.Positives, Negatives: c.Negatives}
		if c.Defined() {
			cs.AUC = finite(c.AUC)
		} else {
			cs.Error = c.Err.Error()
		}
		s.Classes[i] = cs
	}
	return s
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// WriteSummary writes s as indented JSON through a temp file and rename.
func WriteSummary(path string, s Summary) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".summary-*.json")
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
