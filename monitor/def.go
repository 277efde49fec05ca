package monitor

import (
	"math"
	"os"
	"time"

	"OnnxRocEval/logger"
	"OnnxRocEval/roc"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// Metrics collects one evaluation run for the node-exporter textfile
// collector.
type Metrics struct {
	registry  *prometheus.Registry
	images    prometheus.Gauge
	classAUC  *prometheus.GaugeVec
	macroAUC  prometheus.Gauge
	inference prometheus.Histogram
	memUsage  prometheus.Gauge
	cpuUsage  prometheus.Gauge
	lastRun   prometheus.Gauge
	proc      *process.Process
}

func New(model string) *Metrics {
	labels := prometheus.Labels{"model": model}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		images: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "roc_eval_images_total",
			Help:        "Validation images evaluated",
			ConstLabels: labels,
		}),
		classAUC: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "roc_eval_class_auc",
			Help:        "One-vs-rest ROC AUC per class",
			ConstLabels: labels,
		}, []string{"class"}),
		macroAUC: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "roc_eval_macro_auc",
			Help:        "Mean AUC over classes with a defined curve",
			ConstLabels: labels,
		}),
		inference: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "roc_eval_inference_seconds",
			Help:        "Single image inference latency",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		memUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roc_eval_process_memory_megabytes",
			Help: "Resident memory of the evaluator in Megabytes",
		}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roc_eval_process_cpu_percent",
			Help: "CPU usage of the evaluator in percent",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "roc_eval_last_run_timestamp_seconds",
			Help:        "Unix time the evaluation finished",
			ConstLabels: labels,
		}),
	}
	m.registry.MustRegister(m.images, m.classAUC, m.macroAUC, m.inference, m.memUsage, m.cpuUsage, m.lastRun)
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		m.proc = p
	} else {
		logger.Log().Warn("process metrics unavailable", zap.Error(err))
	}
	return m
}

func (m *Metrics) ObserveInference(d time.Duration) {
	m.inference.Observe(d.Seconds())
}

// Record stores the outcome of a run. Undefined curves are not exported.
func (m *Metrics) Record(images int, curves []roc.Curve, macro float64) {
	m.images.Set(float64(images))
	for _, c := range curves {
		if c.Defined() {
			m.classAUC.WithLabelValues(c.Label).Set(c.AUC)
		}
	}
	if !math.IsNaN(macro) {
		m.macroAUC.Set(macro)
	}
	m.lastRun.SetToCurrentTime()
	m.CheckProcessInfo()
}

// CheckProcessInfo samples RSS and CPU of the current process.
func (m *Metrics) CheckProcessInfo() {
	if m.proc == nil {
		return
	}
	if mem, err := m.proc.MemoryInfo(); err == nil {
		m.memUsage.Set(float64(mem.RSS / 1024 / 1024))
	}
	if cpu, err := m.proc.CPUPercent(); err == nil {
		m.cpuUsage.Set(math.Round(cpu*100) / 100)
	}
}

// WriteTextfile writes the registry atomically in the text exposition
// format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
