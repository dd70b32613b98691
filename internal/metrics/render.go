// Package metrics provides Prometheus metrics for render progress and outcomes.
package metrics

import (
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dividr/rendernode/internal/progress"
)

var (
	renderFPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rendernode",
		Subsystem: "render",
		Name:      "fps",
		Help:      "Current ffmpeg encoding FPS",
	}, []string{"job_id"})

	renderFrame = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rendernode",
		Subsystem: "render",
		Name:      "frame",
		Help:      "Last encoded frame number",
	}, []string{"job_id"})

	renderSpeed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rendernode",
		Subsystem: "render",
		Name:      "processing_speed",
		Help:      "ffmpeg processing speed multiplier",
	}, []string{"job_id"})

	renderBitrate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rendernode",
		Subsystem: "render",
		Name:      "bitrate_kbps",
		Help:      "Current output bitrate in kbit/s",
	}, []string{"job_id"})

	rendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rendernode",
		Subsystem: "render",
		Name:      "renders_total",
		Help:      "Completed renders by outcome",
	}, []string{"outcome"})

	// Local cache for SSE exporter access.
	renderCache   = make(map[string]*RenderMetrics)
	renderCacheMu sync.RWMutex
)

// RenderMetrics holds current metric values for a render job.
type RenderMetrics struct {
	FPS     float64
	Frame   float64
	Speed   float64
	Bitrate float64
}

// ObserveProgress updates the gauges for a job from one progress record.
// Fields absent from the record leave the previous value in place.
func ObserveProgress(jobID string, rec progress.Record) {
	if rec.Frame != nil {
		v := float64(*rec.Frame)
		renderFrame.WithLabelValues(jobID).Set(v)
		updateCache(jobID, func(m *RenderMetrics) { m.Frame = v })
	}
	if rec.FPS != nil {
		renderFPS.WithLabelValues(jobID).Set(*rec.FPS)
		updateCache(jobID, func(m *RenderMetrics) { m.FPS = *rec.FPS })
	}
	if speed, ok := parseSpeed(rec.Speed); ok {
		renderSpeed.WithLabelValues(jobID).Set(speed)
		updateCache(jobID, func(m *RenderMetrics) { m.Speed = speed })
	}
	if bitrate, ok := parseBitrate(rec.Bitrate); ok {
		renderBitrate.WithLabelValues(jobID).Set(bitrate)
		updateCache(jobID, func(m *RenderMetrics) { m.Bitrate = bitrate })
	}
}

// CountRender increments the outcome counter ("success", "cancelled", "failure").
func CountRender(outcome string) {
	rendersTotal.WithLabelValues(outcome).Inc()
}

// DeleteRenderMetrics removes all gauges for a job.
func DeleteRenderMetrics(jobID string) {
	renderFPS.DeleteLabelValues(jobID)
	renderFrame.DeleteLabelValues(jobID)
	renderSpeed.DeleteLabelValues(jobID)
	renderBitrate.DeleteLabelValues(jobID)

	renderCacheMu.Lock()
	delete(renderCache, jobID)
	renderCacheMu.Unlock()
}

// GetRenderMetrics returns current metric values for a job.
func GetRenderMetrics(jobID string) *RenderMetrics {
	renderCacheMu.RLock()
	defer renderCacheMu.RUnlock()
	if m, ok := renderCache[jobID]; ok {
		dup := *m
		return &dup
	}
	return nil
}

// parseSpeed converts ffmpeg's "1.25x" speed field to a float.
func parseSpeed(s string) (float64, bool) {
	s = strings.TrimSuffix(s, "x")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseBitrate converts ffmpeg's "1000kbits/s" bitrate field to kbit/s.
func parseBitrate(s string) (float64, bool) {
	s = strings.TrimSuffix(s, "kbits/s")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func updateCache(jobID string, update func(*RenderMetrics)) {
	renderCacheMu.Lock()
	defer renderCacheMu.Unlock()
	m, ok := renderCache[jobID]
	if !ok {
		m = &RenderMetrics{}
		renderCache[jobID] = m
	}
	update(m)
}
