package observability

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

type StageStats struct {
	Stage       string  `json:"stage"`
	Samples     int     `json:"samples"`
	LastMS      float64 `json:"last_ms"`
	AvgMS       float64 `json:"avg_ms"`
	P50MS       float64 `json:"p50_ms"`
	P95MS       float64 `json:"p95_ms"`
	TargetP95MS float64 `json:"target_p95_ms,omitempty"`
}

type Indicator struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type LatencySnapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	WindowSize  int          `json:"window_size"`
	Stages      []StageStats `json:"stages"`
	Indicators  []Indicator  `json:"indicators,omitempty"`
}

// stageWindow keeps the last maxSamples latencies per stage in a ring.
type stageWindow struct {
	mu         sync.RWMutex
	maxSamples int
	rings      map[string]*stageRing
	indicators map[string]int
}

type stageRing struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func newStageWindow(maxSamples int) *stageWindow {
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &stageWindow{
		maxSamples: maxSamples,
		rings:      make(map[string]*stageRing),
		indicators: make(map[string]int),
	}
}

func (w *stageWindow) Observe(stage string, ms float64) {
	stage = strings.TrimSpace(stage)
	if stage == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	ring, ok := w.rings[stage]
	if !ok {
		ring = &stageRing{values: make([]float64, w.maxSamples)}
		w.rings[stage] = ring
	}
	ring.values[ring.next] = ms
	ring.last = ms
	ring.next++
	if ring.next == len(ring.values) {
		ring.next = 0
		ring.filled = true
	}
}

func (w *stageWindow) ObserveIndicator(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indicators[name]++
}

func (w *stageWindow) Snapshot() LatencySnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.rings))
	for name := range w.rings {
		names = append(names, name)
	}
	sort.Strings(names)

	stages := make([]StageStats, 0, len(names))
	for _, name := range names {
		ring := w.rings[name]
		n := ring.next
		if ring.filled {
			n = len(ring.values)
		}
		if n == 0 {
			continue
		}
		samples := make([]float64, n)
		copy(samples, ring.values[:n])
		sort.Float64s(samples)

		sum := 0.0
		for _, v := range samples {
			sum += v
		}
		stages = append(stages, StageStats{
			Stage:       name,
			Samples:     n,
			LastMS:      round2(ring.last),
			AvgMS:       round2(sum / float64(n)),
			P50MS:       round2(quantile(samples, 0.50)),
			P95MS:       round2(quantile(samples, 0.95)),
			TargetP95MS: stageTargetP95MS(name),
		})
	}

	indicatorNames := make([]string, 0, len(w.indicators))
	for name := range w.indicators {
		indicatorNames = append(indicatorNames, name)
	}
	sort.Strings(indicatorNames)
	indicators := make([]Indicator, 0, len(indicatorNames))
	for _, name := range indicatorNames {
		indicators = append(indicators, Indicator{Name: name, Count: w.indicators[name]})
	}

	return LatencySnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.maxSamples,
		Stages:      stages,
		Indicators:  indicators,
	}
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func stageTargetP95MS(stage string) float64 {
	switch stage {
	case "stt":
		return 1500
	case "llm":
		return 2500
	case "tts":
		return 2000
	case "talk_total", "structured_total":
		return 6000
	case "speak_total":
		return 4500
	case "realtime_negotiate":
		return 1200
	default:
		return 0
	}
}
