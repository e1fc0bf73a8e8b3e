package audio

import "sync"

// AnalyserWindow is the number of samples shown by the live view.
const AnalyserWindow = 2048

// Analyser keeps the most recent samples of the live signal.
type Analyser struct {
	mu   sync.Mutex
	ring []float64
	pos  int
}

func NewAnalyser(size int) *Analyser {
	return &Analyser{ring: make([]float64, max(1, size))}
}

func (a *Analyser) Write(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(samples) >= len(a.ring) {
		copy(a.ring, samples[len(samples)-len(a.ring):])
		a.pos = 0
		return
	}
	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos = (a.pos + 1) % len(a.ring)
	}
}

// Window returns the buffered samples, oldest first. Unfilled slots read as silence.
func (a *Analyser) Window() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]float64, 0, len(a.ring))
	out = append(out, a.ring[a.pos:]...)
	return append(out, a.ring[:a.pos]...)
}
