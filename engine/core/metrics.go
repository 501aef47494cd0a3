package core

const frameSampleCount = 30

// Metrics keeps a rolling frame-time average and a once-a-second FPS
// reading. One instance belongs to one run loop; no locking.
type Metrics struct {
	sampleIndex   int
	samples       [frameSampleCount]float64
	avgMS         float64
	frames        int
	accumulatedMS float64
	fps           float64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordFrame folds one frame's elapsed seconds into the counters.
func (m *Metrics) RecordFrame(elapsedSeconds float64) {
	frameMS := elapsedSeconds * 1000.0

	m.samples[m.sampleIndex] = frameMS
	m.sampleIndex = (m.sampleIndex + 1) % frameSampleCount
	if m.sampleIndex == 0 {
		sum := 0.0
		for _, sample := range m.samples {
			sum += sample
		}
		m.avgMS = sum / frameSampleCount
	}

	m.accumulatedMS += frameMS
	m.frames++
	if m.accumulatedMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedMS -= 1000
		m.frames = 0
	}
}

// FPS returns the frame count of the last completed one-second window.
func (m *Metrics) FPS() float64 {
	return m.fps
}

// FrameTimeMS returns the rolling average frame time in milliseconds.
func (m *Metrics) FrameTimeMS() float64 {
	return m.avgMS
}
