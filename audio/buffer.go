package audio

// Buffer is decoded audio ready for analysis: mono samples normalized to
// [-1, 1] plus the source sample rate. Analyzers borrow the sample slice
// read-only; the orchestrator owns the buffer for one performance.
type Buffer struct {
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels"` // channel count before the mono downmix
	Samples    []float64 `json:"-"`
}

// DurationMs returns the buffer duration in milliseconds
func (b *Buffer) DurationMs() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) * 1000.0 / float64(b.SampleRate)
}

// Slice returns the samples between startMs and endMs, clipped to the
// buffer bounds. The returned slice aliases the buffer.
func (b *Buffer) Slice(startMs, endMs float64) []float64 {
	if b == nil || b.SampleRate <= 0 || startMs >= endMs {
		return nil
	}

	start := int(startMs * float64(b.SampleRate) / 1000.0)
	end := int(endMs * float64(b.SampleRate) / 1000.0)

	if start < 0 {
		start = 0
	}
	if end > len(b.Samples) {
		end = len(b.Samples)
	}
	if start >= end {
		return nil
	}

	return b.Samples[start:end]
}

// downmixMono collapses interleaved multi-channel samples to mono by
// arithmetic mean
func downmixMono(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
