package analysis

import (
	"github.com/encorelab/encore/audio"
)

// Frame is one analysis window. Samples aliases the source buffer, so a
// frame is only valid while the buffer is alive.
type Frame struct {
	Index   uint64    `json:"index"`
	StartMs float64   `json:"start_ms"`
	Samples []float64 `json:"-"`
}

// Frames slides fixed-size windows over a buffer with a configurable hop.
// It is a lazy, finite, non-restartable sequence; the final partial frame
// is dropped.
type Frames struct {
	buf        *audio.Buffer
	bufferSize int
	hopSize    int
	next       int // next start sample
	index      uint64
}

// NewFrames creates a frame sequence over buf. hopSize defaults to
// bufferSize (no overlap) when zero or negative.
func NewFrames(buf *audio.Buffer, bufferSize, hopSize int) *Frames {
	if hopSize <= 0 {
		hopSize = bufferSize
	}
	return &Frames{
		buf:        buf,
		bufferSize: bufferSize,
		hopSize:    hopSize,
	}
}

// Next returns the next full frame, or false when the sequence is done
func (f *Frames) Next() (Frame, bool) {
	if f.buf == nil || f.bufferSize <= 0 {
		return Frame{}, false
	}
	if f.next+f.bufferSize > len(f.buf.Samples) {
		return Frame{}, false
	}

	frame := Frame{
		Index:   f.index,
		StartMs: float64(f.next) * 1000.0 / float64(f.buf.SampleRate),
		Samples: f.buf.Samples[f.next : f.next+f.bufferSize],
	}

	f.next += f.hopSize
	f.index++
	return frame, true
}

// Count returns the number of full frames the sequence will produce
func (f *Frames) Count() int {
	if f.buf == nil || f.bufferSize <= 0 || len(f.buf.Samples) < f.bufferSize {
		return 0
	}
	return (len(f.buf.Samples)-f.bufferSize)/f.hopSize + 1
}
