package engine

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/encorelab/encore/analysis"
)

// melodyNotes is a small fixed reference melody
func melodyNotes() []analysis.NoteEvent {
	return []analysis.NoteEvent{
		{OnsetMs: 0, PitchHz: 440, DurationMs: 400, Amplitude: 0.8},
		{OnsetMs: 500, PitchHz: 494, DurationMs: 400, Amplitude: 0.7},
		{OnsetMs: 1000, PitchHz: 523, DurationMs: 400, Amplitude: 0.9},
	}
}

// clapsWAV builds a WAV with four evenly spaced tone bursts
func clapsWAV() []byte {
	sampleRate := 44100
	total := int(2200.0 * float64(sampleRate) / 1000.0)
	pcm := make([]int16, total)

	for _, startMs := range []float64{200, 700, 1200, 1700} {
		start := int(startMs * float64(sampleRate) / 1000.0)
		length := int(60.0 * float64(sampleRate) / 1000.0)
		for i := range length {
			idx := start + i
			if idx >= total {
				break
			}
			pcm[idx] = int16(0.8 * 32767.0 * math.Sin(2.0*math.Pi*440.0*float64(i)/float64(sampleRate)))
		}
	}

	return wrapPCM(sampleRate, pcm)
}

// toneWAV builds a 16-bit mono WAV of silence with a sine tone between
// startMs and endMs
func toneWAV(sampleRate int, durationMs, startMs, endMs, freq float64) []byte {
	total := int(durationMs * float64(sampleRate) / 1000.0)
	start := int(startMs * float64(sampleRate) / 1000.0)
	end := int(endMs * float64(sampleRate) / 1000.0)
	if end > total {
		end = total
	}

	pcm := make([]int16, total)
	for i := start; i < end; i++ {
		pcm[i] = int16(0.8 * 32767.0 * math.Sin(2.0*math.Pi*freq*float64(i-start)/float64(sampleRate)))
	}

	return wrapPCM(sampleRate, pcm)
}

// wrapPCM wraps 16-bit mono samples in a RIFF/WAVE container
func wrapPCM(sampleRate int, pcm []int16) []byte {
	var data bytes.Buffer
	for _, s := range pcm {
		binary.Write(&data, binary.LittleEndian, s)
	}
	body := data.Bytes()

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(body)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(body)))
	buf.Write(body)

	return buf.Bytes()
}
