package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Native RIFF/WAVE parsing. WAV is the dominant interchange format for
// recordings in this pipeline, so it decodes without spawning a subprocess.

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3

	minSampleRate = 8000
	maxSampleRate = 192000
)

type wavFormat struct {
	audioFormat   uint16
	channels      int
	sampleRate    int
	bitsPerSample int
}

// decodeWAV parses a complete RIFF/WAVE byte buffer into a mono Buffer
func decodeWAV(data []byte) (*Buffer, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: truncated WAV header", ErrDecode)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE file", ErrDecode)
	}

	var format *wavFormat
	var pcm []byte

	// Walk chunks; only fmt and data matter, everything else is skipped
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		if chunkSize < 0 || body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too small", ErrDecode)
			}
			format = &wavFormat{
				audioFormat:   binary.LittleEndian.Uint16(data[body : body+2]),
				channels:      int(binary.LittleEndian.Uint16(data[body+2 : body+4])),
				sampleRate:    int(binary.LittleEndian.Uint32(data[body+4 : body+8])),
				bitsPerSample: int(binary.LittleEndian.Uint16(data[body+14 : body+16])),
			}
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// Chunks are word aligned
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if format == nil {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrDecode)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%w: missing or empty data chunk", ErrDecode)
	}
	if format.channels <= 0 {
		return nil, fmt.Errorf("%w: invalid channel count %d", ErrDecode, format.channels)
	}
	if format.sampleRate < minSampleRate || format.sampleRate > maxSampleRate {
		return nil, fmt.Errorf("%w: sample rate %d outside [%d, %d]", ErrDecode, format.sampleRate, minSampleRate, maxSampleRate)
	}

	interleaved, err := samplesFromPCM(pcm, format)
	if err != nil {
		return nil, err
	}

	return &Buffer{
		SampleRate: format.sampleRate,
		Channels:   format.channels,
		Samples:    downmixMono(interleaved, format.channels),
	}, nil
}

// samplesFromPCM converts raw PCM bytes to normalized float64 samples
func samplesFromPCM(pcm []byte, format *wavFormat) ([]float64, error) {
	switch {
	case format.audioFormat == wavFormatPCM && format.bitsPerSample == 16:
		count := len(pcm) / 2
		samples := make([]float64, count)
		for i := range count {
			v := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
			samples[i] = float64(v) / 32768.0
		}
		return samples, nil

	case format.audioFormat == wavFormatPCM && format.bitsPerSample == 8:
		// 8-bit WAV is unsigned with a 128 midpoint
		samples := make([]float64, len(pcm))
		for i, b := range pcm {
			samples[i] = (float64(b) - 128.0) / 128.0
		}
		return samples, nil

	case format.audioFormat == wavFormatPCM && format.bitsPerSample == 24:
		count := len(pcm) / 3
		samples := make([]float64, count)
		for i := range count {
			b := pcm[i*3 : i*3+3]
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			// Sign extend from 24 bits
			if v&0x800000 != 0 {
				v |= ^int32(0xFFFFFF)
			}
			samples[i] = float64(v) / 8388608.0
		}
		return samples, nil

	case format.audioFormat == wavFormatPCM && format.bitsPerSample == 32:
		count := len(pcm) / 4
		samples := make([]float64, count)
		for i := range count {
			v := int32(binary.LittleEndian.Uint32(pcm[i*4 : i*4+4]))
			samples[i] = float64(v) / 2147483648.0
		}
		return samples, nil

	case format.audioFormat == wavFormatFloat && format.bitsPerSample == 32:
		count := len(pcm) / 4
		samples := make([]float64, count)
		for i := range count {
			bits := binary.LittleEndian.Uint32(pcm[i*4 : i*4+4])
			samples[i] = float64(math.Float32frombits(bits))
		}
		return samples, nil

	default:
		return nil, fmt.Errorf("%w: unsupported WAV encoding (format %d, %d bits)",
			ErrDecode, format.audioFormat, format.bitsPerSample)
	}
}
