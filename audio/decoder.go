package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/encorelab/encore/logging"
)

// ErrDecode is the stable error kind for any source that cannot be decoded:
// unknown format, zero-length buffer, or malformed header
var ErrDecode = errors.New("audio decode failed")

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	FFmpegPath  string        `json:"ffmpeg_path"`  // Path to ffmpeg binary
	FFprobePath string        `json:"ffprobe_path"` // Path to ffprobe binary
	Timeout     time.Duration `json:"timeout"`      // Timeout for subprocess decodes
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Timeout:     30 * time.Second,
	}
}

// Decoder converts PCM sources into normalized mono sample buffers.
//
// WAV sources decode natively in-process. Compressed formats (MP3, OGG,
// M4A, AAC) decode through an ffmpeg subprocess at their native sample
// rate; no resampling is performed in either path.
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "audio_decoder",
		}),
	}
}

// Decode decodes any accepted source into a mono Buffer
func (d *Decoder) Decode(ctx context.Context, source Source) (*Buffer, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}

	if source.IsPath() {
		return d.DecodeFile(ctx, source.Path)
	}
	return d.DecodeBytes(ctx, source.Data, source.ContentType)
}

// DecodeFile decodes an audio file from disk
func (d *Decoder) DecodeFile(ctx context.Context, path string) (*Buffer, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"path":     path,
	})
	logger.Debug("Starting audio file decode")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrDecode, path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrDecode, path)
	}

	if (Source{Data: data}).isWAV() || (Source{Path: path}).isWAV() {
		buf, err := decodeWAV(data)
		if err != nil {
			return nil, err
		}
		logger.Debug("Decoded WAV natively", logging.Fields{
			"sample_rate": buf.SampleRate,
			"channels":    buf.Channels,
			"samples":     len(buf.Samples),
		})
		return buf, nil
	}

	return d.decodeWithFFmpeg(ctx, data, logger)
}

// DecodeBytes decodes audio from an in-memory byte buffer. WAV bytes never
// touch the filesystem or a subprocess.
func (d *Decoder) DecodeBytes(ctx context.Context, data []byte, contentType string) (*Buffer, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function":     "DecodeBytes",
		"data_size":    len(data),
		"content_type": contentType,
	})
	logger.Debug("Starting audio bytes decode")

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty audio data", ErrDecode)
	}

	if (Source{Data: data, ContentType: contentType}).isWAV() {
		return decodeWAV(data)
	}

	return d.decodeWithFFmpeg(ctx, data, logger)
}

// probedFormat holds the stream properties detected by ffprobe
type probedFormat struct {
	SampleRate int
	Channels   int
	Codec      string
}

// probe runs ffprobe over the raw bytes to learn the stream layout
func (d *Decoder) probe(ctx context.Context, data []byte) (*probedFormat, error) {
	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.config.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		"-i", "pipe:0",
	)
	cmd.Stdin = bytes.NewReader(data)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe: %v", ErrDecode, err)
	}

	var probeResult struct {
		Streams []struct {
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(output, &probeResult); err != nil {
		return nil, fmt.Errorf("%w: parsing ffprobe output: %v", ErrDecode, err)
	}
	if len(probeResult.Streams) == 0 {
		return nil, fmt.Errorf("%w: no audio stream found", ErrDecode)
	}

	stream := probeResult.Streams[0]
	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate < minSampleRate || sampleRate > maxSampleRate {
		return nil, fmt.Errorf("%w: invalid sample rate %q", ErrDecode, stream.SampleRate)
	}
	if stream.Channels <= 0 {
		return nil, fmt.Errorf("%w: invalid channel count %d", ErrDecode, stream.Channels)
	}

	return &probedFormat{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
	}, nil
}

// decodeWithFFmpeg pipes the bytes through ffmpeg, requesting raw f64le
// at the stream's native rate and channel count, then downmixes to mono
func (d *Decoder) decodeWithFFmpeg(ctx context.Context, data []byte, logger logging.Logger) (*Buffer, error) {
	format, err := d.probe(ctx, data)
	if err != nil {
		return nil, err
	}

	logger.Debug("Audio format detected", logging.Fields{
		"codec":       format.Codec,
		"sample_rate": format.SampleRate,
		"channels":    format.Channels,
	})

	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath,
		"-i", "pipe:0",
		"-f", "f64le",
		"-acodec", "pcm_f64le",
		"-ar", strconv.Itoa(format.SampleRate),
		"-ac", strconv.Itoa(format.Channels),
		"-v", "quiet",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(data)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg decode: %v", ErrDecode, err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no samples", ErrDecode)
	}

	interleaved := bytesToFloat64(output)

	return &Buffer{
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		Samples:    downmixMono(interleaved, format.Channels),
	}, nil
}

// bytesToFloat64 reinterprets little-endian f64 bytes as samples
func bytesToFloat64(data []byte) []float64 {
	count := len(data) / 8
	samples := make([]float64, count)
	for i := range count {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}
