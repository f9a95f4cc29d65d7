package audio

import (
	"fmt"
	"strings"
)

// MaxSourceBytes is the largest in-memory source accepted for analysis
const MaxSourceBytes = 50 << 20 // 50 MiB

// Source is a PCM source: either a filesystem path or an in-memory byte
// buffer with its content type. Exactly one of Path and Data is set.
type Source struct {
	Path        string `json:"path,omitempty"`
	Data        []byte `json:"-"`
	ContentType string `json:"content_type,omitempty"`
}

// FromPath creates a Source referring to a file on disk
func FromPath(path string) Source {
	return Source{Path: path}
}

// FromBytes creates an in-memory Source with the given content type
func FromBytes(data []byte, contentType string) Source {
	return Source{Data: data, ContentType: contentType}
}

// IsPath reports whether the source reads from the filesystem
func (s Source) IsPath() bool {
	return s.Path != ""
}

// acceptedContentTypes lists the audio content types the decoder handles
var acceptedContentTypes = map[string]bool{
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/mp3":   true,
	"audio/mpeg":  true,
	"audio/ogg":   true,
	"audio/m4a":   true,
	"audio/aac":   true,
}

// Validate checks that the source is well formed before any decoding work
func (s Source) Validate() error {
	if s.Path != "" && len(s.Data) > 0 {
		return fmt.Errorf("%w: source has both path and data", ErrDecode)
	}
	if s.Path == "" && len(s.Data) == 0 {
		return fmt.Errorf("%w: empty source", ErrDecode)
	}
	if len(s.Data) > MaxSourceBytes {
		return fmt.Errorf("%w: source exceeds %d bytes", ErrDecode, MaxSourceBytes)
	}
	if len(s.Data) > 0 {
		ct := strings.ToLower(strings.TrimSpace(s.ContentType))
		if !acceptedContentTypes[ct] {
			return fmt.Errorf("%w: unsupported content type %q", ErrDecode, s.ContentType)
		}
	}
	return nil
}

// isWAV reports whether the source claims or appears to be a RIFF/WAVE file
func (s Source) isWAV() bool {
	if s.Path != "" {
		return strings.HasSuffix(strings.ToLower(s.Path), ".wav")
	}
	ct := strings.ToLower(strings.TrimSpace(s.ContentType))
	if ct == "audio/wav" || ct == "audio/x-wav" {
		return true
	}
	return len(s.Data) >= 12 && string(s.Data[0:4]) == "RIFF" && string(s.Data[8:12]) == "WAVE"
}
