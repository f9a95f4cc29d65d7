package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaType selects the bucket a blob belongs in
type MediaType string

const (
	MediaSong      MediaType = "SONG"
	MediaRecording MediaType = "RECORDING"
	MediaRhythm    MediaType = "RHYTHM"
)

// BucketFor maps a media type to its bucket name. A pure function so
// every collaborator derives the same layout.
func BucketFor(media MediaType) string {
	switch media {
	case MediaSong:
		return "songs"
	case MediaRhythm:
		return "rhythms"
	default:
		return "recordings"
	}
}

// RecordingKey builds the object key for a user performance recording:
// {hashPrefix}/user/{userId}/song/{songId}/perf/{performanceId}/{uuid}.{ext}
// The hash prefix spreads keys across prefixes for object-store sharding.
func RecordingKey(userID int64, songID, performanceID, extension string) string {
	return fmt.Sprintf("%s/user/%d/song/%s/perf/%s/%s.%s",
		hashPrefix(fmt.Sprintf("%d", userID)),
		userID, songID, performanceID,
		uuid.NewString(), normalizeExtension(extension))
}

// ReferenceTrackKey builds the object key for a song's reference track:
// {hashPrefix}/system/songs/{songId}/reference/{uuid}.{ext}
func ReferenceTrackKey(songID, extension string) string {
	return fmt.Sprintf("%s/system/songs/%s/reference/%s.%s",
		hashPrefix(songID), songID,
		uuid.NewString(), normalizeExtension(extension))
}

func hashPrefix(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return fmt.Sprintf("%02x", h.Sum32()%256)
}

func normalizeExtension(extension string) string {
	if extension == "" {
		return "wav"
	}
	return strings.ToLower(strings.TrimPrefix(extension, "."))
}

// BlobStore is the storage capability the orchestrator's collaborators
// inject: read, write, delete, existence, and temporary URLs. The core
// ships a filesystem implementation; object-store implementations live
// with the embedding service.
type BlobStore interface {
	Read(ctx context.Context, bucket, key string) ([]byte, error)
	Write(ctx context.Context, bucket, key string, data []byte) error
	Delete(ctx context.Context, bucket, key string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	PresignURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// FSStore is a BlobStore over a local directory tree, used in tests.
// Buckets are top-level directories.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at dir
func NewFSStore(dir string) *FSStore {
	return &FSStore{root: dir}
}

func (s *FSStore) path(bucket, key string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(key))
}

func (s *FSStore) Read(ctx context.Context, bucket, key string) ([]byte, error) {
	return os.ReadFile(s.path(bucket, key))
}

func (s *FSStore) Write(ctx context.Context, bucket, key string, data []byte) error {
	path := s.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *FSStore) Delete(ctx context.Context, bucket, key string) error {
	return os.Remove(s.path(bucket, key))
}

func (s *FSStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := os.Stat(s.path(bucket, key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// PresignURL returns a file URL; local files need no signing, so expiry
// is ignored
func (s *FSStore) PresignURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	abs, err := filepath.Abs(s.path(bucket, key))
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}
