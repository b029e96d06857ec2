// Package media classifies uploaded files and manages the scratch directory
// that holds them while agents run.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
)

var extensionTypes = map[string]models.MediaType{
	".jpg":  models.MediaTypeImage,
	".jpeg": models.MediaTypeImage,
	".png":  models.MediaTypeImage,
	".gif":  models.MediaTypeImage,
	".bmp":  models.MediaTypeImage,
	".webp": models.MediaTypeImage,

	".mp4":  models.MediaTypeVideo,
	".avi":  models.MediaTypeVideo,
	".mov":  models.MediaTypeVideo,
	".mkv":  models.MediaTypeVideo,
	".wmv":  models.MediaTypeVideo,
	".flv":  models.MediaTypeVideo,
	".webm": models.MediaTypeVideo,

	".mp3":  models.MediaTypeAudio,
	".wav":  models.MediaTypeAudio,
	".flac": models.MediaTypeAudio,
	".ogg":  models.MediaTypeAudio,
	".m4a":  models.MediaTypeAudio,
	".aac":  models.MediaTypeAudio,
}

// DetectType maps a filename to a media type by extension. The second return
// value is false when the extension is not recognised.
func DetectType(filename string) (models.MediaType, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	mediaType, ok := extensionTypes[ext]
	return mediaType, ok
}

// Store writes uploads into a flat scratch directory keyed by request ID.
type Store struct {
	dir string
}

// NewStore ensures the scratch directory exists and returns a Store over it.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("media dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the on-disk location for a request's upload. The original
// extension is preserved so agents can sniff the format themselves.
func (s *Store) Path(requestID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return filepath.Join(s.dir, requestID+ext)
}

// Remove deletes a stored upload. Missing files are not an error.
func (s *Store) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
