package printing

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArtifactStore writes rendered PDFs to scratch files and removes them
// after publication. Files are named with a fresh UUID so concurrent
// generations never collide.
type ArtifactStore struct {
	dir    string
	logger *zap.Logger
}

// NewArtifactStore creates an artifact store rooted at dir. An empty dir
// falls back to the system temp directory.
func NewArtifactStore(dir string, logger *zap.Logger) (*ArtifactStore, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed,
			"failed to create scratch directory: "+dir, err)
	}

	return &ArtifactStore{dir: dir, logger: logger}, nil
}

// Write saves PDF data to a new scratch file and returns its path
func (s *ArtifactStore) Write(pdfData []byte) (string, error) {
	if len(pdfData) == 0 {
		return "", NewRenderError(ErrCodeStorageFailed, "PDF data is empty", nil)
	}

	path := filepath.Join(s.dir, "facture_"+uuid.NewString()+".pdf")
	if err := os.WriteFile(path, pdfData, 0644); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to write PDF file", err)
	}

	s.logger.Debug("PDF artifact written",
		zap.String("path", path),
		zap.Int("size", len(pdfData)))

	return path, nil
}

// Remove deletes a scratch file. A missing file is not an error.
func (s *ArtifactStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		s.logger.Warn("could not clean up artifact",
			zap.String("path", path),
			zap.Error(err))
		return NewRenderError(ErrCodeStorageFailed, "failed to delete PDF file", err)
	}
	s.logger.Debug("PDF artifact removed", zap.String("path", path))
	return nil
}
