package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ImageStorageService stores uploaded entry images on disk. Cards carry an
// image-based visual treatment; uploads land here and are served statically.
type ImageStorageService struct {
	storageDir string
}

func NewImageStorageService(storageDir string) *ImageStorageService {
	if storageDir == "" {
		storageDir = "./data/entry_images"
	}

	if err := os.MkdirAll(storageDir, 0755); err != nil {
		// Will fail on actual writes; no reason to refuse startup.
		fmt.Printf("Warning: could not create entry images directory: %v\n", err)
	}

	return &ImageStorageService{
		storageDir: storageDir,
	}
}

// SaveImage writes image data to disk and returns the generated filename.
func (s *ImageStorageService) SaveImage(imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("empty image data")
	}

	filename := uuid.New().String() + ".jpg"
	filePath := filepath.Join(s.storageDir, filename)

	if err := os.WriteFile(filePath, imageData, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return filename, nil
}

// GetStorageDir returns the storage directory path.
func (s *ImageStorageService) GetStorageDir() string {
	return s.storageDir
}
