// Package storage keeps uploaded food photos on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PhotoDir is where photos live, relative to the media root.
const PhotoDir = "uploads/food_images"

// maxUploadBytes bounds how much of an upload is read into memory.
const maxUploadBytes = 10 << 20

var ErrUnsupportedImage = errors.New("only PNG, JPG, JPEG, WEBP images are allowed")

var allowedExtensions = map[string]bool{"png": true, "jpg": true, "jpeg": true, "webp": true}

// ImageExtension returns the lowercased extension of filename if it is an accepted image type.
func ImageExtension(filename string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return ext, allowedExtensions[ext]
}

// IsBadImage reports whether err was caused by the upload itself rather than the disk.
func IsBadImage(err error) bool {
	return errors.Is(err, ErrUnsupportedImage) || errors.Is(err, errBadImage)
}

type PhotoStore struct {
	root string
}

// NewPhotoStore serves and stores files under root (the media root).
func NewPhotoStore(root string) *PhotoStore {
	return &PhotoStore{root: root}
}

func (s *PhotoStore) Root() string { return s.root }

// Save validates and normalises the image and writes it as surplus_<uuid>.<ext>.
// The returned path is relative to the media root and uses forward slashes.
func (s *PhotoStore) Save(r io.Reader, filename string) (string, error) {
	if _, ok := ImageExtension(filename); !ok {
		return "", ErrUnsupportedImage
	}
	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return "", fmt.Errorf("%w: file is larger than %d MB", errBadImage, maxUploadBytes>>20)
	}

	img, err := processImage(data)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, filepath.FromSlash(PhotoDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create photo dir: %w", err)
	}

	name := fmt.Sprintf("surplus_%s.%s", strings.ReplaceAll(uuid.NewString(), "-", ""), img.ext)
	if err := os.WriteFile(filepath.Join(dir, name), img.data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return path.Join(PhotoDir, name), nil
}

// Remove deletes a previously saved photo. Missing files are not an error.
func (s *PhotoStore) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	clean := path.Clean("/" + relPath)
	if !strings.HasPrefix(clean, "/"+PhotoDir+"/") {
		return fmt.Errorf("refusing to remove %q", relPath)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
