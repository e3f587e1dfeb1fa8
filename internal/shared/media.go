package shared

import (
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// RecipeImageDir is the directory, relative to the media root, recipe images are written to.
const RecipeImageDir = "recipes/images"

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// MediaStore writes uploaded files below a root directory and builds their public URLs.
type MediaStore struct {
	root    string
	baseURL string
}

// NewMediaStore creates a [MediaStore] rooted at dir whose files are served from baseURL.
func NewMediaStore(dir, baseURL string) *MediaStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &MediaStore{root: dir, baseURL: baseURL}
}

// Root returns the directory files are stored under.
func (m *MediaStore) Root() string { return m.root }

// BaseURL returns the URL prefix media is served from.
func (m *MediaStore) BaseURL() string { return m.baseURL }

// URL returns the public URL for a stored file name, or "" for an empty name.
func (m *MediaStore) URL(name string) string {
	if name == "" {
		return ""
	}
	return m.baseURL + name
}

// SaveDataURI decodes a "data:image/<type>;base64,<payload>" string and writes it to a new file.
//
// Returns the file name relative to the media root.
func (m *MediaStore) SaveDataURI(dataURI string) (string, error) {
	data, ext, err := DecodeImageDataURI(dataURI)
	if err != nil {
		return "", err
	}

	name := path.Join(RecipeImageDir, GenerateID()+"."+ext)
	full := filepath.Join(m.root, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return name, nil
}

// Remove deletes a previously stored file. Missing files are ignored.
func (m *MediaStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(m.root, filepath.FromSlash(name)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove media file: %w", err)
	}
	return nil
}

// DecodeImageDataURI splits a base64 image data URI into its bytes and file extension.
func DecodeImageDataURI(dataURI string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("%w: expected a base64 data URI", ErrUnsupportedImage)
	}

	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext, ok := imageExtensions[strings.ToLower(mime)]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mime)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}

	return data, ext, nil
}
