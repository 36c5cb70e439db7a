package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidAssetName is returned for names that would escape the asset directory.
var ErrInvalidAssetName = errors.New("invalid asset name")

// AssetStore resolves static artwork (certificate backgrounds, seals, signatures) kept on disk.
type AssetStore struct {
	baseDir string
}

// NewAssetStore ensures the base directory exists and returns a handle.
func NewAssetStore(baseDir string) (*AssetStore, error) {
	if baseDir == "" {
		baseDir = "./static"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset directory: %w", err)
	}
	return &AssetStore{baseDir: baseDir}, nil
}

// Dir returns the directory served as static content.
func (s *AssetStore) Dir() string {
	return s.baseDir
}

// Path returns the on-disk location of the named asset.
func (s *AssetStore) Path(name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

// Exists reports whether the named asset is present as a regular file.
func (s *AssetStore) Exists(name string) bool {
	p, err := s.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Save writes an asset, creating intermediate directories.
func (s *AssetStore) Save(name string, data []byte) (string, error) {
	p, err := s.Path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("prepare asset directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write asset file: %w", err)
	}
	return name, nil
}

// URL builds the absolute public URL of an asset served under prefix on baseURL.
func URL(baseURL, prefix, name string) string {
	segments := strings.Split(strings.TrimLeft(name, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	rel := path.Join("/", strings.Trim(prefix, "/"), strings.Join(segments, "/"))
	return strings.TrimRight(baseURL, "/") + rel
}

func cleanName(name string) (string, error) {
	if name == "" || strings.Contains(name, "\\") {
		return "", ErrInvalidAssetName
	}
	clean := path.Clean("/" + name)[1:]
	if clean == "" || clean != strings.TrimLeft(name, "/") {
		return "", ErrInvalidAssetName
	}
	return clean, nil
}
