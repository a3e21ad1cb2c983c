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

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrUnknownKind     = errors.New("unknown image kind")
)

type Kind string

const (
	KindProducts   Kind = "products"
	KindCategories Kind = "categories"
)

var allowedExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true,
}

// LocalImageStore writes uploads below root/images/<kind> and hands back
// URLs under publicPrefix, which the HTTP layer serves statically from root.
type LocalImageStore struct {
	root         string
	publicPrefix string
}

func NewLocalImageStore(root, publicPrefix string) *LocalImageStore {
	return &LocalImageStore{root: root, publicPrefix: "/" + strings.Trim(publicPrefix, "/")}
}

func (s *LocalImageStore) Root() string         { return s.root }
func (s *LocalImageStore) PublicPrefix() string { return s.publicPrefix }

// Extension returns the lower-cased extension of filename if it is allowed.
func Extension(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedExtensions[ext] {
		return "", ErrInvalidFileType
	}
	return ext, nil
}

func (s *LocalImageStore) Save(kind Kind, filename string, src io.Reader) (string, error) {
	if kind != KindProducts && kind != KindCategories {
		return "", ErrUnknownKind
	}
	ext, err := Extension(filename)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, "images", string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + "." + ext
	full := filepath.Join(dir, name)
	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(full)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close file: %w", err)
	}
	return path.Join(s.publicPrefix, "images", string(kind), name), nil
}
