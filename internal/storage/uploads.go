package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const URLPrefix = "/uploads/"

var ErrNotImage = errors.New("uploaded file is not an image")

// DiskStorage keeps product images in a local directory served under URLPrefix.
type DiskStorage struct {
	Dir string
	Now func() time.Time
}

// NewDiskStorage creates dir if needed. It is the one place the upload
// directory is initialised and must run during startup.
func NewDiskStorage(dir string) (*DiskStorage, error) {
	if dir == "" {
		return nil, errors.New("upload dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{Dir: dir, Now: time.Now}, nil
}

// NewFilename returns "<unix millis>-<random><ext>". It only avoids
// accidental collisions and is not safe against an adversary guessing names.
func (s *DiskStorage) NewFilename(original string) string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return fmt.Sprintf("%d-%s%s", now().UnixMilli(), uuid.NewString(), ext)
}

// Save stores one uploaded image and returns its generated file name.
func (s *DiskStorage) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%s: %w", fh.Filename, ErrNotImage)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := s.NewFilename(fh.Filename)
	dst, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return name, nil
}

// SaveAll stores every file or none of them.
func (s *DiskStorage) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	names := make([]string, 0, len(files))
	for _, fh := range files {
		name, err := s.Save(fh)
		if err != nil {
			s.RemoveAll(names)
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *DiskStorage) PublicURL(scheme, host, name string) string {
	return scheme + "://" + host + URLPrefix + name
}

// NameFromURL extracts the stored file name from a public URL.
func NameFromURL(u string) (string, bool) {
	i := strings.LastIndex(u, URLPrefix)
	if i < 0 {
		return "", false
	}
	name := u[i+len(URLPrefix):]
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}

func (s *DiskStorage) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid upload name %q", name)
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveAll is best effort and returns the first failure.
func (s *DiskStorage) RemoveAll(names []string) error {
	var first error
	for _, n := range names {
		if err := s.Remove(n); err != nil && first == nil {
			first = err
		}
	}
	return first
}
