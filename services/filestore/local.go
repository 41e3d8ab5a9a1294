package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/ghabbala/VU-Interniship-System/core"
)

// localStorage persists files on disk under Conf.MediaRoot. Stored names may
// carry "/"-separated prefixes ("requests/cv/xyz.pdf"); directories are
// created on demand.
type localStorage struct {
	root string
}

var _ core.FileStorage = (*localStorage)(nil)

func NewLocalStorage() (*localStorage, error) {
	root := core.Conf.MediaRoot
	if root == "" {
		root = filepath.Join(core.Getwd(), "media")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media root")
	}
	return &localStorage{root: root}, nil
}

func (s *localStorage) Save(name string, content io.Reader) (string, error) {
	name = s.availableName(name)
	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "creating media dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating media file")
	}
	defer f.Close()
	if _, err = io.Copy(f, content); err != nil {
		return "", errors.Wrap(err, "writing media file")
	}
	return name, nil
}

func (s *localStorage) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

func (s *localStorage) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		return nil, errors.Wrap(err, "opening media file")
	}
	return f, nil
}

func (s *localStorage) Delete(name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting media file")
	}
	return nil
}

func (s *localStorage) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// availableName suffixes name with a counter until it does not clash with an
// existing file.
func (s *localStorage) availableName(name string) string {
	if !s.Exists(name) {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		alt := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !s.Exists(alt) {
			return alt
		}
	}
}
