package filestore

import (
	"bytes"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/ghabbala/VU-Interniship-System/core"
)

// memoryStorage keeps files in a map; for tests.
type memoryStorage struct {
	mutex sync.RWMutex
	files map[string][]byte
}

var _ core.FileStorage = (*memoryStorage)(nil)

func NewMemoryStorage() *memoryStorage {
	return &memoryStorage{files: make(map[string][]byte)}
}

func (s *memoryStorage) Save(name string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", errors.Wrap(err, "reading content")
	}
	s.mutex.Lock()
	s.files[name] = data
	s.mutex.Unlock()
	return name, nil
}

func (s *memoryStorage) Exists(name string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.files[name]
	return ok
}

func (s *memoryStorage) Open(name string) (io.ReadCloser, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	data, ok := s.files[name]
	if !ok {
		return nil, errors.New("file not found: " + name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memoryStorage) Delete(name string) error {
	s.mutex.Lock()
	delete(s.files, name)
	s.mutex.Unlock()
	return nil
}
