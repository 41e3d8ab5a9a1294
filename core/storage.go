package core

import "io"

// FileStorage is any service that can persist uploaded files (CVs, letters,
// log attachments) under an opaque name.
//
// Replacing a stored file must be done write-new-then-delete-old: callers save
// the new content first and only delete the previous name once the save
// succeeded and the names differ, so a failure can never lose both copies.
type FileStorage interface {
	// Save stores content under name and returns the name actually used
	// (storage may de-duplicate by suffixing).
	Save(name string, content io.Reader) (string, error)
	Exists(name string) bool
	Open(name string) (io.ReadCloser, error)
	Delete(name string) error
}
