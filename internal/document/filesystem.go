package document

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/justibot/justibot/internal/errors"
)

// FilesystemStore stores artifacts as files in a billy filesystem.
type FilesystemStore struct {
	fs billy.Filesystem
}

// NewFilesystemStore stores artifacts in fs. Use memfs.New() in tests.
func NewFilesystemStore(fs billy.Filesystem) *FilesystemStore {
	return &FilesystemStore{fs: fs}
}

// NewDirectoryStore stores artifacts in dir on the local disk, creating it when missing.
func NewDirectoryStore(dir string) (*FilesystemStore, error) {
	fs := osfs.New(dir)
	if err := fs.MkdirAll(".", 0o750); err != nil { //nolint:mnd // rwxr-x---
		return nil, errors.Wrap(err, "create document directory", slog.String("dir", dir))
	}
	return NewFilesystemStore(fs), nil
}

// Put writes content to a temporary file and renames it over key so that readers never see a partial document.
func (s *FilesystemStore) Put(_ context.Context, key string, content []byte, _ string) error {
	tmp, err := s.fs.TempFile("", "."+key+"-")
	if err != nil {
		return errors.Wrap(err, "create temporary file", slog.String("key", key))
	}
	if _, err = tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmp.Name())
		return errors.Wrap(err, "write temporary file", slog.String("key", key))
	}
	if err = tmp.Close(); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return errors.Wrap(err, "close temporary file", slog.String("key", key))
	}
	if err = s.fs.Rename(tmp.Name(), key); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return errors.Wrap(err, "rename temporary file", slog.String("key", key))
	}
	return nil
}

// Open opens the artifact stored under key.
func (s *FilesystemStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := s.fs.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(ErrArtifactNotFound, "open artifact", slog.String("key", key))
		}
		return nil, errors.Wrap(err, "open artifact", slog.String("key", key))
	}
	return f, nil
}
