package book

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// Save encodes forest and replaces the artifact at path. Readers see either
// the previous artifact or the new one, never a partial file. Only one Save
// per path may run at a time.
func Save(forest Forest, path string) error {
	data, err := Encode(forest)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &IOError{Op: "create book dir", Path: filepath.Dir(path), Err: err}
	}
	err = writeFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return err
	}
	log.Debug().Str("path", path).Str("size", humanize.Bytes(uint64(len(data)))).Msg("book saved")
	return nil
}

// Load reads and decodes the artifact at path. A missing artifact yields
// ErrNotFound; a damaged one yields *CorruptArtifactError.
func Load(path string) (Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &IOError{Op: "read book", Path: path, Err: err}
	}
	forest, err := Decode(data)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Int("roots", len(forest)).Msg("book loaded")
	return forest, nil
}

// writeFileAtomic writes into a temporary file next to path and renames it
// over path once the content is synced. The rename is the commit point.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &IOError{Op: "create temp book", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := write(tmp); err != nil {
		return &IOError{Op: "write temp book", Path: tmpName, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &IOError{Op: "sync temp book", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "close temp book", Path: tmpName, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &IOError{Op: "chmod temp book", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &IOError{Op: "rename book", Path: path, Err: err}
	}
	committed = true
	return nil
}
