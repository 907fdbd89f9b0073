package book

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

const DefaultLoaderSize = 8

type loaded struct {
	book *Book
	info os.FileInfo
}

// fresh reports whether info still describes the file the book was read from.
// Save commits by rename, so a rebuilt artifact is a new file even when its
// size and mtime match the old one.
func (c loaded) fresh(info os.FileInfo) bool {
	return os.SameFile(c.info, info) &&
		c.info.ModTime().Equal(info.ModTime()) &&
		c.info.Size() == info.Size()
}

// Loader keeps recently used books in memory and reloads one when its file
// is replaced on disk.
type Loader struct {
	mu    sync.Mutex
	books *lru.Cache[string, loaded]
}

func NewLoader(size int) (*Loader, error) {
	if size <= 0 {
		size = DefaultLoaderSize
	}
	c, err := lru.New[string, loaded](size)
	if err != nil {
		return nil, err
	}
	return &Loader{books: c}, nil
}

// Get returns the book stored at path, loading it if it is not cached or has
// been replaced since it was cached.
func (l *Loader) Get(path string) (*Book, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.books.Remove(path)
			return nil, ErrNotFound
		}
		return nil, &IOError{Op: "stat book", Path: path, Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.books.Get(path); ok && cur.fresh(info) {
		return cur.book, nil
	}

	forest, err := Load(path)
	if err != nil {
		return nil, err
	}
	b := New(forest)
	l.books.Add(path, loaded{book: b, info: info})
	log.Debug().Str("path", path).Int("nodes", b.Nodes()).Msg("book cached")
	return b, nil
}

// Forget drops path from the cache.
func (l *Loader) Forget(path string) {
	l.books.Remove(path)
}

func (l *Loader) Len() int {
	return l.books.Len()
}
