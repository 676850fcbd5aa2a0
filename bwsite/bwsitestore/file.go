package bwsitestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/basewarphq/bwsite/bwsite/bwsiteerr"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// File stores fingerprints in a JSON document on a filesystem.
type File struct {
	fsys billy.Filesystem
	path string
	mu   sync.Mutex
}

// NewFile returns a File store that reads and writes path on fsys.
func NewFile(fsys billy.Filesystem, path string) *File {
	return &File{fsys: fsys, path: path}
}

type fileDoc struct {
	Fingerprints map[string]string `json:"fingerprints"`
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return "", false, err
	}
	h, ok := doc.Fingerprints[key]
	return h, ok, nil
}

func (f *File) Put(_ context.Context, key, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	doc.Fingerprints[key] = hash

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding fingerprints")
	}
	if err := f.fsys.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return bwsiteerr.Filesystem(err, "creating directory for %s", f.path)
	}
	if err := util.WriteFile(f.fsys, f.path, append(data, '\n'), 0o644); err != nil {
		return bwsiteerr.Filesystem(err, "writing %s", f.path)
	}
	return nil
}

func (f *File) load() (*fileDoc, error) {
	doc := &fileDoc{Fingerprints: map[string]string{}}

	data, err := util.ReadFile(f.fsys, f.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, bwsiteerr.Filesystem(err, "reading %s", f.path)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", f.path)
	}
	if doc.Fingerprints == nil {
		doc.Fingerprints = map[string]string{}
	}
	return doc, nil
}

var _ Store = (*File)(nil)
