// Package bwsitefp computes a content fingerprint for a directory tree.
//
// The fingerprint covers every file's path relative to the root and its
// bytes, so it changes when a file is added, removed, renamed or edited and
// stays the same otherwise. It is an opaque token meant for equality checks.
package bwsitefp

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/basewarphq/bwsite/bwsite/bwsitecrawl"
	"github.com/basewarphq/bwsite/bwsite/bwsiteerr"
	"github.com/go-git/go-billy/v5"
)

// State is the fingerprint of one directory tree.
type State struct {
	// Path is the directory the fingerprint was computed for.
	Path string `json:"path"`
	// Hash is the hex encoded fingerprint.
	Hash string `json:"hash"`
}

// Equal reports whether both states carry the same fingerprint.
func (s State) Equal(o State) bool {
	return s.Hash == o.Hash
}

// Compute fingerprints the tree under root.
func Compute(fsys billy.Filesystem, root string) (State, error) {
	files, err := bwsitecrawl.Files(fsys, root)
	if err != nil {
		return State{}, err
	}

	type entry struct{ rel, path string }
	entries := make([]entry, 0, len(files))
	for _, p := range files {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return State{}, bwsiteerr.Filesystem(err, "relativizing %s", p)
		}
		entries = append(entries, entry{rel: filepath.ToSlash(rel), path: p})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.rel < b.rel:
			return -1
		case a.rel > b.rel:
			return 1
		}
		return 0
	})

	h := sha256.New()
	for _, e := range entries {
		if err := hashEntry(h, fsys, e.rel, e.path); err != nil {
			return State{}, err
		}
	}

	return State{Path: root, Hash: hex.EncodeToString(h.Sum(nil))}, nil
}

// hashEntry writes a length-prefixed record of the relative path and the
// content into h. Symlinks contribute their target instead of the content.
func hashEntry(h io.Writer, fsys billy.Filesystem, rel, path string) error {
	info, err := fsys.Lstat(path)
	if err != nil {
		return bwsiteerr.Filesystem(err, "stat %s", path)
	}

	writeField(h, []byte(rel))

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := fsys.Readlink(path)
		if err != nil {
			return bwsiteerr.Filesystem(err, "readlink %s", path)
		}
		h.Write([]byte{'L'})
		writeField(h, []byte(target))
		return nil
	}

	f, err := fsys.Open(path)
	if err != nil {
		return bwsiteerr.Filesystem(err, "opening %s", path)
	}
	defer f.Close()

	h.Write([]byte{'F'})
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(info.Size()))
	h.Write(size[:])
	if _, err := io.Copy(h, f); err != nil {
		return bwsiteerr.Filesystem(err, "reading %s", path)
	}
	return nil
}

func writeField(w io.Writer, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	w.Write(n[:])
	w.Write(b)
}
