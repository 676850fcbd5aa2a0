// Package bwsitecrawl enumerates the files of a build artifact directory.
package bwsitecrawl

import (
	"iter"

	"github.com/basewarphq/bwsite/bwsite/bwsiteerr"
	"github.com/go-git/go-billy/v5"
)

// Crawl lazily yields the path of every non-directory entry below root.
//
// Paths are root joined with the entry's relative path using fsys.Join.
// Directories are descended depth-first in listing order; callers must not
// rely on that order. Symbolic links are yielded as files and never followed,
// so a link to a directory is not descended.
//
// A failure to list root or any descended directory is yielded once, marked
// as bwsiteerr.ErrFilesystem, and ends the sequence.
func Crawl(fsys billy.Filesystem, root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		walk(fsys, root, yield)
	}
}

// Files collects the whole crawl, stopping at the first error.
func Files(fsys billy.Filesystem, root string) ([]string, error) {
	var files []string
	for p, err := range Crawl(fsys, root) {
		if err != nil {
			return nil, err
		}
		files = append(files, p)
	}
	return files, nil
}

func walk(fsys billy.Filesystem, dir string, yield func(string, error) bool) bool {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		yield("", bwsiteerr.Filesystem(err, "listing %s", dir))
		return false
	}

	for _, e := range entries {
		p := fsys.Join(dir, e.Name())
		if e.IsDir() {
			if !walk(fsys, p, yield) {
				return false
			}
			continue
		}
		if !yield(p, nil) {
			return false
		}
	}
	return true
}
