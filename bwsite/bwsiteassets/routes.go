package bwsiteassets

import (
	"slices"

	"github.com/basewarphq/bwsite/bwsite/bwsiteerr"
	"github.com/go-git/go-billy/v5"
)

// RoutePatterns derives CDN path patterns from the top level entries of the
// given roots: "/name/*" for a directory and "/name" for a file. The result
// is sorted and free of duplicates. Missing roots are skipped.
func RoutePatterns(fsys billy.Filesystem, roots ...string) ([]string, error) {
	var patterns []string
	for _, root := range roots {
		if _, err := fsys.Stat(root); err != nil {
			continue
		}
		entries, err := fsys.ReadDir(root)
		if err != nil {
			return nil, bwsiteerr.Filesystem(err, "listing %s", root)
		}
		for _, e := range entries {
			p := "/" + e.Name()
			if e.IsDir() {
				p += "/*"
			}
			patterns = append(patterns, p)
		}
	}

	slices.Sort(patterns)
	return slices.Compact(patterns), nil
}
