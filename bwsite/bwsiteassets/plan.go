// Package bwsiteassets plans the object uploads for a build artifact directory.
package bwsiteassets

import (
	"mime"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/basewarphq/bwsite/bwsite/bwsitecrawl"
	"github.com/basewarphq/bwsite/bwsite/bwsiteerr"
	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
)

// Record describes one object to upload.
type Record struct {
	// LocalPath is the file on disk, joined with the root it was found under.
	LocalPath string `json:"localPath" yaml:"localPath"`
	// RemoteKey is the path relative to the root, always '/' separated.
	RemoteKey string `json:"remoteKey" yaml:"remoteKey"`
	// ContentType is derived from the file extension. Nil when unknown.
	ContentType *string `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	// CacheControl is an optional Cache-Control header for the object.
	CacheControl *string `json:"cacheControl,omitempty" yaml:"cacheControl,omitempty"`
}

// Option configures Plan.
type Option func(*options)

type options struct {
	sniff        bool
	cacheControl string
}

// WithSniffing detects the content type from the file's first bytes when the
// extension is unknown.
func WithSniffing(enabled bool) Option {
	return func(o *options) { o.sniff = enabled }
}

// WithCacheControl sets the Cache-Control header on every planned record.
func WithCacheControl(v string) Option {
	return func(o *options) { o.cacheControl = v }
}

// Plan returns one Record per file under root, sorted by RemoteKey.
func Plan(fsys billy.Filesystem, root string, opts ...Option) ([]Record, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var records []Record
	for p, err := range bwsitecrawl.Crawl(fsys, root) {
		if err != nil {
			return nil, err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil, bwsiteerr.Filesystem(err, "relativizing %s", p)
		}

		rec := Record{
			LocalPath: p,
			RemoteKey: filepath.ToSlash(rel),
		}
		rec.ContentType = ContentType(rec.RemoteKey)
		if rec.ContentType == nil && o.sniff {
			if rec.ContentType, err = sniff(fsys, p); err != nil {
				return nil, err
			}
		}
		if o.cacheControl != "" {
			rec.CacheControl = &o.cacheControl
		}
		records = append(records, rec)
	}

	slices.SortFunc(records, func(a, b Record) int { return strings.Compare(a.RemoteKey, b.RemoteKey) })
	return records, nil
}

// Merge combines the records of several roots. A remote key may only be
// claimed by one root.
func Merge(sets ...[]Record) ([]Record, error) {
	seen := map[string]string{}
	var out []Record
	for _, set := range sets {
		for _, r := range set {
			if prev, ok := seen[r.RemoteKey]; ok {
				return nil, errors.Newf("remote key %q is provided by both %s and %s", r.RemoteKey, prev, r.LocalPath)
			}
			seen[r.RemoteKey] = r.LocalPath
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b Record) int { return strings.Compare(a.RemoteKey, b.RemoteKey) })
	return out, nil
}

// ContentType returns the MIME type for the extension of key, or nil.
func ContentType(key string) *string {
	ext := path.Ext(key)
	if ext == "" {
		return nil
	}
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return nil
	}
	return &ct
}

func sniff(fsys billy.Filesystem, p string) (*string, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return nil, bwsiteerr.Filesystem(err, "opening %s", p)
	}
	defer f.Close()

	m, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, bwsiteerr.Filesystem(err, "sniffing %s", p)
	}
	ct := m.String()
	return &ct, nil
}
