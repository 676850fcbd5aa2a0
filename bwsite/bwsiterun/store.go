package bwsiterun

import (
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/bwsite/bwsitestore"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// Namespace scopes fingerprints in a store shared between deployments.
type Namespace string

// NewNamespace returns the namespace of a deployment of the configured site.
func NewNamespace(cfg *bwsitecfg.Config, deployment string) Namespace {
	return Namespace(cfg.Name + "/" + deployment)
}

// NewFilesystem returns the host filesystem. Paths handed to it are absolute.
func NewFilesystem() billy.Filesystem {
	return osfs.New("/")
}

// NewStore opens the fingerprint store selected in the configuration.
func NewStore(
	cfg *bwsitecfg.Config, ns Namespace, fsys billy.Filesystem, client *dynamodb.Client,
) (bwsitestore.Store, error) {
	switch cfg.Store.Backend {
	case bwsitecfg.StoreFile:
		return bwsitestore.NewFile(fsys, NamespacedPath(cfg.StorePath(), ns)), nil
	case bwsitecfg.StoreDynamoDB:
		return bwsitestore.NewDynamo(client, cfg.Store.Table, string(ns)), nil
	default:
		return nil, errors.Newf("unknown store backend %q", cfg.Store.Backend)
	}
}

// NamespacedPath gives every namespace its own document next to path:
// "fingerprints.json" becomes "fingerprints.Site-Prod.json".
func NamespacedPath(path string, ns Namespace) string {
	if ns == "" {
		return path
	}
	ext := filepath.Ext(path)
	name := strings.ReplaceAll(string(ns), "/", "-")
	return strings.TrimSuffix(path, ext) + "." + name + ext
}
