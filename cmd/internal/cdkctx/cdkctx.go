// Package cdkctx reads the CDK context of the site's CDK app from the CLI,
// without running the app, to derive stack names and regions.
package cdkctx

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
	"github.com/cockroachdb/errors"
)

// Prefix of the site's context keys, see infra/cdk.
const Prefix = "bwsite-"

// DeploymentKey selects a single deployment to synthesize.
const DeploymentKey = Prefix + "deployment"

type CDKContext struct {
	Qualifier     string
	PrimaryRegion string
	Deployments   []string
}

// Load reads cdk.json in cdkDir, overlaid with cdk.context.json when present.
func Load(cdkDir string) (*CDKContext, error) {
	ctxMap, err := readContext(filepath.Join(cdkDir, "cdk.json"), true)
	if err != nil {
		return nil, err
	}
	local, err := readContext(filepath.Join(cdkDir, "cdk.context.json"), false)
	if err != nil {
		return nil, err
	}
	for k, v := range local {
		ctxMap[k] = v
	}

	var c CDKContext
	if c.Qualifier, err = getString(ctxMap, Prefix+"qualifier"); err != nil {
		return nil, errors.Wrapf(err, "in %s", cdkDir)
	}
	if c.PrimaryRegion, err = getString(ctxMap, Prefix+"primary-region"); err != nil {
		return nil, errors.Wrapf(err, "in %s", cdkDir)
	}
	if c.Deployments, err = getStringSlice(ctxMap, Prefix+"deployments"); err != nil {
		return nil, errors.Wrapf(err, "in %s", cdkDir)
	}
	if !bwcdkutil.IsKnownRegion(c.PrimaryRegion) {
		return nil, errors.Newf("unknown primary region %q in %s (known: %s)",
			c.PrimaryRegion, cdkDir, strings.Join(bwcdkutil.AllKnownRegions(), ", "))
	}

	return &c, nil
}

func (c *CDKContext) IsValidDeployment(name string) bool {
	return slices.Contains(c.Deployments, name)
}

// ValidateDeployment returns an error naming the valid deployments when name is not one.
func (c *CDKContext) ValidateDeployment(name string) error {
	if !c.IsValidDeployment(name) {
		return errors.Newf("unknown deployment %q (valid: %v)", name, c.Deployments)
	}
	return nil
}

// StackName is the deployment stack created by bwcdkutil.SetupApp.
func (c *CDKContext) StackName(deployment string) string {
	return bwcdkutil.DeploymentStackName(c.Qualifier, bwcdkutil.RegionIdentFor(c.PrimaryRegion), deployment)
}

// SharedStackName is the shared stack, which only exists with the dynamodb store.
func (c *CDKContext) SharedStackName() string {
	return bwcdkutil.SharedStackName(c.Qualifier, bwcdkutil.RegionIdentFor(c.PrimaryRegion))
}

// EdgeStackName is the us-east-1 companion of a deployment stack. It only
// exists when the site has a domain and the primary region is elsewhere.
func (c *CDKContext) EdgeStackName(deployment string) string {
	return bwcdkutil.EdgeStackName(c.Qualifier, deployment)
}

// NeedsEdgeStack reports whether certificates live in a separate stack.
func (c *CDKContext) NeedsEdgeStack() bool {
	return c.PrimaryRegion != bwcdkutil.EdgeRegion
}

// ResolveStackRegion returns the region a stack created by the app lives in.
func (c *CDKContext) ResolveStackRegion(stackName string) (string, bool) {
	ident := bwcdkutil.ExtractRegionIdent(stackName)
	if ident == "" {
		return "", false
	}
	return bwcdkutil.RegionForIdent(ident)
}

// DeploymentArgs are the cdk CLI arguments that limit synthesis to deployment.
func DeploymentArgs(deployment string) []string {
	return []string{"--context", DeploymentKey + "=" + deployment}
}

func readContext(path string, required bool) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	if filepath.Base(path) == "cdk.context.json" {
		var ctxMap map[string]json.RawMessage
		if err := json.Unmarshal(data, &ctxMap); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
		return ctxMap, nil
	}

	var cfg struct {
		Context map[string]json.RawMessage `json:"context"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if cfg.Context == nil {
		cfg.Context = map[string]json.RawMessage{}
	}
	return cfg.Context, nil
}

func getString(m map[string]json.RawMessage, key string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", errors.Newf("context key %q is not set", key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.Newf("context key %q must be a string", key)
	}
	return s, nil
}

func getStringSlice(m map[string]json.RawMessage, key string) ([]string, error) {
	raw, ok := m[key]
	if !ok {
		return nil, errors.Newf("context key %q is not set", key)
	}
	var ss []string
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, errors.Newf("context key %q must be an array of strings", key)
	}
	return ss, nil
}
