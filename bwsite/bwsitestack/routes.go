package bwsitestack

import (
	"github.com/basewarphq/bwsite/bwsite/bwsiteassets"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/go-git/go-billy/v5"
)

// ResolveRoutes fills in the route patterns of target from the top level of
// its asset roots when none are configured.
func ResolveRoutes(fsys billy.Filesystem, target bwsitecfg.DeploymentTarget) (bwsitecfg.DeploymentTarget, error) {
	if len(target.RoutePatterns) > 0 {
		return target, nil
	}
	patterns, err := bwsiteassets.RoutePatterns(fsys, target.StaticArtifactPath, target.PrerenderedArtifactPath)
	if err != nil {
		return target, err
	}
	target.RoutePatterns = patterns
	return target, nil
}
