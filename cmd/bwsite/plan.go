package main

import (
	"strconv"
	"strings"

	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/bwsite/bwsitegraph"
	"github.com/basewarphq/bwsite/bwsite/bwsitestack"
	"github.com/go-git/go-billy/v5"
)

type PlanCmd struct {
	Format   string `default:"table" enum:"table,json,yaml" help:"Output format (table, json, yaml)."`
	Teardown bool   `help:"Print the order in which resources are removed."`
	Assets   bool   `help:"Include the object uploads and the cache invalidation."`
}

type planOutput struct {
	Nodes []*bwsitegraph.Node `json:"nodes" yaml:"nodes"`
	Edges []bwsitegraph.Edge  `json:"edges" yaml:"edges"`
}

func (c *PlanCmd) Run(cfg *bwsitecfg.Config, fsys billy.Filesystem, rep *reporter) error {
	target, err := resolveTarget(fsys, cfg)
	if err != nil {
		return err
	}

	in := bwsitestack.Input{Target: target}
	if c.Assets {
		if in.Assets, err = planAssets(fsys, cfg); err != nil {
			return err
		}
		in.Invalidate = true
	}

	g, err := bwsitestack.Build(in)
	if err != nil {
		return err
	}

	var nodes []*bwsitegraph.Node
	if c.Teardown {
		nodes, err = g.TeardownOrder()
	} else {
		nodes, err = g.Order()
	}
	if err != nil {
		return err
	}

	out := planOutput{Nodes: nodes, Edges: g.Edges()}
	if c.Format != formatTable {
		return rep.Encode(c.Format, out)
	}

	heading := "creation order"
	if c.Teardown {
		heading = "teardown order"
	}
	reportNodes(rep, heading, out)
	return nil
}

func reportNodes(rep *reporter, heading string, out planOutput) {
	deps := map[string][]string{}
	for _, e := range out.Edges {
		deps[e.From] = append(deps[e.From], e.To)
	}

	rows := make([][]string, 0, len(out.Nodes))
	for i, n := range out.Nodes {
		rows = append(rows, []string{
			strconv.Itoa(i + 1), n.ID, string(n.Kind), n.Plane.String(), strings.Join(deps[n.ID], ","),
		})
	}

	rep.Section(heading)
	rep.Table([]string{"#", "ID", "KIND", "PLANE", "DEPENDS ON"}, rows)
}
