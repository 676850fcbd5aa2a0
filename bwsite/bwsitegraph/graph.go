// Package bwsitegraph is a typed resource graph with explicit dependency edges.
//
// Nodes are declared in any order. Every node lists the nodes it depends on
// and attributes may reference another node's output through a Ref, which
// adds the dependency implicitly. Executors consume the graph through Order,
// Edges or Walk, which never visit a node before its dependencies.
package bwsitegraph

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	dgraph "github.com/dominikbraun/graph"
	"github.com/iancoleman/strcase"
	"golang.org/x/sync/errgroup"
)

// Plane says which executor is responsible for a node.
type Plane int

const (
	// ControlPlane nodes are provisioned by the infrastructure engine.
	ControlPlane Plane = iota
	// DataPlane nodes are applied through provider APIs after the engine ran.
	DataPlane
)

func (p Plane) String() string {
	switch p {
	case ControlPlane:
		return "control"
	case DataPlane:
		return "data"
	default:
		return fmt.Sprintf("Plane(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Plane) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Kind is the resource type of a node.
type Kind string

// Ref points at an output attribute of another node. The value is only
// known once the referenced node has been provisioned.
type Ref struct {
	Node string `json:"node" yaml:"node"`
	Attr string `json:"attr" yaml:"attr"`
}

func (r Ref) String() string {
	return r.Node + "." + r.Attr
}

// OutputKey is the stack output key the control plane exports the value under.
func (r Ref) OutputKey() string {
	return strcase.ToCamel(r.Node + "-" + r.Attr)
}

// Node is one resource in the graph.
type Node struct {
	ID        string         `json:"id" yaml:"id"`
	Kind      Kind           `json:"kind" yaml:"kind"`
	Plane     Plane          `json:"plane" yaml:"plane"`
	Attrs     map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	DependsOn []string       `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// Refs returns the references held by the node's attributes, sorted by attribute name.
func (n *Node) Refs() []Ref {
	names := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		names = append(names, k)
	}
	sort.Strings(names)

	var refs []Ref
	for _, k := range names {
		switch v := n.Attrs[k].(type) {
		case Ref:
			refs = append(refs, v)
		case []Ref:
			refs = append(refs, v...)
		}
	}
	return refs
}

// Edge says that From depends on To.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Graph is a set of nodes with dependency edges.
type Graph struct {
	ids   []string
	nodes map[string]*Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: map[string]*Node{}}
}

// Add declares a node. Dependencies implied by Ref attributes are appended to
// DependsOn. The IDs named in DependsOn do not have to exist yet; Validate
// checks them once the graph is complete.
func (g *Graph) Add(n Node) (*Node, error) {
	if n.ID == "" {
		return nil, errors.New("node id is empty")
	}
	if _, ok := g.nodes[n.ID]; ok {
		return nil, errors.Newf("duplicate node id %q", n.ID)
	}

	deps := make([]string, 0, len(n.DependsOn))
	for _, d := range n.DependsOn {
		if !slices.Contains(deps, d) {
			deps = append(deps, d)
		}
	}
	for _, r := range n.Refs() {
		if !slices.Contains(deps, r.Node) {
			deps = append(deps, r.Node)
		}
	}
	if slices.Contains(deps, n.ID) {
		return nil, errors.Newf("node %q depends on itself", n.ID)
	}
	n.DependsOn = deps

	g.ids = append(g.ids, n.ID)
	g.nodes[n.ID] = &n
	return &n, nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in declaration order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, g.nodes[id])
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.ids)
}

// Edges returns every dependency edge, grouped by dependent in declaration order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, id := range g.ids {
		for _, d := range g.nodes[id].DependsOn {
			edges = append(edges, Edge{From: id, To: d})
		}
	}
	return edges
}

// HasEdge reports whether from directly depends on to.
func (g *Graph) HasEdge(from, to string) bool {
	n, ok := g.nodes[from]
	return ok && slices.Contains(n.DependsOn, to)
}

// Validate checks that every dependency exists and the graph has no cycle.
func (g *Graph) Validate() error {
	_, err := g.dag()
	return err
}

// dag mirrors the graph with edges pointing from a dependency to its
// dependents, the direction in which resources are created.
func (g *Graph) dag() (dgraph.Graph[string, *Node], error) {
	d := dgraph.New(func(n *Node) string { return n.ID }, dgraph.Directed())
	for _, id := range g.ids {
		if err := d.AddVertex(g.nodes[id]); err != nil {
			return nil, errors.Wrapf(err, "node %q", id)
		}
	}
	for _, id := range g.ids {
		for _, dep := range g.nodes[id].DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				return nil, errors.Newf("node %q depends on unknown node %q", id, dep)
			}
			if err := d.AddEdge(dep, id); err != nil {
				return nil, errors.Wrapf(err, "node %q depends on %q", id, dep)
			}
		}
	}

	sccs, err := dgraph.StronglyConnectedComponents(d)
	if err != nil {
		return nil, errors.Wrap(err, "finding cycles")
	}
	for _, scc := range sccs {
		if len(scc) > 1 {
			slices.SortFunc(scc, func(a, b string) int { return g.pos(a) - g.pos(b) })
			return nil, errors.Newf("dependency cycle between: %s", strings.Join(scc, ", "))
		}
	}
	return d, nil
}

func (g *Graph) pos(id string) int {
	return slices.Index(g.ids, id)
}

// Order returns the nodes so that each one comes after all of its
// dependencies. Among nodes that become ready together declaration order is
// kept, which makes the result deterministic.
func (g *Graph) Order() ([]*Node, error) {
	d, err := g.dag()
	if err != nil {
		return nil, err
	}

	pos := make(map[string]int, len(g.ids))
	for i, id := range g.ids {
		pos[id] = i
	}
	ids, err := dgraph.StableTopologicalSort(d, func(a, b string) bool { return pos[a] < pos[b] })
	if err != nil {
		return nil, errors.Wrap(err, "ordering nodes")
	}

	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.nodes[id])
	}
	return out, nil
}

// TeardownOrder is the reverse of Order: dependents before their dependencies.
func (g *Graph) TeardownOrder() ([]*Node, error) {
	order, err := g.Order()
	if err != nil {
		return nil, err
	}
	slices.Reverse(order)
	return order, nil
}

// Subgraph returns the nodes of the given plane in Order.
func (g *Graph) Subgraph(plane Plane) ([]*Node, error) {
	order, err := g.Order()
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(order, func(n *Node) bool { return n.Plane != plane }), nil
}

// WalkFunc is called for every node during a walk.
type WalkFunc func(ctx context.Context, n *Node) error

// Walk calls fn for every node, running independent nodes concurrently with
// at most limit calls in flight (unlimited when limit <= 0). A node is only
// visited after fn returned successfully for all of its dependencies. The
// first error cancels the walk and is returned.
func (g *Graph) Walk(ctx context.Context, limit int, fn WalkFunc) error {
	order, err := g.Order()
	if err != nil {
		return err
	}
	return g.walk(ctx, limit, order, func(n *Node) []string { return n.DependsOn }, fn)
}

// WalkReverse is like Walk but visits dependents before their dependencies,
// the order in which resources are torn down.
func (g *Graph) WalkReverse(ctx context.Context, limit int, fn WalkFunc) error {
	order, err := g.TeardownOrder()
	if err != nil {
		return err
	}

	dependents := make(map[string][]string, len(order))
	for _, e := range g.Edges() {
		dependents[e.To] = append(dependents[e.To], e.From)
	}
	return g.walk(ctx, limit, order, func(n *Node) []string { return dependents[n.ID] }, fn)
}

func (g *Graph) walk(
	ctx context.Context, limit int, order []*Node, waitFor func(*Node) []string, fn WalkFunc,
) error {
	done := make(map[string]chan struct{}, len(order))
	for _, n := range order {
		done[n.ID] = make(chan struct{})
	}

	eg, ectx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}

	// Nodes are started in order, so whenever the limit is reached the
	// earliest running node has all of its prerequisites finished.
	for _, n := range order {
		eg.Go(func() error {
			for _, id := range waitFor(n) {
				select {
				case <-done[id]:
				case <-ectx.Done():
					return ectx.Err()
				}
			}
			if err := fn(ectx, n); err != nil {
				return errors.Wrapf(err, "%s %s", n.Kind, n.ID)
			}
			close(done[n.ID])
			return nil
		})
	}
	return eg.Wait()
}
