// Package ground is the Artifact Grounder (C7): bottom-up propagation of
// metadata.path from leaf LowLevel nodes up through the functional
// hierarchy to every HighLevel ancestor (Algorithm 1 of the reference
// paper, spec §4.7). Grounded on the teacher's inspector/graph package's
// path-bearing Document/File model, generalized here into an explicit
// prefix-trie LCA computation since the teacher has no multi-root grounding
// concept of its own.
package ground

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpgerr"
)

// Grounder runs the bottom-up LCA propagation over an rpg's functional
// hierarchy.
type Grounder struct {
	store graph.Store
}

// New returns a Grounder over store.
func New(store graph.Store) *Grounder {
	return &Grounder{store: store}
}

// Ground walks every root of the functional forest (nodes with no incoming
// Functional edge) and propagates grounded paths upward.
func (g *Grounder) Ground(ctx context.Context) error {
	roots, err := g.roots(ctx)
	if err != nil {
		return err
	}
	for _, root := range roots {
		if _, err := g.propagate(ctx, root.ID); err != nil {
			return err
		}
	}
	return nil
}

func (g *Grounder) roots(ctx context.Context) ([]*graph.Node, error) {
	nodes, err := g.store.GetNodes(ctx, graph.NodeFilter{})
	if err != nil {
		return nil, rpgerr.Store(err, "list nodes for grounding")
	}
	var roots []*graph.Node
	for _, n := range nodes {
		parent, err := g.store.GetParent(ctx, n.ID)
		if err != nil {
			return nil, rpgerr.Store(err, "get parent for grounding")
		}
		if parent == nil {
			roots = append(roots, n)
		}
	}
	return roots, nil
}

// propagate implements Algorithm 1: leaves return their own directory;
// internal HighLevel nodes compute the LCA of the union of their children's
// results and persist it; the union itself is always returned upward so an
// ancestor can fold it into its own LCA.
func (g *Grounder) propagate(ctx context.Context, id string) (map[string]bool, error) {
	n, err := g.store.GetNode(ctx, id)
	if err != nil {
		return nil, rpgerr.Store(err, "get node for grounding")
	}

	children, err := g.store.GetChildren(ctx, id)
	if err != nil {
		return nil, rpgerr.Store(err, "get children for grounding")
	}

	if n.IsLowLevel() && len(children) == 0 {
		set := map[string]bool{}
		if n.Metadata != nil && n.Metadata.Path != "" {
			set[path.Dir(n.Metadata.Path)] = true
		}
		return set, nil
	}

	union := map[string]bool{}
	for _, c := range children {
		childSet, err := g.propagate(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for d := range childSet {
			union[d] = true
		}
	}

	if n.IsHighLevel() && len(union) > 0 {
		dirs := make([]string, 0, len(union))
		for d := range union {
			dirs = append(dirs, d)
		}
		lca := ComputeLCA(dirs)
		if err := g.applyGrounding(ctx, n, lca); err != nil {
			return nil, err
		}
	}

	return union, nil
}

func (g *Grounder) applyGrounding(ctx context.Context, n *graph.Node, lca []string) error {
	sort.Strings(lca)
	patch := graph.NodePatch{}
	if len(lca) == 1 {
		p := lca[0]
		module := graph.EntityModule
		patch.Path = &p
		patch.EntityType = &module
	} else {
		p := lca[0]
		patch.Path = &p
		patch.ExtraPatch = map[string]any{"paths": append([]string(nil), lca...)}
	}
	return g.store.UpdateNode(ctx, n.ID, patch)
}

// trieNode is one node of the directory prefix trie built by ComputeLCA.
type trieNode struct {
	children map[string]*trieNode
	terminal bool
}

func newTrieNode() *trieNode { return &trieNode{children: map[string]*trieNode{}} }

// ComputeLCA builds a prefix trie of '/'-split directories in paths and
// returns, via post-order walk, every trie node that is branching (more
// than one child) or terminal (final segment of an inserted path); each
// time such a node is added, its descendant subtree is pruned from the
// result (subtree consolidation), so the operation is idempotent and
// stable under permutation of its input (§4.7).
func ComputeLCA(paths []string) []string {
	root := newTrieNode()
	for _, p := range paths {
		if p == "" || p == "." {
			continue
		}
		cur := root
		for _, seg := range strings.Split(path.Clean(p), "/") {
			next, ok := cur.children[seg]
			if !ok {
				next = newTrieNode()
				cur.children[seg] = next
			}
			cur = next
		}
		cur.terminal = true
	}

	var out []string
	var walk func(n *trieNode, prefix []string) bool
	// walk returns true when it recorded n itself, which consolidates n's
	// subtree: no descendant of a recorded node is walked or recorded.
	walk = func(n *trieNode, prefix []string) bool {
		if n.terminal || len(n.children) > 1 {
			if len(prefix) > 0 {
				out = append(out, strings.Join(prefix, "/"))
			}
			return true
		}
		for seg, child := range n.children {
			walk(child, append(append([]string(nil), prefix...), seg))
		}
		return false
	}
	for seg, child := range root.children {
		walk(child, []string{seg})
	}
	sort.Strings(out)
	return out
}
