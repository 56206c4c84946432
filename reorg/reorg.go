// Package reorg is Reorganization (C6): Domain Discovery followed by
// Hierarchical Construction builds the three-level semantic hierarchy that
// replaces directory-mirroring (spec §4.6), grounded on the file-level
// SemanticFeatures the Encoder already persisted in Phase 1. The Semantic
// Router (§4.6, reused by Evolution) descends an existing hierarchy asking
// an LLM which HighLevel child is the best-fit parent for a new feature,
// falling back to cosine similarity over embeddings when no LLM is
// configured.
package reorg

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/llm"
	"github.com/viant/rpgraph/rpg"
	"github.com/viant/rpgraph/rpgerr"
)

// FileFeature is one file's feature summary as input to Domain Discovery
// and Hierarchical Construction.
type FileFeature struct {
	FileID      string
	FilePath    string
	Description string
	Keywords    []string
}

// FileFeatureGroup groups FileFeatures under a label, initially the file's
// top-level directory (§4.6).
type FileFeatureGroup struct {
	GroupLabel string
	Files      []FileFeature
}

// Reorganizer runs Domain Discovery + Hierarchical Construction against an
// existing RPG's file-level population.
type Reorganizer struct {
	RPG     *rpg.RPG
	Backend llm.Backend
}

// New returns a Reorganizer over r, issuing LLM calls through backend.
// backend must be non-nil: Reorganization is only ever invoked when an LLM
// backend is configured (§4.5 phase 3).
func New(r *rpg.RPG, backend llm.Backend) *Reorganizer {
	return &Reorganizer{RPG: r, Backend: backend}
}

const uncategorizedArea = "Uncategorized"

// Run loads the current file-level population, groups it by top-level
// directory, runs Domain Discovery then Hierarchical Construction, and
// materializes the resulting three-level hierarchy plus file attachments.
func (r *Reorganizer) Run(ctx context.Context) error {
	if r.Backend == nil {
		return rpgerr.Config("structural reorganization requires an LLM backend")
	}

	groups, err := r.loadGroups(ctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return nil
	}

	areas, err := r.DomainDiscovery(ctx, groups)
	if err != nil {
		return err
	}
	assignment, err := r.HierarchicalConstruction(ctx, areas, groups)
	if err != nil {
		return err
	}
	return r.materialize(ctx, groups, assignment)
}

func (r *Reorganizer) loadGroups(ctx context.Context) ([]FileFeatureGroup, error) {
	nodes, err := r.RPG.Store.GetNodes(ctx, graph.NodeFilter{Kind: graph.LowLevel, HasKind: true})
	if err != nil {
		return nil, rpgerr.Store(err, "list low-level nodes for reorganization")
	}
	byLabel := map[string][]FileFeature{}
	var labels []string
	for _, n := range nodes {
		if n.Metadata == nil || n.Metadata.EntityType != graph.EntityFile {
			continue
		}
		label := topLevelDir(n.Metadata.Path)
		if _, ok := byLabel[label]; !ok {
			labels = append(labels, label)
		}
		byLabel[label] = append(byLabel[label], FileFeature{
			FileID: n.ID, FilePath: n.Metadata.Path,
			Description: n.Feature.Description, Keywords: n.Feature.Keywords,
		})
	}
	sort.Strings(labels)
	groups := make([]FileFeatureGroup, 0, len(labels))
	for _, l := range labels {
		groups = append(groups, FileFeatureGroup{GroupLabel: l, Files: byLabel[l]})
	}
	return groups, nil
}

func topLevelDir(filePath string) string {
	dir := path.Dir(filePath)
	if dir == "." {
		return "root"
	}
	if i := strings.Index(dir, "/"); i >= 0 {
		return dir[:i]
	}
	return dir
}

// DomainDiscovery asks the LLM for an ordered sequence of PascalCase
// functional-area names. Response is validated (non-empty, deduplicated,
// PascalCase-normalized); a second parse failure after one retry is fatal
// (§4.6, §7: "LLM failures during Reorganization are fatal").
func (r *Reorganizer) DomainDiscovery(ctx context.Context, groups []FileFeatureGroup) ([]string, error) {
	var sb strings.Builder
	sb.WriteString("Given the following file groups (one per top-level directory) with their behavioral features, " +
		"propose 3 to 8 PascalCase functional-area names that partition this codebase by purpose. " +
		"Respond with a JSON array of strings, wrapped in <solution></solution>.\n\n")
	writeGroups(&sb, groups)

	var areas []string
	err := llm.CallWithSolution(ctx, r.Backend, llm.Request{Prompt: sb.String(), MaxTokens: 512},
		func(payload string) error {
			var raw []string
			if err := json.Unmarshal([]byte(payload), &raw); err != nil {
				return err
			}
			if len(raw) == 0 {
				return rpgerr.Validation("domain discovery returned no areas")
			}
			areas = dedupPascal(raw)
			return nil
		})
	if err != nil {
		return nil, rpgerr.LLM(err, "domain discovery")
	}
	return areas, nil
}

func writeGroups(sb *strings.Builder, groups []FileFeatureGroup) {
	for _, g := range groups {
		sb.WriteString("Group ")
		sb.WriteString(g.GroupLabel)
		sb.WriteString(":\n")
		for _, f := range g.Files {
			sb.WriteString("  - ")
			sb.WriteString(f.FilePath)
			sb.WriteString(": ")
			sb.WriteString(f.Description)
			sb.WriteString("\n")
		}
	}
}

func dedupPascal(raw []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range raw {
		p := toPascalCase(a)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func toPascalCase(s string) string {
	var words []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}) {
		if part != "" {
			words = append(words, strings.ToUpper(part[:1])+part[1:])
		}
	}
	return strings.Join(words, "")
}

// assignment maps a three-level "Area/category/subcategory" path to the
// group labels attached at that subcategory.
type assignment = map[string][]string

// HierarchicalConstruction asks the LLM to map functional areas onto
// exactly-three-level paths of the form "Area/category/subcategory", where
// category/subcategory are lowercase verb+object phrases. Validates every
// key has exactly two '/' separators and re-asks once with a corrective
// instruction on violation; a second failure is fatal (§4.6).
func (r *Reorganizer) HierarchicalConstruction(ctx context.Context, areas []string, groups []FileFeatureGroup) (assignment, error) {
	var sb strings.Builder
	sb.WriteString("Functional areas: ")
	sb.WriteString(strings.Join(areas, ", "))
	sb.WriteString("\n\nAssign each file group below to a three-level path of the form " +
		"\"Area/category/subcategory\", where Area is one of the functional areas above and " +
		"category/subcategory are lowercase verb+object phrases (e.g. \"parse arguments\"). " +
		"Respond with a JSON object mapping each path to an array of group labels, wrapped in <solution></solution>.\n\n")
	writeGroups(&sb, groups)

	var result assignment
	err := llm.CallWithSolution(ctx, r.Backend, llm.Request{Prompt: sb.String(), MaxTokens: 1024},
		func(payload string) error {
			var raw map[string][]string
			if err := json.Unmarshal([]byte(payload), &raw); err != nil {
				return err
			}
			validated, verr := validateHierarchy(raw, areas)
			if verr != nil {
				return verr
			}
			result = validated
			return nil
		})
	if err != nil {
		return nil, rpgerr.LLM(err, "hierarchical construction")
	}
	return result, nil
}

func validateHierarchy(raw map[string][]string, areas []string) (assignment, error) {
	areaSet := map[string]bool{}
	for _, a := range areas {
		areaSet[a] = true
	}
	out := assignment{}
	for key, labels := range raw {
		segs := strings.Split(key, "/")
		if len(segs) != 3 {
			return nil, rpgerr.Validation("hierarchical construction path %q must have exactly three segments", key)
		}
		if !areaSet[segs[0]] {
			return nil, rpgerr.Validation("hierarchical construction path %q does not start with a known area", key)
		}
		if strings.ToLower(segs[1]) != segs[1] || strings.ToLower(segs[2]) != segs[2] {
			return nil, rpgerr.Validation("hierarchical construction path %q category/subcategory must be lowercase", key)
		}
		out[key] = labels
	}
	return out, nil
}

// materialize creates the three chain nodes and functional edges for every
// assigned path, attaches each group's files, and routes unassigned files
// under a synthetic domain:Uncategorized node (§4.6).
func (r *Reorganizer) materialize(ctx context.Context, groups []FileFeatureGroup, assign assignment) error {
	byLabel := map[string]FileFeatureGroup{}
	assigned := map[string]bool{}
	for _, g := range groups {
		byLabel[g.GroupLabel] = g
	}

	for key, labels := range assign {
		segs := strings.Split(key, "/")
		area, category, subcategory := segs[0], segs[1], segs[2]
		subID, err := r.ensureChain(ctx, area, category, subcategory)
		if err != nil {
			return err
		}
		for _, label := range labels {
			g, ok := byLabel[label]
			if !ok {
				continue
			}
			assigned[label] = true
			for _, f := range g.Files {
				if err := r.RPG.AddFunctionalEdge(ctx, rpg.FunctionalEdgeArgs{Source: subID, Target: f.FileID}); err != nil {
					return rpgerr.Store(err, "attach file to subcategory")
				}
			}
		}
	}

	var leftover []FileFeature
	for _, g := range groups {
		if !assigned[g.GroupLabel] {
			leftover = append(leftover, g.Files...)
		}
	}
	if len(leftover) > 0 {
		subID, err := r.ensureChain(ctx, uncategorizedArea, "hold unrouted files", "default bucket")
		if err != nil {
			return err
		}
		for _, f := range leftover {
			if err := r.RPG.AddFunctionalEdge(ctx, rpg.FunctionalEdgeArgs{Source: subID, Target: f.FileID}); err != nil {
				return rpgerr.Store(err, "attach leftover file to uncategorized")
			}
		}
	}
	return nil
}

// ensureChain creates (idempotently) the Area -> Area/category ->
// Area/category/subcategory chain and returns the subcategory node id.
func (r *Reorganizer) ensureChain(ctx context.Context, area, category, subcategory string) (string, error) {
	areaID := "domain:" + area
	categoryID := areaID + "/" + category
	subID := categoryID + "/" + subcategory

	if err := r.ensureHighLevelNode(ctx, areaID, "organize "+strings.ToLower(area)+" concerns"); err != nil {
		return "", err
	}
	if err := r.ensureHighLevelNode(ctx, categoryID, category); err != nil {
		return "", err
	}
	if err := r.ensureHighLevelNode(ctx, subID, subcategory); err != nil {
		return "", err
	}
	if err := r.ensureFunctionalEdge(ctx, areaID, categoryID); err != nil {
		return "", err
	}
	if err := r.ensureFunctionalEdge(ctx, categoryID, subID); err != nil {
		return "", err
	}
	return subID, nil
}

func (r *Reorganizer) ensureHighLevelNode(ctx context.Context, id, description string) error {
	if _, err := r.RPG.Store.GetNode(ctx, id); err == nil {
		return nil
	}
	_, err := r.RPG.AddHighLevelNode(ctx, rpg.HighLevelArgs{
		ID:      id,
		Feature: graph.SemanticFeature{Description: description},
	})
	return err
}

func (r *Reorganizer) ensureFunctionalEdge(ctx context.Context, source, target string) error {
	edges, err := r.RPG.Store.GetInEdges(ctx, target, graph.Functional)
	if err != nil {
		return rpgerr.Store(err, "check existing functional parent")
	}
	if len(edges) > 0 {
		return nil
	}
	return r.RPG.AddFunctionalEdge(ctx, rpg.FunctionalEdgeArgs{Source: source, Target: target})
}
