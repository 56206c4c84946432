// Package evolve is the Evolution engine (C9): given a commit range it
// diffs the repository via the VCS Abstraction, re-parses touched files
// through the AST Surface, matches entities by qualified name across
// revisions, and applies a strict Delete -> Modify -> Insert schedule
// against the RPG, rerouting nodes whose semantic drift exceeds a
// threshold. Grounded on the teacher's reconcile-then-apply shape in
// analyzer/package.go (diff a prior snapshot, apply additions before
// removals settle), generalized into the three-class U-/U~/U+ schedule
// this component requires.
package evolve

import (
	"context"
	"path"
	"sort"
	"time"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/cache"
	"github.com/viant/rpgraph/encode"
	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/inject"
	"github.com/viant/rpgraph/internal/rlog"
	"github.com/viant/rpgraph/llm"
	"github.com/viant/rpgraph/reorg"
	"github.com/viant/rpgraph/rpg"
	"github.com/viant/rpgraph/rpgerr"
	"github.com/viant/rpgraph/semantic"
	"github.com/viant/rpgraph/vcs"
)

// DefaultDriftThreshold mirrors §6's named default.
const DefaultDriftThreshold = 0.3

// Options configures one Evolve call (§4.9, §6).
type Options struct {
	CommitRange    string
	DriftThreshold float64
	UseLLM         bool
	// OutputPath, when set, is the URL the evolved graph artifact is
	// written to after the schedule completes (e.g. "file:///repo/.rpgraph/graph.json").
	OutputPath string
}

// Result is the §4.9 step 6 counter set.
type Result struct {
	Inserted    int
	Deleted     int
	Modified    int
	Rerouted    int
	PrunedNodes int
	LLMCalls    int
	Duration    time.Duration
}

// Evolver runs C9 against an existing RPG.
type Evolver struct {
	RPG       *rpg.RPG
	VCS       vcs.Backend
	Factory   *ast.Factory
	Extractor *semantic.Extractor
	Embedder  llm.EmbeddingBackend
	Cache     *cache.Cache
	Router    *reorg.SemanticRouter
	// Injector overrides the default file-scoped dependency injector built
	// from RPG and Factory (set it to customize the common-name block list
	// or the Go module path).
	Injector *inject.Injector
	RepoRoot string
}

// New returns an Evolver wired to r's store; callers must still set
// Factory and Extractor.
func New(r *rpg.RPG, backend vcs.Backend, factory *ast.Factory, extractor *semantic.Extractor) *Evolver {
	return &Evolver{RPG: r, VCS: backend, Factory: factory, Extractor: extractor}
}

type changeKind int

const (
	changeInsert changeKind = iota
	changeDelete
	changeModify
)

// entityChange classifies one matched-by-qualified-name entity across two
// revisions of a file.
type entityChange struct {
	id     string
	file   string
	kind   changeKind
	oldEnt *ast.CodeEntity
	newEnt *ast.CodeEntity
}

// Evolve runs the full §4.9 algorithm.
func (ev *Evolver) Evolve(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	if opts.DriftThreshold <= 0 {
		opts.DriftThreshold = DefaultDriftThreshold
	}

	changes, err := ev.VCS.Diff(ctx, ev.RepoRoot, opts.CommitRange)
	if err != nil {
		return nil, err
	}

	var inserts, deletes, modifies []entityChange
	for _, fc := range changes {
		olds, err := ev.parseEntities(fc.File, fc.OldContent)
		if err != nil {
			return nil, err
		}
		news, err := ev.parseEntities(fc.File, fc.NewContent)
		if err != nil {
			return nil, err
		}

		switch fc.Status {
		case vcs.StatusAdded:
			if err := ev.ensureFileNode(ctx, fc.File, news); err != nil {
				return nil, err
			}
			for i := range news {
				inserts = append(inserts, entityChange{
					id: entityID(fc.File, news[i]), file: fc.File,
					kind: changeInsert, newEnt: &news[i],
				})
			}
		case vcs.StatusDeleted:
			for i := range olds {
				deletes = append(deletes, entityChange{
					id: entityID(fc.File, olds[i]), file: fc.File,
					kind: changeDelete, oldEnt: &olds[i],
				})
			}
		default: // StatusModified: match by qualified name, line numbers ignored
			byName := make(map[string]*ast.CodeEntity, len(olds))
			for i := range olds {
				byName[olds[i].QualifiedName] = &olds[i]
			}
			seen := map[string]bool{}
			for i := range news {
				n := &news[i]
				seen[n.QualifiedName] = true
				if o, ok := byName[n.QualifiedName]; ok {
					modifies = append(modifies, entityChange{
						id: entityID(fc.File, *o), file: fc.File,
						kind: changeModify, oldEnt: o, newEnt: n,
					})
				} else {
					inserts = append(inserts, entityChange{
						id: entityID(fc.File, *n), file: fc.File,
						kind: changeInsert, newEnt: n,
					})
				}
			}
			for i := range olds {
				if !seen[olds[i].QualifiedName] {
					deletes = append(deletes, entityChange{
						id: entityID(fc.File, olds[i]), file: fc.File,
						kind: changeDelete, oldEnt: &olds[i],
					})
				}
			}
		}
	}

	sortChanges(deletes)
	sortChanges(modifies)
	sortChanges(inserts)

	result := &Result{}

	// Step 2: strict Delete -> Modify -> Insert schedule.
	for _, d := range deletes {
		pruned, err := ev.deleteNode(ctx, d.id)
		if err != nil {
			return nil, err
		}
		result.Deleted++
		result.PrunedNodes += pruned
	}

	for _, m := range modifies {
		rerouted, err := ev.processModification(ctx, m, opts)
		if err != nil {
			return nil, err
		}
		if rerouted {
			result.Rerouted++
		} else {
			result.Modified++
		}
		if opts.UseLLM {
			result.LLMCalls++
		}
	}

	for _, ins := range inserts {
		if err := ev.insertNode(ctx, ins, opts); err != nil {
			return nil, err
		}
		result.Inserted++
		if opts.UseLLM {
			result.LLMCalls++
		}
	}

	if err := ev.reinjectFiles(ctx, changes); err != nil {
		return nil, err
	}

	if ev.Cache != nil {
		for _, fc := range changes {
			ev.Cache.InvalidateFile(fc.File)
		}
		if err := ev.Cache.Save(ctx); err != nil {
			return nil, err
		}
	}

	if opts.OutputPath != "" {
		doc, err := ev.RPG.Store.ExportJSON(ctx, ev.RPG.Config)
		if err != nil {
			return nil, err
		}
		if err := graph.SaveDocument(ctx, nil, opts.OutputPath, doc); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// deleteNode implements §4.9 step 3: idempotent removal plus ancestor
// pruning when a Functional parent's child count drops to zero.
func (ev *Evolver) deleteNode(ctx context.Context, id string) (int, error) {
	node, err := ev.RPG.Store.GetNode(ctx, id)
	if err != nil {
		if rpgerr.CodeOf(err) == rpgerr.CodeNotFound {
			return 0, nil
		}
		return 0, err
	}
	parent, err := ev.RPG.Store.GetParent(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := ev.RPG.Store.RemoveNode(ctx, node.ID); err != nil {
		return 0, err
	}

	pruned := 0
	for parent != nil {
		children, err := ev.RPG.Store.GetChildren(ctx, parent.ID)
		if err != nil {
			return pruned, err
		}
		if len(children) > 0 {
			break
		}
		next, err := ev.RPG.Store.GetParent(ctx, parent.ID)
		if err != nil {
			return pruned, err
		}
		if err := ev.RPG.Store.RemoveNode(ctx, parent.ID); err != nil {
			return pruned, err
		}
		pruned++
		parent = next
	}
	return pruned, nil
}

// processModification implements §4.9 step 4: re-extract, compute semantic
// distance, and either reroute (delete+insert) or update in place.
func (ev *Evolver) processModification(ctx context.Context, m entityChange, opts Options) (rerouted bool, err error) {
	oldNode, err := ev.RPG.Store.GetNode(ctx, m.id)
	if err != nil && rpgerr.CodeOf(err) != rpgerr.CodeNotFound {
		return false, err
	}
	newFeature, err := ev.Extractor.Extract(ctx, m.file, *m.newEnt)
	if err != nil {
		return false, err
	}

	var distance float64
	if oldNode != nil {
		distance, err = ev.semanticDistance(ctx, oldNode.Feature, newFeature)
		if err != nil {
			if rpgerr.CodeOf(err) != rpgerr.CodeDriftUnavailable {
				return false, err
			}
			rlog.Named("evolve").Warn("drift unavailable, updating in place", "id", m.id)
			distance = 0
		}
	}

	if distance > opts.DriftThreshold {
		// The old node is removed without ancestor pruning: its file is still
		// present, and its file node is the anchor insertNode reattaches to.
		if err := ev.RPG.Store.RemoveNode(ctx, m.id); err != nil {
			return false, err
		}
		ins := entityChange{id: entityID(m.file, *m.newEnt), file: m.file, kind: changeInsert, newEnt: m.newEnt}
		if err := ev.insertNode(ctx, ins, opts); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := ev.RPG.Store.UpdateNode(ctx, m.id, graph.NodePatch{Feature: &newFeature}); err != nil {
		return false, err
	}
	return false, nil
}

// insertNode implements §4.9 step 5: extract, route, create, and attach to
// the best-matching parent. Dependency edges for the new entity are added
// by reinjectFiles once every insert has landed.
func (ev *Evolver) insertNode(ctx context.Context, ins entityChange, opts Options) error {
	feature, err := ev.Extractor.Extract(ctx, ins.file, *ins.newEnt)
	if err != nil {
		return err
	}

	parentID := ev.RPG.Config.Name
	fileID := inject.FileNodeID(ins.file)
	if _, err := ev.RPG.Store.GetNode(ctx, fileID); err == nil {
		parentID = fileID
	} else if ev.Router != nil {
		parentID, err = ev.Router.FindBestParent(ctx, feature, ev.RPG.Config.Name)
		if err != nil {
			return err
		}
	}

	lang, _ := ast.DetectLanguage(ins.file)
	if _, err := ev.RPG.AddLowLevelNode(ctx, rpg.LowLevelArgs{
		ID:      ins.id,
		Feature: feature,
		Metadata: graph.StructuralMetadata{
			EntityType:    entityKindOf(*ins.newEnt),
			Path:          ins.file,
			QualifiedName: ins.newEnt.QualifiedName,
			Language:      lang,
			StartLine:     ins.newEnt.StartLine,
			EndLine:       ins.newEnt.EndLine,
		},
	}); err != nil {
		return err
	}
	return ev.RPG.AddFunctionalEdge(ctx, rpg.FunctionalEdgeArgs{Source: parentID, Target: ins.id})
}

// ensureFileNode creates the file-level LowLevel node for an added file so
// its inserted entities and re-injected dependency edges have an anchor
// (§3: one LowLevel node per file). The file feature is synthesized from
// the new entities' features; routing follows the same Router-or-root
// policy insertNode uses.
func (ev *Evolver) ensureFileNode(ctx context.Context, file string, entities []ast.CodeEntity) error {
	fileID := inject.FileNodeID(file)
	if _, err := ev.RPG.Store.GetNode(ctx, fileID); err == nil {
		return nil
	}

	var childFeatures []graph.SemanticFeature
	for _, e := range entities {
		f, err := ev.Extractor.Extract(ctx, file, e)
		if err != nil {
			return err
		}
		childFeatures = append(childFeatures, f)
	}
	feature := ev.Extractor.AggregateFileFeatures(childFeatures, path.Base(file), file)

	lang, _ := ast.DetectLanguage(file)
	if _, err := ev.RPG.AddLowLevelNode(ctx, rpg.LowLevelArgs{
		ID:      fileID,
		Feature: feature,
		Metadata: graph.StructuralMetadata{
			EntityType: graph.EntityFile,
			Path:       file,
			Language:   lang,
		},
	}); err != nil {
		return err
	}

	parentID := ev.RPG.Config.Name
	if ev.Router != nil {
		routed, err := ev.Router.FindBestParent(ctx, feature, ev.RPG.Config.Name)
		if err != nil {
			return err
		}
		parentID = routed
	}
	if _, err := ev.RPG.Store.GetNode(ctx, parentID); err != nil {
		// no hierarchy root to attach under; the file node stays a forest root
		return nil
	}
	return ev.RPG.AddFunctionalEdge(ctx, rpg.FunctionalEdgeArgs{Source: parentID, Target: fileID})
}

// entityKindOf maps an AST entity kind onto the node-level EntityKind the
// same way the Encoder's id scheme does.
func entityKindOf(e ast.CodeEntity) graph.EntityKind {
	switch e.Kind {
	case ast.KindClass:
		return graph.EntityClass
	case ast.KindMethod:
		return graph.EntityMethod
	default:
		return graph.EntityFunction
	}
}

// semanticDistance is §4.9 step 4's `1 - cosineSimilarity(embed(old),
// embed(new))` with a Jaccard-keyword fallback when embeddings are
// unavailable. When neither path has data to compare it returns a
// DriftUnavailable error; the caller downgrades to an in-place update.
func (ev *Evolver) semanticDistance(ctx context.Context, old, new_ graph.SemanticFeature) (float64, error) {
	if ev.Embedder != nil {
		vectors, err := ev.Embedder.Embed(ctx, []string{old.Description, new_.Description})
		if err == nil && len(vectors) == 2 {
			return 1 - reorg.CosineSimilarity(vectors[0], vectors[1]), nil
		}
	}
	if len(old.Keywords) == 0 && len(new_.Keywords) == 0 {
		return 0, rpgerr.DriftUnavailable("no embeddings or keyword sets for %s", new_.Description)
	}
	return 1 - jaccard(old.Keywords, new_.Keywords), nil
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	setA := map[string]bool{}
	for _, k := range a {
		setA[k] = true
	}
	setB := map[string]bool{}
	for _, k := range b {
		setB[k] = true
	}
	inter := 0
	for k := range setA {
		if setB[k] {
			inter++
		}
	}
	union := len(setA)
	for k := range setB {
		if !setA[k] {
			union++
		}
	}
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

// reinjectFiles re-runs the file-scoped slice of the Dependency Injector
// (§4.9 step 5) over every delta file that still has content, resolving
// imports and call targets against the file set already present in the
// graph.
func (ev *Evolver) reinjectFiles(ctx context.Context, changes []vcs.FileChange) error {
	var parsed []inject.ParsedFile
	for _, fc := range changes {
		if len(fc.NewContent) == 0 {
			continue
		}
		lang, ok := ast.DetectLanguage(fc.File)
		if !ok {
			continue
		}
		parser, ok := ev.Factory.Get(lang)
		if !ok {
			continue
		}
		result := parser.Parse(fc.NewContent, fc.File)
		parsed = append(parsed, inject.ParsedFile{
			Path: fc.File, Language: lang, Source: fc.NewContent,
			Entities: result.Entities, Imports: result.Imports,
		})
	}
	if len(parsed) == 0 {
		return nil
	}

	known, err := ev.knownFilePaths(ctx)
	if err != nil {
		return err
	}
	injector := ev.Injector
	if injector == nil {
		injector = inject.New(ev.RPG, ev.Factory)
	}
	return injector.RunScoped(ctx, parsed, known)
}

// knownFilePaths lists the paths of every file-level LowLevel node already
// in the graph.
func (ev *Evolver) knownFilePaths(ctx context.Context) ([]string, error) {
	nodes, err := ev.RPG.Store.GetNodes(ctx, graph.NodeFilter{Kind: graph.LowLevel, HasKind: true})
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, n := range nodes {
		if n.Metadata != nil && n.Metadata.EntityType == graph.EntityFile {
			paths = append(paths, n.Metadata.Path)
		}
	}
	return paths, nil
}

// parseEntities parses source through the AST Surface for path, returning
// the node-eligible entities; an empty source (the side of a status where
// content doesn't apply) yields no entities.
func (ev *Evolver) parseEntities(path string, source []byte) ([]ast.CodeEntity, error) {
	if len(source) == 0 {
		return nil, nil
	}
	lang, ok := ast.DetectLanguage(path)
	if !ok {
		return nil, nil
	}
	parser, ok := ev.Factory.Get(lang)
	if !ok {
		return nil, nil
	}
	result := parser.Parse(source, path)
	return encode.FilterNodeEntities(result.Entities), nil
}

func entityID(filePath string, e ast.CodeEntity) string {
	return filePath + ":" + string(e.Kind) + ":" + e.QualifiedName
}

func sortChanges(changes []entityChange) {
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].file != changes[j].file {
			return changes[i].file < changes[j].file
		}
		return lineOf(changes[i]) < lineOf(changes[j])
	})
}

func lineOf(c entityChange) int {
	if c.newEnt != nil {
		return c.newEnt.StartLine
	}
	if c.oldEnt != nil {
		return c.oldEnt.StartLine
	}
	return 0
}
